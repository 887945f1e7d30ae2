package main

import "github.com/NathanJKW/calmdown/cmd/calmdown/cmd"

func main() {
	cmd.Execute()
}
