package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/NathanJKW/calmdown/internal/application/commands"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle <path> <line>",
	Short: "Toggle the task state of a note line",
	Long: `Toggle one line of a note. An open task completes, a completed task
reopens with its original date, plain text becomes a fresh task due today.
Lines are one-based, paths are relative to the journal root.

Examples:
  calmdown toggle 2026/W35/2026-08-29.md 7`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := strconv.Atoi(args[1])
		if err != nil || line < 1 {
			return fmt.Errorf("line must be a positive number, got %q", args[1])
		}

		toggle := commands.NewToggleCommand(cache, store, now)
		result, err := toggle.Execute(args[0], line-1)
		if err != nil {
			return err
		}
		if result.Old == result.New {
			fmt.Printf("no change: %s\n", result.Old)
			return nil
		}
		fmt.Printf("%s:%d\n- %s\n+ %s\n", result.Path, result.Line+1, result.Old, result.New)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toggleCmd)
}
