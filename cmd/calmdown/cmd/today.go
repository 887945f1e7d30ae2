package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NathanJKW/calmdown/internal/adapters/editor"
	"github.com/NathanJKW/calmdown/internal/domain"
)

var editFlag bool

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Print the path of today's daily note, creating it if missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := daily.Ensure(domain.DateOf(now()))
		if err != nil {
			return err
		}
		if editFlag {
			return editor.NewOpener(cfg.Root).OpenFile(path, 0)
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	todayCmd.Flags().BoolVarP(&editFlag, "edit", "e", false, "open the note in $EDITOR")
	rootCmd.AddCommand(todayCmd)
}
