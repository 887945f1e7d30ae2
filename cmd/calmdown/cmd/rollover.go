package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NathanJKW/calmdown/internal/application"
	"github.com/NathanJKW/calmdown/internal/application/commands"
	"github.com/NathanJKW/calmdown/internal/logging"
)

var headingFlag string

var rolloverCmd = &cobra.Command{
	Use:   "rollover",
	Short: "Roll unfinished past-due tasks into today's note",
	Long: `Collect every open task due today or earlier, append it under a
heading in today's daily note, and mark the original lines ROLLED.

The target note is created if it does not exist. If some source files fail
to update, the successful writes are kept and the failures reported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		heading := cfg.Heading
		if headingFlag != "" {
			heading = headingFlag
		}

		roll := commands.NewRolloverCommand(cache, store, daily, logging.NewNotifier(logger), now, heading)
		result, err := roll.Execute(cmd.Context())
		if err != nil && !errors.Is(err, application.ErrPartialRoll) {
			return err
		}

		if result.Rolled == 0 {
			fmt.Println("nothing due to roll over")
			return err
		}
		fmt.Printf("rolled %d tasks into %s\n", result.Rolled, result.Target)
		if result.Stale > 0 {
			fmt.Printf("left %d changed lines untouched\n", result.Stale)
		}
		if result.Skipped > 0 {
			fmt.Printf("skipped %d tasks with unparsable due dates\n", result.Skipped)
		}
		for _, f := range result.Failed {
			fmt.Printf("failed: %s: %v\n", f.Path, f.Err)
		}
		return err
	},
}

func init() {
	rolloverCmd.Flags().StringVar(&headingFlag, "heading", "", "section heading for rolled tasks (overrides config)")
	rootCmd.AddCommand(rolloverCmd)
}
