package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/NathanJKW/calmdown/internal/application/commands"
)

var (
	dueOnlyFlag bool
	copyFlag    bool
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List open tasks across all notes",
	Long: `List every open task marker found in the journal, sorted by priority
(highest first) then due date (oldest first).

Examples:
  calmdown tasks
  calmdown tasks --due
  calmdown tasks --due --copy`,
	RunE: func(cmd *cobra.Command, args []string) error {
		list := commands.NewListTasksCommand(cache, now)
		tasks, err := list.Execute(cmd.Context(), dueOnlyFlag)
		if err != nil {
			return err
		}

		out := commands.FormatTasks(tasks)
		fmt.Print(out)

		if copyFlag {
			if err := clipboard.WriteAll(out); err != nil {
				return fmt.Errorf("copy to clipboard: %w", err)
			}
			logger.Info("copied task list to clipboard", "tasks", len(tasks))
		}
		return nil
	},
}

func init() {
	tasksCmd.Flags().BoolVar(&dueOnlyFlag, "due", false, "only tasks due today or earlier")
	tasksCmd.Flags().BoolVar(&copyFlag, "copy", false, "copy the listing to the clipboard")
	rootCmd.AddCommand(tasksCmd)
}
