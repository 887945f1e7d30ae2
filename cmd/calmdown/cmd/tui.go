package cmd

import (
	"github.com/spf13/cobra"

	"github.com/NathanJKW/calmdown/internal/adapters/tui"
	"github.com/NathanJKW/calmdown/internal/application/commands"
	"github.com/NathanJKW/calmdown/internal/logging"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse open tasks interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		list := commands.NewListTasksCommand(cache, now)
		toggle := commands.NewToggleCommand(cache, store, now)
		roll := commands.NewRolloverCommand(cache, store, daily, logging.NewNotifier(logger), now, cfg.Heading)
		return tui.Run(list, toggle, roll)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
