package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/NathanJKW/calmdown/internal/adapters/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the journal and keep the task index warm",
	Long: `Watch the journal root for note changes and invalidate cached scan
results as files are written, so the next listing is both fresh and cheap.
Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		w, err := watcher.New(cfg.Root, cache, logger)
		if err != nil {
			return err
		}
		defer w.Close()

		// Prime the cache before settling into event-driven updates.
		if _, err := cache.OpenTasks(ctx); err != nil {
			logger.Warn("initial scan failed", "err", err)
		}
		stats := cache.Stats()
		logger.Info("watching", "root", cfg.Root, "files", stats.Files, "open", stats.Open)
		err = w.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
