package cmd

import (
	"fmt"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/NathanJKW/calmdown/internal/adapters/filesystem"
	"github.com/NathanJKW/calmdown/internal/adapters/sqlite"
	"github.com/NathanJKW/calmdown/internal/application"
	"github.com/NathanJKW/calmdown/internal/config"
	"github.com/NathanJKW/calmdown/internal/logging"
	"github.com/NathanJKW/calmdown/internal/scancache"
)

var (
	rootFlag     string
	logLevelFlag string

	cfg    *config.Config
	logger *charmlog.Logger
	store  *filesystem.Store
	daily  *filesystem.Daily
	cache  *scancache.Cache
	index  *sqlite.EntryStore
)

var rootCmd = &cobra.Command{
	Use:   "calmdown",
	Short: "Task tracking for daily markdown journals",
	Long: `calmdown scans a directory of dated markdown notes for task markers
(-=TODO 1 2 260829=-buy milk), keeps an incremental cache of the open ones,
and rolls unfinished tasks forward into today's note.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if rootFlag != "" {
			cfg.Root = config.ExpandPath(rootFlag)
		}
		if logLevelFlag != "" {
			cfg.LogLevel = logLevelFlag
		}
		if cfg.Root == "" {
			return application.ErrNoRoot
		}
		logger = logging.New(cfg.LogLevel)

		store = filesystem.NewStore(cfg.Root)
		daily = filesystem.NewDaily(store)

		opts := []scancache.Option{
			scancache.WithLogger(logger),
			scancache.WithOptions(scancache.Options{
				Staleness:   cfg.Staleness(),
				WaitTimeout: cfg.WaitTimeout(),
				BatchSize:   cfg.BatchSize,
			}),
		}
		if cfg.IndexFile != "" {
			index, err = sqlite.Open(cfg.IndexFile, cfg.Root)
			if err != nil {
				logger.Warn("index database unavailable, scanning from scratch", "err", err)
			} else {
				opts = append(opts, scancache.WithEntryStore(index))
			}
		}
		cache = scancache.New(store, opts...)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if index != nil {
			index.Close()
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootFlag, "root", "r", "", "journal root directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error")
}

func now() time.Time { return time.Now() }
