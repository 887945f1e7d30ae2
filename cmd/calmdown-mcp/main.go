package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/NathanJKW/calmdown/internal/adapters/filesystem"
	mcpadapter "github.com/NathanJKW/calmdown/internal/adapters/mcp"
	"github.com/NathanJKW/calmdown/internal/adapters/sqlite"
	"github.com/NathanJKW/calmdown/internal/application/commands"
	"github.com/NathanJKW/calmdown/internal/config"
	"github.com/NathanJKW/calmdown/internal/logging"
	"github.com/NathanJKW/calmdown/internal/scancache"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("calmdown-mcp: %v", err)
	}

	rootFlag := flag.String("root", cfg.Root, "journal root directory")
	flag.Parse()
	cfg.Root = config.ExpandPath(*rootFlag)

	logger := logging.New(cfg.LogLevel)
	store := filesystem.NewStore(cfg.Root)
	daily := filesystem.NewDaily(store)

	opts := []scancache.Option{
		scancache.WithLogger(logger),
		scancache.WithOptions(scancache.Options{
			Staleness:   cfg.Staleness(),
			WaitTimeout: cfg.WaitTimeout(),
			BatchSize:   cfg.BatchSize,
		}),
	}
	if cfg.IndexFile != "" {
		if index, err := sqlite.Open(cfg.IndexFile, cfg.Root); err == nil {
			defer index.Close()
			opts = append(opts, scancache.WithEntryStore(index))
		} else {
			logger.Warn("index database unavailable", "err", err)
		}
	}
	cache := scancache.New(store, opts...)

	list := commands.NewListTasksCommand(cache, time.Now)
	toggle := commands.NewToggleCommand(cache, store, time.Now)
	rollover := commands.NewRolloverCommand(cache, store, daily, logging.NewNotifier(logger), time.Now, cfg.Heading)

	mcpServer := server.NewMCPServer(
		"calmdown-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check — returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, list, store, daily, time.Now)
	mcpadapter.RegisterWriteTools(mcpServer, toggle, rollover)

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("calmdown-mcp: %v", err)
	}
}
