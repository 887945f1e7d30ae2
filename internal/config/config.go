// Package config handles configuration loading and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Default values.
const (
	DefaultRoot             = "~/Documents/journal"
	DefaultHeading          = "# Rolled Over"
	DefaultStalenessSeconds = 30
	DefaultWaitSeconds      = 5
	DefaultBatchSize        = 64
)

// Config holds the full configuration for calmdown.
type Config struct {
	// Root is the directory holding the dated markdown notes.
	Root string `toml:"root"`

	// Heading is the section rolled-over tasks are filed under.
	Heading string `toml:"heading"`

	// Scan cache bounds.
	StalenessSeconds int `toml:"staleness_seconds"`
	WaitSeconds      int `toml:"wait_seconds"`
	BatchSize        int `toml:"batch_size"`

	// IndexFile is the sqlite file mirroring scan entries between runs.
	// Empty disables persistence.
	IndexFile string `toml:"index_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
}

// Load reads configuration in priority order: defaults, then the TOML config
// file, then environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if path := findConfigFile(); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	loadFromEnv(cfg)

	cfg.Root = ExpandPath(cfg.Root)
	cfg.IndexFile = ExpandPath(cfg.IndexFile)
	return cfg, nil
}

// Staleness returns the staleness window as a duration.
func (c *Config) Staleness() time.Duration {
	return time.Duration(c.StalenessSeconds) * time.Second
}

// WaitTimeout returns the in-flight wait bound as a duration.
func (c *Config) WaitTimeout() time.Duration {
	return time.Duration(c.WaitSeconds) * time.Second
}

func setDefaults(cfg *Config) {
	cfg.Root = DefaultRoot
	cfg.Heading = DefaultHeading
	cfg.StalenessSeconds = DefaultStalenessSeconds
	cfg.WaitSeconds = DefaultWaitSeconds
	cfg.BatchSize = DefaultBatchSize
	cfg.IndexFile = "~/.cache/calmdown/index.db"
	cfg.LogLevel = "warn"
}

// findConfigFile looks for calmdown.toml under the user config directory,
// then the working directory.
func findConfigFile() string {
	if dir, err := os.UserConfigDir(); err == nil {
		path := filepath.Join(dir, "calmdown", "config.toml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	for _, name := range []string{"calmdown.toml", ".calmdown.toml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("CALMDOWN_ROOT"); v != "" {
		cfg.Root = v
	}
	if v := os.Getenv("CALMDOWN_HEADING"); v != "" {
		cfg.Heading = v
	}
	if v := os.Getenv("CALMDOWN_INDEX"); v != "" {
		cfg.IndexFile = v
	}
	if v := os.Getenv("CALMDOWN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CALMDOWN_STALENESS"); v != "" {
		if i, err := parseSeconds(v); err == nil {
			cfg.StalenessSeconds = i
		}
	}
}

func parseSeconds(s string) (int, error) {
	var i int
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &i)
	return i, err
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	if p == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return home
	}
	return p
}
