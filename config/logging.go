package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kilianp07/solarsim/core/runlog"
)

// LoggingConfig defines the log level and the per-tick run log storage.
type LoggingConfig struct {
	// Level is a zerolog level name. Empty falls back to LOG_LEVEL.
	Level string `json:"level" yaml:"level"`
	// RunLog selects the tick record store: "jsonl", "jsonl_rotating",
	// "sqlite" or empty for none.
	RunLog runlog.Config `json:"runlog" yaml:"runlog"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.RunLog.Backend != runlog.BackendNone && c.RunLog.Path == "" {
		switch c.RunLog.Backend {
		case runlog.BackendSQLite:
			c.RunLog.Path = "ticks.db"
		default:
			c.RunLog.Path = "ticks.jsonl"
		}
	}
	if c.RunLog.Backend == runlog.BackendRotating {
		if c.RunLog.MaxSizeMB == 0 {
			c.RunLog.MaxSizeMB = 10
		}
		if c.RunLog.MaxBackups == 0 {
			c.RunLog.MaxBackups = 3
		}
	}
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	if c.Level != "" {
		if _, err := zerolog.ParseLevel(c.Level); err != nil {
			return fmt.Errorf("level: %w", err)
		}
	}
	switch c.RunLog.Backend {
	case runlog.BackendNone, runlog.BackendJSONL, runlog.BackendRotating, runlog.BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %s", c.RunLog.Backend)
	}
	if c.RunLog.Backend != runlog.BackendNone && c.RunLog.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}
