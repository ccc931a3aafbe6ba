package runlog

import "fmt"

// Backends accepted by Open.
const (
	BackendNone     = ""
	BackendJSONL    = "jsonl"
	BackendRotating = "jsonl_rotating"
	BackendSQLite   = "sqlite"
)

// Config selects and configures a LogStore.
type Config struct {
	Backend    string `json:"backend" yaml:"backend"`
	Path       string `json:"path" yaml:"path"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
}

// Open returns the configured store, or nil when no backend is set.
func Open(cfg Config) (LogStore, error) {
	if cfg.Backend != BackendNone && cfg.Path == "" {
		return nil, fmt.Errorf("runlog %s: path required", cfg.Backend)
	}
	var (
		store LogStore
		err   error
	)
	switch cfg.Backend {
	case BackendNone:
		return nil, nil
	case BackendJSONL:
		store, err = NewJSONLStore(cfg.Path)
	case BackendRotating:
		store, err = NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case BackendSQLite:
		store, err = NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown runlog backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open runlog %s: %w", cfg.Backend, err)
	}
	return store, nil
}
