package app

import (
	"errors"
	"fmt"
	"time"
)

// DefaultDebounce is how long watch mode waits for edits to settle.
const DefaultDebounce = 500 * time.Millisecond

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	TreePaths []string // tree files or directories

	LogFormat string
	LogLevel  string
	Workers   int

	Naming      string
	ColorScheme string
	ImageWidth  int
	ImageHeight int

	SettingsFile    string // empty means the per-user default
	NoInput         bool
	ConfirmDefaults bool

	DryRun    bool
	Strict    bool
	Telemetry bool
	Debounce  time.Duration
}

// NewConfig validates cfg and fills defaults.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.TreePaths) == 0 {
		return nil, errors.New("at least one tree path is required")
	}
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("invalid workers %d: must not be negative", cfg.Workers)
	}
	if cfg.ImageWidth < 0 || cfg.ImageHeight < 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", cfg.ImageWidth, cfg.ImageHeight)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &cfg, nil
}
