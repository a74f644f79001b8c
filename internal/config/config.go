// Package config holds runtime configuration: defaults, CLI flag binding,
// and validation.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Default locations, before ~ expansion.
const (
	DefaultRulesPath   = "~/.archivist/rules.yaml"
	DefaultJournalPath = "~/.archivist/journal.db"
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then by the flags bound in [BindFlags], and passed by pointer to the
// packages that need it.
type Config struct {
	// Inputs.
	RulesPath string // Default: ~/.archivist/rules.yaml.

	// Behavior.
	DryRun     bool
	StrictExit bool // Count collisions as failures for the exit code.

	// Persistence and telemetry.
	JournalPath string // Default: ~/.archivist/journal.db. Empty when disabled.
	MetricsFile string // Optional Prometheus textfile.

	// Watch mode.
	Debounce time.Duration // Default: 500ms.

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path.
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	return Config{
		RulesPath:   DefaultRulesPath,
		JournalPath: DefaultJournalPath,
		Debounce:    500 * time.Millisecond,
		ColorMode:   ColorAuto,
	}
}

// Validate checks enum fields and expands ~ in every path setting.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}
	if c.Debounce < 0 {
		return errors.New("debounce must not be negative")
	}
	if c.RulesPath == "" {
		return errors.New("need a rules file")
	}

	for _, p := range []*string{&c.RulesPath, &c.JournalPath, &c.MetricsFile, &c.LogFile} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// ExpandPath expands a leading ~ and makes path absolute. The empty string
// is returned unchanged.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	p, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return abs, nil
}
