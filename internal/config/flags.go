package config

// This file binds Config to pflag flags. Negated flags (--no-color,
// --no-journal) are applied by the returned finalize func after parsing,
// so defaults hold unless the user passes the flag.

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Version is shown by --version; override at build time with
// -ldflags "-X github.com/backmassage/archivist/internal/config.Version=...".
var Version = "0.3.0-dev"

// negatedFlags holds boolean flags that are applied after Parse.
type negatedFlags struct {
	forceColor bool
	noColor    bool
	noJournal  bool
}

// BindFlags registers the persistent flags on fs, writing into cfg. Call
// the returned func once parsing is done to apply negated flags.
func BindFlags(fs *pflag.FlagSet, cfg *Config) (finalize func()) {
	var n negatedFlags

	fs.StringVarP(&cfg.RulesPath, "rules", "r", cfg.RulesPath, "Rule file (YAML)")
	fs.BoolVarP(&cfg.DryRun, "dry-run", "d", cfg.DryRun, "Preview only; do not move or copy files")
	fs.BoolVar(&cfg.StrictExit, "strict-exit", cfg.StrictExit, "Exit non-zero on destination collisions too")

	fs.StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "SQLite journal of completed operations")
	fs.BoolVar(&n.noJournal, "no-journal", false, "Do not record operations")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "Write Prometheus metrics to this textfile after each run")
	fs.DurationVar(&cfg.Debounce, "debounce", cfg.Debounce, "Quiet period before a watch-triggered run")

	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")
	fs.Var(&colorModeValue{&cfg.ColorMode}, "color-mode", "Color output: auto | always | never")
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.StringVarP(&cfg.LogFile, "log", "l", cfg.LogFile, "Append logs to file")

	return func() { applyNegatedFlags(cfg, &n) }
}

// applyNegatedFlags copies negated and override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noJournal {
		cfg.JournalPath = ""
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// pflag.Value adapter for the ColorMode enum.

type colorModeValue struct{ p *ColorMode }

func (c *colorModeValue) String() string { return string(*c.p) }
func (c *colorModeValue) Type() string   { return "mode" }
func (c *colorModeValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "auto":
		*c.p = ColorAuto
	case "always":
		*c.p = ColorAlways
	case "never":
		*c.p = ColorNever
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", s)
	}
	return nil
}
