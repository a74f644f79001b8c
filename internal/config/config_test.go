package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) Config {
	t.Helper()
	cfg := DefaultConfig()
	fs := pflag.NewFlagSet("archivist", pflag.ContinueOnError)
	finalize := BindFlags(fs, &cfg)
	require.NoError(t, fs.Parse(args))
	finalize()
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := parse(t)
	assert.Equal(t, DefaultRulesPath, cfg.RulesPath)
	assert.Equal(t, DefaultJournalPath, cfg.JournalPath)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
	assert.Equal(t, ColorAuto, cfg.ColorMode)
	assert.False(t, cfg.DryRun)
	assert.False(t, cfg.StrictExit)
}

func TestBindFlags(t *testing.T) {
	cfg := parse(t, "-r", "/etc/rules.yaml", "-d", "-v", "--strict-exit",
		"--metrics-file", "/tmp/a.prom", "--debounce", "2s", "-l", "/tmp/a.log")
	assert.Equal(t, "/etc/rules.yaml", cfg.RulesPath)
	assert.True(t, cfg.DryRun)
	assert.True(t, cfg.Verbose)
	assert.True(t, cfg.StrictExit)
	assert.Equal(t, "/tmp/a.prom", cfg.MetricsFile)
	assert.Equal(t, 2*time.Second, cfg.Debounce)
	assert.Equal(t, "/tmp/a.log", cfg.LogFile)
}

func TestNegatedFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		color ColorMode
	}{
		{"default", nil, ColorAuto},
		{"color", []string{"--color"}, ColorAlways},
		{"no-color", []string{"--no-color"}, ColorNever},
		{"no-color wins", []string{"--color", "--no-color"}, ColorNever},
		{"explicit mode", []string{"--color-mode", "NEVER"}, ColorNever},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.color, parse(t, tt.args...).ColorMode)
		})
	}

	assert.Empty(t, parse(t, "--no-journal").JournalPath)
}

func TestColorModeRejectsUnknown(t *testing.T) {
	cfg := DefaultConfig()
	fs := pflag.NewFlagSet("archivist", pflag.ContinueOnError)
	BindFlags(fs, &cfg)
	assert.Error(t, fs.Parse([]string{"--color-mode", "rainbow"}))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad color", func(c *Config) { c.ColorMode = "rainbow" }, true},
		{"negative debounce", func(c *Config) { c.Debounce = -time.Second }, true},
		{"no rules", func(c *Config) { c.RulesPath = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "Validate() error = %v", err)
		})
	}
}

func TestValidate_ExpandsPaths(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	cfg := DefaultConfig()
	cfg.LogFile = "logs/run.log"
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/home/tester/.archivist/rules.yaml", cfg.RulesPath)
	assert.Equal(t, "/home/tester/.archivist/journal.db", cfg.JournalPath)
	assert.True(t, filepath.IsAbs(cfg.LogFile))
	assert.Empty(t, cfg.MetricsFile)
}
