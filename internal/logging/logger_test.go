package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/archivist/internal/config"
	"github.com/backmassage/archivist/internal/term"
)

func newBufferLogger(t *testing.T, verbose bool) (*Logger, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	cfg.Verbose = verbose
	l, err := NewLogger(&cfg)
	require.NoError(t, err)
	var out, errOut bytes.Buffer
	l.out, l.errOut = &out, &errOut
	l.now = func() time.Time { return time.Date(2024, 3, 7, 9, 30, 0, 0, time.Local) }
	return l, &out, &errOut
}

func TestNewLogger_NoFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogFile = ""
	l, err := NewLogger(&cfg)
	require.NoError(t, err)
	defer l.Close()
	l.Info("test message")
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorAlways
	cfg.LogFile = filepath.Join(dir, "logs", "archivist.log")
	l, err := NewLogger(&cfg)
	require.NoError(t, err)
	l.out = &bytes.Buffer{}
	t.Cleanup(func() { term.Configure(config.ColorNever) })
	l.Info("to file")
	require.NoError(t, l.Close())

	b, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), "[INFO] to file")
	assert.NotContains(t, string(b), "\033[", "log file must stay uncolored")
}

func TestLevelsAndStreams(t *testing.T) {
	l, out, errOut := newBufferLogger(t, false)
	l.Info("i %d", 1)
	l.Success("s")
	l.Warn("w")
	l.Rule("Rule: %s", "receipts")
	l.Error("e")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"2024-03-07 09:30:00 [INFO] i 1",
		"2024-03-07 09:30:00 [SUCCESS] s",
		"2024-03-07 09:30:00 [WARN] w",
		"2024-03-07 09:30:00 [RULE] Rule: receipts",
	}, lines)
	assert.Equal(t, "2024-03-07 09:30:00 [ERROR] e\n", errOut.String())
}

func TestDebugOnlyWhenVerbose(t *testing.T) {
	quiet, out, _ := newBufferLogger(t, false)
	quiet.Debug("hidden")
	assert.Empty(t, out.String())
	assert.False(t, quiet.Verbose())

	loud, out, _ := newBufferLogger(t, true)
	loud.Debug("shown")
	assert.Contains(t, out.String(), "[DEBUG] shown")
}

func TestColoredActionLine(t *testing.T) {
	l, out, _ := newBufferLogger(t, false)
	t.Cleanup(func() { term.Configure(config.ColorNever) })
	term.Configure(config.ColorAlways)

	l.Info("  MOVE: /archive/a.pdf")
	l.Rule("Rule: receipts")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], term.Blue+"[INFO]"+term.NC)
	assert.Contains(t, lines[0], "  "+term.Bold+"MOVE:"+term.NC+" /archive/a.pdf")
	assert.Contains(t, lines[1], term.Magenta+"[RULE]"+term.NC+" Rule: receipts")
}
