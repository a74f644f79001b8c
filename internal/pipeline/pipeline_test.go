package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rogpeppe/go-internal/lockedfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/archivist/internal/config"
	"github.com/backmassage/archivist/internal/engine"
	"github.com/backmassage/archivist/internal/journal"
)

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingLogger) add(level, f string, a ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, level+" "+fmt.Sprintf(f, a...))
}
func (r *recordingLogger) Info(f string, a ...interface{})    { r.add("INFO", f, a...) }
func (r *recordingLogger) Success(f string, a ...interface{}) { r.add("SUCCESS", f, a...) }
func (r *recordingLogger) Warn(f string, a ...interface{})    { r.add("WARN", f, a...) }
func (r *recordingLogger) Error(f string, a ...interface{})   { r.add("ERROR", f, a...) }
func (r *recordingLogger) Debug(f string, a ...interface{})   { r.add("DEBUG", f, a...) }
func (r *recordingLogger) Rule(f string, a ...interface{})    { r.add("RULE", f, a...) }

func (r *recordingLogger) has(sub string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lines {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

// touch creates an empty-ish file at dir/name.
func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(name), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

const rulesYAML = `
rules:
  - name: receipts
    src: inbox/*.pdf
    match:
      - test: tags
        any: [RCPT]
    run:
      - action: normalize-file
      - action: move
        dest: archive
      - action: folders-by-year
  - name: disabled
    enabled: false
    src: inbox/*
    run:
      - action: move
        dest: elsewhere
  - name: broken
    src: inbox/*.txt
    run:
      - action: teleport
`

func setup(t *testing.T) (string, config.Config) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules.yaml"), []byte(rulesYAML), 0o644))
	cfg := config.DefaultConfig()
	cfg.RulesPath = filepath.Join(dir, "rules.yaml")
	cfg.JournalPath = filepath.Join(dir, "state", "journal.db")
	cfg.MetricsFile = filepath.Join(dir, "archivist.prom")
	return dir, cfg
}

func TestRun_AppliesEnabledRulesInOrder(t *testing.T) {
	dir, cfg := setup(t)
	touch(t, dir, "inbox/2024-03-07 - Acme  -  RCPT - Lunch.pdf")
	touch(t, dir, "inbox/notes.txt")
	touch(t, dir, "inbox/scan.pdf")

	log := &recordingLogger{}
	r, err := New(&cfg, log)
	require.NoError(t, err)
	defer r.Close()

	stats := r.Run(context.Background())

	assert.Equal(t, 2, stats.Rules)
	assert.Equal(t, 1, stats.Disabled)
	assert.Equal(t, 3, stats.Totals.Matched)
	assert.Equal(t, 1, stats.Totals.Completed)
	assert.Equal(t, 1, stats.Totals.Failures, "unknown action counts as a failure")
	assert.Equal(t, ExitFailure, stats.ExitCode(false))
	assert.FileExists(t, filepath.Join(dir, "archive", "2024", "2024-03-07 - Acme - RCPT - Lunch.pdf"))
	assert.FileExists(t, filepath.Join(dir, "inbox", "scan.pdf"))
	assert.FileExists(t, filepath.Join(dir, "inbox", "notes.txt"))
	assert.NoDirExists(t, filepath.Join(dir, "elsewhere"))
	assert.True(t, log.has("RULE Rule: receipts"))
	assert.True(t, log.has("Action not defined"))

	require.NotEmpty(t, stats.RunID)
	store, err := journal.Open(cfg.JournalPath)
	require.NoError(t, err)
	defer store.Close()
	entries, err := store.Entries(journal.Query{RunID: stats.RunID})
	require.NoError(t, err)
	assert.Len(t, entries, 3, "normalize, move and folders-by-year each record a move")

	prom, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `archivist_files_passed_total{rule="receipts"} 1`)
	assert.FileExists(t, LockPath(cfg.RulesPath))
}

func TestRun_WaitsForLockHolder(t *testing.T) {
	dir, cfg := setup(t)
	touch(t, dir, "inbox/2024-03-07 - Acme - RCPT - Lunch.pdf")

	unlock, err := lockedfile.MutexAt(LockPath(cfg.RulesPath)).Lock()
	require.NoError(t, err)

	r, err := New(&cfg, &recordingLogger{})
	require.NoError(t, err)
	defer r.Close()

	done := make(chan RunStats, 1)
	go func() { done <- r.Run(context.Background()) }()

	select {
	case <-done:
		t.Fatal("pass ran while another holder had the lock")
	case <-time.After(100 * time.Millisecond):
	}
	unlock()

	select {
	case stats := <-done:
		assert.Equal(t, 1, stats.Totals.Completed)
	case <-time.After(5 * time.Second):
		t.Fatal("pass did not start after the lock was released")
	}
}

func TestLockPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/home/tester/.archivist", ".rules.yaml.lock"),
		LockPath("/home/tester/.archivist/rules.yaml"))
}

func TestRun_DryRunChangesNothing(t *testing.T) {
	dir, cfg := setup(t)
	cfg.DryRun = true
	src := touch(t, dir, "inbox/2024-03-07 - Acme - RCPT - Lunch.pdf")

	log := &recordingLogger{}
	r, err := New(&cfg, log)
	require.NoError(t, err)
	defer r.Close()

	stats := r.Run(context.Background())
	assert.Equal(t, 1, stats.Totals.Completed)
	assert.Empty(t, stats.RunID)
	assert.FileExists(t, src)
	assert.NoDirExists(t, filepath.Join(dir, "archive"))
	assert.NoFileExists(t, cfg.JournalPath)
	assert.NoFileExists(t, LockPath(cfg.RulesPath))
	assert.True(t, log.has("DRY RUN"))
	assert.True(t, log.has("[DRY] Would move"))
}

func TestRun_StopsWhenCancelled(t *testing.T) {
	dir, cfg := setup(t)
	cfg.JournalPath = ""
	touch(t, dir, "inbox/2024 - RCPT - a.pdf")

	r, err := New(&cfg, &recordingLogger{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats := r.Run(ctx)
	assert.True(t, stats.Totals.Interrupted)
	assert.Zero(t, stats.Rules)
}

func TestNew_MissingRules(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RulesPath = filepath.Join(t.TempDir(), "nope.yaml")
	_, err := New(&cfg, &recordingLogger{})
	assert.Error(t, err)
}

func TestWatchDirs(t *testing.T) {
	dir, cfg := setup(t)
	r, err := New(&cfg, &recordingLogger{})
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, []string{filepath.Join(dir, "inbox")}, r.WatchDirs())
	assert.Len(t, r.Rules(), 3)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		totals engine.RuleStats
		strict bool
		want   int
	}{
		{"clean", engine.RuleStats{Completed: 3}, false, ExitOK},
		{"collision only", engine.RuleStats{Aborted: 1, Collisions: 1}, false, ExitOK},
		{"collision strict", engine.RuleStats{Aborted: 1, Collisions: 1}, true, ExitFailure},
		{"failure", engine.RuleStats{Failures: 1}, false, ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := RunStats{Totals: tt.totals}
			assert.Equal(t, tt.want, s.ExitCode(tt.strict))
		})
	}
}
