// Package pipeline runs every enabled rule of a rule file through the
// engine and reports what happened. It owns the collaborators a pass needs:
// the filesystem (real or dry-run), the journal and the metrics textfile.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rogpeppe/go-internal/lockedfile"

	"github.com/backmassage/archivist/internal/config"
	"github.com/backmassage/archivist/internal/engine"
	"github.com/backmassage/archivist/internal/fsops"
	"github.com/backmassage/archivist/internal/glob"
	"github.com/backmassage/archivist/internal/journal"
	"github.com/backmassage/archivist/internal/metrics"
	"github.com/backmassage/archivist/internal/rules"
)

// Logger is the logging interface used by the runner.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(string, ...interface{})
	Rule(string, ...interface{})
}

// Runner executes passes over a loaded rule set. A Runner is reused by the
// watch and schedule commands; its passes must not overlap.
type Runner struct {
	cfg     *config.Config
	log     Logger
	rules   []rules.Rule
	fs      fsops.FS
	store   *journal.Store
	metrics *metrics.Collector
	lock    *lockedfile.Mutex
	now     func() time.Time
}

// LockPath returns the file that serializes passes over the rule file
// rulesPath across processes.
func LockPath(rulesPath string) string {
	return filepath.Join(filepath.Dir(rulesPath), "."+filepath.Base(rulesPath)+".lock")
}

// New loads the rule file named by cfg and opens the journal. Dry runs are
// not journaled.
func New(cfg *config.Config, log Logger) (*Runner, error) {
	rs, err := rules.Load(cfg.RulesPath)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:   cfg,
		log:   log,
		rules: rs,
		fs:    fsops.NewOS(log),
		now:   time.Now,
	}
	if cfg.DryRun {
		r.fs = fsops.NewDryRun(r.fs, log)
	} else {
		r.lock = lockedfile.MutexAt(LockPath(cfg.RulesPath))
	}
	if cfg.JournalPath != "" && !cfg.DryRun {
		store, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		r.store = store
	}
	if cfg.MetricsFile != "" {
		r.metrics = metrics.NewCollector(nil)
	}
	return r, nil
}

// Close releases the journal.
func (r *Runner) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}

// Rules returns the loaded rules in file order.
func (r *Runner) Rules() []rules.Rule { return r.rules }

// WatchDirs returns the static source directories of the enabled rules,
// without duplicates.
func (r *Runner) WatchDirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, rule := range r.rules {
		if !rule.Enabled {
			continue
		}
		base, err := glob.Base(rule.Src)
		if err != nil {
			r.log.Warn("Rule %q: %v", rule.Name, err)
			continue
		}
		if !seen[base] {
			seen[base] = true
			dirs = append(dirs, base)
		}
	}
	return dirs
}

// Run executes one pass: every enabled rule, in file order. ctx is checked
// between rules and, inside the engine, between files. A pass that mutates
// the filesystem waits for any pass another process is running over the
// same rule file.
func (r *Runner) Run(ctx context.Context) RunStats {
	if r.lock != nil {
		unlock, err := r.lock.Lock()
		if err != nil {
			r.log.Warn("Cannot lock %s: %v", r.lock.Path, err)
		} else {
			defer unlock()
		}
	}
	stats := RunStats{Started: r.now()}

	opts := []engine.Option{engine.WithNow(r.now)}
	var run *journal.Run
	if r.store != nil {
		var err error
		run, err = r.store.StartRun(r.cfg.RulesPath, r.cfg.DryRun, stats.Started)
		if err != nil {
			r.log.Warn("Journal unavailable for this run: %v", err)
		} else {
			stats.RunID = run.ID
			opts = append(opts, engine.WithJournal(run))
		}
	}
	if r.metrics != nil {
		opts = append(opts, engine.WithMetrics(r.metrics))
	}
	eng := engine.New(r.fs, r.log, opts...)

	logHeader(r.cfg, r.log, &stats, len(r.rules))
	for _, rule := range r.rules {
		if ctx.Err() != nil {
			stats.Totals.Interrupted = true
			r.log.Warn("Interrupted")
			break
		}
		if !rule.Enabled {
			stats.Disabled++
			r.log.Debug("Skipping disabled rule: %s", rule.Name)
			continue
		}
		stats.Rules++
		r.log.Rule("Rule: %s", rule.Name)
		rs := eng.Exec(ctx, rule)
		stats.Totals.Add(rs)
		if rs.Interrupted {
			break
		}
	}
	stats.Finished = r.now()

	if run != nil {
		if err := run.Finish(stats.Totals, stats.Finished); err != nil {
			r.log.Warn("Journal: %v", err)
		}
	}
	if r.metrics != nil {
		r.metrics.RunFinished(stats.Finished)
		if err := r.metrics.WriteTextfile(r.cfg.MetricsFile); err != nil {
			r.log.Warn("Cannot write metrics file: %v", err)
		}
	}
	logSummary(r.cfg, r.log, &stats)
	return stats
}

// --- Logging helpers ---

func logHeader(cfg *config.Config, log Logger, stats *RunStats, total int) {
	log.Info("Rules: %s (%d rule%s)", cfg.RulesPath, total, plural(total))
	if stats.RunID != "" {
		log.Debug("Run ID: %s", stats.RunID)
	}
	if cfg.DryRun {
		log.Warn("DRY RUN")
	}
}

func logSummary(cfg *config.Config, log Logger, stats *RunStats) {
	t := stats.Totals
	log.Info("==============================")
	log.Info("Done: %d rule%s, %d file%s matched, %d passed",
		stats.Rules, plural(stats.Rules), t.Matched, plural(t.Matched), t.Passed)
	log.Info("  Completed: %d", t.Completed)
	if t.Aborted > 0 {
		log.Warn("  Aborted: %d (%d collision%s)", t.Aborted, t.Collisions, plural(t.Collisions))
	}
	if t.Failures > 0 {
		log.Error("  Failures: %d", t.Failures)
	}
	if stats.Disabled > 0 {
		log.Info("  Disabled rules skipped: %d", stats.Disabled)
	}
	if cfg.DryRun {
		log.Info("  Nothing was changed (dry run)")
	}
	if t.Failures == 0 && !t.Interrupted {
		log.Success("Finished in %s", stats.Elapsed().Round(time.Millisecond))
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
