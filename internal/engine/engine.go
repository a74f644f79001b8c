package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/backmassage/archivist/internal/filename"
	"github.com/backmassage/archivist/internal/fsops"
	"github.com/backmassage/archivist/internal/glob"
	"github.com/backmassage/archivist/internal/rules"
)

// Engine owns the test and action registries and executes rules.
// It is not safe for concurrent use.
type Engine struct {
	tests   map[string]TestFunc
	actions map[string]ActionFunc
	filters map[string]filename.Filter

	fs       fsops.FS
	log      Logger
	expander Expander
	journal  Journal
	metrics  Metrics
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithExpander replaces the default doublestar pattern expander.
func WithExpander(x Expander) Option { return func(e *Engine) { e.expander = x } }

// WithJournal records every completed move and copy.
func WithJournal(j Journal) Option { return func(e *Engine) { e.journal = j } }

// WithMetrics reports rule execution counters.
func WithMetrics(m Metrics) Option { return func(e *Engine) { e.metrics = m } }

// WithNow overrides the clock used to timestamp operations.
func WithNow(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// New returns an Engine acting through fs, with the built-in tests and
// actions installed.
func New(fs fsops.FS, log Logger, opts ...Option) *Engine {
	e := &Engine{
		tests:    make(map[string]TestFunc),
		actions:  make(map[string]ActionFunc),
		filters:  make(map[string]filename.Filter),
		fs:       fs,
		log:      log,
		expander: glob.Expander{},
		journal:  nopJournal{},
		metrics:  nopMetrics{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	installBuiltins(e)
	return e
}

// RegisterTest installs fn under kind, replacing any previous entry.
func (e *Engine) RegisterTest(kind string, fn TestFunc) *Engine {
	e.tests[kind] = fn
	return e
}

// RegisterAction installs fn under kind, replacing any previous entry.
func (e *Engine) RegisterAction(kind string, fn ActionFunc) *Engine {
	e.actions[kind] = fn
	return e
}

// RegisterFilter makes a parse filter available to tests and actions
// through their "filter" parameter.
func (e *Engine) RegisterFilter(name string, f filename.Filter) *Engine {
	e.filters[name] = f
	return e
}

// HasTest reports whether kind is a registered test.
func (e *Engine) HasTest(kind string) bool {
	_, ok := e.tests[kind]
	return ok
}

// HasAction reports whether kind is a registered action.
func (e *Engine) HasAction(kind string) bool {
	_, ok := e.actions[kind]
	return ok
}

// FS returns the filesystem the engine acts through.
func (e *Engine) FS() fsops.FS { return e.fs }

// Log returns the engine's logger.
func (e *Engine) Log() Logger { return e.log }

// RunTest evaluates one test against file. An unregistered kind is logged
// and fails.
func (e *Engine) RunTest(spec rules.Spec, file string) bool {
	ok, _ := e.evaluate(spec, file)
	return ok
}

func (e *Engine) evaluate(spec rules.Spec, file string) (bool, error) {
	fn, ok := e.tests[spec.Kind]
	if !ok {
		e.log.Error("Test not defined: %s", spec)
		return false, fmt.Errorf("%w: %q", ErrUnknownTest, spec.Kind)
	}
	return fn(e, spec.Args, file), nil
}

// RunAction executes one action against st. An unregistered kind is
// logged and aborts.
func (e *Engine) RunAction(st State, spec rules.Spec) Outcome {
	fn, ok := e.actions[spec.Kind]
	if !ok {
		e.log.Error("Action not defined: %s", spec)
		return Abort(fmt.Errorf("%w: %q", ErrUnknownAction, spec.Kind))
	}
	e.log.Debug("  %s: %s", strings.ToUpper(spec.Kind), spec.Args.Describe())
	return fn(e, st, spec.Args)
}

// RuleStats counts what one Exec call did.
type RuleStats struct {
	Matched      int  // candidate files from pattern expansion
	Passed       int  // files that passed every test
	Completed    int  // files whose action chain ran to the end
	Aborted      int  // files whose chain stopped early
	Collisions   int  // aborts caused by an existing destination
	Failures     int  // configuration and I/O errors
	ExpandFailed bool // pattern expansion failed; nothing was processed
	Interrupted  bool // ctx was cancelled between files
}

// Add accumulates o into s.
func (s *RuleStats) Add(o RuleStats) {
	s.Matched += o.Matched
	s.Passed += o.Passed
	s.Completed += o.Completed
	s.Aborted += o.Aborted
	s.Collisions += o.Collisions
	s.Failures += o.Failures
	s.ExpandFailed = s.ExpandFailed || o.ExpandFailed
	s.Interrupted = s.Interrupted || o.Interrupted
}

// Exec runs rule. Files are processed in expansion order; ctx is checked
// between files only, never in the middle of an action chain. Exec does
// not look at rule.Enabled: choosing which rules run is the caller's job.
func (e *Engine) Exec(ctx context.Context, rule rules.Rule) RuleStats {
	var stats RuleStats

	files, err := e.expander.Expand(rule.Src)
	if err != nil {
		e.log.Error("Glob error in rule %q: %v", rule.Name, err)
		stats.ExpandFailed = true
		stats.Failures++
		return stats
	}
	stats.Matched = len(files)
	e.log.Info("  Matched %d file%s", len(files), plural(len(files)))

	for _, file := range files {
		if ctx.Err() != nil {
			e.log.Warn("Interrupted")
			stats.Interrupted = true
			break
		}
		e.log.Info("  > File: %s", file)
		e.metrics.FileMatched(rule.Name)

		if !e.passes(rule, file, &stats) {
			continue
		}
		stats.Passed++
		e.metrics.FilePassed(rule.Name)
		e.apply(rule, file, &stats)
	}
	return stats
}

// passes evaluates every test, with no short-circuit, and reports whether
// all of them held.
func (e *Engine) passes(rule rules.Rule, file string, stats *RuleStats) bool {
	passed := 0
	for _, spec := range rule.Match {
		ok, err := e.evaluate(spec, file)
		if err != nil {
			stats.Failures++
		}
		e.metrics.TestEvaluated(rule.Name, spec.Kind, ok)
		if ok {
			passed++
		}
	}
	return passed == len(rule.Match)
}

// apply folds the rule's actions over a fresh state for file.
func (e *Engine) apply(rule rules.Rule, file string, stats *RuleStats) {
	st := State{Rule: rule.Name, OriginalFile: file, File: file}
	for _, spec := range rule.Run {
		out := e.RunAction(st, spec)
		e.metrics.ActionFinished(rule.Name, spec.Kind, out.String())
		if next, ok := out.State(); ok {
			st = next
			continue
		}
		if out.IsAbort() {
			stats.Aborted++
			switch cause := out.Cause(); {
			case errors.Is(cause, ErrDestinationExists):
				stats.Collisions++
			case cause != nil:
				stats.Failures++
			}
			return
		}
	}
	stats.Completed++
}

// parse parses file honoring the parse-related parameters shared by tests
// and actions: defaultCreateDate and filter.
func (e *Engine) parse(file string, args rules.Args) (filename.Parts, error) {
	opts := filename.Options{
		DefaultCreateDate: args.Bool("defaultCreateDate", false),
		CreateTime:        e.fs.CreateTime,
	}
	if name, ok := args.String("filter"); ok {
		f, ok := e.filters[name]
		if !ok {
			return filename.Parts{}, fmt.Errorf("%w: unknown filter %q", ErrBadArgs, name)
		}
		opts.Filter = f
	}
	return filename.Parse(file, opts)
}

// record journals a completed operation.
func (e *Engine) record(op Operation) {
	op.At = e.now()
	if err := e.journal.Record(op); err != nil {
		e.log.Warn("  Journal write failed: %v", err)
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
