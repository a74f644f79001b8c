package pipeline

import (
	"time"

	"github.com/backmassage/archivist/internal/engine"
)

// Exit codes returned by the run, watch and schedule commands.
const (
	ExitOK      = 0
	ExitFatal   = 1 // bad flags or an unusable rule file
	ExitFailure = 2 // the run finished with failures recorded
)

// RunStats aggregates one pass over every enabled rule.
type RunStats struct {
	RunID    string // journal run id; empty when journaling is off
	Rules    int    // enabled rules executed
	Disabled int    // rules skipped because enabled is false
	Totals   engine.RuleStats
	Started  time.Time
	Finished time.Time
}

// Elapsed returns the wall time of the pass.
func (s *RunStats) Elapsed() time.Duration {
	return s.Finished.Sub(s.Started)
}

// ExitCode maps the pass result to a process exit code. With strict set,
// destination collisions count as failures.
func (s *RunStats) ExitCode(strict bool) int {
	failures := s.Totals.Failures
	if strict {
		failures += s.Totals.Collisions
	}
	if failures > 0 {
		return ExitFailure
	}
	return ExitOK
}
