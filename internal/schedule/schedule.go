// Package schedule runs the rules on a cron schedule.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Logger is the logging interface used by the scheduler.
type Logger interface {
	Info(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(string, ...interface{})
}

// Scheduler fires a job on a standard five-field cron expression. A tick
// that arrives while the previous job is still running is skipped.
type Scheduler struct {
	spec    string
	cron    *cron.Cron
	log     Logger
	busy    atomic.Bool
	mu      sync.Mutex
	running bool
}

// New validates spec and returns a stopped scheduler.
//
// Common expressions:
//   - "*/15 * * * *" - every 15 minutes
//   - "0 3 * * *"    - daily at 3 AM
//   - "@hourly"      - at the top of every hour
func New(spec string, log Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return &Scheduler{
		spec: spec,
		cron: cron.New(cron.WithChain(cron.Recover(cronLogger{log}))),
		log:  log,
	}, nil
}

// Run schedules job and blocks until ctx is cancelled, then waits for a
// running job to finish.
func (s *Scheduler) Run(ctx context.Context, job func(ctx context.Context)) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.tick(ctx, job) }); err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}

	s.mu.Lock()
	s.cron.Start()
	s.running = true
	s.mu.Unlock()
	if next := s.NextRun(); next != nil {
		s.log.Info("Scheduler started (%s), next run %s", s.spec, next.Format("2006-01-02 15:04:05"))
	}

	<-ctx.Done()
	s.Stop()
	return nil
}

// tick runs job unless the previous one is still going.
func (s *Scheduler) tick(ctx context.Context, job func(ctx context.Context)) {
	if !s.busy.CompareAndSwap(false, true) {
		s.log.Warn("Previous run still in progress; skipping scheduled run")
		return
	}
	defer s.busy.Store(false)
	if ctx.Err() != nil {
		return
	}
	s.log.Debug("Scheduled run starting")
	job(ctx)
}

// Stop stops the scheduler and waits for any running job to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.log.Info("Scheduler stopped")
	}
}

// NextRun returns the next scheduled time, or nil until the scheduler is
// running.
func (s *Scheduler) NextRun() *time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 || entries[0].Next.IsZero() {
		return nil
	}
	next := entries[0].Next
	return &next
}

// cronLogger adapts Logger to cron.Logger for panic recovery reports.
type cronLogger struct{ log Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug("cron: %s %v", msg, keysAndValues)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error("cron: %s: %v %v", msg, err, keysAndValues)
}
