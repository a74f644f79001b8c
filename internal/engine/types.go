package engine

import (
	"errors"
	"time"

	"github.com/backmassage/archivist/internal/rules"
)

// Abort causes. They never cross the engine boundary as returned errors;
// they ride on Abort outcomes and are classified into RuleStats.
var (
	ErrUnknownTest       = errors.New("test not defined")
	ErrUnknownAction     = errors.New("action not defined")
	ErrDestinationExists = errors.New("destination exists")
	ErrFilesystem        = errors.New("filesystem operation failed")
	ErrBadArgs           = errors.New("invalid action arguments")
)

// State is the value threaded through one file's action chain. Each action
// receives a copy and returns a new one; OriginalFile never changes.
type State struct {
	Rule         string
	OriginalFile string
	File         string
}

// WithFile returns a copy of s pointing at path.
func (s State) WithFile(path string) State {
	s.File = path
	return s
}

type outcomeKind uint8

const (
	kindAbort outcomeKind = iota // zero value: anything unrecognized stops the chain
	kindContinue
	kindUnchanged
)

// Outcome is the result of one action.
type Outcome struct {
	kind  outcomeKind
	state State
	cause error
}

// Continue carries on with the updated state.
func Continue(s State) Outcome { return Outcome{kind: kindContinue, state: s} }

// Unchanged carries on with the state as it was.
func Unchanged() Outcome { return Outcome{kind: kindUnchanged} }

// Abort stops the remaining actions for the current file. cause may be nil.
func Abort(cause error) Outcome { return Outcome{kind: kindAbort, cause: cause} }

// State returns the new state of a Continue outcome.
func (o Outcome) State() (State, bool) { return o.state, o.kind == kindContinue }

// IsAbort reports whether the chain must stop.
func (o Outcome) IsAbort() bool { return o.kind == kindAbort }

// Cause returns the reason attached to an Abort, if any.
func (o Outcome) Cause() error { return o.cause }

// String names the outcome for logs and metric labels.
func (o Outcome) String() string {
	switch o.kind {
	case kindContinue:
		return "continue"
	case kindUnchanged:
		return "unchanged"
	}
	if errors.Is(o.cause, ErrDestinationExists) {
		return "collision"
	}
	return "abort"
}

// TestFunc is a named predicate over one candidate file.
type TestFunc func(e *Engine, args rules.Args, file string) bool

// ActionFunc transforms the state of one file.
type ActionFunc func(e *Engine, st State, args rules.Args) Outcome

// Logger is the logging interface the engine writes through.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(string, ...interface{})
}

// Expander turns a source pattern into candidate file paths.
type Expander interface {
	Expand(pattern string) ([]string, error)
}

// Operation describes one completed filesystem mutation.
type Operation struct {
	Rule      string
	Action    string // "move" or "copy"
	Src       string
	Dst       string
	Overwrite bool
	At        time.Time
}

// Journal records completed operations. Record errors are logged and never
// abort the action that produced the operation.
type Journal interface {
	Record(op Operation) error
}

// Metrics observes rule execution.
type Metrics interface {
	FileMatched(rule string)
	TestEvaluated(rule, test string, passed bool)
	FilePassed(rule string)
	ActionFinished(rule, action, outcome string)
}

type nopJournal struct{}

func (nopJournal) Record(Operation) error { return nil }

type nopMetrics struct{}

func (nopMetrics) FileMatched(string)                    {}
func (nopMetrics) TestEvaluated(string, string, bool)    {}
func (nopMetrics) FilePassed(string)                     {}
func (nopMetrics) ActionFinished(string, string, string) {}
