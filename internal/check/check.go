// Package check provides rule-file diagnostics (the check command): it
// loads the rules and reports problems that would otherwise only show up as
// soft aborts in the middle of a run.
package check

import (
	"errors"
	"fmt"

	"github.com/backmassage/archivist/internal/config"
	"github.com/backmassage/archivist/internal/engine"
	"github.com/backmassage/archivist/internal/fsops"
	"github.com/backmassage/archivist/internal/glob"
	"github.com/backmassage/archivist/internal/rules"
)

// Problem classes reported by [Rules].
var (
	ErrUnknownTest   = errors.New("unknown test kind")
	ErrUnknownAction = errors.New("unknown action kind")
	ErrBadPattern    = errors.New("invalid src pattern")
	ErrMissingBase   = errors.New("source directory does not exist")
	ErrCopyNeedsDest = errors.New("copy without dest")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(string, ...interface{})
}

// Registry reports which kinds an engine knows.
type Registry interface {
	HasTest(kind string) bool
	HasAction(kind string) bool
}

// Problem is one diagnostic against a rule.
type Problem struct {
	Rule string
	Err  error
}

func (p Problem) String() string { return p.Rule + ": " + p.Err.Error() }

// Rules inspects every rule, enabled or not, and returns the problems found
// in file order.
func Rules(rs []rules.Rule, reg Registry) []Problem {
	var out []Problem
	add := func(rule string, err error) { out = append(out, Problem{Rule: rule, Err: err}) }

	for _, r := range rs {
		if ok, err := glob.BaseExists(r.Src); err != nil {
			add(r.Name, fmt.Errorf("%w: %v", ErrBadPattern, err))
		} else if !ok {
			base, _ := glob.Base(r.Src)
			add(r.Name, fmt.Errorf("%w: %s", ErrMissingBase, base))
		}

		for _, s := range r.Match {
			if !reg.HasTest(s.Kind) {
				add(r.Name, fmt.Errorf("%w: %q", ErrUnknownTest, s.Kind))
			}
		}
		for _, s := range r.Run {
			if !reg.HasAction(s.Kind) {
				add(r.Name, fmt.Errorf("%w: %q", ErrUnknownAction, s.Kind))
				continue
			}
			if dest, _ := s.Args.String("dest"); s.Kind == engine.ActionCopy && dest == "" {
				add(r.Name, ErrCopyNeedsDest)
			}
		}
	}
	return out
}

// RunCheck loads the rule file named by cfg, logs every problem and returns
// how many were found. A rule file that cannot be loaded is returned as an
// error.
func RunCheck(cfg *config.Config, log Logger) (int, error) {
	log.Info("=== Rule Check ===")
	log.Info("Rules: %s", cfg.RulesPath)

	rs, err := rules.Load(cfg.RulesPath)
	if err != nil {
		return 0, err
	}
	problems := Rules(rs, engine.New(fsops.NewOS(log), log))
	byRule := make(map[string]int)
	for _, p := range problems {
		byRule[p.Rule]++
	}
	for _, r := range rs {
		state := ""
		if !r.Enabled {
			state = " (disabled)"
		}
		if n := byRule[r.Name]; n > 0 {
			log.Warn("%s%s: %d problem%s", r.Name, state, n, plural(n))
			continue
		}
		log.Success("%s%s: ok (%d test%s, %d action%s)", r.Name, state,
			len(r.Match), plural(len(r.Match)), len(r.Run), plural(len(r.Run)))
	}
	for _, p := range problems {
		log.Error("  %s", p)
	}
	if len(problems) == 0 {
		log.Success("No problems found")
	}
	return len(problems), nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
