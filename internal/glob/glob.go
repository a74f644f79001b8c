// Package glob expands rule source patterns into candidate file paths.
//
// Patterns support "**" for any number of directories, a leading "~" for
// the home directory, and the usual "*", "?", "[...]" and "{a,b}" forms.
package glob

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mitchellh/go-homedir"
)

// ErrBadPattern is returned for syntactically invalid patterns.
var ErrBadPattern = doublestar.ErrBadPattern

// Expander expands patterns on the local filesystem.
type Expander struct{}

// Expand returns the absolute paths of the regular files matching pattern,
// in the order the directory walk yields them.
func (Expander) Expand(pattern string) ([]string, error) {
	p, err := Clean(pattern)
	if err != nil {
		return nil, err
	}
	matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", pattern, err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		abs, err := filepath.Abs(m)
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", pattern, err)
		}
		out = append(out, abs)
	}
	return out, nil
}

// Clean expands "~", makes the pattern absolute and validates it.
func Clean(pattern string) (string, error) {
	if pattern == "" {
		return "", fmt.Errorf("%w: empty pattern", ErrBadPattern)
	}
	p, err := homedir.Expand(pattern)
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", pattern, err)
	}
	if !filepath.IsAbs(p) {
		if p, err = filepath.Abs(p); err != nil {
			return "", fmt.Errorf("expand %s: %w", pattern, err)
		}
	}
	if !doublestar.ValidatePathPattern(p) {
		return "", fmt.Errorf("%w: %s", ErrBadPattern, pattern)
	}
	return p, nil
}

// Base returns the static directory prefix of pattern: the deepest
// directory that contains every possible match.
func Base(pattern string) (string, error) {
	p, err := Clean(pattern)
	if err != nil {
		return "", err
	}
	base, _ := doublestar.SplitPattern(filepath.ToSlash(p))
	return filepath.FromSlash(base), nil
}

// BaseExists reports whether the static prefix of pattern is an existing
// directory.
func BaseExists(pattern string) (bool, error) {
	base, err := Base(pattern)
	if err != nil {
		return false, err
	}
	fi, err := os.Stat(base)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fi.IsDir(), nil
}
