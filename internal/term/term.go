// Package term holds the ANSI color state shared by the logger and the
// display helpers, and decides whether the terminal gets colors at all.
//
// [Configure] runs once at startup. When colors are off every color
// variable is the empty string, so concatenating them is harmless.
package term

import (
	"os"
	"regexp"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/backmassage/archivist/internal/config"
)

// ANSI color codes. Empty when colors are disabled.
var (
	Red     = ""
	Green   = ""
	Yellow  = ""
	Blue    = ""
	Cyan    = ""
	Magenta = ""
	Bold    = ""
	NC      = "" // Reset sequence.
)

var palette = []struct {
	v    *string
	code string
}{
	{&Red, "\033[1;91m"},
	{&Green, "\033[1;92m"},
	{&Yellow, "\033[1;93m"},
	{&Blue, "\033[1;94m"},
	{&Cyan, "\033[1;96m"},
	{&Magenta, "\033[1;95m"},
	{&Bold, "\033[1m"},
	{&NC, "\033[0m"},
}

// Configure resolves mode and sets the color variables.
func Configure(mode config.ColorMode) {
	on := resolve(mode)
	for _, c := range palette {
		if on {
			*c.v = c.code
		} else {
			*c.v = ""
		}
	}
}

// Enabled reports whether ANSI colors are currently active.
func Enabled() bool { return NC != "" }

// Level returns the color of a log level. RULE headers are magenta so the
// per-rule sections stand out from the per-file lines under them.
func Level(level string) string {
	switch level {
	case "INFO":
		return Blue
	case "SUCCESS":
		return Green
	case "WARN":
		return Yellow
	case "ERROR":
		return Red
	case "RULE":
		return Magenta
	case "DEBUG":
		return Cyan
	}
	return ""
}

// Wrap colors s, or returns it untouched when color is empty.
func Wrap(color, s string) string {
	if color == "" {
		return s
	}
	return color + s + NC
}

// reActionLabel matches the indented "MOVE:" style label that opens an
// action log line.
var reActionLabel = regexp.MustCompile(`^(\s+)([A-Z][A-Z-]*:)`)

// Emphasize bolds the action label of an action log line such as
// "  MOVE: /archive/a.pdf". Other text is returned as is.
func Emphasize(text string) string {
	if Bold == "" {
		return text
	}
	return reActionLabel.ReplaceAllString(text, "${1}"+Bold+"${2}"+NC)
}

// resolve decides whether colors are on. In auto mode NO_COLOR
// (https://no-color.org) and TERM=dumb turn them off, CLICOLOR_FORCE turns
// them on for pipes such as a cron mail or a journald unit, and otherwise
// stdout must be a terminal.
func resolve(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" || strings.EqualFold(os.Getenv("TERM"), "dumb") {
		return false
	}
	if f := os.Getenv("CLICOLOR_FORCE"); f != "" && f != "0" {
		return true
	}
	return IsTerminal(os.Stdout)
}

// IsTerminal reports whether f is attached to a terminal, including Cygwin
// and MSYS pseudo-terminals.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
