package filename

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Separator joins the parts of a canonical filename.
const Separator = " - "

// ErrInvalidParts is returned when a filter yields parts that cannot be
// composed back into a parseable filename.
var ErrInvalidParts = errors.New("invalid filename parts")

// Parts holds the structured decomposition of one filename. Empty strings
// stand for absent optional parts.
type Parts struct {
	Date      string   // YYYY, YYYY-MM or YYYY-MM-DD.
	Category  string   // Free text; never all-caps.
	Tags      []string // Uppercase alphanumeric tokens in order of appearance.
	Name      string   // Descriptive remainder, trimmed.
	Extension string   // Lowercased, including the leading dot; "" if none.
	Directory string   // Containing directory, untouched by the parser.
}

var (
	reDate = regexp.MustCompile(`^[0-9]{4}(-[0-9]{2}(-[0-9]{2})?)?$`)
	reTag  = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// Compose builds the canonical filename (without directory) for p.
func Compose(p Parts) string {
	var fields []string
	for _, f := range []string{p.Date, p.Category, strings.ToUpper(strings.Join(compact(p.Tags), " ")), p.Name} {
		if f != "" {
			fields = append(fields, f)
		}
	}
	return strings.Join(fields, Separator) + p.Extension
}

// Filename is shorthand for Compose(p).
func (p Parts) Filename() string { return Compose(p) }

// Path joins the directory with the canonical filename.
func (p Parts) Path() string { return filepath.Join(p.Directory, Compose(p)) }

// Equal reports whether two Parts describe the same filename components.
func (p Parts) Equal(o Parts) bool {
	if p.Date != o.Date || p.Category != o.Category || p.Name != o.Name ||
		p.Extension != o.Extension || p.Directory != o.Directory {
		return false
	}
	if len(p.Tags) != len(o.Tags) {
		return false
	}
	for i := range p.Tags {
		if p.Tags[i] != o.Tags[i] {
			return false
		}
	}
	return true
}

// Validate checks that p can be composed into a filename the parser will
// read back: the date must use one of the date forms, tags must be single
// alphanumeric tokens, and the extension must be empty or start with a dot.
func (p Parts) Validate() error {
	if p.Date != "" && !reDate.MatchString(p.Date) {
		return fmt.Errorf("%w: date %q is not YYYY, YYYY-MM or YYYY-MM-DD", ErrInvalidParts, p.Date)
	}
	for _, t := range p.Tags {
		if !reTag.MatchString(t) {
			return fmt.Errorf("%w: tag %q is not alphanumeric", ErrInvalidParts, t)
		}
	}
	if p.Extension != "" && !strings.HasPrefix(p.Extension, ".") {
		return fmt.Errorf("%w: extension %q has no leading dot", ErrInvalidParts, p.Extension)
	}
	return nil
}

func compact(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
