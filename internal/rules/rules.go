// Package rules defines the rule model consumed by the engine and loads it
// from YAML rule files.
package rules

import (
	"fmt"
	"sort"
	"strings"
)

// Rule is one independently toggleable unit: a source pattern, the tests a
// candidate file must pass, and the actions applied to files that pass.
// Rules are read-only once loaded.
type Rule struct {
	Name    string
	Enabled bool
	Src     string
	Match   []Spec
	Run     []Spec
}

// Spec names a test or action kind and carries its parameters.
type Spec struct {
	Kind string
	Args Args
}

// String renders the spec the way it appears in logs.
func (s Spec) String() string {
	if len(s.Args) == 0 {
		return s.Kind
	}
	return s.Kind + " " + s.Args.Describe()
}

// Args is the parameter bag of a spec. Values come straight from the YAML
// decoder: strings, bools, numbers, []any and map[string]any.
type Args map[string]any

// Has reports whether key is present.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// String returns the string value at key.
func (a Args) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}

// Bool returns the boolean at key, or def when absent or not a bool.
func (a Args) Bool(key string, def bool) bool {
	if b, ok := a[key].(bool); ok {
		return b
	}
	return def
}

// Strings returns the list at key. A scalar is treated as a one-element
// list so `ext: pdf` and `ext: [pdf]` mean the same thing.
func (a Args) Strings(key string) ([]string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, false
	}
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, fmt.Sprint(e))
		}
		return out, true
	default:
		return []string{fmt.Sprint(t)}, true
	}
}

// Describe renders the arguments as sorted key=value pairs.
func (a Args) Describe() string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, a[k])
	}
	return "{" + strings.Join(parts, " ") + "}"
}
