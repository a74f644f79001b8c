package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Sentinel errors returned by Load and Parse.
var (
	ErrNoRules     = errors.New("rule file defines no rules")
	ErrMissingKind = errors.New("spec has no kind")
	ErrMissingSrc  = errors.New("rule has no src pattern")
)

// Keys that name the kind of a match or run entry.
const (
	TestKey   = "test"
	ActionKey = "action"
)

// pathArgs are action parameters resolved against the rule file directory.
var pathArgs = []string{"dest"}

type rawRule struct {
	Name    string           `yaml:"name"`
	Rule    string           `yaml:"rule"`
	Enabled *bool            `yaml:"enabled"`
	Src     string           `yaml:"src"`
	Match   []map[string]any `yaml:"match"`
	Run     []map[string]any `yaml:"run"`
}

type rawFile struct {
	Rules []rawRule `yaml:"rules"`
}

// Load reads a YAML rule file. Relative src patterns and dest parameters
// are resolved against the directory holding the file.
func Load(path string) ([]Rule, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("resolve rule file: %w", err)
	}
	rules, err := Parse(data, filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// Parse decodes a rule document. The document is either a sequence of
// rules or a mapping with a "rules" key.
func Parse(data []byte, baseDir string) ([]Rule, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, ErrNoRules
	}

	var raws []rawRule
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&raws); err != nil {
			return nil, fmt.Errorf("decode rules: %w", err)
		}
	case yaml.MappingNode:
		var f rawFile
		if err := root.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode rules: %w", err)
		}
		raws = f.Rules
	default:
		return nil, fmt.Errorf("decode rules: unexpected top-level %s", nodeKind(root.Kind))
	}
	if len(raws) == 0 {
		return nil, ErrNoRules
	}

	out := make([]Rule, 0, len(raws))
	for i, raw := range raws {
		r, err := raw.build(i, baseDir)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (raw rawRule) build(index int, baseDir string) (Rule, error) {
	name := raw.Name
	if name == "" {
		name = raw.Rule
	}
	if name == "" {
		name = fmt.Sprintf("rule #%d", index+1)
	}

	r := Rule{Name: name, Enabled: true}
	if raw.Enabled != nil {
		r.Enabled = *raw.Enabled
	}
	if raw.Src == "" {
		return Rule{}, fmt.Errorf("%s: %w", name, ErrMissingSrc)
	}
	src, err := resolvePath(raw.Src, baseDir)
	if err != nil {
		return Rule{}, fmt.Errorf("%s: src: %w", name, err)
	}
	r.Src = src

	if r.Match, err = buildSpecs(raw.Match, TestKey, baseDir, nil); err != nil {
		return Rule{}, fmt.Errorf("%s: match: %w", name, err)
	}
	if r.Run, err = buildSpecs(raw.Run, ActionKey, baseDir, pathArgs); err != nil {
		return Rule{}, fmt.Errorf("%s: run: %w", name, err)
	}
	return r, nil
}

func buildSpecs(raw []map[string]any, kindKey, baseDir string, paths []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(raw))
	for i, m := range raw {
		kind, ok := m[kindKey].(string)
		if !ok || kind == "" {
			return nil, fmt.Errorf("entry %d: %w (want a %q key)", i+1, ErrMissingKind, kindKey)
		}
		args := make(Args, len(m))
		for k, v := range m {
			if k != kindKey {
				args[k] = v
			}
		}
		for _, key := range paths {
			p, ok := args[key].(string)
			if !ok || p == "" {
				continue
			}
			resolved, err := resolvePath(p, baseDir)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %s: %w", i+1, key, err)
			}
			args[key] = resolved
		}
		specs = append(specs, Spec{Kind: kind, Args: args})
	}
	return specs, nil
}

func resolvePath(p, baseDir string) (string, error) {
	p, err := homedir.Expand(p)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(p) || baseDir == "" {
		return p, nil
	}
	return filepath.Join(baseDir, p), nil
}

func nodeKind(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	}
	return "node"
}
