package filename

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Filter receives freshly parsed parts and may replace them wholesale.
// Returning an error, or parts that fail [Parts.Validate], fails the parse.
type Filter func(p Parts) (Parts, error)

// Options tune [Parse].
type Options struct {
	// DefaultCreateDate fills a missing date from the file's creation time.
	DefaultCreateDate bool

	// CreateTime reports the creation time of a path. Required when
	// DefaultCreateDate is set.
	CreateTime func(path string) (time.Time, error)

	// Filter, when set, post-processes the parsed parts.
	Filter Filter
}

// Parse decomposes path (a bare filename or a full path) into Parts.
// Without options it never fails.
func Parse(path string, opts Options) (Parts, error) {
	base := filepath.Base(path)
	stem, ext := splitExt(base)

	p := Parts{
		Extension: ext,
		Directory: filepath.Dir(path),
	}

	rest := stem
	for _, rule := range Rules {
		rest, _ = rule.Apply(rest, &p)
	}
	p.Name = strings.TrimSpace(rest)

	// A lone non-tag segment is a name, not a category.
	if p.Category != "" && p.Name == "" {
		p.Name, p.Category = p.Category, ""
	}

	if p.Date == "" && opts.DefaultCreateDate {
		if opts.CreateTime == nil {
			return Parts{}, fmt.Errorf("parse %s: defaultCreateDate set without a creation time source", base)
		}
		ct, err := opts.CreateTime(path)
		if err != nil {
			return Parts{}, fmt.Errorf("parse %s: creation time: %w", base, err)
		}
		p.Date = ct.Format("2006-01-02")
	}

	if opts.Filter != nil {
		filtered, err := opts.Filter(p)
		if err != nil {
			return Parts{}, fmt.Errorf("%w: filter: %v", ErrInvalidParts, err)
		}
		if err := filtered.Validate(); err != nil {
			return Parts{}, err
		}
		p = filtered
	}
	return p, nil
}

// splitExt separates the last ".ext" from base. A leading dot alone
// (".bashrc") does not start an extension.
func splitExt(base string) (stem, ext string) {
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return base, ""
	}
	return base[:i], strings.ToLower(base[i:])
}
