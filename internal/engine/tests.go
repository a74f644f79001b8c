package engine

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/backmassage/archivist/internal/filename"
	"github.com/backmassage/archivist/internal/rules"
)

// Built-in test kinds.
const (
	MatchFilePrefixFullDate = "file-prefix-fulldate"
	MatchTags               = "tags"
	MatchFileExt            = "file-ext"
)

var reFullDatePrefix = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}`)

// testFilePrefixFullDate passes when the bare filename starts with YYYY-MM-DD.
func testFilePrefixFullDate(_ *Engine, _ rules.Args, file string) bool {
	return reFullDatePrefix.MatchString(filepath.Base(file))
}

// testTags checks the parsed tags against the any, not and required lists.
// Every list that is present must hold.
func testTags(e *Engine, args rules.Args, file string) bool {
	p, err := e.parse(file, args)
	if err != nil {
		e.log.Error("  TAGS: * %v", err)
		return false
	}
	if anyOf, ok := args.Strings("any"); ok && filename.CountShared(p.Tags, anyOf) == 0 {
		return false
	}
	if noneOf, ok := args.Strings("not"); ok && filename.CountShared(p.Tags, noneOf) > 0 {
		return false
	}
	if req, ok := args.Strings("required"); ok {
		want := filename.NormalizeTags(req)
		if filename.CountShared(p.Tags, want) != len(want) {
			return false
		}
	}
	return true
}

// testFileExt passes when the filename ends with any listed extension,
// compared case-insensitively. Entries may carry a leading dot.
func testFileExt(e *Engine, args rules.Args, file string) bool {
	exts, ok := args.Strings("ext")
	if !ok {
		e.log.Warn("  FILE-EXT: no ext list given")
		return false
	}
	base := strings.ToLower(filepath.Base(file))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" && strings.HasSuffix(base, "."+ext) {
			return true
		}
	}
	return false
}
