package engine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/backmassage/archivist/internal/filename"
	"github.com/backmassage/archivist/internal/rules"
)

// Built-in action kinds.
const (
	ActionMove                  = "move"
	ActionCopy                  = "copy"
	ActionNormalizeFile         = "normalize-file"
	ActionCategorize            = "categorize"
	ActionTags                  = "tags"
	ActionFoldersByYear         = "folders-by-year"
	ActionFoldersByYearMonth    = "folders-by-year-month"
	ActionFoldersByYearMonthDay = "folders-by-ymd"
)

func installBuiltins(e *Engine) {
	e.RegisterTest(MatchFilePrefixFullDate, testFilePrefixFullDate).
		RegisterTest(MatchTags, testTags).
		RegisterTest(MatchFileExt, testFileExt)

	e.RegisterAction(ActionMove, actionMove).
		RegisterAction(ActionCopy, actionCopy).
		RegisterAction(ActionNormalizeFile, actionNormalizeFile).
		RegisterAction(ActionCategorize, actionCategorize).
		RegisterAction(ActionTags, actionTags).
		RegisterAction(ActionFoldersByYear, foldersBy(1, "FOLDERS-BY-YEAR")).
		RegisterAction(ActionFoldersByYearMonth, foldersBy(2, "FOLDERS-BY-YEAR-MONTH")).
		RegisterAction(ActionFoldersByYearMonthDay, foldersBy(3, "FOLDERS-BY-YMD"))
}

// actionMove relocates the file to dest/filename. dest defaults to the
// file's directory and filename to its current name.
func actionMove(e *Engine, st State, args rules.Args) Outcome {
	dest, _ := args.String("dest")
	if dest == "" {
		dest = filepath.Dir(st.File)
	}
	name, _ := args.String("filename")
	if name == "" {
		name = filepath.Base(st.File)
	}
	return e.transfer(ActionMove, st, dest, name, args.Bool("overwrite", false))
}

// actionCopy duplicates the file into dest and continues with the copy.
func actionCopy(e *Engine, st State, args rules.Args) Outcome {
	dest, _ := args.String("dest")
	if dest == "" {
		e.log.Error("  COPY: * no dest given")
		return Abort(fmt.Errorf("%w: copy needs dest", ErrBadArgs))
	}
	return e.transfer(ActionCopy, st, dest, filepath.Base(st.File), args.Bool("overwrite", false))
}

// transfer implements the shared move/copy policy: make sure dest exists,
// refuse to replace an existing target unless overwrite is set, then
// perform the operation and continue with the target path.
func (e *Engine) transfer(kind string, st State, dest, name string, overwrite bool) Outcome {
	label := strings.ToUpper(kind)
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(filepath.Dir(st.File), dest)
	}
	if !e.fs.EnsureDir(dest) {
		e.log.Error("  %s: * Failed to assert path exists: %s", label, dest)
		return Abort(fmt.Errorf("%w: ensure %s", ErrFilesystem, dest))
	}

	target := filepath.Join(dest, name)
	// A move onto the same file is a collision like any other unless
	// overwrite is set, in which case there is nothing to do. A differing
	// path naming the same file is a case-only rename.
	same := kind == ActionMove && e.fs.SameFile(st.File, target)
	if same && target == st.File {
		if !overwrite {
			e.log.Warn("  %s: * Destination Exists: %s", label, target)
			return Abort(fmt.Errorf("%w: %s", ErrDestinationExists, target))
		}
		return Unchanged()
	}
	if !same && e.fs.Exists(target) {
		if !overwrite {
			e.log.Warn("  %s: * Destination Exists: %s", label, target)
			return Abort(fmt.Errorf("%w: %s", ErrDestinationExists, target))
		}
		if e.fs.SameFile(st.File, target) {
			e.log.Error("  %s: * Source and destination are the same file: %s", label, target)
			return Abort(fmt.Errorf("%w: %s is the source", ErrFilesystem, target))
		}
	}

	e.log.Info("  %s: %s", label, target)
	op := e.fs.Rename
	if kind == ActionCopy {
		op = e.fs.Copy
	}
	if !op(st.File, target) {
		return Abort(fmt.Errorf("%w: %s %s", ErrFilesystem, kind, st.File))
	}
	e.record(Operation{Rule: st.Rule, Action: kind, Src: st.File, Dst: target, Overwrite: overwrite})
	return Continue(st.WithFile(target))
}

// actionNormalizeFile re-composes the filename in canonical form, with
// optional date, category, tags and name overrides taken from args.
func actionNormalizeFile(e *Engine, st State, args rules.Args) Outcome {
	p, err := e.parse(st.File, args)
	if err != nil {
		e.log.Error("  NORMALIZE-FILE: * %v", err)
		return Abort(err)
	}
	overlay(&p, args)
	if err := p.Validate(); err != nil {
		e.log.Error("  NORMALIZE-FILE: * %v", err)
		return Abort(fmt.Errorf("%w: %v", ErrBadArgs, err))
	}

	name := p.Filename()
	e.log.Info("  NORMALIZE-FILE: %s", name)
	if name == filepath.Base(st.File) {
		return Unchanged()
	}
	return e.RunAction(st, rules.Spec{Kind: ActionMove, Args: rules.Args{
		"filename":  name,
		"overwrite": args.Bool("overwrite", false),
	}})
}

// actionCategorize is normalize-file under another name; the category
// comes from its args as an override.
func actionCategorize(e *Engine, st State, args rules.Args) Outcome {
	return e.RunAction(st, rules.Spec{Kind: ActionNormalizeFile, Args: args})
}

// overlay applies the part overrides present in args.
func overlay(p *filename.Parts, args rules.Args) {
	if v, ok := args.String("date"); ok {
		p.Date = strings.TrimSpace(v)
	}
	if v, ok := args.String("category"); ok {
		p.Category = strings.TrimSpace(v)
	}
	if v, ok := args.String("name"); ok {
		p.Name = strings.TrimSpace(v)
	}
	if v, ok := args.Strings("tags"); ok {
		p.Tags = filename.NormalizeTags(v)
	}
}

// actionTags edits the tag set. set replaces the tags outright; otherwise
// add is appended and remove dropped. The result is de-duplicated.
func actionTags(e *Engine, st State, args rules.Args) Outcome {
	p, err := e.parse(st.File, args)
	if err != nil {
		e.log.Error("  TAGS: * %v", err)
		return Abort(err)
	}

	if set, ok := args.Strings("set"); ok {
		p.Tags = filename.NormalizeTags(set)
	} else {
		add, _ := args.Strings("add")
		remove, _ := args.Strings("remove")
		p.Tags = filename.EditTags(p.Tags, add, remove)
	}
	if err := p.Validate(); err != nil {
		e.log.Error("  TAGS: * %v", err)
		return Abort(fmt.Errorf("%w: %v", ErrBadArgs, err))
	}

	name := p.Filename()
	if name == filepath.Base(st.File) {
		return Unchanged()
	}
	return e.RunAction(st, rules.Spec{Kind: ActionMove, Args: rules.Args{
		"filename":  name,
		"overwrite": args.Bool("overwrite", false),
	}})
}

// foldersBy returns an action that moves a dated file into nested
// year[/month[/day]] directories under its current directory. depth is the
// number of date components used; a shorter date nests what it has.
func foldersBy(depth int, label string) ActionFunc {
	return func(e *Engine, st State, args rules.Args) Outcome {
		p, err := e.parse(st.File, args)
		if err != nil {
			e.log.Error("  %s: * %v", label, err)
			return Abort(err)
		}
		if p.Date == "" {
			return Unchanged()
		}

		comps := strings.Split(p.Date, "-")
		if len(comps) > depth {
			comps = comps[:depth]
		}
		target := filepath.Join(append([]string{filepath.Dir(st.File)}, comps...)...)
		e.log.Info("  %s: %s", label, target)
		return e.RunAction(st, rules.Spec{Kind: ActionMove, Args: rules.Args{
			"dest":      target,
			"overwrite": args.Bool("overwrite", false),
		}})
	}
}
