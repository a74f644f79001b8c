package display

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/backmassage/archivist/internal/filename"
	"github.com/backmassage/archivist/internal/journal"
	"github.com/backmassage/archivist/internal/term"
)

const timeLayout = "2006-01-02 15:04:05"

// pathWidth bounds the source and destination columns of the history table.
const pathWidth = 60

// orNone renders an empty field as a dash.
func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// PrintParts prints the parsed fields of one filename and its canonical form.
func PrintParts(w io.Writer, input string, p filename.Parts) {
	fmt.Fprintln(w, term.Wrap(term.Bold, input))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  date\t%s\n", orNone(p.Date))
	fmt.Fprintf(tw, "  category\t%s\n", orNone(p.Category))
	fmt.Fprintf(tw, "  tags\t%s\n", orNone(strings.Join(p.Tags, " ")))
	fmt.Fprintf(tw, "  name\t%s\n", orNone(p.Name))
	fmt.Fprintf(tw, "  extension\t%s\n", orNone(p.Extension))
	tw.Flush()

	canonical := p.Filename()
	marker := term.Wrap(term.Green, "(canonical)")
	if canonical != input {
		marker = term.Wrap(term.Yellow, "(would rename)")
	}
	fmt.Fprintf(w, "  -> %s %s\n\n", canonical, marker)
}

// PrintEntries prints journal entries as a table, newest first.
func PrintEntries(w io.Writer, entries []journal.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No operations recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tRUN\tRULE\tACTION\tSOURCE\tDESTINATION")
	for _, e := range entries {
		action := e.Action
		if e.Overwrite {
			action += "!"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.At.Local().Format(timeLayout), shortID(e.RunID), e.Rule, action, clipPath(e.Src, pathWidth), clipPath(e.Dst, pathWidth))
	}
	tw.Flush()
}

// PrintRuns prints run summaries as a table, newest first.
func PrintRuns(w io.Writer, runs []journal.RunInfo) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN\tDURATION\tMATCHED\tDONE\tABORTED\tCOLLISIONS\tFAILURES")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			r.StartedAt.Local().Format(timeLayout), r.ID, FormatDuration(r.StartedAt, r.FinishedAt),
			r.Matched, r.Completed, r.Aborted, r.Collisions, r.Failures)
	}
	tw.Flush()
}

// FormatDuration returns the run length, or "unfinished" when the run never
// recorded an end.
func FormatDuration(start time.Time, end *time.Time) string {
	if end == nil {
		return "unfinished"
	}
	d := end.Sub(start)
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

// clipPath shortens p to width cells, eliding the directory before the
// base name.
func clipPath(p string, width uint) string {
	if uint(ansi.PrintableRuneWidth(p)) <= width {
		return p
	}
	base := filepath.Base(p)
	bw := uint(ansi.PrintableRuneWidth(base))
	if bw+4 >= width {
		return truncate.StringWithTail(base, width, "...")
	}
	return truncate.StringWithTail(filepath.Dir(p), width-bw-1, "...") + string(filepath.Separator) + base
}

// shortID abbreviates a run UUID to its first block.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
