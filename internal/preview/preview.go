// Package preview renders the difference between a file and its patched version as a unified diff, for dry runs.
package preview

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

type op byte

const (
	opEqual  op = ' '
	opInsert op = '+'
	opDelete op = '-'
)

type line struct {
	op   op
	text string // Without line terminator.
}

// lineDiff diffs oldText and newText line by line.
func lineDiff(oldText, newText string) []line {
	dmp := diffmatchpatch.New()
	rOld, rNew, lineArray := dmp.DiffLinesToRunes(oldText, newText)
	diffs := dmp.DiffCleanupMerge(dmp.DiffMainRunes(rOld, rNew, false))

	var out []line
	for _, d := range diffs {
		var o op
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			o = opEqual
		case diffmatchpatch.DiffInsert:
			o = opInsert
		case diffmatchpatch.DiffDelete:
			o = opDelete
		}
		for _, r := range d.Text {
			idx := int(r)
			if idx < 0 || idx >= len(lineArray) {
				continue
			}
			text := strings.TrimSuffix(lineArray[idx], "\n")
			out = append(out, line{op: o, text: strings.TrimSuffix(text, "\r")})
		}
	}
	return out
}

// Options configures Unified.
type Options struct {
	Context int  // Lines of context around each change. Negative means 3.
	Color   bool // Emit ANSI colors regardless of whether the output is a terminal.
}

// Unified returns a unified diff from oldText to newText with path in the headers. It returns "" when the texts are equal.
func Unified(path, oldText, newText string, opts Options) string {
	if oldText == newText {
		return ""
	}
	ctx := opts.Context
	if ctx < 0 {
		ctx = 3
	}
	paint := newPalette(opts.Color)
	lines := lineDiff(oldText, newText)

	var b strings.Builder
	b.WriteString(paint.header("--- a/"+path) + "\n")
	b.WriteString(paint.header("+++ b/"+path) + "\n")

	for _, h := range hunks(lines, ctx) {
		b.WriteString(paint.hunk(fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.oldStart, h.oldCount, h.newStart, h.newCount)) + "\n")
		for _, ln := range lines[h.lo:h.hi] {
			s := string(ln.op) + ln.text
			switch ln.op {
			case opInsert:
				s = paint.insert(s)
			case opDelete:
				s = paint.delete(s)
			}
			b.WriteString(s + "\n")
		}
	}
	return b.String()
}

type hunk struct {
	lo, hi             int // Range into the line slice.
	oldStart, oldCount int
	newStart, newCount int
}

// hunks groups changed lines with ctx lines of context. Changes separated by at most 2*ctx equal lines share a hunk.
func hunks(lines []line, ctx int) []hunk {
	var out []hunk
	i := 0
	for i < len(lines) {
		if lines[i].op == opEqual {
			i++
			continue
		}
		lo := i - ctx
		if lo < 0 {
			lo = 0
		}
		hi := i
		for hi < len(lines) {
			if lines[hi].op != opEqual {
				hi++
				continue
			}
			run := hi
			for run < len(lines) && lines[run].op == opEqual {
				run++
			}
			if run < len(lines) && run-hi <= 2*ctx {
				hi = run
				continue
			}
			hi += min(ctx, run-hi)
			break
		}

		h := hunk{lo: lo, hi: hi}
		oldLine, newLine := 1, 1
		for _, ln := range lines[:lo] {
			if ln.op != opInsert {
				oldLine++
			}
			if ln.op != opDelete {
				newLine++
			}
		}
		for _, ln := range lines[lo:hi] {
			if ln.op != opInsert {
				h.oldCount++
			}
			if ln.op != opDelete {
				h.newCount++
			}
		}
		h.oldStart, h.newStart = oldLine, newLine
		if h.oldCount == 0 {
			h.oldStart--
		}
		if h.newCount == 0 {
			h.newStart--
		}
		out = append(out, h)
		i = hi
	}
	return out
}

type palette struct {
	header, hunk, insert, delete func(string) string
}

func newPalette(enabled bool) palette {
	if !enabled {
		id := func(s string) string { return s }
		return palette{header: id, hunk: id, insert: id, delete: id}
	}
	mk := func(attrs ...color.Attribute) func(string) string {
		c := color.New(attrs...)
		c.EnableColor()
		return func(s string) string { return c.Sprint(s) }
	}
	return palette{
		header: mk(color.FgCyan, color.Bold),
		hunk:   mk(color.FgMagenta),
		insert: mk(color.FgGreen),
		delete: mk(color.FgRed),
	}
}
