package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/graves/awful-rustdocs/internal/report"
	"github.com/mattn/go-runewidth"
)

const (
	nameWidth = 48
	fileWidth = 40
)

var actionAttrs = map[report.Action][]color.Attribute{
	report.ActionInserted: {color.FgGreen},
	report.ActionReplaced: {color.FgGreen, color.Bold},
	report.ActionPlanned:  {color.FgCyan},
	report.ActionSkipped:  {color.Faint},
	report.ActionFailed:   {color.FgRed, color.Bold},
}

// writeSummary prints one row per entry that produced or failed to produce an edit, then a totals line. Skipped entries are only counted.
func writeSummary(w io.Writer, run *report.Run, useColor bool) {
	paint := func(a report.Action, s string) string {
		c := color.New(actionAttrs[a]...)
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.Sprint(s)
	}

	var rows []report.Entry
	for _, e := range run.Entries {
		if e.Action != report.ActionSkipped {
			rows = append(rows, e)
		}
	}
	if len(rows) > 0 {
		fmt.Fprintf(w, "%-9s %-6s %s %s\n", "ACTION", "KIND", runewidth.FillRight("NAME", nameWidth), "FILE")
		for _, e := range rows {
			file := fmt.Sprintf("%s:%d", e.File, e.StartLine)
			line := fmt.Sprintf("%s %-6s %s %s",
				paint(e.Action, fmt.Sprintf("%-9s", e.Action)),
				e.Kind,
				runewidth.FillRight(runewidth.Truncate(e.QualifiedName, nameWidth, "…"), nameWidth),
				runewidth.Truncate(file, fileWidth, "…"),
			)
			if e.Reason != "" && e.Action == report.ActionFailed {
				line += "  " + e.Reason
			}
			fmt.Fprintln(w, strings.TrimRight(line, " "))
		}
	}

	s := run.Summary()
	var parts []string
	for _, a := range s.SortedActions() {
		parts = append(parts, paint(a, fmt.Sprintf("%d %s", s.Actions[a], a)))
	}
	if len(parts) == 0 {
		parts = append(parts, "nothing to do")
	}
	mode := "dry run"
	if run.Write {
		mode = "write"
	}
	fmt.Fprintf(w, "%s (%s): %s; %d files, %d written, %d failed\n", shortID(run.ID), mode, strings.Join(parts, ", "), s.Files, s.FilesWritten, s.FilesFailed)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
