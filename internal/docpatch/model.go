// Package docpatch turns generated documentation into byte-precise edits of Rust source files.
//
// For each harvested item, the Gate decides whether to skip, insert, or replace; the Resolver finds where a doc block goes in the original file; the Planner collects a file's edits
// and rejects overlaps; and Apply splices them into a copy of the original bytes from the highest offset down, so every edit is expressed in original coordinates.
package docpatch

import (
	"fmt"
	"strings"
)

// Kind is the kind of documentable item.
type Kind int

const (
	KindFunction Kind = iota + 1
	KindStruct
	KindField
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "fn"
	case KindStruct:
		return "struct"
	case KindField:
		return "field"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps the harvester's kind strings ("fn", "function", "struct", "field") to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fn", "function":
		return KindFunction, true
	case "struct":
		return KindStruct, true
	case "field":
		return KindField, true
	}
	return 0, false
}

// Span locates an item in its file. Lines are 1-based and inclusive; bytes are 0-based and half-open.
type Span struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
	StartByte int `json:"start_byte"`
	EndByte   int `json:"end_byte"`
}

// Item is one documentable declaration as reported by the harvester. It is immutable once produced.
type Item struct {
	Kind          Kind
	FilePath      string
	QualifiedName string // ex: "crate::net::Config"
	Name          string
	Visibility    string
	Signature     string // Declaration line(s) as written, used to find the declaration when the span is imprecise.
	Span          Span
	ExistingDoc   string
	BodyText      string // Struct body text when harvested. Empty for functions.
	Callers       []string
}

// HasDoc reports whether the item already carries non-blank documentation.
func (it Item) HasDoc() bool {
	return strings.TrimSpace(it.ExistingDoc) != ""
}

// Label is the qualified name, or the simple name when the qualified name is unknown.
func (it Item) Label() string {
	if it.QualifiedName != "" {
		return it.QualifiedName
	}
	return it.Name
}

// FieldDoc is generated documentation for one struct field.
type FieldDoc struct {
	Name string `json:"name"`
	Doc  string `json:"doc"`
}

// GeneratedDoc is the generator's output for an item. Fields is empty for functions.
type GeneratedDoc struct {
	Summary string     `json:"summary"`
	Fields  []FieldDoc `json:"fields,omitempty"`
}

// Range is a half-open byte range [Start, End) in original file coordinates.
type Range struct {
	Start int
	End   int
}

// Edit is one planned modification of a file, expressed in the file's original coordinates. With a nil Replace, NewText is inserted at Offset; otherwise the bytes in Replace are
// replaced by NewText (and Replace.Start == Offset).
type Edit struct {
	FilePath string
	Offset   int
	Replace  *Range
	NewText  string
	Indent   string
	Label    string // Qualified name of the item the edit documents, for reporting.
}

// Span returns the half-open range of original bytes the edit consumes. Pure insertions have an empty range at Offset.
func (e Edit) Span() Range {
	if e.Replace != nil {
		return *e.Replace
	}
	return Range{Start: e.Offset, End: e.Offset}
}

func (e Edit) String() string {
	r := e.Span()
	if r.Start == r.End {
		return fmt.Sprintf("%s: insert at %d (%s)", e.FilePath, r.Start, e.Label)
	}
	return fmt.Sprintf("%s: replace [%d,%d) (%s)", e.FilePath, r.Start, r.End, e.Label)
}

// EditPlan is a validated set of non-overlapping edits for one file, ordered by descending start offset.
type EditPlan struct {
	FilePath string
	Edits    []Edit
}

// Empty reports whether the plan has no edits.
func (p EditPlan) Empty() bool {
	return len(p.Edits) == 0
}
