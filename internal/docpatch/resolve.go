package docpatch

import (
	"bytes"
	"strings"

	"github.com/graves/awful-rustdocs/internal/fieldlocate"
)

// Slot is where a doc block goes: the bytes [Start, End) of the original file are replaced by Text (Start == End for a pure insertion). Text is the canonical block with Indent
// applied to every line and a line terminator after each line.
type Slot struct {
	Start    int
	End      int
	Indent   string
	Text     string
	Decision Decision // Insert or Replace, after any downgrade (Replace with no block on disk becomes Insert).
}

// Edit converts the slot into an Edit for path.
func (s Slot) Edit(path, label string) Edit {
	e := Edit{FilePath: path, Offset: s.Start, NewText: s.Text, Indent: s.Indent, Label: label}
	if s.End > s.Start {
		e.Replace = &Range{Start: s.Start, End: s.End}
	}
	return e
}

// Body is a struct body located in a file.
type Body struct {
	Text string
	Base int // File offset of Text[0].
}

// Resolver computes slots against one immutable snapshot of a file. It never modifies the snapshot and is safe for concurrent use.
type Resolver struct {
	lines   lineIndex
	dialect Dialect
	eol     string
}

// NewResolver returns a resolver over src. A zero Dialect means Rust.
func NewResolver(src []byte, d Dialect) *Resolver {
	if d.DocMarker == "" {
		d = Rust
	}
	eol := "\n"
	if bytes.Contains(src, []byte("\r\n")) {
		eol = "\r\n"
	}
	return &Resolver{lines: newLineIndex(src), dialect: d, eol: eol}
}

// Function resolves the slot for a function's doc block. The slot sits above the function's attributes (or its signature line when it has none). On insertion, one blank line
// directly above is consumed so the doc ends up flush against the item.
func (r *Resolver) Function(it Item, block string, dec Decision) (Slot, error) {
	return r.topLevel(it, block, dec, true)
}

// Struct resolves the slot for a struct-level doc block, directly above the first of the struct's contiguous attribute lines.
func (r *Resolver) Struct(it Item, block string, dec Decision) (Slot, error) {
	return r.topLevel(it, block, dec, false)
}

func (r *Resolver) topLevel(it Item, block string, dec Decision, consumeBlank bool) (Slot, error) {
	if dec == Skip {
		return Slot{}, ErrSkipped
	}
	if strings.TrimSpace(block) == "" {
		return Slot{}, ErrEmptyDoc
	}
	decl, err := r.DeclLine(it)
	if err != nil {
		return Slot{}, err
	}
	indent := leadingWhitespace(r.lines.text(decl))
	anchor := r.attrStart(decl, 0)
	return r.slotAbove(anchor, 0, block, indent, dec, consumeBlank, true)
}

// Field resolves the slot for the doc block of the field called name within body. The field is gated on its own on-disk doc block: documented fields are skipped unless overwrite
// is set. Indentation is copied from the field's declaration line.
func (r *Resolver) Field(body Body, name string, block string, overwrite bool) (Slot, error) {
	if strings.TrimSpace(block) == "" {
		return Slot{}, ErrEmptyDoc
	}
	loc, ok := fieldlocate.Locate(body.Text, name)
	if !ok {
		return Slot{}, ErrFieldNotFound
	}
	off := body.Base + loc.Offset
	fieldLine := r.lines.lineOf(off)
	if fieldLine < 0 || r.lines.start(fieldLine) != off {
		// Body text does not begin on a line boundary and the field shares the opening line.
		return Slot{}, ErrFieldNotFound
	}
	floor := r.lines.lineOf(body.Base)
	anchor := r.attrStart(fieldLine, floor)
	hasDoc := r.docStart(anchor, floor) < anchor
	dec := Decide(hasDoc, overwrite)
	if dec == Skip {
		return Slot{}, ErrDocPresent
	}
	return r.slotAbove(anchor, floor, block, loc.Indent, dec, false, false)
}

// slotAbove builds the slot whose insertion point is the start of line anchor. Lines above floor are never examined.
func (r *Resolver) slotAbove(anchor, floor int, block, indent string, dec Decision, consumeBlank, topLevel bool) (Slot, error) {
	docLo := r.docStart(anchor, floor)
	if docLo < anchor {
		if dec != Replace {
			return Slot{}, ErrDocPresent
		}
		return Slot{
			Start:    r.lines.start(docLo),
			End:      r.lines.start(anchor),
			Indent:   indent,
			Text:     r.render(block, indent),
			Decision: Replace,
		}, nil
	}

	startLine := anchor
	if consumeBlank && anchor-1 >= floor && anchor > 0 && r.lines.blank(anchor-1) {
		startLine = anchor - 1
	}
	text := r.render(block, indent)
	if topLevel && startLine > 0 && r.needsSeparator(startLine-1) {
		text = r.eol + text
	}
	return Slot{
		Start:    r.lines.start(startLine),
		End:      r.lines.start(anchor),
		Indent:   indent,
		Text:     text,
		Decision: Insert,
	}, nil
}

// needsSeparator reports whether a blank line should be emitted between line i and a top-level doc block inserted right below it.
func (r *Resolver) needsSeparator(i int) bool {
	t := strings.TrimSpace(r.lines.text(i))
	if t == "" || strings.HasSuffix(t, "{") || strings.HasPrefix(t, "//") {
		return false
	}
	return !r.dialect.isAttrLine(t) && !r.dialect.isDocLine(t)
}

// attrStart returns the first line of the attributes directly above decl, or decl when there are none. Blank lines followed (upward) by another attribute do not end the run.
func (r *Resolver) attrStart(decl, floor int) int {
	anchor := decl
	for i := decl - 1; i >= floor; i-- {
		t := strings.TrimSpace(r.lines.text(i))
		if r.dialect.isAttrLine(t) {
			anchor = i
			continue
		}
		if t != "" {
			break
		}
		j := i - 1
		for j >= floor && r.lines.blank(j) {
			j--
		}
		if j < floor || !r.dialect.isAttrLine(strings.TrimSpace(r.lines.text(j))) {
			break
		}
		i = j + 1
	}
	return anchor
}

// docStart returns the first line of the doc block directly above anchor (blank lines between the block and anchor are part of it), or anchor when there is no block.
func (r *Resolver) docStart(anchor, floor int) int {
	i := anchor - 1
	for i >= floor && r.lines.blank(i) {
		i--
	}
	lo := anchor
	for ; i >= floor; i-- {
		if !r.dialect.isDocLine(strings.TrimSpace(r.lines.text(i))) {
			break
		}
		lo = i
	}
	return lo
}

func (r *Resolver) render(block, indent string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(block, "\n"), "\n") {
		b.WriteString(indent)
		b.WriteString(strings.TrimRight(line, "\r"))
		b.WriteString(r.eol)
	}
	return b.String()
}

// DeclLine returns the 0-based line of the item's declaration: the first line at or below the span's start (within the dialect's forward window) that matches the kind's declaration
// pattern and mentions the item's name, then the same search upward, then a match on the pattern alone, then a line equal to the first line of the signature.
func (r *Resolver) DeclLine(it Item) (int, error) {
	start := it.Span.StartLine - 1
	if it.Span.StartLine <= 0 {
		start = r.lines.lineOf(it.Span.StartByte)
	}
	if start < 0 || start >= r.lines.count() {
		return 0, ErrNoDeclaration
	}

	pat := r.dialect.declPattern(it.Kind)
	if pat != nil {
		name := strings.TrimPrefix(it.Name, "r#")
		match := func(i int, needName bool) bool {
			t := r.lines.text(i)
			if !pat.MatchString(t) {
				return false
			}
			return !needName || name == "" || containsWord(t, name)
		}
		for _, needName := range []bool{true, false} {
			for i := start; i < start+r.dialect.SignatureScanF && i < r.lines.count(); i++ {
				if match(i, needName) {
					return i, nil
				}
			}
			for i := start - 1; i >= start-r.dialect.SignatureScanB && i >= 0; i-- {
				if match(i, needName) {
					return i, nil
				}
			}
		}
	}

	sig := strings.TrimSpace(strings.SplitN(it.Signature, "\n", 2)[0])
	if sig != "" {
		best := -1
		for i := 0; i < r.lines.count(); i++ {
			if strings.TrimSpace(r.lines.text(i)) != sig {
				continue
			}
			if best < 0 || absInt(i-start) < absInt(best-start) {
				best = i
			}
		}
		if best >= 0 {
			return best, nil
		}
	}
	return 0, ErrNoDeclaration
}

// containsWord reports whether w occurs in s with no identifier byte on either side.
func containsWord(s, w string) bool {
	for off := 0; ; {
		i := strings.Index(s[off:], w)
		if i < 0 {
			return false
		}
		i += off
		end := i + len(w)
		if (i == 0 || !isIdentByte(s[i-1])) && (end == len(s) || !isIdentByte(s[end])) {
			return true
		}
		off = i + 1
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

// StructBody locates the braced body of a struct: the harvested body text when it can be found verbatim at or after the declaration, otherwise the lines from the opening brace
// to its matching closing brace.
func (r *Resolver) StructBody(it Item) (Body, error) {
	decl, err := r.DeclLine(it)
	if err != nil {
		return Body{}, err
	}
	src := r.lines.src
	from := r.lines.start(decl)

	if it.BodyText != "" {
		if idx := bytes.Index(src[from:], []byte(it.BodyText)); idx >= 0 {
			return Body{Text: it.BodyText, Base: from + idx}, nil
		}
	}

	openIdx, closeIdx := matchBraces(src, from)
	if openIdx < 0 || closeIdx < 0 {
		return Body{}, ErrNoBody
	}
	lo := r.lines.start(r.lines.lineOf(openIdx))
	hi := r.lines.end(r.lines.lineOf(closeIdx))
	return Body{Text: string(src[lo:hi]), Base: lo}, nil
}

// matchBraces finds the first `{` at or after from (stopping at a `;` that ends a unit or tuple struct first) and its matching `}`. Comments, string literals, and char literals
// are skipped. It returns -1s when there is no braced body.
func matchBraces(src []byte, from int) (int, int) {
	depth := 0
	open := -1
	for i := from; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := bytes.Index(src[i+2:], []byte("*/"))
			if end < 0 {
				return -1, -1
			}
			i += end + 3
		case c == '"':
			for i++; i < len(src) && src[i] != '"'; i++ {
				if src[i] == '\\' {
					i++
				}
			}
		case c == '\'' && i+2 < len(src) && src[i+2] == '\'':
			i += 2
		case c == ';' && open < 0:
			return -1, -1
		case c == '{':
			if open < 0 {
				open = i
			}
			depth++
		case c == '}':
			depth--
			if open >= 0 && depth == 0 {
				return open, i
			}
		}
	}
	return -1, -1
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
