// Package fieldlocate finds named field declarations inside the text of a Rust struct body.
//
// It is deliberately grammar-free: a field is a line at the body's field nesting depth that reads `[vis] [r#]name: Type`. A declaration spanning several lines is matched on its first line.
package fieldlocate

import (
	"regexp"
	"strings"
)

// Location is a field declaration in body-local coordinates.
type Location struct {
	Name   string // Field identifier (without any r# prefix).
	Line   int    // 0-based line index of the declaration within the body.
	Offset int    // Byte offset within the body of the start of that line.
	Indent string // Leading whitespace of the declaration line, verbatim.
	Text   string // The declaration line without its newline.
}

var reField = regexp.MustCompile(`^(\s*)(?:pub(?:\s*\([^)]*\))?\s+)?(?:r#)?([A-Za-z_][A-Za-z0-9_]*)\s*:(?:[^:]|$)`)

// Locate returns the first field declaration in body whose identifier is exactly name. A name given with an r# prefix matches the same field. It returns false when no such field
// exists; that is never an error.
func Locate(body string, name string) (Location, bool) {
	name = strings.TrimPrefix(name, "r#")
	if name == "" {
		return Location{}, false
	}
	for _, loc := range Fields(body) {
		if loc.Name == name {
			return loc, true
		}
	}
	return Location{}, false
}

// Fields returns every field declaration in body, in source order.
//
// When body opens a brace outside comments and literals, only lines that start at brace depth 1 are considered (body is the whole `struct X { ... }` block, or starts at its brace).
// Otherwise body is taken to be the inside of the braces and lines at depth 0 are considered. Lines inside comments are skipped.
func Fields(body string) []Location {
	fieldDepth := 0
	if opensBrace(body) {
		fieldDepth = 1
	}

	var out []Location
	depth := 0
	inBlockComment := false
	offset := 0
	for i, line := range strings.SplitAfter(body, "\n") {
		lineOffset := offset
		offset += len(line)
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		startDepth := depth
		startInComment := inBlockComment
		depth, inBlockComment, _ = scanBraces(line, depth, inBlockComment)

		if startInComment || startDepth != fieldDepth {
			continue
		}
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "//") || strings.HasPrefix(t, "/*") || strings.HasPrefix(t, "#") {
			continue
		}
		m := reField.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, Location{
			Name:   m[2],
			Line:   i,
			Offset: lineOffset,
			Indent: m[1],
			Text:   line,
		})
	}
	return out
}

// opensBrace reports whether body contains a `{` that scanBraces counts.
func opensBrace(body string) bool {
	inBlockComment := false
	for _, line := range strings.Split(body, "\n") {
		var opened bool
		_, inBlockComment, opened = scanBraces(line, 0, inBlockComment)
		if opened {
			return true
		}
	}
	return false
}

// scanBraces advances the brace depth across line, ignoring braces in line comments, block comments, string literals, and char literals. opened reports whether a counted `{` was seen.
func scanBraces(line string, depth int, inBlockComment bool) (_ int, _ bool, opened bool) {
	inString := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inBlockComment:
			if c == '*' && i+1 < len(line) && line[i+1] == '/' {
				inBlockComment = false
				i++
			}
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return depth, false, opened
		case c == '/' && i+1 < len(line) && line[i+1] == '*':
			inBlockComment = true
			i++
		case c == '"':
			inString = true
		case c == '\'' && i+2 < len(line) && line[i+2] == '\'':
			i += 2
		case c == '{':
			depth++
			opened = true
		case c == '}':
			depth--
		}
	}
	return depth, inBlockComment, opened
}
