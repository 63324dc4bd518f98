// Package sanitize turns raw generated documentation text into a canonical block of doc comment lines (by default Rust's `///`).
//
// Sanitize is total: any input produces a block, possibly empty. The output is a fixed point: sanitizing it again returns it byte-for-byte, and it always contains an even number of
// code fence lines.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DefaultMarker is the outer doc comment marker for Rust items.
const DefaultMarker = "///"

// DefaultWrapperTokens are the answer-label prefixes that models tend to put in front of the actual documentation.
var DefaultWrapperTokens = []string{"ANSWER:", "RESPONSE:", "OUTPUT:", "QUESTION:"}

const fence = "```"

// DefaultFenceLang labels bare opening fences in generated text.
const DefaultFenceLang = "rust"

// Options configures Sanitize. The zero value uses DefaultMarker, DefaultWrapperTokens, and DefaultFenceLang.
type Options struct {
	Marker        string
	WrapperTokens []string
	FenceLang     string
}

func (o Options) marker() string {
	if o.Marker == "" {
		return DefaultMarker
	}
	return o.Marker
}

func (o Options) fenceLang() string {
	if o.FenceLang == "" {
		return DefaultFenceLang
	}
	return o.FenceLang
}

func (o Options) wrapperTokens() []string {
	if o.WrapperTokens == nil {
		return DefaultWrapperTokens
	}
	return o.WrapperTokens
}

var reThink = regexp.MustCompile(`(?is)<think>.*?</think>`)

// sectionHeaders maps label lines models emit to rustdoc section headings.
var sectionHeaders = map[string]string{
	"Parameters:": "## Parameters",
	"Returns:":    "## Returns",
	"Errors:":     "## Errors",
	"Safety:":     "## Safety",
	"Notes:":      "## Notes",
	"Examples:":   "## Examples",
}

var escapes = strings.NewReplacer(`\r\n`, "\n", `\n`, "\n", `\t`, "\t", `\"`, `"`)

// Sanitize canonicalizes raw into doc comment lines joined by "\n" (no trailing newline). The rules, in order:
//   - Unless raw is already canonical, text up to and including the last wrapper token that starts a line outside a code fence is dropped, and an answer that is exactly one closed
//     fenced block is unwrapped. Then literal escapes (\n, \t, \") outside fenced or inline code are decoded, label lines such as "Returns:" become "## Returns"
//     headings, and a bare opening fence is labelled with the fence language.
//   - Runs of blank lines (including marker-only lines) collapse into one blank comment line.
//   - Lines without the marker get `marker + " "` prepended; blank lines become the bare marker.
//   - A leading blank comment line is removed, as are trailing ones.
//   - An odd number of fence lines is balanced with a closing fence.
func Sanitize(raw string, opts Options) string {
	marker := opts.marker()

	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = reThink.ReplaceAllString(s, "")
	s = strings.Trim(s, "\n")
	if strings.TrimSpace(s) == "" {
		return ""
	}

	if !isCanonical(s, marker) {
		s = stripWrappers(s, opts.wrapperTokens())
		s = unwrapFence(s)
		s = normalize(s, opts.fenceLang())
	}

	var out []string
	prevBlank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, " \t")
		if content, ok := cutMarker(line, marker); ok {
			line = marker + content
		} else if strings.TrimSpace(line) != "" {
			line = marker + " " + line
		} else {
			line = marker
		}

		blank := line == marker
		if blank && prevBlank {
			continue
		}
		prevBlank = blank
		out = append(out, line)
	}

	if len(out) > 0 && out[0] == marker {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == marker {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return ""
	}

	if countFences(out, marker)%2 == 1 {
		out = append(out, marker+" "+fence)
	}
	return strings.Join(out, "\n")
}

// normalize rewrites generated prose line by line. Fenced code is left alone apart from labelling a bare opening fence with lang.
func normalize(s, lang string) string {
	lines := strings.Split(s, "\n")
	inFence := false
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, fence) {
			if !inFence && t == fence {
				lines[i] = strings.Replace(line, fence, fence+lang, 1)
			}
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if h, ok := sectionHeaders[t]; ok {
			lines[i] = h
			continue
		}
		lines[i] = decodeEscapes(line)
	}
	return strings.Join(lines, "\n")
}

// decodeEscapes decodes literal escapes in line, leaving inline code spans untouched.
func decodeEscapes(line string) string {
	if !strings.Contains(line, `\`) {
		return line
	}
	parts := strings.Split(line, "`")
	for i := 0; i < len(parts); i += 2 {
		parts[i] = escapes.Replace(parts[i])
	}
	return strings.Join(parts, "`")
}

// cutMarker reports whether line (after leading whitespace) starts with marker, returning the rest. A longer run of the marker's last character (ex: "////") is not the marker.
func cutMarker(line, marker string) (string, bool) {
	t := strings.TrimLeft(line, " \t")
	rest, ok := strings.CutPrefix(t, marker)
	if !ok {
		return "", false
	}
	if rest != "" && marker != "" && rest[0] == marker[len(marker)-1] {
		return "", false
	}
	return rest, true
}

// isCanonical reports whether every non-blank line of s already carries marker.
func isCanonical(s, marker string) bool {
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if _, ok := cutMarker(line, marker); !ok {
			return false
		}
	}
	return true
}

// stripWrappers drops everything up to and including the last wrapper token that begins a line outside a fenced region.
func stripWrappers(s string, tokens []string) string {
	lines := strings.Split(s, "\n")
	inFence := false
	cutLine, cutCol := -1, 0
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, fence) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		lead := len(line) - len(strings.TrimLeft(line, " \t"))
		for _, tok := range tokens {
			if strings.HasPrefix(line[lead:], tok) {
				cutLine, cutCol = i, lead+len(tok)
				break
			}
		}
	}
	if cutLine < 0 {
		return s
	}
	rest := strings.TrimSpace(lines[cutLine][cutCol:])
	remaining := lines[cutLine+1:]
	if rest != "" {
		remaining = append([]string{rest}, remaining...)
	}
	return strings.Trim(strings.Join(remaining, "\n"), "\n")
}

// unwrapFence returns the contents of s when s is exactly one closed fenced code block, and s otherwise.
func unwrapFence(s string) string {
	trimmed := strings.TrimSpace(s)
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 || !strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), fence) {
		return s
	}

	src := []byte(trimmed)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	first := doc.FirstChild()
	if first == nil || first.NextSibling() != nil {
		return s
	}
	fcb, ok := first.(*ast.FencedCodeBlock)
	if !ok {
		return s
	}

	var b strings.Builder
	segs := fcb.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(src))
	}
	return strings.Trim(b.String(), "\n")
}

func countFences(lines []string, marker string) int {
	n := 0
	for _, line := range lines {
		content, _ := cutMarker(line, marker)
		if strings.HasPrefix(strings.TrimSpace(content), fence) {
			n++
		}
	}
	return n
}
