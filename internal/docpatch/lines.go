package docpatch

import (
	"sort"
	"strings"
)

// lineIndex maps between byte offsets and 0-based lines of an immutable buffer.
type lineIndex struct {
	src    []byte
	starts []int
}

func newLineIndex(src []byte) lineIndex {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' && i+1 < len(src) {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{src: src, starts: starts}
}

func (li lineIndex) count() int {
	return len(li.starts)
}

func (li lineIndex) start(i int) int {
	if i >= len(li.starts) {
		return len(li.src)
	}
	return li.starts[i]
}

// end returns the offset just past line i's newline (or the end of the buffer).
func (li lineIndex) end(i int) int {
	return li.start(i + 1)
}

// text returns line i without its line terminator.
func (li lineIndex) text(i int) string {
	if i < 0 || i >= len(li.starts) {
		return ""
	}
	s := string(li.src[li.start(i):li.end(i)])
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

func (li lineIndex) blank(i int) bool {
	return strings.TrimSpace(li.text(i)) == ""
}

// lineOf returns the line containing offset off.
func (li lineIndex) lineOf(off int) int {
	return sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > off }) - 1
}

func leadingWhitespace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}
