// Package patchtest has helpers for tests that build small Rust source trees inline.
package patchtest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Dedent removes the leading whitespace shared by every non-blank line of s, trims surrounding blank lines, and returns the result with exactly one trailing newline.
// Whitespace-only lines become empty. The shared prefix is compared byte for byte, so a tab never stands in for spaces. It lets tests write sources inside an indented raw string:
//
//	src := patchtest.Dedent(`
//		pub fn f() {}
//	`)
func Dedent(s string) string {
	lines := strings.Split(strings.Trim(s, "\n"), "\n")

	var prefix string
	first := true
	for _, line := range lines {
		body := strings.TrimLeft(line, " \t")
		if body == "" {
			continue
		}
		indent := line[:len(line)-len(body)]
		if first {
			prefix, first = indent, false
			continue
		}
		for !strings.HasPrefix(indent, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n") + "\n"
}

// WriteTree writes files (relative path -> contents) under a fresh temp dir and returns the dir.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, contents := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(contents), 0o644))
	}
	return dir
}

// ReadFile returns the contents of path, failing the test on error.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}
