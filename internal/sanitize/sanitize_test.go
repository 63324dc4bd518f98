package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "empty",
			raw:  "  \n\n ",
			want: "",
		},
		{
			name: "plain prose gets prefixed",
			raw:  "Returns the port.\n\nDefaults to 8080.",
			want: "/// Returns the port.\n///\n/// Defaults to 8080.",
		},
		{
			name: "blank runs collapse",
			raw:  "One.\n\n\n\nTwo.\n///\n///\nThree.",
			want: "/// One.\n///\n/// Two.\n///\n/// Three.",
		},
		{
			name: "leading and trailing blank comment lines dropped",
			raw:  "///\n/// Body.\n///\n///",
			want: "/// Body.",
		},
		{
			name: "wrapper token stripped with preamble",
			raw:  "Sure, here you go.\nANSWER: Parses the header.\nMore detail.",
			want: "/// Parses the header.\n/// More detail.",
		},
		{
			name: "last wrapper token wins",
			raw:  "QUESTION: what does it do?\nANSWER:\nOpens the file.",
			want: "/// Opens the file.",
		},
		{
			name: "wrapper token inside fence kept",
			raw:  "Example:\n```\nANSWER: 42\n```",
			want: "/// Example:\n/// ```rust\n/// ANSWER: 42\n/// ```",
		},
		{
			name: "wrapper token not at line start kept",
			raw:  "The ANSWER: field holds the reply.",
			want: "/// The ANSWER: field holds the reply.",
		},
		{
			name: "whole answer fence unwrapped",
			raw:  "```markdown\nCloses the socket.\n\n# Errors\nNever.\n```",
			want: "/// Closes the socket.\n///\n/// # Errors\n/// Never.",
		},
		{
			name: "fence with trailing prose not unwrapped",
			raw:  "```\nlet x = 1;\n```\nSets x.",
			want: "/// ```rust\n/// let x = 1;\n/// ```\n/// Sets x.",
		},
		{
			name: "unbalanced fence closed",
			raw:  "Example:\n```rust\nlet a = f();",
			want: "/// Example:\n/// ```rust\n/// let a = f();\n/// ```",
		},
		{
			name: "think block removed",
			raw:  "<think>\nthe user wants docs\n</think>\nComputes the hash.",
			want: "/// Computes the hash.",
		},
		{
			name: "existing markers normalized",
			raw:  "   /// Indented marker.\nbare line\n    code stays indented",
			want: "/// Indented marker.\n/// bare line\n///     code stays indented",
		},
		{
			name: "canonical input skips wrapper stripping",
			raw:  "/// ANSWER: is a field name here.\n/// Second.",
			want: "/// ANSWER: is a field name here.\n/// Second.",
		},
		{
			name: "crlf",
			raw:  "a\r\nb\r\n",
			want: "/// a\n/// b",
		},
		{
			name: "literal escapes decoded",
			raw:  `ANSWER: Line 1\nLine 2\t\"Q\"`,
			want: "/// Line 1\n/// Line 2\t\"Q\"",
		},
		{
			name: "escapes in inline code and fences kept",
			raw:  "Splits on `\\n`.\n```\nlet s = \"a\\nb\";\n```",
			want: "/// Splits on `\\n`.\n/// ```rust\n/// let s = \"a\\nb\";\n/// ```",
		},
		{
			name: "section labels become headings",
			raw:  "Opens the file.\n\nParameters:\n- `path`: where.\n\nReturns:\nThe handle.\n```\nErrors:\n```",
			want: "/// Opens the file.\n///\n/// ## Parameters\n/// - `path`: where.\n///\n/// ## Returns\n/// The handle.\n/// ```rust\n/// Errors:\n/// ```",
		},
		{
			name: "labelled fence kept",
			raw:  "Example:\n```text\nout\n```",
			want: "/// Example:\n/// ```text\n/// out\n/// ```",
		},
		{
			name: "canonical input left as is",
			raw:  "/// Returns:\n/// ```\n/// a\\nb\n/// ```",
			want: "/// Returns:\n/// ```\n/// a\\nb\n/// ```",
		},
		{
			name: "four slashes are not a doc marker",
			raw:  "//// banner",
			want: "/// //// banner",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.raw, Options{}))
		})
	}
}

func TestSanitize_CustomMarker(t *testing.T) {
	got := Sanitize("Hello\nRESULT: world", Options{Marker: "//!", WrapperTokens: []string{"RESULT:"}})
	assert.Equal(t, "//! world", got)
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"Returns the port.\n\n\nDefaults to 8080.",
		"ANSWER: ```\nfoo\n```",
		"```rust\nlet a = 1;",
		"/// Already\n///\n/// canonical.",
		"text  \n   \n\t\n```\n```\n```",
		"<think>x</think>",
		"RESPONSE:",
		"````\nquad\n````",
		`Parameters:\n\tx\n` + "```\ny\n```",
	}
	for _, in := range inputs {
		once := Sanitize(in, Options{})
		assert.Equal(t, once, Sanitize(once, Options{}), "input %q", in)
	}
}

func TestSanitize_FencesBalanced(t *testing.T) {
	inputs := []string{
		"```",
		"a\n```\nb\n```\nc\n```",
		"```rust\nfn main() {}\n```\n```",
		"/// ```\n/// open",
		"ANSWER: ```\nx",
	}
	for _, in := range inputs {
		out := Sanitize(in, Options{})
		n := 0
		for _, line := range strings.Split(out, "\n") {
			if strings.HasPrefix(strings.TrimSpace(strings.TrimPrefix(line, "///")), "```") {
				n++
			}
		}
		assert.Equal(t, 0, n%2, "input %q produced %q", in, out)
		for _, line := range strings.Split(out, "\n") {
			assert.True(t, strings.HasPrefix(line, "///"), "line %q lacks marker", line)
		}
	}
}
