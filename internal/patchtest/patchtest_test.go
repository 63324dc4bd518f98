package patchtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedent(t *testing.T) {
	got := Dedent(`
		pub struct Config {
		    pub port: u16,

		}
	`)
	assert.Equal(t, "pub struct Config {\n    pub port: u16,\n\n}\n", got)
	assert.Equal(t, "x\n", Dedent("x"))
}

func TestDedent_MixedIndentation(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "tab then spaces", in: "\t  a\n\t    b\n", want: "a\n  b\n"},
		{name: "tab versus spaces shares nothing", in: "\ta\n    b\n", want: "\ta\n    b\n"},
		{name: "whitespace-only lines emptied", in: "  a\n \t \n  b", want: "a\n\nb\n"},
		{name: "blank input", in: "\n\n", want: "\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Dedent(tc.in))
		})
	}
}

func TestWriteTree(t *testing.T) {
	dir := WriteTree(t, map[string]string{"src/lib.rs": "fn a() {}\n"})
	assert.Equal(t, "fn a() {}\n", ReadFile(t, filepath.Join(dir, "src", "lib.rs")))
}
