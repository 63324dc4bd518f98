package fieldlocate

import (
	"testing"

	"github.com/graves/awful-rustdocs/internal/patchtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocate(t *testing.T) {
	body := patchtest.Dedent(`
		pub struct Config {
		    /// Bind address.
		    pub host: String,
		    #[serde(default = "default_port")]
		    pub(crate) port: u16,
		    r#type: Kind,
		    retries:
		        Option<u32>,
		    nested: Inner,
		}
	`)

	tests := []struct {
		name       string
		field      string
		wantLine   int
		wantIndent string
		wantFound  bool
	}{
		{name: "pub field", field: "host", wantLine: 2, wantIndent: "    ", wantFound: true},
		{name: "restricted visibility", field: "port", wantLine: 4, wantIndent: "    ", wantFound: true},
		{name: "raw identifier", field: "type", wantLine: 5, wantIndent: "    ", wantFound: true},
		{name: "raw identifier with prefix", field: "r#type", wantLine: 5, wantIndent: "    ", wantFound: true},
		{name: "multi-line type", field: "retries", wantLine: 6, wantIndent: "    ", wantFound: true},
		{name: "typo", field: "prot", wantFound: false},
		{name: "prefix is not a match", field: "hos", wantFound: false},
		{name: "empty", field: "", wantFound: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, ok := Locate(body, tt.field)
			require.Equal(t, tt.wantFound, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantLine, loc.Line)
			assert.Equal(t, tt.wantIndent, loc.Indent)
			assert.Equal(t, loc.Indent, body[loc.Offset:loc.Offset+len(loc.Indent)])
		})
	}
}

func TestFields_IgnoresCommentsAndLiterals(t *testing.T) {
	body := patchtest.Dedent(`
		struct Outer {
		    // skipped: u8,
		    /* block: u8,
		       still_comment: u8, */
		    handler: Box<dyn Fn() -> Result<(), E>>,
		    label: &'static str, // "{" in a comment
		    pattern: Wrapper<'{'>,
		    after: u8,
		}
	`)
	var names []string
	for _, f := range Fields(body) {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"handler", "label", "pattern", "after"}, names)
}

func TestFields_InnerBodyWithoutBraces(t *testing.T) {
	body := "    a: u8,\n    pub b: Vec<u8>,\n"
	fields := Fields(body)
	require.Len(t, fields, 2)
	assert.Equal(t, "b", fields[1].Name)
	assert.Equal(t, 11, fields[1].Offset)
	assert.Equal(t, "    pub b: Vec<u8>,", fields[1].Text)
}

func TestFields_InnerBodyWithBracesInCommentsAndStrings(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "doc comment", body: "    /// Format like `{host}:{port}`.\n    pub host: String,\n    pub port: u16,\n"},
		{name: "attribute string", body: "    #[serde(rename = \"{x}\")]\n    pub host: String,\n    pub port: u16,\n"},
		{name: "block comment", body: "    /* { */\n    pub host: String,\n    pub port: u16,\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			loc, ok := Locate(tc.body, "port")
			require.True(t, ok)
			assert.Equal(t, "    pub port: u16,", loc.Text)
			assert.Len(t, Fields(tc.body), 2)
		})
	}
}

func TestFields_PathsAreNotFields(t *testing.T) {
	body := "{\n    std::mem::drop(x);\n    value: ::std::string::String,\n}\n"
	fields := Fields(body)
	require.Len(t, fields, 1)
	assert.Equal(t, "value", fields[0].Name)
}
