package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/graves/awful-rustdocs/internal/generate"
	"github.com/graves/awful-rustdocs/internal/patchtest"
	"github.com/graves/awful-rustdocs/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var libSrc = patchtest.Dedent(`
	use std::io;

	pub fn run() -> io::Result<()> {
	    Ok(())
	}
`)

var libWant = patchtest.Dedent(`
	use std::io;

	/// Runs the thing.
	pub fn run() -> io::Result<()> {
	    Ok(())
	}
`)

const harvestJSON = `[
  {"kind": "fn", "name": "run", "fqpath": "app::run", "visibility": "pub", "file": "lib.rs",
   "span": {"start_line": 3, "end_line": 5, "start_byte": 0, "end_byte": 0},
   "signature": "pub fn run() -> io::Result<()>", "has_body": true, "doc": null}
]`

// workspace creates a source tree and makes it the working directory, with no user config visible.
func workspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := patchtest.WriteTree(t, files)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".xdg"))
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func mockGen() *generate.Mock {
	return &generate.Mock{Functions: map[string]string{"run": "Runs the thing."}}
}

func TestRun_Help(t *testing.T) {
	var out, errOut bytes.Buffer
	code, err := Run([]string{"awful-rustdocs", "-h"}, &RunOptions{Out: &out, Err: &errOut})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "patch")
	assert.Empty(t, errOut.String())
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"run", "--bogus"}},
		{name: "unknown command", args: []string{"frobnicate"}},
		{name: "no harvest input", args: []string{"run"}},
		{name: "both harvest inputs", args: []string{"run", "h.json", "--harvest-cmd", "cat h.json"}},
		{name: "too many args", args: []string{"patch", "a.json", "b.json"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			workspace(t, nil)
			var out, errOut bytes.Buffer
			code, err := Run(append([]string{"awful-rustdocs"}, tc.args...), &RunOptions{Out: &out, Err: &errOut, Generator: mockGen()})
			require.Error(t, err)
			assert.Equal(t, 2, code)
			assert.Contains(t, errOut.String(), "Error:")
		})
	}
}

func TestRun_WriteThenPatch(t *testing.T) {
	dir := workspace(t, map[string]string{"src/lib.rs": libSrc, "harvest.json": harvestJSON})
	artifact := filepath.Join(dir, "target", "docs.json")
	libPath := filepath.Join(dir, "src", "lib.rs")

	var out, errOut bytes.Buffer
	code, err := Run([]string{"awful-rustdocs", "run", "harvest.json", "--root", "src", "--write", "--artifact", artifact, "--color", "off"},
		&RunOptions{Out: &out, Err: &errOut, Generator: mockGen()})
	require.NoError(t, err, errOut.String())
	assert.Equal(t, 0, code)
	assert.Equal(t, libWant, patchtest.ReadFile(t, libPath))
	assert.Contains(t, out.String(), "inserted")
	assert.Contains(t, out.String(), "app::run")

	run, err := report.LoadJSON(artifact)
	require.NoError(t, err)
	require.Len(t, run.Entries, 1)
	assert.Equal(t, "/// Runs the thing.", run.Entries[0].Doc)

	// Restore the source and re-apply the artifact without a generator.
	require.NoError(t, os.WriteFile(libPath, []byte(libSrc), 0o644))
	out.Reset()
	code, err = Run([]string{"awful-rustdocs", "patch", artifact, "--root", "src", "--write", "--color", "off"}, &RunOptions{Out: &out, Err: &errOut})
	require.NoError(t, err, errOut.String())
	assert.Equal(t, 0, code)
	assert.Equal(t, libWant, patchtest.ReadFile(t, libPath))
}

func TestRun_DryRunDiffFromStdin(t *testing.T) {
	dir := workspace(t, map[string]string{"lib.rs": libSrc})

	var out, errOut bytes.Buffer
	code, err := Run([]string{"awful-rustdocs", "run", "-", "--diff", "--color", "off", "--log-format", "json"},
		&RunOptions{In: strings.NewReader(harvestJSON), Out: &out, Err: &errOut, Generator: mockGen()})
	require.NoError(t, err, errOut.String())
	assert.Equal(t, 0, code)

	assert.Equal(t, libSrc, patchtest.ReadFile(t, filepath.Join(dir, "lib.rs")))
	assert.Contains(t, out.String(), "+++ b/lib.rs")
	assert.Contains(t, out.String(), "+/// Runs the thing.")
	assert.Contains(t, out.String(), "planned")
	assert.Contains(t, errOut.String(), `"msg":"harvest loaded"`)
	assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(report.DefaultArtifactPath)))
}

func TestRun_FileFailureExitsOne(t *testing.T) {
	workspace(t, map[string]string{"harvest.json": harvestJSON})

	var out, errOut bytes.Buffer
	code, err := Run([]string{"awful-rustdocs", "run", "harvest.json", "--write", "--color", "off"}, &RunOptions{Out: &out, Err: &errOut, Generator: mockGen()})
	require.Error(t, err)
	assert.Equal(t, 1, code)
	assert.Contains(t, err.Error(), "1 of 1 files failed")
	assert.Contains(t, out.String(), "failed")
}

func TestRun_Init(t *testing.T) {
	dir := workspace(t, nil)

	var out, errOut bytes.Buffer
	code, err := Run([]string{"awful-rustdocs", "init", "--dry-run"}, &RunOptions{Out: &out, Err: &errOut})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "api_base:")
	assert.NoFileExists(t, filepath.Join(dir, "rustdocs.yaml"))

	code, err = Run([]string{"awful-rustdocs", "init"}, &RunOptions{Out: &out, Err: &errOut})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.FileExists(t, filepath.Join(dir, "rustdocs.yaml"))

	code, err = Run([]string{"awful-rustdocs", "init"}, &RunOptions{Out: &out, Err: &errOut})
	require.Error(t, err)
	assert.Equal(t, 1, code)
	assert.Contains(t, err.Error(), "already exists")

	code, err = Run([]string{"awful-rustdocs", "init", "--force"}, &RunOptions{Out: &out, Err: &errOut})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestRun_ConfigFlagAndInvalidConfig(t *testing.T) {
	dir := workspace(t, map[string]string{"bad.yaml": "log:\n  level: loud\n", "harvest.json": harvestJSON})

	var out, errOut bytes.Buffer
	code, err := Run([]string{"awful-rustdocs", "--config", filepath.Join(dir, "bad.yaml"), "run", "harvest.json"}, &RunOptions{Out: &out, Err: &errOut, Generator: mockGen()})
	require.Error(t, err)
	assert.Equal(t, 1, code)
	assert.Contains(t, err.Error(), "log.level")
}

func TestWriteSummary(t *testing.T) {
	run := report.NewRun(true, false)
	run.Add(
		report.Entry{Kind: "fn", QualifiedName: "app::run", File: "src/lib.rs", StartLine: 3, Action: report.ActionInserted},
		report.Entry{Kind: "struct", QualifiedName: "app::" + strings.Repeat("Long", 20), File: "src/lib.rs", StartLine: 9, Action: report.ActionFailed, Reason: "declaration not found"},
		report.Entry{Kind: "fn", QualifiedName: "app::done", File: "src/lib.rs", Action: report.ActionSkipped},
	)
	run.AddFile(report.FileResult{Path: "src/lib.rs", Edits: 1, Written: true})

	var buf bytes.Buffer
	writeSummary(&buf, run, false)
	got := buf.String()

	assert.Contains(t, got, "inserted  fn     app::run")
	assert.Contains(t, got, "src/lib.rs:3")
	assert.Contains(t, got, "…")
	assert.Contains(t, got, "declaration not found")
	assert.NotContains(t, got, "app::done")
	assert.Contains(t, got, "(write): 1 failed, 1 inserted, 1 skipped; 1 files, 1 written, 0 failed")
	assert.NotContains(t, got, "\x1b[")
}
