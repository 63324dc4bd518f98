package report

import (
	"path/filepath"
	"testing"

	"github.com/graves/awful-rustdocs/internal/docpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRun() *Run {
	r := NewRun(false, true)
	r.Add(
		Entry{Kind: "fn", QualifiedName: "app::run", Name: "run", File: "src/lib.rs", Span: docpatch.Span{StartLine: 9}, Doc: "/// Runs.", EditProduced: true, Action: ActionPlanned},
		Entry{Kind: "struct", QualifiedName: "app::Config", Name: "Config", File: "src/lib.rs", BodyText: "{ port: u16 }", HadExistingDoc: true, Action: ActionSkipped, Reason: "existing doc"},
		Entry{Kind: "field", QualifiedName: "app::Config::port", Name: "port", Parent: "app::Config", File: "src/lib.rs", Doc: "/// Port.", EditProduced: true, Action: ActionPlanned},
		Entry{Kind: "fn", QualifiedName: "app::broken", Name: "broken", File: "src/lib.rs", Action: ActionFailed, Reason: "generator down"},
	)
	r.AddFile(FileResult{Path: "src/lib.rs", Edits: 2})
	r.AddFile(FileResult{Path: "src/bad.rs", Err: "overlapping edits"})
	return r
}

func TestRun_Summary(t *testing.T) {
	r := sampleRun()
	require.NotEmpty(t, r.ID)

	s := r.Summary()
	assert.Equal(t, 2, s.Actions[ActionPlanned])
	assert.Equal(t, 1, s.Actions[ActionSkipped])
	assert.Equal(t, 1, s.Actions[ActionFailed])
	assert.Equal(t, 2, s.Files)
	assert.Equal(t, 1, s.FilesFailed)
	assert.Equal(t, 0, s.FilesWritten)
	assert.Equal(t, []Action{ActionFailed, ActionPlanned, ActionSkipped}, s.SortedActions())
	assert.True(t, r.Failed())
	assert.False(t, NewRun(false, false).Failed())
}

func TestRun_JSONRoundTripAndPending(t *testing.T) {
	r := sampleRun()
	path := filepath.Join(t.TempDir(), "target", "llm_rustdocs", "docs.json")
	require.NoError(t, r.WriteJSON(path))

	loaded, err := LoadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, r.ID, loaded.ID)
	assert.True(t, loaded.StartedAt.Equal(r.StartedAt))
	assert.Equal(t, r.Entries, loaded.Entries)

	pending := loaded.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "app::run", pending[0].Item.QualifiedName)
	assert.Equal(t, docpatch.KindFunction, pending[0].Item.Kind)
	assert.Equal(t, "/// Runs.", pending[0].Doc.Summary)

	assert.Equal(t, docpatch.KindStruct, pending[1].Item.Kind)
	assert.Equal(t, "{ port: u16 }", pending[1].Item.BodyText)
	assert.Empty(t, pending[1].Doc.Summary)
	assert.Equal(t, []docpatch.FieldDoc{{Name: "port", Doc: "/// Port."}}, pending[1].Doc.Fields)

	_, err = LoadJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
