// Package report accumulates what a run did to each item and file, and persists it as a JSON artifact that the patch command can replay.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/graves/awful-rustdocs/internal/docpatch"
)

// DefaultArtifactPath is where runs write their artifact unless configured otherwise.
const DefaultArtifactPath = "target/llm_rustdocs/docs.json"

// Action is what happened to one item.
type Action string

const (
	ActionInserted Action = "inserted" // Written to disk.
	ActionReplaced Action = "replaced" // Written to disk, replacing an existing block.
	ActionPlanned  Action = "planned"  // Edit planned in dry-run mode; not written.
	ActionSkipped  Action = "skipped"
	ActionFailed   Action = "failed"
)

// Entry is the record for one item (function, struct, or field). Field entries use the qualified name "parent::field".
type Entry struct {
	Kind              string        `json:"kind"`
	QualifiedName     string        `json:"fqpath"`
	Name              string        `json:"name,omitempty"`
	Parent            string        `json:"parent,omitempty"` // Qualified name of the struct, for fields.
	File              string        `json:"file"`
	StartLine         int           `json:"start_line"`
	EndLine           int           `json:"end_line"`
	Span              docpatch.Span `json:"span"`
	Signature         string        `json:"signature,omitempty"`
	Visibility        string        `json:"visibility,omitempty"`
	Callers           []string      `json:"callers,omitempty"`
	ReferencedSymbols []string      `json:"referenced_symbols,omitempty"`
	HadExistingDoc    bool          `json:"had_existing_doc"`
	ExistingDoc       string        `json:"existing_doc,omitempty"`
	BodyText          string        `json:"body_text,omitempty"`
	Doc               string        `json:"llm_doc"` // Canonical (sanitized) doc block.
	EditProduced      bool          `json:"edit_produced"`
	Action            Action        `json:"action"`
	Reason            string        `json:"reason,omitempty"`
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path    string `json:"path"`
	Edits   int    `json:"edits"`
	Written bool   `json:"written"`
	Err     string `json:"error,omitempty"`
}

// Run is the append-only log of a run. It is not safe for concurrent use: workers build their own slices and the pipeline appends them in file order.
type Run struct {
	ID        string       `json:"run_id"`
	StartedAt time.Time    `json:"started_at"`
	Write     bool         `json:"write"`
	Overwrite bool         `json:"overwrite"`
	Entries   []Entry      `json:"entries"`
	Files     []FileResult `json:"files"`
}

// NewRun starts an empty run log.
func NewRun(write, overwrite bool) *Run {
	return &Run{ID: uuid.NewString(), StartedAt: time.Now().UTC(), Write: write, Overwrite: overwrite}
}

func (r *Run) Add(entries ...Entry) {
	r.Entries = append(r.Entries, entries...)
}

func (r *Run) AddFile(f FileResult) {
	r.Files = append(r.Files, f)
}

// Summary counts entries by action and files by outcome.
type Summary struct {
	Actions      map[Action]int
	Files        int
	FilesFailed  int
	FilesWritten int
}

func (r *Run) Summary() Summary {
	s := Summary{Actions: map[Action]int{}, Files: len(r.Files)}
	for _, e := range r.Entries {
		s.Actions[e.Action]++
	}
	for _, f := range r.Files {
		if f.Err != "" {
			s.FilesFailed++
		}
		if f.Written {
			s.FilesWritten++
		}
	}
	return s
}

// Failed reports whether any file failed.
func (r *Run) Failed() bool {
	for _, f := range r.Files {
		if f.Err != "" {
			return true
		}
	}
	return false
}

// SortedActions returns the actions present in s in a stable order.
func (s Summary) SortedActions() []Action {
	var out []Action
	for a := range s.Actions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// WriteJSON writes the run to path, creating parent directories.
func (r *Run) WriteJSON(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// LoadJSON reads a run previously written by WriteJSON.
func LoadJSON(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Run
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	return &r, nil
}
