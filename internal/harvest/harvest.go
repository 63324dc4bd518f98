// Package harvest reads the item rows produced by an external Rust harvester and turns them into docpatch.Items.
//
// Rows arrive as one JSON array, a `{"rows": [...]}` object, or JSON Lines, from a file, stdin, or the stdout of a harvester command.
package harvest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/graves/awful-rustdocs/internal/docpatch"
	"github.com/graves/awful-rustdocs/internal/health"
)

// Row is one harvested item in the harvester's wire format.
type Row struct {
	Kind       string        `json:"kind"`
	Name       string        `json:"name"`
	Crate      string        `json:"crate,omitempty"`
	ModulePath []string      `json:"module_path,omitempty"`
	FQPath     string        `json:"fqpath"`
	Visibility string        `json:"visibility"`
	File       string        `json:"file"`
	Span       docpatch.Span `json:"span"`
	Signature  string        `json:"signature"`
	HasBody    bool          `json:"has_body"`
	Doc        *string       `json:"doc,omitempty"`
	BodyText   *string       `json:"body_text,omitempty"`
	Callers    []string      `json:"callers,omitempty"`
}

// Item converts r. ok is false for kinds the engine does not document.
func (r Row) Item() (docpatch.Item, bool) {
	kind, ok := docpatch.ParseKind(r.Kind)
	if !ok || kind == docpatch.KindField {
		return docpatch.Item{}, false
	}
	it := docpatch.Item{
		Kind:          kind,
		FilePath:      r.File,
		QualifiedName: r.FQPath,
		Name:          r.Name,
		Visibility:    r.Visibility,
		Signature:     r.Signature,
		Span:          r.Span,
		Callers:       r.Callers,
	}
	if r.Doc != nil {
		it.ExistingDoc = *r.Doc
	}
	if r.BodyText != nil {
		it.BodyText = *r.BodyText
	}
	return it, true
}

// Decode reads rows from rd. It accepts a JSON array, an object with a "rows" array, or one JSON object per line.
func Decode(rd io.Reader) ([]Row, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var rows []Row
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("decode row array: %w", err)
		}
		return rows, nil
	case '{':
		var wrapped struct {
			Rows []Row `json:"rows"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err == nil && wrapped.Rows != nil {
			return wrapped.Rows, nil
		}
	}

	var rows []Row
	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var r Row
		if err := json.Unmarshal(text, &r); err != nil {
			return nil, fmt.Errorf("decode row on line %d: %w", line, err)
		}
		rows = append(rows, r)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Load reads rows from path, or from stdin when path is "-".
func Load(path string, stdin io.Reader) ([]Row, error) {
	if path == "-" {
		return Decode(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := Decode(f)
	if err != nil {
		return nil, health.Wrap("could not decode harvest file", err, "path", path)
	}
	return rows, nil
}

// RunCommand runs a harvester command (argv[0] with the remaining args) and decodes its stdout. Stderr is included in the error when the command fails.
func RunCommand(ctx context.Context, argv []string, dir string) ([]Row, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty harvester command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, health.Wrap("harvester command failed", err, "cmd", strings.Join(argv, " "), "stderr", strings.TrimSpace(stderr.String()))
	}
	rows, err := Decode(&stdout)
	if err != nil {
		return nil, health.Wrap("could not decode harvester output", err, "cmd", argv[0])
	}
	return rows, nil
}

// Items converts rows, dropping unsupported kinds and rows without a file.
func Items(rows []Row) []docpatch.Item {
	items := make([]docpatch.Item, 0, len(rows))
	for _, r := range rows {
		it, ok := r.Item()
		if !ok || it.FilePath == "" {
			continue
		}
		items = append(items, it)
	}
	return items
}

// Select keeps items whose simple or qualified name is in only (all items when only is empty), then truncates to limit (no limit when limit <= 0).
func Select(items []docpatch.Item, only []string, limit int) []docpatch.Item {
	var out []docpatch.Item
	if len(only) == 0 {
		out = append(out, items...)
	} else {
		want := make(map[string]bool, len(only))
		for _, o := range only {
			want[strings.TrimSpace(o)] = true
		}
		for _, it := range items {
			if want[it.Name] || want[it.QualifiedName] {
				out = append(out, it)
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// FileGroup is the items of one file, ordered by (start line, qualified name).
type FileGroup struct {
	Path  string
	Items []docpatch.Item
}

// ByFile groups items by file path. Groups are ordered by path.
func ByFile(items []docpatch.Item) []FileGroup {
	byPath := map[string][]docpatch.Item{}
	for _, it := range items {
		byPath[it.FilePath] = append(byPath[it.FilePath], it)
	}
	groups := make([]FileGroup, 0, len(byPath))
	for path, its := range byPath {
		sort.SliceStable(its, func(i, j int) bool {
			if its[i].Span.StartLine != its[j].Span.StartLine {
				return its[i].Span.StartLine < its[j].Span.StartLine
			}
			return its[i].QualifiedName < its[j].QualifiedName
		})
		groups = append(groups, FileGroup{Path: path, Items: its})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Path < groups[j].Path })
	return groups
}
