package report

import (
	"github.com/graves/awful-rustdocs/internal/docpatch"
)

// Pending is an item paired with the documentation to apply to it.
type Pending struct {
	Item docpatch.Item
	Doc  docpatch.GeneratedDoc
}

// Item rebuilds the harvested item an entry was produced from. Field entries have no standalone item and return false.
func (e Entry) Item() (docpatch.Item, bool) {
	kind, ok := docpatch.ParseKind(e.Kind)
	if !ok || kind == docpatch.KindField {
		return docpatch.Item{}, false
	}
	return docpatch.Item{
		Kind:          kind,
		FilePath:      e.File,
		QualifiedName: e.QualifiedName,
		Name:          e.Name,
		Visibility:    e.Visibility,
		Signature:     e.Signature,
		Span:          e.Span,
		ExistingDoc:   e.ExistingDoc,
		BodyText:      e.BodyText,
		Callers:       e.Callers,
	}, true
}

// Pending rebuilds the work recorded in the run: one Pending per function or struct entry, with field entries attached to their parent struct. Entries whose generation failed
// and that carry no doc at all are omitted. Order follows the entries.
func (r *Run) Pending() []Pending {
	fields := map[string][]docpatch.FieldDoc{}
	for _, e := range r.Entries {
		if e.Kind == docpatch.KindField.String() && e.Parent != "" && e.Doc != "" {
			fields[e.Parent] = append(fields[e.Parent], docpatch.FieldDoc{Name: e.Name, Doc: e.Doc})
		}
	}

	var out []Pending
	for _, e := range r.Entries {
		it, ok := e.Item()
		if !ok {
			continue
		}
		doc := docpatch.GeneratedDoc{Summary: e.Doc}
		if it.Kind == docpatch.KindStruct {
			doc.Fields = fields[it.QualifiedName]
		}
		if doc.Summary == "" && len(doc.Fields) == 0 {
			continue
		}
		out = append(out, Pending{Item: it, Doc: doc})
	}
	return out
}
