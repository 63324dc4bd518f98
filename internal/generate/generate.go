// Package generate produces raw documentation text for harvested items by prompting an OpenAI-compatible chat model.
//
// Output is not trusted: callers pass it through sanitize before it reaches a file. For structs the model is asked for JSON ({"struct_doc": ..., "fields": [...]}); ParseStructResponse
// recovers what it can from anything else.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/graves/awful-rustdocs/internal/docpatch"
)

// Request is everything the generator is told about one item.
type Request struct {
	Item                 docpatch.Item
	Body                 string   // Function body or struct body source, if known.
	ReferencedSymbols    []string // Harvested symbols mentioned in Body.
	ReferencingFunctions []string // For structs: functions whose signature or body mentions the struct.
}

// Generator returns raw documentation text. Implementations must be safe for concurrent use.
type Generator interface {
	FunctionDoc(ctx context.Context, req Request) (string, error)
	StructDoc(ctx context.Context, req Request) (string, error)
}

// ErrNoResponse is returned when the model produced no content.
var ErrNoResponse = errors.New("model returned no content")

// Generate asks g for req's documentation. Function output becomes the summary; struct output is parsed with ParseStructResponse.
func Generate(ctx context.Context, g Generator, req Request) (docpatch.GeneratedDoc, error) {
	switch req.Item.Kind {
	case docpatch.KindStruct:
		raw, err := g.StructDoc(ctx, req)
		if err != nil {
			return docpatch.GeneratedDoc{}, err
		}
		return ParseStructResponse(raw), nil
	default:
		raw, err := g.FunctionDoc(ctx, req)
		if err != nil {
			return docpatch.GeneratedDoc{}, err
		}
		return docpatch.GeneratedDoc{Summary: raw}, nil
	}
}

type structResponse struct {
	StructDoc *string             `json:"struct_doc"`
	Summary   *string             `json:"summary"`
	Fields    []docpatch.FieldDoc `json:"fields"`
	FieldMap  map[string]string   `json:"field_docs"`
}

// ParseStructResponse extracts a struct doc and field docs from the model's reply. Code fences and prose around the JSON object are ignored. When no JSON object can be parsed, the
// whole reply becomes the summary with no fields. A JSON object without a summary yields an empty summary (so only the struct-level edit is skipped), and fields without a name are
// dropped.
func ParseStructResponse(raw string) docpatch.GeneratedDoc {
	text := strings.TrimSpace(stripThink(raw))
	lo := strings.Index(text, "{")
	hi := strings.LastIndex(text, "}")
	if lo < 0 || hi <= lo {
		return docpatch.GeneratedDoc{Summary: text}
	}

	var resp structResponse
	if err := json.Unmarshal([]byte(text[lo:hi+1]), &resp); err != nil {
		return docpatch.GeneratedDoc{Summary: text}
	}

	var doc docpatch.GeneratedDoc
	switch {
	case resp.StructDoc != nil:
		doc.Summary = *resp.StructDoc
	case resp.Summary != nil:
		doc.Summary = *resp.Summary
	}
	for _, f := range resp.Fields {
		if strings.TrimSpace(f.Name) == "" {
			continue
		}
		doc.Fields = append(doc.Fields, docpatch.FieldDoc{Name: strings.TrimSpace(f.Name), Doc: f.Doc})
	}
	if len(doc.Fields) == 0 && len(resp.FieldMap) > 0 {
		for name, d := range resp.FieldMap {
			doc.Fields = append(doc.Fields, docpatch.FieldDoc{Name: name, Doc: d})
		}
		sortFieldDocs(doc.Fields)
	}
	return doc
}

func stripThink(s string) string {
	for {
		lo := strings.Index(s, "<think>")
		if lo < 0 {
			return s
		}
		hi := strings.Index(s[lo:], "</think>")
		if hi < 0 {
			return s[:lo]
		}
		s = s[:lo] + s[lo+hi+len("</think>"):]
	}
}
