package pipeline

import (
	"context"
	"fmt"

	"github.com/graves/awful-rustdocs/internal/docpatch"
	"github.com/graves/awful-rustdocs/internal/generate"
	"github.com/graves/awful-rustdocs/internal/report"
)

// Source supplies the documentation for one item.
type Source interface {
	Doc(ctx context.Context, req generate.Request) (docpatch.GeneratedDoc, error)
}

// FromGenerator returns a Source that asks g.
func FromGenerator(g generate.Generator) Source {
	return generatorSource{g: g}
}

type generatorSource struct {
	g generate.Generator
}

func (s generatorSource) Doc(ctx context.Context, req generate.Request) (docpatch.GeneratedDoc, error) {
	return generate.Generate(ctx, s.g, req)
}

// FromPending returns a Source that replays documentation recorded in an artifact, keyed by file and qualified name.
func FromPending(pending []report.Pending) Source {
	docs := make(map[pendingKey]docpatch.GeneratedDoc, len(pending))
	for _, p := range pending {
		docs[keyOf(p.Item)] = p.Doc
	}
	return pendingSource{docs: docs}
}

type pendingKey struct {
	file string
	name string
}

func keyOf(it docpatch.Item) pendingKey {
	return pendingKey{file: it.FilePath, name: it.Label()}
}

type pendingSource struct {
	docs map[pendingKey]docpatch.GeneratedDoc
}

func (s pendingSource) Doc(ctx context.Context, req generate.Request) (docpatch.GeneratedDoc, error) {
	doc, ok := s.docs[keyOf(req.Item)]
	if !ok {
		return docpatch.GeneratedDoc{}, fmt.Errorf("no recorded doc for %s", req.Item.Label())
	}
	return doc, nil
}
