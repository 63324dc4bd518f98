package generate

import (
	"regexp"
	"sort"
	"strings"

	"github.com/graves/awful-rustdocs/internal/docpatch"
)

// MaxReferencedSymbols caps how many referenced symbols are put in a prompt.
const MaxReferencedSymbols = 64

// MaxReferencingFunctions caps how many referencing functions are put in a struct prompt.
const MaxReferencingFunctions = 100

var reIdent = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// SymbolIndex maps simple names of harvested items to their qualified names.
type SymbolIndex map[string][]string

// NewSymbolIndex indexes items by simple name.
func NewSymbolIndex(items []docpatch.Item) SymbolIndex {
	idx := SymbolIndex{}
	for _, it := range items {
		if it.Name == "" || it.QualifiedName == "" {
			continue
		}
		idx[it.Name] = append(idx[it.Name], it.QualifiedName)
	}
	for name, qs := range idx {
		sort.Strings(qs)
		idx[name] = dedupe(qs)
	}
	return idx
}

// ReferencedSymbols returns the qualified names of indexed items whose simple name appears as an identifier in body, excluding self. The result is sorted and capped at
// MaxReferencedSymbols.
func (idx SymbolIndex) ReferencedSymbols(body string, self string) []string {
	seen := map[string]bool{}
	var out []string
	for _, ident := range reIdent.FindAllString(body, -1) {
		if seen[ident] {
			continue
		}
		seen[ident] = true
		for _, q := range idx[ident] {
			if q != self {
				out = append(out, q)
			}
		}
	}
	sort.Strings(out)
	out = dedupe(out)
	if len(out) > MaxReferencedSymbols {
		out = out[:MaxReferencedSymbols]
	}
	return out
}

// ReferencingFunctions returns the qualified names of functions whose signature or body mentions the struct's simple or qualified name. Bodies are read via body (which may return
// "" when unknown). The result is sorted and capped at MaxReferencingFunctions.
func ReferencingFunctions(structItem docpatch.Item, fns []docpatch.Item, body func(docpatch.Item) string) []string {
	if structItem.Name == "" {
		return nil
	}
	word := regexp.MustCompile(`\b` + regexp.QuoteMeta(structItem.Name) + `\b`)
	var out []string
	for _, fn := range fns {
		if fn.Kind != docpatch.KindFunction {
			continue
		}
		text := fn.Signature
		if body != nil {
			text += "\n" + body(fn)
		}
		if word.MatchString(text) || (structItem.QualifiedName != "" && strings.Contains(text, structItem.QualifiedName)) {
			out = append(out, fn.Label())
		}
	}
	sort.Strings(out)
	out = dedupe(out)
	if len(out) > MaxReferencingFunctions {
		out = out[:MaxReferencingFunctions]
	}
	return out
}

// dedupe removes adjacent duplicates from a sorted slice.
func dedupe(s []string) []string {
	if len(s) < 2 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

func sortFieldDocs(fields []docpatch.FieldDoc) {
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
}
