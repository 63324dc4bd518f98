package docpatch

import (
	"regexp"
	"strings"
)

// Dialect describes the surface syntax the resolver relies on: which lines are doc comments, which are attributes, and how declarations look.
type Dialect struct {
	DocMarker      string   // Outer doc comment marker, ex: "///".
	DocAttrs       []string // Attribute prefixes that are themselves documentation, ex: "#[doc".
	AttrPrefixes   []string // Attribute prefixes that bind to the following item.
	FunctionDecl   *regexp.Regexp
	StructDecl     *regexp.Regexp
	SignatureScanF int // Lines scanned forward from the span start for the declaration.
	SignatureScanB int // Lines scanned backward when the forward scan finds nothing.
}

// Rust is the dialect for Rust sources.
var Rust = Dialect{
	DocMarker:      "///",
	DocAttrs:       []string{"#[doc", "#![doc"},
	AttrPrefixes:   []string{"#[", "#!["},
	FunctionDecl:   regexp.MustCompile(`^\s*(?:pub(?:\s*\([^)]*\))?\s+)?(?:default\s+)?(?:async\s+)?(?:const\s+)?(?:unsafe\s+)?(?:extern\s+(?:"[^"]*"\s+)?)?fn\b`),
	StructDecl:     regexp.MustCompile(`^\s*(?:pub(?:\s*\([^)]*\))?\s+)?struct\b`),
	SignatureScanF: 20,
	SignatureScanB: 5,
}

// isDocLine reports whether the trimmed line t is an outer doc comment or doc attribute.
func (d Dialect) isDocLine(t string) bool {
	if rest, ok := strings.CutPrefix(t, d.DocMarker); ok {
		return rest == "" || rest[0] != d.DocMarker[len(d.DocMarker)-1]
	}
	for _, p := range d.DocAttrs {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

// isAttrLine reports whether the trimmed line t is a non-doc attribute.
func (d Dialect) isAttrLine(t string) bool {
	if d.isDocLine(t) {
		return false
	}
	for _, p := range d.AttrPrefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

func (d Dialect) declPattern(k Kind) *regexp.Regexp {
	switch k {
	case KindFunction:
		return d.FunctionDecl
	case KindStruct:
		return d.StructDecl
	}
	return nil
}
