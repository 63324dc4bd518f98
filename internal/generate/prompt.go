package generate

import (
	"fmt"
	"strings"
	"sync"

	"github.com/graves/awful-rustdocs/internal/docpatch"
	"github.com/tiktoken-go/tokenizer"
)

// Template frames a prompt: the system prompt, and text placed before and after the generated question in the user message.
type Template struct {
	SystemPrompt string `mapstructure:"system_prompt" yaml:"system_prompt"`
	PreUser      string `mapstructure:"pre_user" yaml:"pre_user"`
	PostUser     string `mapstructure:"post_user" yaml:"post_user"`
}

// UserMessage wraps question with the template's pre and post text.
func (t Template) UserMessage(question string) string {
	var parts []string
	if s := strings.TrimSpace(t.PreUser); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, strings.TrimSpace(question))
	if s := strings.TrimSpace(t.PostUser); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n\n")
}

// DefaultFunctionTemplate is used for functions when no template is configured.
var DefaultFunctionTemplate = Template{
	SystemPrompt: "You write Rustdoc comments for Rust source code. You answer with the comment block only.",
	PreUser: strings.Join([]string{
		"Rules for the Rustdoc block:",
		"1. Every line starts with ///.",
		"2. Start with a one or two sentence description.",
		"3. Then, when relevant, the sections Parameters:, Returns:, Errors:, Notes:, Examples: in that order.",
	}, "\n"),
	PostUser: "Write the Rustdoc for this function. Return only the comment block.",
}

// DefaultStructTemplate is used for structs when no template is configured.
var DefaultStructTemplate = Template{
	SystemPrompt: "You write Rustdoc comments for Rust source code. You answer with JSON only.",
	PreUser: strings.Join([]string{
		"Rules for every Rustdoc string:",
		"1. Every line starts with ///.",
		"2. Keep it short; mention units and invariants when they matter.",
	}, "\n"),
	PostUser: "Write the Rustdoc for this struct and each of its named fields. Return only the JSON object.",
}

// DefaultMaxBodyTokens bounds the body source included in a prompt.
const DefaultMaxBodyTokens = 2000

const maxBodyLines = 400

// MaxCallers caps how many callers are listed in a function prompt.
const MaxCallers = 50

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
	codecErr  error
)

func getCodec() (tokenizer.Codec, error) {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.O200kBase)
	})
	return codec, codecErr
}

// CountTokens returns the number of o200k tokens in text, or an estimate of len/4 when the tokenizer is unavailable.
func CountTokens(text string) int {
	enc, err := getCodec()
	if err != nil {
		return len(text) / 4
	}
	n, err := enc.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return n
}

// TruncateBody keeps whole lines of body while they fit in maxTokens (and at most 400 lines), marking the cut with a trailing comment line.
func TruncateBody(body string, maxTokens int) string {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxBodyTokens
	}
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	used := 0
	for i, line := range lines {
		if i >= maxBodyLines {
			return strings.Join(lines[:i], "\n") + "\n// ...truncated..."
		}
		used += CountTokens(line + "\n")
		if used > maxTokens {
			return strings.Join(lines[:i], "\n") + "\n// ...truncated..."
		}
	}
	return strings.Join(lines, "\n")
}

// FunctionQuestion builds the markdown question for a function.
func FunctionQuestion(req Request, maxBodyTokens int) string {
	it := req.Item
	var b strings.Builder
	fmt.Fprintf(&b, "# Rust Function Documentation Task\n\n")
	fmt.Fprintf(&b, "## Function Identity\n")
	fmt.Fprintf(&b, "- Fully-qualified path: `%s`\n", it.Label())
	fmt.Fprintf(&b, "- Signature: `%s`\n", oneLine(it.Signature))
	fmt.Fprintf(&b, "- Visibility: `%s`\n", it.Visibility)

	writeExistingDoc(&b, it, "function")

	fmt.Fprintf(&b, "\n## Referenced Symbols\n")
	if len(req.ReferencedSymbols) == 0 {
		fmt.Fprintf(&b, "_None detected._\n")
	}
	for _, s := range req.ReferencedSymbols {
		fmt.Fprintf(&b, "- `%s`\n", s)
	}

	if len(it.Callers) > 0 {
		fmt.Fprintf(&b, "\n## Callers\n")
		for i, c := range it.Callers {
			if i == MaxCallers {
				break
			}
			fmt.Fprintf(&b, "- `%s`\n", c)
		}
	}

	if strings.TrimSpace(req.Body) != "" {
		fmt.Fprintf(&b, "\n## Function Body (may be truncated)\n```rust\n%s\n```\n", TruncateBody(req.Body, maxBodyTokens))
	}

	fmt.Fprintf(&b, "\n## Output Requirements\n")
	fmt.Fprintf(&b, "Return only a Rustdoc block. Every line starts with `///` (a blank line is a bare `///`). No JSON, no surrounding prose.\n")
	fmt.Fprintf(&b, "Only include a `Safety:` section if the function is unsafe.\n")
	return b.String()
}

// StructQuestion builds the markdown question for a struct. The model is asked for JSON.
func StructQuestion(req Request, maxBodyTokens int) string {
	it := req.Item
	var b strings.Builder
	fmt.Fprintf(&b, "# Rust Struct Documentation Task\n\n")
	fmt.Fprintf(&b, "## Struct Identity\n")
	fmt.Fprintf(&b, "- Fully-qualified path: `%s`\n", it.Label())
	fmt.Fprintf(&b, "- Signature: `%s`\n", oneLine(it.Signature))
	fmt.Fprintf(&b, "- Visibility: `%s`\n", it.Visibility)

	writeExistingDoc(&b, it, "struct")

	fmt.Fprintf(&b, "\n## Struct Body\n```rust\n%s\n```\n", TruncateBody(req.Body, maxBodyTokens))

	fmt.Fprintf(&b, "\n## Referencing Functions\n")
	if len(req.ReferencingFunctions) == 0 {
		fmt.Fprintf(&b, "_None detected._\n")
	}
	for _, f := range req.ReferencingFunctions {
		fmt.Fprintf(&b, "- `%s`\n", f)
	}

	fmt.Fprintf(&b, "\n## Output Requirements\n")
	fmt.Fprintf(&b, "Respond with one JSON object and nothing else:\n")
	fmt.Fprintf(&b, "{\"struct_doc\": \"/// summary...\", \"fields\": [{\"name\": \"field_name\", \"doc\": \"/// ...\"}]}\n")
	fmt.Fprintf(&b, "- `struct_doc`: a one or two sentence Rustdoc for the struct.\n")
	fmt.Fprintf(&b, "- `fields`: one entry per named field in the body; `name` is the exact field name and `doc` a short `///` block.\n")
	return b.String()
}

func writeExistingDoc(b *strings.Builder, it docpatch.Item, noun string) {
	fmt.Fprintf(b, "\n## Existing Documentation\n")
	if !it.HasDoc() {
		fmt.Fprintf(b, "_No existing rustdoc found._\n")
		return
	}
	fmt.Fprintf(b, "The %s already has Rustdoc. Improve it if necessary:\n```rust\n%s\n```\n", noun, strings.TrimSpace(it.ExistingDoc))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
