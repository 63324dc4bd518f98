package generate

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Mock is a Generator that replies with the response whose key is contained (case-insensitively) in the item's qualified name. Calls are recorded.
type Mock struct {
	Functions map[string]string
	Structs   map[string]string
	Err       error // Returned for every call when set.

	mu    sync.Mutex
	calls []string
}

var _ Generator = (*Mock)(nil)

func (m *Mock) FunctionDoc(ctx context.Context, req Request) (string, error) {
	return m.reply(ctx, "fn", m.Functions, req)
}

func (m *Mock) StructDoc(ctx context.Context, req Request) (string, error) {
	return m.reply(ctx, "struct", m.Structs, req)
}

// Calls returns the labels of the items requested so far, prefixed by kind (ex: "fn crate::run").
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *Mock) reply(ctx context.Context, kind string, responses map[string]string, req Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, kind+" "+req.Item.Label())
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}
	label := strings.ToLower(req.Item.Label())
	best := ""
	for k := range responses {
		if strings.Contains(label, strings.ToLower(k)) && len(k) > len(best) {
			best = k
		}
	}
	if best == "" {
		return "", fmt.Errorf("no mock response for %q", req.Item.Label())
	}
	return responses[best], nil
}
