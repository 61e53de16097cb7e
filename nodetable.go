package duotext

import (
	"context"
	"sync"
)

// nodeTable is a transient FieldTable over nodes extracted from content.
// Originals live only for the duration of one Process call.
type nodeTable struct {
	mu        sync.Mutex
	order     []string
	initial   map[string]string
	values    map[string]string
	originals map[string]string
}

var _ FieldTable = (*nodeTable)(nil)

func newNodeTable(nodes []TextNode) *nodeTable {
	t := &nodeTable{
		initial:   make(map[string]string, len(nodes)),
		values:    make(map[string]string, len(nodes)),
		originals: make(map[string]string),
	}
	for _, n := range nodes {
		if _, dup := t.values[n.ID]; dup {
			continue
		}
		t.order = append(t.order, n.ID)
		t.initial[n.ID] = n.Raw
		t.values[n.ID] = n.Raw
	}
	return t
}

func (t *nodeTable) Keys(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.order...), nil
}

func (t *nodeTable) GetText(ctx context.Context, key string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.values[key]
	if !ok {
		return "", ErrFieldNotFound
	}
	return v, nil
}

func (t *nodeTable) SetText(ctx context.Context, key, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.values[key]; !ok {
		return ErrFieldNotFound
	}
	t.values[key] = value
	return nil
}

func (t *nodeTable) GetOriginal(ctx context.Context, key string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.values[key]; !ok {
		return "", ErrFieldNotFound
	}
	return t.originals[key], nil
}

func (t *nodeTable) SetOriginal(ctx context.Context, key, original string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.values[key]; !ok {
		return ErrFieldNotFound
	}
	if original == "" {
		delete(t.originals, key)
	} else {
		t.originals[key] = original
	}
	return nil
}

// rewrites returns the fields whose value changed, keyed by node ID.
func (t *nodeTable) rewrites() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string)
	for key, v := range t.values {
		if v != t.initial[key] {
			out[key] = v
		}
	}
	return out
}
