package table

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/ZaguanLabs/duotext"
)

// MemoryTable is an ordered string table with a metadata slot per key.
type MemoryTable struct {
	mu        sync.RWMutex
	order     []string
	values    map[string]string
	originals map[string]string
}

var _ duotext.FieldTable = (*MemoryTable)(nil)

// NewMemoryTable creates an empty table.
func NewMemoryTable() *MemoryTable {
	return &MemoryTable{
		values:    make(map[string]string),
		originals: make(map[string]string),
	}
}

// Put sets a field, appending it to the key order if it is new.
func (t *MemoryTable) Put(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.values[key]; !ok {
		t.order = append(t.order, key)
	}
	t.values[key] = value
}

// Len returns the number of fields.
func (t *MemoryTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

func (t *MemoryTable) Keys(ctx context.Context) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.order...), nil
}

func (t *MemoryTable) GetText(ctx context.Context, key string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[key]
	if !ok {
		return "", notFound(key)
	}
	return v, nil
}

func (t *MemoryTable) SetText(ctx context.Context, key, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.values[key]; !ok {
		return notFound(key)
	}
	t.values[key] = value
	return nil
}

func (t *MemoryTable) GetOriginal(ctx context.Context, key string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if _, ok := t.values[key]; !ok {
		return "", notFound(key)
	}
	return t.originals[key], nil
}

func (t *MemoryTable) SetOriginal(ctx context.Context, key, original string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.values[key]; !ok {
		return notFound(key)
	}
	if original == "" {
		delete(t.originals, key)
	} else {
		t.originals[key] = original
	}
	return nil
}

// Originals returns a copy of the metadata slots that are set.
func (t *MemoryTable) Originals() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]string, len(t.originals))
	for k, v := range t.originals {
		out[k] = v
	}
	return out
}

// SetOriginals replaces the metadata slots. Keys without a field are ignored.
func (t *MemoryTable) SetOriginals(originals map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.originals = make(map[string]string, len(originals))
	for k, v := range originals {
		if _, ok := t.values[k]; ok && v != "" {
			t.originals[k] = v
		}
	}
}

// ReadJSON loads a flat {"key": "text"} object. Keys are ordered
// lexically since JSON objects carry no order.
func ReadJSON(r io.Reader) (*MemoryTable, error) {
	var raw map[string]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding string table: %w", err)
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := NewMemoryTable()
	for _, k := range keys {
		t.Put(k, raw[k])
	}
	return t, nil
}

// WriteJSON writes the fields as an indented flat object.
func (t *MemoryTable) WriteJSON(w io.Writer) error {
	t.mu.RLock()
	out := make(map[string]string, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	t.mu.RUnlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
