package table

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ZaguanLabs/duotext"
	"github.com/ZaguanLabs/duotext/provider"
)

func TestMemoryTable_Fields(t *testing.T) {
	ctx := context.Background()
	tbl := NewMemoryTable()
	tbl.Put("menu.open", "Open")
	tbl.Put("menu.save", "Save")
	tbl.Put("menu.open", "Open...")

	keys, _ := tbl.Keys(ctx)
	if strings.Join(keys, ",") != "menu.open,menu.save" {
		t.Errorf("keys should keep insertion order, got %v", keys)
	}
	if v, _ := tbl.GetText(ctx, "menu.open"); v != "Open..." {
		t.Errorf("Put should overwrite, got %q", v)
	}

	if err := tbl.SetText(ctx, "menu.quit", "Quit"); !IsNotFound(err) {
		t.Errorf("SetText on unknown key: %v", err)
	}
	if _, err := tbl.GetOriginal(ctx, "menu.quit"); !IsNotFound(err) {
		t.Errorf("GetOriginal on unknown key: %v", err)
	}
}

func TestMemoryTable_Originals(t *testing.T) {
	ctx := context.Background()
	tbl := NewMemoryTable()
	tbl.Put("a", "Hello")

	tbl.SetOriginal(ctx, "a", "Hello")
	if v, _ := tbl.GetOriginal(ctx, "a"); v != "Hello" {
		t.Errorf("GetOriginal = %q", v)
	}
	tbl.SetOriginal(ctx, "a", "")
	if len(tbl.Originals()) != 0 {
		t.Error("empty original should clear the slot")
	}

	tbl.SetOriginals(map[string]string{"a": "Hi", "ghost": "Boo"})
	if got := tbl.Originals(); len(got) != 1 || got["a"] != "Hi" {
		t.Errorf("SetOriginals should ignore unknown keys, got %v", got)
	}
}

func TestMemoryTable_JSON(t *testing.T) {
	tbl, err := ReadJSON(strings.NewReader(`{"b": "Save", "a": "Open <file>"}`))
	if err != nil {
		t.Fatal(err)
	}
	keys, _ := tbl.Keys(context.Background())
	if strings.Join(keys, ",") != "a,b" {
		t.Errorf("keys should be sorted, got %v", keys)
	}

	var buf bytes.Buffer
	if err := tbl.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"Open <file>"`) {
		t.Errorf("HTML should not be escaped: %s", buf.String())
	}

	if _, err := ReadJSON(strings.NewReader(`["not", "an", "object"]`)); err == nil {
		t.Error("expected decode error")
	}
}

func TestMemoryTable_WithAnnotator(t *testing.T) {
	ctx := context.Background()
	tbl := NewMemoryTable()
	tbl.Put("title", "Settings")
	tbl.Put("button", "Save")

	a := duotext.NewAnnotator("fr_FR", provider.NewMockProvider())

	report, err := a.Translate(ctx, tbl)
	if err != nil {
		t.Fatal(err)
	}
	if report.Translated != 2 {
		t.Fatalf("translated %d, want 2", report.Translated)
	}
	v, _ := tbl.GetText(ctx, "button")
	if v != duotext.Compose("Save", "Enregistrer", duotext.PlacementBelow) {
		t.Errorf("unexpected field value %q", v)
	}

	if _, err := a.Restore(ctx, tbl); err != nil {
		t.Fatal(err)
	}
	if v, _ := tbl.GetText(ctx, "title"); v != "Settings" {
		t.Errorf("restore left %q", v)
	}
	if len(tbl.Originals()) != 0 {
		t.Error("restore should clear originals")
	}
}
