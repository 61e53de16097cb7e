package table

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZaguanLabs/duotext"
	"github.com/ZaguanLabs/duotext/provider"
	"github.com/xuri/excelize/v2"
)

// newSampleWorkbook writes a small two-sheet file and returns its path.
func newSampleWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	f.SetCellStr("Sheet1", "A1", "Hello")
	f.SetCellStr("Sheet1", "B1", "Save")
	f.SetCellStr("Sheet1", "A2", "   ")
	f.SetCellInt("Sheet1", "C2", 42)
	f.SetCellFormula("Sheet1", "D2", "C2*2")
	if _, err := f.NewSheet("Menu!Bar"); err != nil {
		t.Fatal(err)
	}
	f.SetCellStr("Menu!Bar", "A1", "Open a file")

	path := filepath.Join(t.TempDir(), "ui.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSplitKey(t *testing.T) {
	tests := []struct {
		key, sheet, cell string
		ok               bool
	}{
		{"Sheet1!A1", "Sheet1", "A1", true},
		{"Menu!Bar!B12", "Menu!Bar", "B12", true},
		{"Sheet1", "", "", false},
		{"!A1", "", "", false},
		{"Sheet1!", "", "", false},
		{"Sheet1!nope", "", "", false},
	}
	for _, tt := range tests {
		sheet, cell, ok := splitKey(tt.key)
		if sheet != tt.sheet || cell != tt.cell || ok != tt.ok {
			t.Errorf("splitKey(%q) = %q, %q, %v", tt.key, sheet, cell, ok)
		}
	}
}

func TestWorkbook_Keys(t *testing.T) {
	wb, err := OpenWorkbook(newSampleWorkbook(t))
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	keys, err := wb.Keys(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := "Sheet1!A1,Sheet1!B1,Sheet1!C2,Menu!Bar!A1"
	if strings.Join(keys, ",") != want {
		t.Errorf("Keys = %v, want %s", keys, want)
	}
}

func TestWorkbook_UnknownFields(t *testing.T) {
	ctx := context.Background()
	wb, err := OpenWorkbook(newSampleWorkbook(t))
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	for _, key := range []string{"Nope!A1", "Sheet1", OriginalsSheet + "!A1"} {
		if _, err := wb.GetText(ctx, key); !IsNotFound(err) {
			t.Errorf("GetText(%q) = %v", key, err)
		}
		if err := wb.SetOriginal(ctx, key, "x"); !IsNotFound(err) {
			t.Errorf("SetOriginal(%q) = %v", key, err)
		}
	}
}

func TestWorkbook_AnnotateSaveReopen(t *testing.T) {
	ctx := context.Background()
	path := newSampleWorkbook(t)

	wb, err := OpenWorkbook(path)
	if err != nil {
		t.Fatal(err)
	}
	a := duotext.NewAnnotator("fr_FR", provider.NewMockProvider())
	if _, err := a.Translate(ctx, wb, "Sheet1!A1", "Menu!Bar!A1"); err != nil {
		t.Fatal(err)
	}
	// Toggled to original-only, the metadata slot is what carries the original.
	if _, err := a.Toggle(ctx, wb, "Sheet1!A1"); err != nil {
		t.Fatal(err)
	}
	if err := wb.Save(); err != nil {
		t.Fatal(err)
	}
	wb.Close()

	reopened, err := OpenWorkbook(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	if v, _ := reopened.GetText(ctx, "Menu!Bar!A1"); v != duotext.Compose("Open a file", "Ouvrir un fichier", duotext.PlacementBelow) {
		t.Errorf("Menu!Bar!A1 = %q", v)
	}
	if v, _ := reopened.GetOriginal(ctx, "Menu!Bar!A1"); v != "Open a file" {
		t.Errorf("original for Menu!Bar!A1 = %q", v)
	}

	if v, _ := reopened.GetText(ctx, "Sheet1!A1"); v != "Hello" {
		t.Errorf("Sheet1!A1 = %q", v)
	}
	if v, _ := reopened.GetOriginal(ctx, "Sheet1!A1"); v != "Hello" {
		t.Errorf("original for Sheet1!A1 = %q", v)
	}

	visible, err := reopened.f.GetSheetVisible(OriginalsSheet)
	if err != nil || visible {
		t.Errorf("originals sheet should be hidden: visible=%v err=%v", visible, err)
	}

	keys, _ := reopened.Keys(ctx)
	for _, k := range keys {
		if strings.HasPrefix(k, OriginalsSheet) {
			t.Errorf("originals sheet leaked into keys: %s", k)
		}
	}

	if err := reopened.SetOriginal(ctx, "Menu!Bar!A1", ""); err != nil {
		t.Fatal(err)
	}
	if v, _ := reopened.GetOriginal(ctx, "Menu!Bar!A1"); v != "" {
		t.Errorf("cleared original = %q", v)
	}
}
