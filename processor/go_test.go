package processor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ZaguanLabs/duotext"
	"github.com/ZaguanLabs/duotext/provider"
)

const sampleSource = `package main

import "fmt"

// Greeter prints a greeting.
//
// It is used by main.
type Greeter struct {
	Name string ` + "`json:\"name\"`" + `
}

//go:generate stringer -type=Mode

func main() {
	fmt.Println("Hello there") // say hi
	const mode = "DEBUG"
	path := "config/app.toml"
	msg := ` + "`Open a file`" + `
	_ = path
	_ = msg
}
`

func texts(nodes []TextNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Text
	}
	return out
}

func TestGoProcessor_Extract(t *testing.T) {
	p := NewGoProcessor()

	_, nodes, err := p.Extract(sampleSource)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := []string{
		"Greeter prints a greeting.\n\nIt is used by main.",
		"Hello there",
		"Open a file",
	}
	if got := texts(nodes); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("fields = %q\nwant %q", got, want)
	}

	if nodes[1].NodeType != "go_string" || nodes[1].Context != "Go string literal, argument to fmt.Println" {
		t.Errorf("unexpected string node: %+v", nodes[1])
	}
	if nodes[2].Metadata["quote"] != "`" {
		t.Errorf("raw literal not marked: %+v", nodes[2].Metadata)
	}
	if nodes[0].NodeType != "go_comment" || nodes[0].Metadata["line"] != "5" {
		t.Errorf("unexpected comment node: %+v", nodes[0])
	}
}

func TestGoProcessor_Options(t *testing.T) {
	_, comments, _ := NewGoProcessor(WithStrings(false)).Extract(sampleSource)
	for _, n := range comments {
		if n.NodeType != "go_comment" {
			t.Errorf("strings disabled but got %+v", n)
		}
	}
	_, strs, _ := NewGoProcessor(WithComments(false)).Extract(sampleSource)
	for _, n := range strs {
		if n.NodeType != "go_string" {
			t.Errorf("comments disabled but got %+v", n)
		}
	}
	if len(comments)+len(strs) != 3 {
		t.Errorf("expected 3 fields in total, got %d", len(comments)+len(strs))
	}
}

func TestGoProcessor_ApplySplicesOnlyRewrites(t *testing.T) {
	p := NewGoProcessor()
	parsed, nodes, _ := p.Extract(sampleSource)

	doc := "Greeter prints a greeting.\n\nIt is used by main.\n---\nGreeter affiche un salut."
	rewrites := map[string]string{
		nodes[0].ID: doc,
		nodes[1].ID: "Bonjour\n---\n\"là\"",
		nodes[2].ID: "Open a file\n---\nOuvrir un fichier",
	}
	out, err := p.Apply(parsed, nodes, rewrites)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	for _, want := range []string{
		"// Greeter prints a greeting.\n//\n// It is used by main.\n// ---\n// Greeter affiche un salut.\ntype Greeter struct",
		`fmt.Println("Bonjour\n---\n\"là\"") // say hi`,
		"msg := `Open a file\n---\nOuvrir un fichier`",
		"//go:generate stringer -type=Mode",
		"`json:\"name\"`",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// The result must still parse and yield the rewritten fields.
	_, again, err := p.Extract(out)
	if err != nil {
		t.Fatalf("rewritten source does not parse: %v", err)
	}
	if len(again) != 3 || again[0].Raw != doc {
		t.Errorf("comment field did not round trip: %+v", again)
	}
}

func TestGoProcessor_RawLiteralFallsBackToQuoted(t *testing.T) {
	p := NewGoProcessor()
	parsed, nodes, _ := p.Extract("package x\n\nvar s = `Open it`\n")

	out, _ := p.Apply(parsed, nodes, map[string]string{nodes[0].ID: "Use `go run`"})
	if !strings.Contains(out, "var s = \"Use `go run`\"") {
		t.Errorf("raw literal with backtick should become quoted:\n%s", out)
	}
}

func TestGoProcessor_BlockComment(t *testing.T) {
	p := NewGoProcessor(WithStrings(false))
	parsed, nodes, _ := p.Extract("package x\n\n/* Start the engine */\nfunc f() {}\n")
	if len(nodes) != 1 || nodes[0].Text != "Start the engine" {
		t.Fatalf("unexpected fields: %+v", nodes)
	}
	out, _ := p.Apply(parsed, nodes, map[string]string{nodes[0].ID: "Démarrer */ le moteur"})
	if !strings.Contains(out, "/* Démarrer * / le moteur */") {
		t.Errorf("comment terminator should be broken up:\n%s", out)
	}
}

func TestIsDirective(t *testing.T) {
	tests := map[string]bool{
		"//go:build linux":     true,
		"//nolint:errcheck":    true,
		"//line foo.go:10":     true,
		"// go:build is prose": false,
		"//TODO: tidy":         false,
		"// Hello":             false,
		"//":                   false,
	}
	for c, want := range tests {
		if got := isDirective(c); got != want {
			t.Errorf("isDirective(%q) = %v, want %v", c, got, want)
		}
	}
}

func TestIsTranslatableString(t *testing.T) {
	tests := map[string]bool{
		"Hello world":     true,
		"Save":            true,
		"a":               false,
		"path/to/file":    false,
		"%s":              false,
		"DEBUG":           false,
		"12345":           false,
		"Open a file/dir": true,
	}
	for s, want := range tests {
		if got := isTranslatableString(s); got != want {
			t.Errorf("isTranslatableString(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestGoProcessor_InvalidSource(t *testing.T) {
	_, _, err := NewGoProcessor().Extract("package main\nfunc {")
	var procErr *duotext.ProcessorError
	if !errors.As(err, &procErr) || procErr.ContentType != "go" {
		t.Fatalf("expected ProcessorError, got %v", err)
	}
}

func TestGoProcessor_WithAnnotator(t *testing.T) {
	ctx := context.Background()
	a := duotext.NewAnnotator("fr_FR", provider.NewMockProvider(), Register()...)

	src := "package ui\n\n// Save\nvar label = \"Hello\"\n"
	translated, err := a.Process(ctx, src, "go", duotext.ActionTranslate)
	if err != nil {
		t.Fatal(err)
	}
	if translated.Report.Translated != 2 {
		t.Fatalf("unexpected report: %+v", translated.Report)
	}

	// Markers survive in the source: raw in comments, escaped in literals.
	if !strings.Contains(translated.Content, "// "+duotext.MarkerStart+"Save"+duotext.MarkerEnd+"\n// ---\n// Enregistrer\n") {
		t.Errorf("comment not annotated:\n%q", translated.Content)
	}
	if !strings.Contains(translated.Content, `"\u200b\u200cHello\u200b\u200d\n---\nBonjour"`) {
		t.Errorf("string not annotated:\n%q", translated.Content)
	}

	_, nodes, err := NewGoProcessor().Extract(translated.Content)
	if err != nil {
		t.Fatalf("annotated source no longer parses: %v", err)
	}
	want := map[string]string{"Save": "Enregistrer", "Hello": "Bonjour"}
	if len(nodes) != len(want) {
		t.Fatalf("expected %d fields, got %v", len(want), texts(nodes))
	}
	for _, n := range nodes {
		if !duotext.IsBilingual(n.Raw) {
			t.Errorf("%s is not bilingual: %q", n.ID, n.Raw)
		}
		if got := duotext.ExtractTranslationOnly(n.Raw); got != want[n.Text] {
			t.Errorf("%s: translation of %q = %q, want %q", n.ID, n.Text, got, want[n.Text])
		}
	}

	restored, err := a.Process(ctx, translated.Content, "go", duotext.ActionRestore)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Content != src {
		t.Errorf("restore should round trip, got:\n%s", restored.Content)
	}
}
