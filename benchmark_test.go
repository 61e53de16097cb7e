package duotext_test

import (
	"context"
	"strings"
	"testing"

	"github.com/ZaguanLabs/duotext"
	"github.com/ZaguanLabs/duotext/cache"
	"github.com/ZaguanLabs/duotext/processor"
	"github.com/ZaguanLabs/duotext/provider"
	"github.com/ZaguanLabs/duotext/table"
)

// Benchmarks for performance validation

func BenchmarkHashText(b *testing.B) {
	text := "Hello World, this is a sample text for hashing"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		duotext.HashText(text)
	}
}

func BenchmarkCompose(b *testing.B) {
	for i := 0; i < b.N; i++ {
		duotext.Compose("Open a file", "Ouvrir un fichier", duotext.PlacementBelow)
	}
}

func BenchmarkExtractOriginal(b *testing.B) {
	texts := []string{
		duotext.Compose("Open a file", "Ouvrir un fichier", duotext.PlacementBelow),
		duotext.Compose("Open a file", "Ouvrir un fichier", duotext.PlacementAbove),
		"Open a file" + duotext.Separator + "Ouvrir un fichier",
		"Open a file",
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		duotext.ExtractOriginal(texts[i%len(texts)])
	}
}

func BenchmarkToggleMode(b *testing.B) {
	bilingual := duotext.Compose("Save", "Enregistrer", duotext.PlacementBelow)
	for i := 0; i < b.N; i++ {
		text, meta := duotext.ToggleMode(bilingual, "", duotext.PlacementBelow)
		duotext.ToggleMode(text, meta, duotext.PlacementBelow)
	}
}

func BenchmarkInMemoryCache_Get(b *testing.B) {
	c := cache.NewInMemoryCache(3600)
	c.Set("test-key", "test-value")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("test-key")
	}
}

func BenchmarkHTMLProcessor_Extract_Medium(b *testing.B) {
	proc := processor.NewHTMLProcessor()
	html := `<!DOCTYPE html>
<html>
<head><title>Test Page</title></head>
<body>
	<nav><a href="/">Home</a><a href="/about">About</a></nav>
	<main>
		<h1>Welcome to Our Site</h1>
		<p>This is a paragraph with some text.</p>
		<ul>
			<li>Item one</li>
			<li>Item two</li>
		</ul>
	</main>
</body>
</html>`
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		proc.Extract(html)
	}
}

func BenchmarkGoProcessor_Extract(b *testing.B) {
	proc := processor.NewGoProcessor()
	src := `package ui

// Toolbar holds the main actions.
type Toolbar struct{}

// Save writes the document.
func (t *Toolbar) Save() string { return "Save" }

// Open shows the file picker.
func (t *Toolbar) Open() string { return "Open a file" }
`
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		proc.Extract(src)
	}
}

func BenchmarkAnnotator_Translate_Cached(b *testing.B) {
	ctx := context.Background()
	a := duotext.NewAnnotator("fr_FR", provider.NewMockProvider(),
		duotext.WithCache(cache.NewInMemoryCache(3600)),
	)

	// Prime the cache
	prime := table.NewMemoryTable()
	prime.Put("a", "Hello")
	prime.Put("b", "Save")
	a.Translate(ctx, prime)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fields := table.NewMemoryTable()
		fields.Put("a", "Hello")
		fields.Put("b", "Save")
		a.Translate(ctx, fields)
	}
}

func BenchmarkAnnotator_ProcessHTML_RoundTrip(b *testing.B) {
	ctx := context.Background()
	a := duotext.NewAnnotator("fr_FR", provider.NewMockProvider(),
		append(processor.Register(), duotext.WithCache(cache.NewInMemoryCache(3600)))...,
	)
	html := `<div>` + strings.Repeat(`<p>Hello</p><p>Save</p>`, 10) + `</div>`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, _ := a.ProcessHTML(ctx, html, duotext.ActionTranslate)
		a.ProcessHTML(ctx, res.Content, duotext.ActionRestore)
	}
}

func BenchmarkGetLanguageName(b *testing.B) {
	langs := []string{"en_US", "es_ES", "ar_SA", "ja_JP", "zh_CN"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		duotext.GetLanguageName(langs[i%len(langs)])
	}
}
