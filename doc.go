// Package duotext provides a bilingual text annotation codec and an engine
// that applies it to translatable fields.
//
// An annotated field carries both the original text and its translation in a
// single string. The original is wrapped in invisible zero-width markers and
// the two halves are divided by a visible separator line. Rendered, the
// markers disappear:
//
//	Open the door
//	---
//	Ouvrez la porte
//
// The codec functions (HasTranslation, ExtractOriginal, ExtractTranslationOnly,
// IsBilingual, Compose and ToggleMode) are pure and safe for concurrent use.
// They never fail: unrecognized input is treated as plain text.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/duotext"
//	    "github.com/ZaguanLabs/duotext/cache"
//	    "github.com/ZaguanLabs/duotext/provider"
//	    "github.com/ZaguanLabs/duotext/table"
//	)
//
//	func main() {
//	    p := provider.NewOpenAIProvider(provider.OpenAIConfig{
//	        APIKey: os.Getenv("OPENAI_API_KEY"),
//	    })
//
//	    a := duotext.NewAnnotator("fr_FR", p,
//	        duotext.WithCache(cache.NewInMemoryCache(3600)),
//	        duotext.WithPlacement(duotext.PlacementBelow),
//	    )
//
//	    t := table.NewMemoryTable()
//	    t.Put("door.open", "Open the door")
//
//	    report, err := a.Translate(context.Background(), t)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(report.Translated) // 1
//	}
package duotext
