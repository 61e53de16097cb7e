package duotext

import "testing"

func TestHashText(t *testing.T) {
	const helloWorld = "a591a6d40bf420404a011733cfb7b190d62c65bf0bcda32b57b277d9ad9f146e"

	for _, in := range []string{"Hello World", "  Hello World", "Hello World\n", "\tHello World  "} {
		if got := HashText(in); got != helloWorld {
			t.Errorf("HashText(%q) = %s, want %s", in, got, helloWorld)
		}
	}
	if got := HashText(""); len(got) != 64 {
		t.Errorf("empty hash length = %d, want 64", len(got))
	}
	if HashText("Hello") == HashText("hello") {
		t.Error("hash should be case sensitive")
	}
}

func TestHashText_StableAcrossAnnotation(t *testing.T) {
	plain := NewTextNode("k", "Open a file", "field")
	below := NewTextNode("k", Compose("Open a file", "Ouvrir un fichier", PlacementBelow), "field")
	above := NewTextNode("k", Compose("Open a file", "Ouvrir un fichier", PlacementAbove), "field")

	if plain.Hash != below.Hash || plain.Hash != above.Hash {
		t.Error("annotating a field must not change its original hash")
	}
}

func TestCacheKey(t *testing.T) {
	if got := CacheKey("abc123", "fr_FR"); got != "abc123:fr_FR" {
		t.Errorf("CacheKey() = %q", got)
	}
}
