package duotext

import "strings"

// ExtractOriginal recovers the pure original from an annotated field.
//
// The content of a marker span is returned verbatim, even when empty or padded
// with whitespace. In the legacy layout the left half is the original and is
// trimmed. Text with no recognizable layout is returned unchanged, which makes
// every plain string a fixed point.
func ExtractOriginal(text string) string {
	if text == "" {
		return text
	}

	if s, ok := findSpan(text); ok {
		return s.content(text)
	}

	if left, right, ok := strings.Cut(text, Separator); ok {
		// No ordered span exists anywhere, so a half carrying both markers
		// has them inverted and names no original.
		if hasBothMarkers(left) || hasBothMarkers(right) {
			return text
		}
		if original := strings.TrimSpace(left); original != "" {
			return original
		}
	}

	return text
}

// ExtractTranslationOnly returns the translation half of an annotated field,
// trimmed, which is also what a user sees once the original is cleared.
// Text with no recognizable layout is returned unchanged.
func ExtractTranslationOnly(text string) string {
	if text == "" {
		return text
	}

	if s, ok := findSpan(text); ok {
		if sep := strings.Index(text, Separator); sep >= 0 {
			switch {
			case s.start < sep && s.end < sep:
				return strings.TrimSpace(text[sep+len(Separator):])
			case s.start > sep:
				return strings.TrimSpace(text[:sep])
			}
		}

		// Separator missing or straddled by the span: the translation sits
		// on whichever side of the span has room for it.
		if s.start == 0 {
			if s.after() < len(text) {
				return strings.TrimSpace(text[s.after():])
			}
		} else {
			return strings.TrimSpace(text[:s.start])
		}
	}

	if _, right, ok := strings.Cut(text, Separator); ok {
		return strings.TrimSpace(right)
	}

	return text
}
