package duotext

import "strings"

// HasTranslation reports whether text already carries a bilingual annotation,
// either the marked layout or the legacy separator-only layout.
//
// A false result means the field can be treated as untranslated source text.
// A true result does not guarantee a marker span exists; use ExtractOriginal
// to recover the original in both layouts.
func HasTranslation(text string) bool {
	if text == "" {
		return false
	}
	if strings.Contains(text, Separator) {
		return true
	}
	return hasCompleteSpan(text)
}

// IsBilingual reports whether text currently shows both halves, i.e. contains
// the separator line. It decides the direction of ToggleMode.
func IsBilingual(text string) bool {
	return strings.Contains(text, Separator)
}
