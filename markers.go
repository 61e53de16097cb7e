package duotext

import "strings"

// Wire format. These sequences are persisted inside user data and must never change.
const (
	// MarkerStart opens the hidden original: ZERO WIDTH SPACE + ZERO WIDTH NON-JOINER.
	MarkerStart = "\u200b\u200c"

	// MarkerEnd closes the hidden original: ZERO WIDTH SPACE + ZERO WIDTH JOINER.
	MarkerEnd = "\u200b\u200d"

	// Separator is the visible line dividing the two halves of a bilingual field.
	Separator = "\n---\n"
)

// span locates a marker-delimited original. start is the offset of MarkerStart,
// end the offset of MarkerEnd; both are byte offsets.
type span struct {
	start int
	end   int
}

// content returns the text strictly between the markers.
func (s span) content(text string) string {
	return text[s.start+len(MarkerStart) : s.end]
}

// after returns the offset just past MarkerEnd.
func (s span) after() int {
	return s.end + len(MarkerEnd)
}

// findSpan returns the first MarkerStart and the first MarkerEnd after it.
// An unterminated MarkerStart is not a span.
func findSpan(text string) (span, bool) {
	start := strings.Index(text, MarkerStart)
	if start < 0 {
		return span{}, false
	}
	from := start + len(MarkerStart)
	rel := strings.Index(text[from:], MarkerEnd)
	if rel < 0 {
		return span{}, false
	}
	return span{start: start, end: from + rel}, true
}

// hasCompleteSpan reports whether text holds a terminated marker span.
func hasCompleteSpan(text string) bool {
	_, ok := findSpan(text)
	return ok
}

func hasBothMarkers(text string) bool {
	return strings.Contains(text, MarkerStart) && strings.Contains(text, MarkerEnd)
}

func wrap(original string) string {
	return MarkerStart + original + MarkerEnd
}

// Wrap hides original between the invisible markers. Nothing is escaped:
// marker or separator sequences inside original pass through unchanged.
func Wrap(original string) string {
	return wrap(original)
}

// Visible returns text as a reader sees it, with every marker sequence removed.
func Visible(text string) string {
	return strings.NewReplacer(MarkerStart, "", MarkerEnd, "").Replace(text)
}
