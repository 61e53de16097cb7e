package duotext

// TranslationStyle controls the tone and formality of translations.
type TranslationStyle string

const (
	// StyleFormal uses formal, professional language suitable for official documents.
	StyleFormal TranslationStyle = "formal"
	// StyleNeutral uses a neutral, professional tone suitable for general content.
	StyleNeutral TranslationStyle = "neutral"
	// StyleCasual uses casual, conversational language.
	StyleCasual TranslationStyle = "casual"
	// StyleMarketing uses persuasive, engaging language for promotional content.
	StyleMarketing TranslationStyle = "marketing"
	// StyleTechnical uses precise, technical language for documentation and tooling.
	StyleTechnical TranslationStyle = "technical"
)

// Action names a per-field transform the Annotator can apply.
type Action string

const (
	// ActionTranslate replaces a field with a fresh bilingual annotation.
	ActionTranslate Action = "translate"
	// ActionRestore strips an annotation back to the pure original.
	ActionRestore Action = "restore"
	// ActionClearOriginal keeps only the translation. Irreversible.
	ActionClearOriginal Action = "clear"
	// ActionToggle flips between bilingual and original-only display.
	ActionToggle Action = "toggle"
	// ActionAuto restores annotated fields and translates plain ones.
	ActionAuto Action = "auto"
)

// ParseAction maps a CLI or API action name to an Action.
func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionTranslate, ActionRestore, ActionClearOriginal, ActionToggle, ActionAuto:
		return a, true
	}
	return "", false
}

// TextNode is one translatable field found in a piece of content or a field table.
type TextNode struct {
	ID       string            // Field identity (table key, or processor-assigned node ID)
	Raw      string            // Current field value, possibly annotated
	Text     string            // Clean original, ExtractOriginal(Raw)
	Hash     string            // HashText(Text)
	NodeType string            // "field", "html_text", "go_comment", "go_string"
	Context  string            // Disambiguation context for the provider
	Metadata map[string]string // Processor-specific details (parent tag, offsets...)
}

// NewTextNode builds a node for a raw field value, deriving the clean original and its hash.
func NewTextNode(id, raw, nodeType string) TextNode {
	clean := ExtractOriginal(raw)
	return TextNode{
		ID:       id,
		Raw:      raw,
		Text:     clean,
		Hash:     HashText(clean),
		NodeType: nodeType,
		Metadata: map[string]string{},
	}
}

// FieldState describes how a field currently looks, as reported by Inspect.
type FieldState struct {
	Key         string `json:"key"`
	Layout      Layout `json:"layout"`
	Original    string `json:"original"`
	Display     string `json:"display"`
	HasMetadata bool   `json:"has_metadata"`
}

// Layout classifies a raw field value.
type Layout string

const (
	// LayoutPlain has neither markers nor separator.
	LayoutPlain Layout = "plain"
	// LayoutBilingual carries a marker span and the separator.
	LayoutBilingual Layout = "bilingual"
	// LayoutLegacy carries the separator without markers.
	LayoutLegacy Layout = "legacy"
	// LayoutOriginalOnly is plain text whose original is still kept in metadata.
	LayoutOriginalOnly Layout = "original_only"
	// LayoutMarkedOnly carries a marker span but no separator.
	LayoutMarkedOnly Layout = "marked"
)

// ClassifyLayout reports the layout of a raw field value. hasMetadata tells
// whether an out-of-band original is stored for the field.
func ClassifyLayout(raw string, hasMetadata bool) Layout {
	marked := hasCompleteSpan(raw)
	switch {
	case IsBilingual(raw) && marked:
		return LayoutBilingual
	case IsBilingual(raw):
		return LayoutLegacy
	case marked:
		return LayoutMarkedOnly
	case hasMetadata:
		return LayoutOriginalOnly
	default:
		return LayoutPlain
	}
}

// Report summarizes one Annotator run.
type Report struct {
	RunID      string        `json:"run_id"`     // Correlates log lines for this run
	Action     Action        `json:"action"`     // What was applied
	Total      int           `json:"total"`      // Fields considered
	Translated int           `json:"translated"` // Fields annotated with a new provider translation
	Cached     int           `json:"cached"`     // Fields annotated from cache
	Restored   int           `json:"restored"`   // Fields stripped back to the original
	Cleared    int           `json:"cleared"`    // Fields reduced to the translation
	Toggled    int           `json:"toggled"`    // Fields switched display mode
	Skipped    int           `json:"skipped"`    // Empty fields or fields already in the requested state
	Failed     int           `json:"failed"`     // Fields left untouched because of an error
	Errors     []*FieldError `json:"errors,omitempty"`
}

// Changed returns the number of fields that were rewritten.
func (r *Report) Changed() int {
	return r.Translated + r.Cached + r.Restored + r.Cleared + r.Toggled
}

// ProcessedContent is the result of a content-level operation.
type ProcessedContent struct {
	Content string // Rewritten content
	Report  *Report
}

// RTLLanguages contains language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
}

// IgnoredTags contains HTML tags whose content is never treated as a field.
var IgnoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"code":     true,
	"pre":      true,
	"textarea": true,
	"noscript": true,
}
