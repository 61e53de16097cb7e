package duotext

// ToggleMode flips a field between the bilingual view and the original-only view.
//
// metadataOriginal is the out-of-band copy of the original kept for the field,
// or "" when none is stored. The returned metadata is what the caller should
// store back; it is never cleared here, so toggling stays lossless.
//
// Going back to bilingual treats the current field value as the translation.
// That only holds when the previous state was produced by ToggleMode itself;
// an independent edit in between becomes the new translation.
func ToggleMode(current, metadataOriginal string, placement Placement) (string, string) {
	if IsBilingual(current) {
		return ExtractOriginal(current), metadataOriginal
	}

	original := metadataOriginal
	if original == "" {
		original = ExtractOriginal(current)
	}
	return Compose(original, current, placement), original
}
