package duotext

import "context"

// FieldStore is the capability a host exposes for its text fields: string
// table entries, spreadsheet cells, widget labels, node comments. The codec
// never learns which concrete kind of field it is working on.
type FieldStore interface {
	// Keys lists the field identities in a stable order.
	Keys(ctx context.Context) ([]string, error)

	// GetText returns the current raw value of a field.
	GetText(ctx context.Context, key string) (string, error)

	// SetText overwrites the raw value of a field.
	SetText(ctx context.Context, key, value string) error
}

// MetadataStore keeps the out-of-band original per field identity so display
// mode can be toggled without losing the original.
type MetadataStore interface {
	// GetOriginal returns the stored original, or "" when none is stored.
	GetOriginal(ctx context.Context, key string) (string, error)

	// SetOriginal stores the original; an empty value clears it.
	SetOriginal(ctx context.Context, key, original string) error
}

// FieldTable combines field access with its metadata slot.
type FieldTable interface {
	FieldStore
	MetadataStore
}
