package duotext

import (
	"fmt"
	"strings"
)

// Placement selects where the translation is rendered relative to the hidden original.
type Placement int

const (
	// PlacementBelow renders the original first and the translation under it.
	PlacementBelow Placement = iota
	// PlacementAbove renders the translation first and the original under it.
	PlacementAbove
)

// String returns "below" or "above".
func (p Placement) String() string {
	if p == PlacementAbove {
		return "above"
	}
	return "below"
}

// ParsePlacement parses "below" or "above" (case-insensitive). An empty string
// yields the default, PlacementBelow.
func ParsePlacement(s string) (Placement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "below":
		return PlacementBelow, nil
	case "above":
		return PlacementAbove, nil
	default:
		return PlacementBelow, fmt.Errorf("invalid placement %q (want \"above\" or \"below\")", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Placement) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Placement) UnmarshalText(text []byte) error {
	parsed, err := ParsePlacement(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Compose builds an annotated field from a clean original and its translation.
//
// original must already be free of annotations; run ExtractOriginal first when
// the field may have been translated before, or translations will stack.
// ExtractOriginal on the result returns original byte for byte.
func Compose(original, translation string, placement Placement) string {
	if placement == PlacementAbove {
		return translation + Separator + wrap(original)
	}
	return wrap(original) + Separator + translation
}
