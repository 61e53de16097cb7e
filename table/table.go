// Package table provides FieldTable implementations: an in-memory string
// table, a Redis hash pair and an Excel workbook.
package table

import (
	"errors"
	"fmt"

	"github.com/ZaguanLabs/duotext"
)

func notFound(key string) error {
	return fmt.Errorf("%q: %w", key, duotext.ErrFieldNotFound)
}

// IsNotFound reports whether err means the field does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, duotext.ErrFieldNotFound)
}
