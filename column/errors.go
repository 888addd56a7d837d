// Package column adapts file descriptors to relational JSON columns: it
// materializes raw assignments into descriptors and encodes/decodes the
// persisted representation.
package column

import "errors"

var (
	// ErrSingleExpected indicates a collection was bound to a single-file
	// column.
	ErrSingleExpected = errors.New("column holds a single file, got a collection")

	// ErrMultipleExpected indicates a bare descriptor was bound to a
	// multiple-file column.
	ErrMultipleExpected = errors.New("column holds multiple files, got a single descriptor")

	// ErrUnsupportedValue indicates a value the column cannot encode or
	// decode.
	ErrUnsupportedValue = errors.New("unsupported column value")
)
