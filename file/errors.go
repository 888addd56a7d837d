// Package file provides the descriptor persisted in a file column: a
// dictionary-like record of a stored blob plus the transient unsaved content,
// the tracked mutable collection used for multiple-file columns, and the
// validator/processor plugin contracts.
package file

import "errors"

var (
	// ErrNoContent indicates a descriptor was constructed without any
	// content source.
	ErrNoContent = errors.New("no content source provided")

	// ErrUnsupportedContent indicates the content source type cannot be
	// normalized into file content.
	ErrUnsupportedContent = errors.New("unsupported content source")

	// ErrFrozen indicates an attempted mutation of a saved descriptor.
	// Saved descriptors are immutable; this is a programming error.
	ErrFrozen = errors.New("saved files are immutable")

	// ErrAlreadySaved indicates a second save of an already saved descriptor.
	ErrAlreadySaved = errors.New("file has already been saved")

	// ErrNotSaved indicates an operation that requires a saved descriptor,
	// such as retrieving the stored content.
	ErrNotSaved = errors.New("file has not been saved yet")
)
