// Package validator provides the built-in file validators: maximum size,
// allowed content types and image constraints.
package validator

import (
	"errors"
	"fmt"
)

var (
	// ErrFileTooLarge indicates the file exceeds the configured maximum size.
	ErrFileTooLarge = errors.New("file is too large")

	// ErrContentTypeNotAllowed indicates the file MIME type is not in the
	// allowed list.
	ErrContentTypeNotAllowed = errors.New("content type is not allowed")

	// ErrInvalidImage indicates the content could not be decoded as an image.
	ErrInvalidImage = errors.New("file is not a valid image")

	// ErrDimensionOutOfBounds indicates the image width or height violates
	// the configured bounds.
	ErrDimensionOutOfBounds = errors.New("image dimensions are out of bounds")

	// ErrAspectRatioOutOfBounds indicates the image aspect ratio violates
	// the configured bounds.
	ErrAspectRatioOutOfBounds = errors.New("image aspect ratio is out of bounds")

	// ErrInvalidSizeFormat indicates a size string could not be parsed.
	ErrInvalidSizeFormat = errors.New("invalid size format")
)

// Error is a validation failure carrying the offending column key and a
// human-readable message. It wraps one of the kind sentinels above.
type Error struct {
	Key     string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// Unwrap returns the kind sentinel for errors.Is.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(err error, key, format string, args ...any) *Error {
	return &Error{Key: key, Message: fmt.Sprintf(format, args...), Err: err}
}
