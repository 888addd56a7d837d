// Package storage provides named object-storage containers and the
// process-wide registry used to address stored blobs by "storage/file-id"
// paths.
package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrObjectNotFound indicates the requested object does not exist in
	// the container.
	ErrObjectNotFound = errors.New("object not found")

	// ErrStorageExists indicates a storage with the same name is already
	// registered.
	ErrStorageExists = errors.New("storage already registered")

	// ErrStorageNotRegistered indicates the requested storage name is unknown.
	ErrStorageNotRegistered = errors.New("storage not registered")

	// ErrNoDefaultStorage indicates no storage has been registered yet, so
	// there is no default to resolve.
	ErrNoDefaultStorage = errors.New("no default storage has been registered")

	// ErrCDNNotSupported indicates the container cannot produce public URLs.
	ErrCDNNotSupported = errors.New("cdn url not supported")

	// ErrInvalidObjectName indicates the object name would escape the
	// container root or is empty.
	ErrInvalidObjectName = errors.New("invalid object name")
)

// IsNotFound reports whether err indicates a missing object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// StorageError wraps a storage error with the name or path it concerns.
type StorageError struct {
	Err      error
	Resource string
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Resource)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *StorageError) Unwrap() error {
	return e.Err
}

func wrapStorage(err error, resource string) error {
	return &StorageError{Err: err, Resource: resource}
}
