package storage

import (
	"context"
	"io"
)

// Object is a blob stored in a Container, identified by name within the
// container. Metadata carries driver-level key/value pairs when the backend
// supports them natively; backends without native metadata return whatever
// they can reconstruct (possibly nothing).
type Object interface {
	// Name is the object key within its container.
	Name() string

	// Size is the object size in bytes.
	Size() int64

	// Metadata returns driver-level metadata attached to the object.
	Metadata() map[string]string
}

// UploadOptions carries optional attributes for an upload.
type UploadOptions struct {
	// ContentType is the MIME type recorded with the object.
	ContentType string

	// Size is the expected content size in bytes, -1 when unknown.
	Size int64

	// Metadata is custom key/value metadata. Backends without native
	// metadata support ignore it; the Registry persists it as a sidecar
	// object instead.
	Metadata map[string]string

	// Headers are additional driver/request headers (for example CORS
	// headers on cloud backends). Best effort.
	Headers map[string]string
}

// Container is the uniform contract the attachment layer depends on. A
// container is a named external location (local directory, bucket, in-memory
// store) able to store, retrieve and delete blobs by key.
//
// Implementations must be safe for concurrent use.
type Container interface {
	// Upload stores content under objectName, replacing any existing object.
	Upload(ctx context.Context, objectName string, content io.Reader, opts UploadOptions) (Object, error)

	// Get returns the object with the given name, or ErrObjectNotFound.
	Get(ctx context.Context, objectName string) (Object, error)

	// Delete removes the object with the given name.
	// Returns ErrObjectNotFound when it does not exist.
	Delete(ctx context.Context, objectName string) error

	// Stream opens a reader over the object content starting at offset.
	// A negative length streams to the end. The caller must close the reader.
	Stream(ctx context.Context, objectName string, offset, length int64) (io.ReadCloser, error)

	// List returns all objects in the container.
	List(ctx context.Context) ([]Object, error)

	// CDNURL returns a public URL for the object, or ErrCDNNotSupported.
	CDNURL(obj Object) (string, error)

	// NativeMetadata reports whether the backend can persist custom
	// key/value metadata with an object. When false, the Registry stores
	// metadata in a companion sidecar object.
	NativeMetadata() bool
}

// validateObjectName rejects names that are empty or would escape the
// container root when mapped onto a filesystem.
func validateObjectName(name string) error {
	if name == "" || name[0] == '/' {
		return wrapStorage(ErrInvalidObjectName, name)
	}
	// Reject any ".." path element.
	start := 0
	for i := 0; i <= len(name); i++ {
		if i == len(name) || name[i] == '/' {
			if name[start:i] == ".." {
				return wrapStorage(ErrInvalidObjectName, name)
			}
			start = i + 1
		}
	}
	return nil
}
