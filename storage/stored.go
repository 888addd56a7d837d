package storage

import (
	"context"
	"encoding/json"
	"io"
)

// MetadataSuffix is appended to an object name to form the name of its
// sidecar metadata object on backends without native metadata support.
const MetadataSuffix = ".metadata.json"

// StoredFile is a read-only view over a previously persisted object. It
// resolves display metadata (original filename, content type) that some
// backends cannot store natively, falling back to the sidecar convention.
type StoredFile struct {
	name        string
	storage     string
	filename    string
	contentType string
	container   Container
	object      Object
}

// resolveStoredFile builds a StoredFile for obj, consulting the sidecar
// metadata object for backends without native metadata. A missing sidecar is
// not an error; defaults apply instead.
func resolveStoredFile(ctx context.Context, storageName string, container Container, obj Object) *StoredFile {
	meta := obj.Metadata()
	if !container.NativeMetadata() {
		if sidecar, err := readSidecar(ctx, container, obj.Name()); err == nil {
			for k, v := range sidecar {
				meta[k] = v
			}
		}
	}
	filename := meta["filename"]
	if filename == "" {
		filename = "unnamed"
	}
	contentType := meta["content_type"]
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &StoredFile{
		name:        obj.Name(),
		storage:     storageName,
		filename:    filename,
		contentType: contentType,
		container:   container,
		object:      obj,
	}
}

func readSidecar(ctx context.Context, container Container, objectName string) (map[string]string, error) {
	r, err := container.Stream(ctx, objectName+MetadataSuffix, 0, -1)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	meta := map[string]string{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// Name returns the generated object id (the file_id of the descriptor).
func (f *StoredFile) Name() string { return f.name }

// Storage returns the name of the storage holding the object.
func (f *StoredFile) Storage() string { return f.storage }

// Path returns the "<storage name>/<object name>" address of the object.
func (f *StoredFile) Path() string { return f.storage + "/" + f.name }

// Filename returns the original name of the uploaded file.
func (f *StoredFile) Filename() string { return f.filename }

// ContentType returns the MIME type of the uploaded file.
func (f *StoredFile) ContentType() string { return f.contentType }

// Size returns the stored content size in bytes.
func (f *StoredFile) Size() int64 { return f.object.Size() }

// Object returns the underlying storage object.
func (f *StoredFile) Object() Object { return f.object }

// Open returns a reader over the full content. The caller must close it.
func (f *StoredFile) Open(ctx context.Context) (io.ReadCloser, error) {
	return f.container.Stream(ctx, f.object.Name(), 0, -1)
}

// Stream returns a reader over a byte range of the content. A negative
// length reads to the end. The caller must close it.
func (f *StoredFile) Stream(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
	return f.container.Stream(ctx, f.object.Name(), offset, length)
}

// ReadAll reads the full content into memory.
func (f *StoredFile) ReadAll(ctx context.Context) ([]byte, error) {
	r, err := f.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// CDNURL returns the public URL of the object, or an empty string when the
// backend cannot produce one.
func (f *StoredFile) CDNURL() string {
	url, err := f.container.CDNURL(f.object)
	if err != nil {
		return ""
	}
	return url
}
