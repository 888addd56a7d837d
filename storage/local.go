package storage

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
)

// LocalContainer stores objects as plain files under a root directory.
//
// The local filesystem cannot carry custom key/value metadata, so
// NativeMetadata reports false and the Registry persists metadata as sidecar
// objects next to the blob. Writes are atomic: content goes to a temporary
// file first and is renamed into place once fully written.
type LocalContainer struct {
	root string
}

// NewLocalContainer creates a container rooted at dir, creating it if needed.
func NewLocalContainer(dir string) (*LocalContainer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create container root: %w", err)
	}
	return &LocalContainer{root: dir}, nil
}

// localObject describes a file-backed object. The checksum is only known for
// objects returned by Upload; Get does not re-read the content.
type localObject struct {
	name string
	size int64
	meta map[string]string
}

func (o *localObject) Name() string { return o.name }
func (o *localObject) Size() int64  { return o.size }
func (o *localObject) Metadata() map[string]string {
	if o.meta == nil {
		return map[string]string{}
	}
	return o.meta
}

// Upload writes content to root/objectName atomically and records a BLAKE2b
// checksum of the written bytes in the returned object's metadata.
func (c *LocalContainer) Upload(ctx context.Context, objectName string, content io.Reader, opts UploadOptions) (Object, error) {
	if err := validateObjectName(objectName); err != nil {
		return nil, err
	}
	target := filepath.Join(c.root, filepath.FromSlash(objectName))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create parent directory: %w", err)
	}

	tmp := target + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	hasher, _ := blake2b.New256(nil)
	written, err := io.Copy(io.MultiWriter(f, hasher), content)
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return nil, fmt.Errorf("failed to write object content: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return nil, fmt.Errorf("failed to sync object content: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("failed to rename temp file: %w", err)
	}

	return &localObject{
		name: objectName,
		size: written,
		meta: map[string]string{"checksum": hex.EncodeToString(hasher.Sum(nil))},
	}, nil
}

// Get returns the object with the given name, or ErrObjectNotFound.
func (c *LocalContainer) Get(ctx context.Context, objectName string) (Object, error) {
	if err := validateObjectName(objectName); err != nil {
		return nil, err
	}
	info, err := os.Stat(filepath.Join(c.root, filepath.FromSlash(objectName)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, wrapStorage(ErrObjectNotFound, objectName)
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}
	if info.IsDir() {
		return nil, wrapStorage(ErrObjectNotFound, objectName)
	}
	return &localObject{name: objectName, size: info.Size()}, nil
}

// Delete removes the named object.
func (c *LocalContainer) Delete(ctx context.Context, objectName string) error {
	if err := validateObjectName(objectName); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(c.root, filepath.FromSlash(objectName)))
	if err != nil {
		if os.IsNotExist(err) {
			return wrapStorage(ErrObjectNotFound, objectName)
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Stream opens the object content at offset. A negative length reads to EOF.
func (c *LocalContainer) Stream(ctx context.Context, objectName string, offset, length int64) (io.ReadCloser, error) {
	if err := validateObjectName(objectName); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(c.root, filepath.FromSlash(objectName)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, wrapStorage(ErrObjectNotFound, objectName)
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to seek object: %w", err)
		}
	}
	if length < 0 {
		return f, nil
	}
	return &limitedReadCloser{Reader: io.LimitReader(f, length), closer: f}, nil
}

// List walks the container root and returns every stored object.
func (c *LocalContainer) List(ctx context.Context) ([]Object, error) {
	var objects []Object
	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(c.root, path)
		if err != nil {
			return err
		}
		objects = append(objects, &localObject{name: filepath.ToSlash(rel), size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list container: %w", err)
	}
	return objects, nil
}

// CDNURL is not supported by the local filesystem backend.
func (c *LocalContainer) CDNURL(obj Object) (string, error) {
	return "", ErrCDNNotSupported
}

// NativeMetadata reports false: the local backend needs metadata sidecars.
func (c *LocalContainer) NativeMetadata() bool { return false }

// Root returns the container root directory.
func (c *LocalContainer) Root() string { return c.root }

type limitedReadCloser struct {
	io.Reader
	closer io.Closer
}

func (l *limitedReadCloser) Close() error { return l.closer.Close() }
