package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Registry is the process-wide named mapping from storage name to Container.
// The first registered container becomes the default. Reads vastly outnumber
// writes (writes happen at startup), so access is guarded by a RWMutex.
type Registry struct {
	mu          sync.RWMutex
	containers  map[string]Container
	defaultName string
	logger      zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		containers: make(map[string]Container),
		logger:     logger.With().Str("component", "storage-registry").Logger(),
	}
}

var defaultRegistry = NewRegistry(zerolog.Nop())

// Default returns the shared process-wide registry.
func Default() *Registry { return defaultRegistry }

// Add registers a container under name. The first added container becomes
// the default. Adding a duplicate name fails with ErrStorageExists.
func (r *Registry) Add(name string, container Container) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.containers[name]; ok {
		return wrapStorage(ErrStorageExists, name)
	}
	if r.defaultName == "" {
		r.defaultName = name
	}
	r.containers[name] = container
	return nil
}

// SetDefault replaces the current default storage.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.containers[name]; !ok {
		return wrapStorage(ErrStorageNotRegistered, name)
	}
	r.defaultName = name
	return nil
}

// DefaultName returns the current default storage name.
func (r *Registry) DefaultName() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.defaultName == "" {
		return "", ErrNoDefaultStorage
	}
	return r.defaultName, nil
}

// Get resolves a container by name. An empty name resolves the default.
func (r *Registry) Get(name string) (Container, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		if r.defaultName == "" {
			return nil, ErrNoDefaultStorage
		}
		name = r.defaultName
	}
	container, ok := r.containers[name]
	if !ok {
		return nil, wrapStorage(ErrStorageNotRegistered, name)
	}
	return container, nil
}

// Names returns the registered storage names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.containers))
	for name := range r.containers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset drops every registered container and the default name.
// Intended for test isolation.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.containers = make(map[string]Container)
	r.defaultName = ""
}

// Save uploads content as objectName into the named storage (empty name
// resolves the default). For backends without native metadata support, any
// custom metadata is persisted first as a sidecar object named
// "<objectName>.metadata.json".
func (r *Registry) Save(ctx context.Context, storageName, objectName string, content io.Reader, opts UploadOptions) (*StoredFile, error) {
	if storageName == "" {
		name, err := r.DefaultName()
		if err != nil {
			return nil, err
		}
		storageName = name
	}
	container, err := r.Get(storageName)
	if err != nil {
		return nil, err
	}
	if !container.NativeMetadata() && len(opts.Metadata) > 0 {
		data, err := json.Marshal(opts.Metadata)
		if err != nil {
			return nil, err
		}
		sidecarOpts := UploadOptions{ContentType: "application/json", Size: int64(len(data))}
		if _, err := container.Upload(ctx, objectName+MetadataSuffix, bytes.NewReader(data), sidecarOpts); err != nil {
			return nil, err
		}
	}
	obj, err := container.Upload(ctx, objectName, content, opts)
	if err != nil {
		return nil, err
	}

	stored := &StoredFile{
		name:        obj.Name(),
		storage:     storageName,
		filename:    opts.Metadata["filename"],
		contentType: opts.ContentType,
		container:   container,
		object:      obj,
	}
	if stored.filename == "" {
		stored.filename = "unnamed"
	}
	if stored.contentType == "" {
		stored.contentType = "application/octet-stream"
	}
	return stored, nil
}

// SaveFromPath uploads the file at filePath as objectName.
func (r *Registry) SaveFromPath(ctx context.Context, storageName, objectName, filePath string, opts UploadOptions) (*StoredFile, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.Save(ctx, storageName, objectName, f, opts)
}

// Retrieve resolves path ("<storage name>/<file id>") to a StoredFile.
// Storage names may themselves contain the path separator, so the split
// happens on the last one.
func (r *Registry) Retrieve(ctx context.Context, path string) (*StoredFile, error) {
	storageName, fileID := SplitPath(path)
	container, err := r.Get(storageName)
	if err != nil {
		return nil, err
	}
	obj, err := container.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return resolveStoredFile(ctx, storageName, container, obj), nil
}

// Delete removes the blob at path. Deleting a missing object is a no-op so
// that overlapping old-path captures stay harmless. For backends without
// native metadata the sidecar object is removed best-effort as well.
func (r *Registry) Delete(ctx context.Context, path string) error {
	storageName, fileID := SplitPath(path)
	container, err := r.Get(storageName)
	if err != nil {
		return err
	}
	if !container.NativeMetadata() {
		if err := container.Delete(ctx, fileID+MetadataSuffix); err != nil && !IsNotFound(err) {
			r.logger.Warn().Err(err).Str("path", path).Msg("failed to delete metadata sidecar")
		}
	}
	if err := container.Delete(ctx, fileID); err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	return nil
}

// SplitPath splits "<storage name>/<file id>" on the last separator, so
// storage names containing separators resolve correctly.
func SplitPath(path string) (storageName, fileID string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}
