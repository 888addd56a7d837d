package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// MemoryContainer keeps objects in process memory. It supports native
// metadata and, when a base URL is configured, public URLs the way cloud
// backends expose CDN endpoints. Used as an embedded container and as the
// standard test double.
type MemoryContainer struct {
	mu      sync.RWMutex
	objects map[string]*memObject
	baseURL string
}

// MemoryOption configures a MemoryContainer.
type MemoryOption func(*MemoryContainer)

// WithBaseURL makes CDNURL resolve to baseURL/<object name>.
func WithBaseURL(baseURL string) MemoryOption {
	return func(c *MemoryContainer) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// NewMemoryContainer creates an empty in-memory container.
func NewMemoryContainer(opts ...MemoryOption) *MemoryContainer {
	c := &MemoryContainer{objects: make(map[string]*memObject)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type memObject struct {
	name string
	data []byte
	meta map[string]string
}

func (o *memObject) Name() string { return o.name }
func (o *memObject) Size() int64  { return int64(len(o.data)) }
func (o *memObject) Metadata() map[string]string {
	out := make(map[string]string, len(o.meta))
	for k, v := range o.meta {
		out[k] = v
	}
	return out
}

// Upload stores content under objectName, replacing any existing object.
func (c *MemoryContainer) Upload(ctx context.Context, objectName string, content io.Reader, opts UploadOptions) (Object, error) {
	if err := validateObjectName(objectName); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("failed to read object content: %w", err)
	}
	meta := make(map[string]string, len(opts.Metadata)+1)
	for k, v := range opts.Metadata {
		meta[k] = v
	}
	if opts.ContentType != "" {
		meta["content_type"] = opts.ContentType
	}
	obj := &memObject{name: objectName, data: data, meta: meta}

	c.mu.Lock()
	c.objects[objectName] = obj
	c.mu.Unlock()
	return obj, nil
}

// Get returns the object with the given name, or ErrObjectNotFound.
func (c *MemoryContainer) Get(ctx context.Context, objectName string) (Object, error) {
	c.mu.RLock()
	obj, ok := c.objects[objectName]
	c.mu.RUnlock()
	if !ok {
		return nil, wrapStorage(ErrObjectNotFound, objectName)
	}
	return obj, nil
}

// Delete removes the named object.
func (c *MemoryContainer) Delete(ctx context.Context, objectName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.objects[objectName]; !ok {
		return wrapStorage(ErrObjectNotFound, objectName)
	}
	delete(c.objects, objectName)
	return nil
}

// Stream opens the object content at offset. A negative length reads to EOF.
func (c *MemoryContainer) Stream(ctx context.Context, objectName string, offset, length int64) (io.ReadCloser, error) {
	c.mu.RLock()
	obj, ok := c.objects[objectName]
	c.mu.RUnlock()
	if !ok {
		return nil, wrapStorage(ErrObjectNotFound, objectName)
	}
	data := obj.data
	if offset < 0 {
		offset = 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	data = data[offset:]
	if length >= 0 && length < int64(len(data)) {
		data = data[:length]
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// List returns all objects sorted by name.
func (c *MemoryContainer) List(ctx context.Context) ([]Object, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	objects := make([]Object, 0, len(c.objects))
	for _, obj := range c.objects {
		objects = append(objects, obj)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Name() < objects[j].Name() })
	return objects, nil
}

// CDNURL returns baseURL/<name> when a base URL is configured.
func (c *MemoryContainer) CDNURL(obj Object) (string, error) {
	if c.baseURL == "" {
		return "", ErrCDNNotSupported
	}
	return c.baseURL + "/" + obj.Name(), nil
}

// NativeMetadata reports true: metadata is kept alongside the object.
func (c *MemoryContainer) NativeMetadata() bool { return true }

// Len returns the number of stored objects.
func (c *MemoryContainer) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.objects)
}
