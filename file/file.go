package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/alexander-attach/storage"
)

// Well-known descriptor keys. The descriptor is an open record: processors,
// validators and callers may add arbitrary keys next to these.
const (
	KeyFilename      = "filename"
	KeyContentType   = "content_type"
	KeySize          = "size"
	KeyFileID        = "file_id"
	KeyUploadStorage = "upload_storage"
	KeyPath          = "path"
	KeyUploadedAt    = "uploaded_at"
	KeyURL           = "url"
	KeySaved         = "saved"
	KeyFiles         = "files"
	KeyExtra         = "extra"
	KeyHeaders       = "headers"
	KeyMetadata      = "metadata"
)

// File is the descriptor uploaded and downloaded through a file column. It
// is a dictionary-like record with both field-style and map-style access
// over one backing store, plus a transient handle to the unsaved original
// content. Once the save pipeline completes the descriptor is frozen and
// every mutation fails with ErrFrozen.
//
// A File is not safe for concurrent mutation; after freezing it is
// effectively read-only and may be shared.
type File struct {
	attrs   map[string]any
	content *Content
	frozen  bool
}

// Option customizes descriptor construction.
type Option func(*File)

// WithFilename overrides the derived filename.
func WithFilename(filename string) Option {
	return func(f *File) { f.attrs[KeyFilename] = filename }
}

// WithContentType overrides the derived MIME type.
func WithContentType(contentType string) Option {
	return func(f *File) { f.attrs[KeyContentType] = contentType }
}

// WithSize overrides the probed content size.
func WithSize(size int64) Option {
	return func(f *File) { f.attrs[KeySize] = size }
}

// WithExtra attaches arbitrary key/value pairs persisted with the descriptor.
func WithExtra(extra map[string]any) Option {
	return func(f *File) { f.attrs[KeyExtra] = extra }
}

// WithHeaders attaches driver request headers (for example CORS headers).
func WithHeaders(headers map[string]string) Option {
	return func(f *File) { f.attrs[KeyHeaders] = headers }
}

// WithMetadata attaches custom driver metadata stored with the blob.
func WithMetadata(metadata map[string]string) Option {
	return func(f *File) { f.attrs[KeyMetadata] = metadata }
}

// New builds a descriptor from exactly one content source:
//
//   - []byte or string: in-memory content
//   - io.Reader: stream content (buffered when not seekable)
//   - *Content: pre-normalized content
//   - map[string]any: an already-encoded descriptor, returned saved and
//     frozen (options are not applied in this case)
//
// A nil or unsupported source fails.
func New(content any, opts ...Option) (*File, error) {
	switch src := content.(type) {
	case nil:
		return nil, ErrNoContent
	case map[string]any:
		return Decode(src), nil
	case *File:
		return src, nil
	case []byte:
		return fromContent(NewContentFromBytes(src), opts...)
	case string:
		return fromContent(NewContentFromString(src), opts...)
	case *Content:
		return fromContent(src, opts...)
	case io.Reader:
		c, err := NewContentFromReader(src)
		if err != nil {
			return nil, err
		}
		return fromContent(c, opts...)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedContent, content)
	}
}

// NewFromPath builds a descriptor whose content is read from a file on disk
// at upload time.
func NewFromPath(path string, opts ...Option) (*File, error) {
	c, err := NewContentFromPath(path)
	if err != nil {
		return nil, err
	}
	return fromContent(c, opts...)
}

func fromContent(c *Content, opts ...Option) (*File, error) {
	f := &File{
		attrs:   make(map[string]any, 8),
		content: c,
	}
	f.attrs[KeyFiles] = []string{}
	f.attrs[KeySaved] = false
	for _, opt := range opts {
		opt(f)
	}
	if f.getString(KeyFilename) == "" {
		filename := c.Filename()
		if filename == "" {
			filename = "unnamed"
		}
		f.attrs[KeyFilename] = filename
	}
	if f.getString(KeyContentType) == "" {
		f.attrs[KeyContentType] = deriveContentType(c, f.getString(KeyFilename))
	}
	if _, ok := f.attrs[KeySize]; !ok {
		f.attrs[KeySize] = c.Size()
	}
	return f, nil
}

// deriveContentType prefers the source-provided type, then a MIME guess from
// the filename extension, then the octet-stream fallback.
func deriveContentType(c *Content, filename string) string {
	if ct := c.ContentType(); ct != "" {
		return ct
	}
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Decode reconstructs a descriptor from its persisted encoding. The result
// is saved and frozen; it carries no original content.
func Decode(data map[string]any) *File {
	attrs := make(map[string]any, len(data))
	for k, v := range data {
		attrs[k] = v
	}
	// A persisted descriptor is saved by definition, even when the stored
	// map predates the saved flag.
	attrs[KeySaved] = true
	return &File{attrs: attrs, frozen: true}
}

// DecodeJSON reconstructs a descriptor from its JSON column value.
func DecodeJSON(data []byte) (*File, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return Decode(m), nil
}

// Encode returns the JSON-serializable form of the descriptor. The transient
// original content is not part of the encoding.
func (f *File) Encode() map[string]any {
	out := make(map[string]any, len(f.attrs))
	for k, v := range f.attrs {
		out[k] = v
	}
	return out
}

// MarshalJSON implements json.Marshaler over the encoded form.
func (f *File) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Encode())
}

// Get returns the raw attribute value for key.
func (f *File) Get(key string) (any, bool) {
	v, ok := f.attrs[key]
	return v, ok
}

// Set stores an attribute value. Fails with ErrFrozen on a saved descriptor.
func (f *File) Set(key string, value any) error {
	if f.frozen {
		return ErrFrozen
	}
	f.attrs[key] = value
	return nil
}

// Update stores several attributes at once. Fails with ErrFrozen on a saved
// descriptor.
func (f *File) Update(values map[string]any) error {
	if f.frozen {
		return ErrFrozen
	}
	for k, v := range values {
		f.attrs[k] = v
	}
	return nil
}

// Each calls fn for every attribute, stopping early when fn returns false.
// Iteration order is unspecified.
func (f *File) Each(fn func(key string, value any) bool) {
	for k, v := range f.attrs {
		if !fn(k, v) {
			return
		}
	}
}

// Unset removes an attribute. Fails with ErrFrozen on a saved descriptor.
func (f *File) Unset(key string) error {
	if f.frozen {
		return ErrFrozen
	}
	delete(f.attrs, key)
	return nil
}

// Frozen reports whether the descriptor rejects mutation.
func (f *File) Frozen() bool { return f.frozen }

func (f *File) freeze() { f.frozen = true }

// Filename returns the name of the uploaded file.
func (f *File) Filename() string { return f.getString(KeyFilename) }

// ContentType returns the MIME type of the uploaded file.
func (f *File) ContentType() string { return f.getString(KeyContentType) }

// Size returns the content size in bytes.
func (f *File) Size() int64 { return toInt64(f.attrs[KeySize]) }

// FileID returns the generated unique id of the uploaded file.
func (f *File) FileID() string { return f.getString(KeyFileID) }

// UploadStorage returns the name of the storage holding the content.
func (f *File) UploadStorage() string { return f.getString(KeyUploadStorage) }

// Path returns the "<upload storage>/<file id>" address of the content.
func (f *File) Path() string { return f.getString(KeyPath) }

// UploadedAt returns the upload timestamp in RFC 3339 form.
func (f *File) UploadedAt() string { return f.getString(KeyUploadedAt) }

// URL returns the public URL of the content, empty when the backend has none.
func (f *File) URL() string { return f.getString(KeyURL) }

// Saved reports whether the content has been uploaded.
func (f *File) Saved() bool {
	saved, _ := f.attrs[KeySaved].(bool)
	return saved
}

// Files returns every storage path this descriptor caused to be written,
// including side artifacts such as thumbnails.
func (f *File) Files() []string { return toStringSlice(f.attrs[KeyFiles]) }

// Extra returns the arbitrary key/value pairs persisted with the descriptor.
func (f *File) Extra() map[string]any {
	extra, _ := f.attrs[KeyExtra].(map[string]any)
	return extra
}

// Headers returns the driver request headers attached to uploads.
func (f *File) Headers() map[string]string { return toStringMap(f.attrs[KeyHeaders]) }

// Metadata returns the custom driver metadata stored with the blob.
func (f *File) Metadata() map[string]string { return toStringMap(f.attrs[KeyMetadata]) }

// Original returns the transient unsaved content, nil for decoded
// descriptors.
func (f *File) Original() *Content { return f.content }

// ApplyValidators runs each validator in order against the unsaved
// descriptor; the first failure aborts.
func (f *File) ApplyValidators(validators []Validator, key string) error {
	for _, v := range validators {
		if err := v.Validate(f, key); err != nil {
			return err
		}
	}
	return nil
}

// SaveToStorage uploads the original content into the named storage (empty
// resolves the registry default) and fills in file_id, upload_storage,
// uploaded_at, path, url and saved. This is the only transition from unsaved
// to saved; the descriptor freezes once ApplyProcessors completes.
func (f *File) SaveToStorage(ctx context.Context, reg *storage.Registry, storageName string) error {
	if f.frozen {
		return ErrFrozen
	}
	if f.Saved() {
		return ErrAlreadySaved
	}
	if f.content == nil {
		return ErrNoContent
	}
	if storageName == "" {
		name, err := reg.DefaultName()
		if err != nil {
			return err
		}
		storageName = name
	}

	metadata := map[string]string{}
	for k, v := range f.Metadata() {
		metadata[k] = v
	}
	metadata[KeyFilename] = f.Filename()
	metadata[KeyContentType] = f.ContentType()

	content, err := f.content.Open()
	if err != nil {
		return err
	}
	defer content.Close()

	fileID := uuid.NewString()
	stored, err := f.StoreContent(ctx, reg, storageName, fileID, content, storage.UploadOptions{
		ContentType: f.ContentType(),
		Size:        f.Size(),
		Metadata:    metadata,
		Headers:     f.Headers(),
	})
	if err != nil {
		return err
	}

	f.attrs[KeyFileID] = stored.Name()
	f.attrs[KeyUploadStorage] = storageName
	f.attrs[KeyUploadedAt] = time.Now().UTC().Format(time.RFC3339)
	f.attrs[KeyPath] = storageName + "/" + stored.Name()
	f.attrs[KeyURL] = stored.CDNURL()
	f.attrs[KeySaved] = true
	return nil
}

// ApplyProcessors runs each processor in order, then freezes the descriptor.
// Call with an empty processor list to complete the save pipeline.
func (f *File) ApplyProcessors(ctx context.Context, reg *storage.Registry, processors []Processor, storageName string) error {
	for _, p := range processors {
		if err := p.Process(ctx, f, reg, storageName); err != nil {
			return err
		}
	}
	f.freeze()
	return nil
}

// StoreContent uploads a blob into the named storage (empty resolves the
// registry default) and remembers its path in the files list. It is the
// primitive behind SaveToStorage and is what processors use to persist side
// artifacts. An empty objectName generates a fresh id.
func (f *File) StoreContent(ctx context.Context, reg *storage.Registry, storageName, objectName string, content io.Reader, opts storage.UploadOptions) (*storage.StoredFile, error) {
	if f.frozen {
		return nil, ErrFrozen
	}
	if storageName == "" {
		name, err := reg.DefaultName()
		if err != nil {
			return nil, err
		}
		storageName = name
	}
	if objectName == "" {
		objectName = uuid.NewString()
	}
	stored, err := reg.Save(ctx, storageName, objectName, content, opts)
	if err != nil {
		return nil, err
	}
	f.attrs[KeyFiles] = append(f.Files(), storageName+"/"+objectName)
	return stored, nil
}

// Stored retrieves the persisted content as a StoredFile handle. Fails with
// ErrNotSaved on an unsaved descriptor.
func (f *File) Stored(ctx context.Context, reg *storage.Registry) (*storage.StoredFile, error) {
	if !f.Saved() {
		return nil, ErrNotSaved
	}
	return reg.Retrieve(ctx, f.Path())
}

func (f *File) getString(key string) string {
	s, _ := f.attrs[key].(string)
	return s
}

// toInt64 coerces the numeric encodings a JSON round-trip can produce.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	default:
		return 0
	}
}

func toStringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

func toStringMap(v any) map[string]string {
	switch m := v.(type) {
	case map[string]string:
		return m
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, item := range m {
			if str, ok := item.(string); ok {
				out[k] = str
			}
		}
		return out
	default:
		return nil
	}
}
