package file

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Content is the transient handle to the raw bytes of an unsaved descriptor.
// It is never serialized into the relational column; it only lives until the
// descriptor is uploaded.
type Content struct {
	reader      io.ReadSeeker // nil when path backed
	path        string
	filename    string
	contentType string
	size        int64
}

// NewContentFromBytes wraps an in-memory byte slice.
func NewContentFromBytes(data []byte) *Content {
	return &Content{reader: bytes.NewReader(data), size: int64(len(data))}
}

// NewContentFromString wraps UTF-8 text.
func NewContentFromString(s string) *Content {
	return NewContentFromBytes([]byte(s))
}

// NewContentFromPath wraps a file on disk. The size comes from the file stat
// and the filename from the path base; the file itself is opened lazily.
func NewContentFromPath(path string) (*Content, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat content path: %w", err)
	}
	return &Content{
		path:     path,
		filename: filepath.Base(path),
		size:     info.Size(),
	}, nil
}

// NewContentFromReader wraps a stream. Seekable readers are probed for their
// length; non-seekable readers are buffered in memory. Readers exposing
// Name(), ContentType() or Size() methods contribute the matching attributes.
func NewContentFromReader(r io.Reader) (*Content, error) {
	c := &Content{size: -1}
	if named, ok := r.(interface{ Name() string }); ok {
		c.filename = filepath.Base(named.Name())
	}
	if typed, ok := r.(interface{ ContentType() string }); ok {
		c.contentType = typed.ContentType()
	}
	if sized, ok := r.(interface{ Size() int64 }); ok {
		c.size = sized.Size()
	}

	if rs, ok := r.(io.ReadSeeker); ok {
		c.reader = rs
		if c.size < 0 {
			size, err := probeSize(rs)
			if err != nil {
				return nil, err
			}
			c.size = size
		}
		return c, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to buffer content stream: %w", err)
	}
	c.reader = bytes.NewReader(data)
	c.size = int64(len(data))
	return c, nil
}

// probeSize measures a seekable stream without consuming it.
func probeSize(rs io.ReadSeeker) (int64, error) {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("failed to probe content size: %w", err)
	}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("failed to probe content size: %w", err)
	}
	if _, err := rs.Seek(pos, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to rewind content: %w", err)
	}
	return end - pos, nil
}

// Filename returns the source-provided filename, empty when unknown.
func (c *Content) Filename() string { return c.filename }

// ContentType returns the source-provided MIME type, empty when unknown.
func (c *Content) ContentType() string { return c.contentType }

// Size returns the content length in bytes.
func (c *Content) Size() int64 { return c.size }

// Open returns a reader positioned at the start of the content. Path-backed
// content opens the file; in-memory content rewinds the shared reader. The
// caller must close the result.
func (c *Content) Open() (io.ReadSeekCloser, error) {
	if c.path != "" {
		f, err := os.Open(c.path)
		if err != nil {
			return nil, fmt.Errorf("failed to open content path: %w", err)
		}
		return f, nil
	}
	if _, err := c.reader.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind content: %w", err)
	}
	return nopSeekCloser{c.reader}, nil
}

type nopSeekCloser struct{ io.ReadSeeker }

func (nopSeekCloser) Close() error { return nil }
