package file

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/alexander-attach/storage"
)

func newTestRegistry(t *testing.T) (*storage.Registry, *storage.MemoryContainer) {
	t.Helper()
	reg := storage.NewRegistry(zerolog.Nop())
	container := storage.NewMemoryContainer()
	require.NoError(t, reg.Add("documents", container))
	return reg, container
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		content any
		opts    []Option
		want    func(t *testing.T, f *File)
		wantErr error
	}{
		{
			name:    "bytes",
			content: []byte("hello"),
			want: func(t *testing.T, f *File) {
				require.Equal(t, "unnamed", f.Filename())
				require.Equal(t, "application/octet-stream", f.ContentType())
				require.Equal(t, int64(5), f.Size())
				require.False(t, f.Saved())
				require.False(t, f.Frozen())
			},
		},
		{
			name:    "string",
			content: "hello world",
			want: func(t *testing.T, f *File) {
				require.Equal(t, int64(11), f.Size())
			},
		},
		{
			name:    "reader",
			content: strings.NewReader("stream content"),
			want: func(t *testing.T, f *File) {
				require.Equal(t, int64(14), f.Size())
			},
		},
		{
			name:    "filename drives content type",
			content: []byte("{}"),
			opts:    []Option{WithFilename("config.json")},
			want: func(t *testing.T, f *File) {
				require.Equal(t, "config.json", f.Filename())
				require.Contains(t, f.ContentType(), "application/json")
			},
		},
		{
			name:    "explicit content type wins",
			content: []byte("data"),
			opts:    []Option{WithFilename("report.json"), WithContentType("text/plain")},
			want: func(t *testing.T, f *File) {
				require.Equal(t, "text/plain", f.ContentType())
			},
		},
		{
			name:    "encoded descriptor decodes saved and frozen",
			content: map[string]any{"filename": "a.txt", "saved": true, "path": "documents/id"},
			want: func(t *testing.T, f *File) {
				require.True(t, f.Saved())
				require.True(t, f.Frozen())
				require.Equal(t, "a.txt", f.Filename())
			},
		},
		{
			name:    "nil content",
			content: nil,
			wantErr: ErrNoContent,
		},
		{
			name:    "unsupported content",
			content: 42,
			wantErr: ErrUnsupportedContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.content, tt.opts...)
			if tt.wantErr != nil {
				require.Error(t, err)
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.want(t, f)
		})
	}
}

func TestNewFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ok":true}`), 0o644))

	f, err := NewFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "report.json", f.Filename())
	require.Contains(t, f.ContentType(), "application/json")
	require.Equal(t, int64(11), f.Size())
}

func TestFile_SaveToStorage(t *testing.T) {
	reg, container := newTestRegistry(t)
	ctx := context.Background()

	f, err := New([]byte("hello world"), WithFilename("hello.txt"), WithContentType("text/plain"))
	require.NoError(t, err)

	require.NoError(t, f.SaveToStorage(ctx, reg, ""))
	require.True(t, f.Saved())
	require.NotEmpty(t, f.FileID())
	require.Equal(t, "documents", f.UploadStorage())
	require.Equal(t, "documents/"+f.FileID(), f.Path())
	require.NotEmpty(t, f.UploadedAt())
	require.Equal(t, []string{f.Path()}, f.Files())
	require.Equal(t, 1, container.Len())

	// Saving twice fails.
	require.ErrorIs(t, f.SaveToStorage(ctx, reg, ""), ErrAlreadySaved)

	stored, err := f.Stored(ctx, reg)
	require.NoError(t, err)
	require.Equal(t, "hello.txt", stored.Filename())
	data, err := stored.ReadAll(ctx)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(data))
}

func TestFile_SaveToStorage_NoContent(t *testing.T) {
	reg, _ := newTestRegistry(t)

	f := Decode(map[string]any{"filename": "a.txt"})
	require.ErrorIs(t, f.SaveToStorage(context.Background(), reg, ""), ErrFrozen)
}

func TestDecode_AlwaysSaved(t *testing.T) {
	// Persisted maps without the saved flag still decode as already-saved.
	f := Decode(map[string]any{"filename": "legacy.txt", "path": "documents/legacy-id"})

	require.True(t, f.Saved())
	require.True(t, f.Frozen())
	require.ErrorIs(t, f.Set("filename", "renamed.txt"), ErrFrozen)
}

func TestFile_FreezeAfterPipeline(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	f, err := New([]byte("content"))
	require.NoError(t, err)

	require.NoError(t, f.SaveToStorage(ctx, reg, ""))
	// Processors may still mutate between upload and freeze.
	require.NoError(t, f.Set("width", 640))

	require.NoError(t, f.ApplyProcessors(ctx, reg, nil, ""))
	require.True(t, f.Frozen())

	require.ErrorIs(t, f.Set("width", 800), ErrFrozen)
	require.ErrorIs(t, f.Update(map[string]any{"x": 1}), ErrFrozen)
	require.ErrorIs(t, f.Unset("width"), ErrFrozen)
}

func TestFile_EncodeExcludesContent(t *testing.T) {
	f, err := New([]byte("secret bytes"), WithFilename("s.bin"))
	require.NoError(t, err)

	data, err := json.Marshal(f)
	require.NoError(t, err)
	require.NotContains(t, string(data), "secret bytes")

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	require.Equal(t, "s.bin", m["filename"])
}

func TestFile_DecodeJSONRoundTrip(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	f, err := New([]byte("hello"), WithFilename("hello.txt"))
	require.NoError(t, err)
	require.NoError(t, f.SaveToStorage(ctx, reg, ""))
	require.NoError(t, f.ApplyProcessors(ctx, reg, nil, ""))

	data, err := json.Marshal(f)
	require.NoError(t, err)

	decoded, err := DecodeJSON(data)
	require.NoError(t, err)
	require.True(t, decoded.Frozen())
	require.True(t, decoded.Saved())
	require.Equal(t, f.Path(), decoded.Path())
	require.Equal(t, f.Files(), decoded.Files())
	require.Equal(t, f.Size(), decoded.Size())
	require.Nil(t, decoded.Original())
}

func TestFile_ApplyValidators(t *testing.T) {
	rejecting := validatorFunc(func(f *File, key string) error {
		return ErrUnsupportedContent
	})
	passing := validatorFunc(func(f *File, key string) error {
		return nil
	})

	f, err := New([]byte("data"))
	require.NoError(t, err)

	require.NoError(t, f.ApplyValidators([]Validator{passing}, "attachment"))
	require.ErrorIs(t, f.ApplyValidators([]Validator{passing, rejecting}, "attachment"), ErrUnsupportedContent)
}

type validatorFunc func(f *File, key string) error

func (fn validatorFunc) Validate(f *File, key string) error { return fn(f, key) }

func TestContent_OpenRewinds(t *testing.T) {
	c := NewContentFromBytes([]byte("abc"))

	r, err := c.Open()
	require.NoError(t, err)
	first := new(bytes.Buffer)
	_, err = first.ReadFrom(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	r, err = c.Open()
	require.NoError(t, err)
	second := new(bytes.Buffer)
	_, err = second.ReadFrom(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	require.Equal(t, "abc", first.String())
	require.Equal(t, first.String(), second.String())
}
