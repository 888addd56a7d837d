package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(zerolog.Nop())
}

func TestRegistry_Add(t *testing.T) {
	tests := []struct {
		name    string
		adds    []string
		wantErr error
	}{
		{
			name: "single storage becomes default",
			adds: []string{"documents"},
		},
		{
			name: "multiple storages keep first as default",
			adds: []string{"documents", "avatars"},
		},
		{
			name:    "duplicate name fails",
			adds:    []string{"documents", "documents"},
			wantErr: ErrStorageExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newTestRegistry(t)

			var err error
			for _, name := range tt.adds {
				err = reg.Add(name, NewMemoryContainer())
			}

			if tt.wantErr != nil {
				require.Error(t, err)
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			name, err := reg.DefaultName()
			require.NoError(t, err)
			require.Equal(t, tt.adds[0], name)
		})
	}
}

func TestRegistry_SetDefault(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Add("documents", NewMemoryContainer()))
	require.NoError(t, reg.Add("avatars", NewMemoryContainer()))

	require.NoError(t, reg.SetDefault("avatars"))
	name, err := reg.DefaultName()
	require.NoError(t, err)
	require.Equal(t, "avatars", name)

	err = reg.SetDefault("missing")
	require.ErrorIs(t, err, ErrStorageNotRegistered)
}

func TestRegistry_Get(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.Get("")
	require.ErrorIs(t, err, ErrNoDefaultStorage)

	container := NewMemoryContainer()
	require.NoError(t, reg.Add("documents", container))

	got, err := reg.Get("")
	require.NoError(t, err)
	require.Same(t, container, got)

	_, err = reg.Get("missing")
	require.ErrorIs(t, err, ErrStorageNotRegistered)
}

func TestRegistry_Reset(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Add("documents", NewMemoryContainer()))

	reg.Reset()

	_, err := reg.DefaultName()
	require.ErrorIs(t, err, ErrNoDefaultStorage)
	require.Empty(t, reg.Names())
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		wantStorage string
		wantFileID  string
	}{
		{
			name:        "simple path",
			path:        "documents/file-id",
			wantStorage: "documents",
			wantFileID:  "file-id",
		},
		{
			name:        "storage name with separator splits on last",
			path:        "documents/2024/file-id",
			wantStorage: "documents/2024",
			wantFileID:  "file-id",
		},
		{
			name:        "no separator",
			path:        "file-id",
			wantStorage: "",
			wantFileID:  "file-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storageName, fileID := SplitPath(tt.path)
			require.Equal(t, tt.wantStorage, storageName)
			require.Equal(t, tt.wantFileID, fileID)
		})
	}
}

func TestRegistry_SaveAndRetrieve(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Add("documents", NewMemoryContainer()))

	stored, err := reg.Save(context.Background(), "", "file-id", strings.NewReader("hello world"), UploadOptions{
		ContentType: "text/plain",
		Metadata:    map[string]string{"filename": "hello.txt"},
	})
	require.NoError(t, err)
	require.Equal(t, "documents", stored.Storage())
	require.Equal(t, "documents/file-id", stored.Path())

	got, err := reg.Retrieve(context.Background(), "documents/file-id")
	require.NoError(t, err)
	require.Equal(t, "hello.txt", got.Filename())
	require.Equal(t, "text/plain", got.ContentType())
	require.Equal(t, int64(11), got.Size())

	data, err := got.ReadAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, "hello world", string(data))
}

func TestRegistry_Retrieve_Missing(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Add("documents", NewMemoryContainer()))

	_, err := reg.Retrieve(context.Background(), "documents/missing")
	require.ErrorIs(t, err, ErrObjectNotFound)
	require.True(t, IsNotFound(err))
}

func TestRegistry_Delete_Idempotent(t *testing.T) {
	reg := newTestRegistry(t)
	container := NewMemoryContainer()
	require.NoError(t, reg.Add("documents", container))

	_, err := reg.Save(context.Background(), "documents", "file-id", strings.NewReader("data"), UploadOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, container.Len())

	require.NoError(t, reg.Delete(context.Background(), "documents/file-id"))
	require.Equal(t, 0, container.Len())

	// Deleting again is a no-op.
	require.NoError(t, reg.Delete(context.Background(), "documents/file-id"))
}

func TestRegistry_CDNURL(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Add("cdn", NewMemoryContainer(WithBaseURL("https://cdn.example.com/"))))
	require.NoError(t, reg.Add("plain", NewMemoryContainer()))

	stored, err := reg.Save(context.Background(), "cdn", "file-id", strings.NewReader("data"), UploadOptions{})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/file-id", stored.CDNURL())

	stored, err = reg.Save(context.Background(), "plain", "file-id", strings.NewReader("data"), UploadOptions{})
	require.NoError(t, err)
	require.Empty(t, stored.CDNURL())
}
