package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestLocalContainer(t *testing.T) *LocalContainer {
	t.Helper()
	container, err := NewLocalContainer(t.TempDir())
	require.NoError(t, err)
	return container
}

func TestLocalContainer_UploadAndGet(t *testing.T) {
	container := newTestLocalContainer(t)
	ctx := context.Background()

	obj, err := container.Upload(ctx, "file-id", strings.NewReader("hello world"), UploadOptions{})
	require.NoError(t, err)
	require.Equal(t, "file-id", obj.Name())
	require.Equal(t, int64(11), obj.Size())
	require.NotEmpty(t, obj.Metadata()["checksum"])

	// No leftover temp file after the atomic rename.
	_, err = os.Stat(filepath.Join(container.Root(), "file-id.tmp"))
	require.True(t, os.IsNotExist(err))

	got, err := container.Get(ctx, "file-id")
	require.NoError(t, err)
	require.Equal(t, int64(11), got.Size())
}

func TestLocalContainer_UploadNested(t *testing.T) {
	container := newTestLocalContainer(t)
	ctx := context.Background()

	_, err := container.Upload(ctx, "2024/08/file-id", strings.NewReader("data"), UploadOptions{})
	require.NoError(t, err)

	objects, err := container.List(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	require.Equal(t, "2024/08/file-id", objects[0].Name())
}

func TestLocalContainer_ObjectNameValidation(t *testing.T) {
	container := newTestLocalContainer(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		objectName string
	}{
		{name: "empty", objectName: ""},
		{name: "absolute", objectName: "/etc/passwd"},
		{name: "parent traversal", objectName: "../escape"},
		{name: "embedded traversal", objectName: "a/../../escape"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := container.Upload(ctx, tt.objectName, strings.NewReader("data"), UploadOptions{})
			require.ErrorIs(t, err, ErrInvalidObjectName)
		})
	}
}

func TestLocalContainer_Stream(t *testing.T) {
	container := newTestLocalContainer(t)
	ctx := context.Background()

	_, err := container.Upload(ctx, "file-id", strings.NewReader("hello world"), UploadOptions{})
	require.NoError(t, err)

	tests := []struct {
		name   string
		offset int64
		length int64
		want   string
	}{
		{name: "full content", offset: 0, length: -1, want: "hello world"},
		{name: "from offset", offset: 6, length: -1, want: "world"},
		{name: "bounded range", offset: 0, length: 5, want: "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := container.Stream(ctx, "file-id", tt.offset, tt.length)
			require.NoError(t, err)
			defer r.Close()

			data, err := io.ReadAll(r)
			require.NoError(t, err)
			require.Equal(t, tt.want, string(data))
		})
	}
}

func TestLocalContainer_Delete(t *testing.T) {
	container := newTestLocalContainer(t)
	ctx := context.Background()

	_, err := container.Upload(ctx, "file-id", strings.NewReader("data"), UploadOptions{})
	require.NoError(t, err)

	require.NoError(t, container.Delete(ctx, "file-id"))
	require.ErrorIs(t, container.Delete(ctx, "file-id"), ErrObjectNotFound)

	_, err = container.Get(ctx, "file-id")
	require.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalContainer_MetadataSidecar(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	container := newTestLocalContainer(t)
	require.NoError(t, reg.Add("documents", container))
	ctx := context.Background()

	_, err := reg.Save(ctx, "documents", "file-id", strings.NewReader("hello"), UploadOptions{
		ContentType: "text/plain",
		Metadata:    map[string]string{"filename": "hello.txt", "content_type": "text/plain"},
	})
	require.NoError(t, err)

	// The local backend has no native metadata; a sidecar carries it.
	_, err = os.Stat(filepath.Join(container.Root(), "file-id"+MetadataSuffix))
	require.NoError(t, err)

	got, err := reg.Retrieve(ctx, "documents/file-id")
	require.NoError(t, err)
	require.Equal(t, "hello.txt", got.Filename())
	require.Equal(t, "text/plain", got.ContentType())

	// Deleting the object removes the sidecar too.
	require.NoError(t, reg.Delete(ctx, "documents/file-id"))
	_, err = os.Stat(filepath.Join(container.Root(), "file-id"+MetadataSuffix))
	require.True(t, os.IsNotExist(err))
}

func TestLocalContainer_MissingSidecarDefaults(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	container := newTestLocalContainer(t)
	require.NoError(t, reg.Add("documents", container))
	ctx := context.Background()

	// Upload without metadata: no sidecar is written.
	_, err := container.Upload(ctx, "file-id", strings.NewReader("hello"), UploadOptions{})
	require.NoError(t, err)

	got, err := reg.Retrieve(ctx, "documents/file-id")
	require.NoError(t, err)
	require.Equal(t, "unnamed", got.Filename())
	require.Equal(t, "application/octet-stream", got.ContentType())
}

func TestLocalContainer_CDNURL(t *testing.T) {
	container := newTestLocalContainer(t)
	_, err := container.CDNURL(&localObject{name: "file-id"})
	require.ErrorIs(t, err, ErrCDNNotSupported)
}
