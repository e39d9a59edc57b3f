package memory

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/content-parts/pkg/contentitem"
)

func TestMemoryBackend_UploadDownload(t *testing.T) {
	ctx := context.Background()
	store := New()
	data := []byte(`{"ContentType":"Article"}`)

	require.NoError(t, store.UploadWithParams(ctx, bytes.NewReader(data), contentitem.UploadParams{
		ObjectKey: "snapshots/a.json",
		MimeType:  "application/json",
	}))

	meta, err := store.GetObjectMeta(ctx, "snapshots/a.json")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), meta.Size)
	assert.Equal(t, "application/json", meta.ContentType)
	assert.NotEmpty(t, meta.ETag)
	assert.False(t, meta.UpdatedAt.IsZero())

	rc, err := store.Download(ctx, "snapshots/a.json")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, data, got)
}

func TestMemoryBackend_UploadDefaultsMimeType(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.Upload(ctx, "raw", bytes.NewReader([]byte("x"))))
	meta, err := store.GetObjectMeta(ctx, "raw")
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", meta.ContentType)
}

func TestMemoryBackend_Missing(t *testing.T) {
	ctx := context.Background()
	store := New()

	_, err := store.GetObjectMeta(ctx, "missing")
	assert.ErrorIs(t, err, contentitem.ErrSnapshotNotFound)
	_, err = store.Download(ctx, "missing")
	assert.ErrorIs(t, err, contentitem.ErrSnapshotNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "missing"), contentitem.ErrSnapshotNotFound)
}

func TestMemoryBackend_Delete(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Upload(ctx, "k", bytes.NewReader([]byte("x"))))

	require.NoError(t, store.Delete(ctx, "k"))
	_, err := store.Download(ctx, "k")
	assert.ErrorIs(t, err, contentitem.ErrSnapshotNotFound)
}

func TestMemoryBackend_NoDownloadURL(t *testing.T) {
	_, err := New().GetDownloadURL(context.Background(), "k", "k.json")
	assert.ErrorIs(t, err, contentitem.ErrURLNotSupported)
}
