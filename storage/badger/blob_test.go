package badger

import (
	"context"
	"testing"

	"github.com/citewell/citewell/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobStore_RoundTrip(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	blobs := NewBlobStore(backend)
	ctx := context.Background()

	content := []byte("raw document bytes")
	require.NoError(t, blobs.Upload(ctx, "ws1/notes.txt", content))

	got, err := blobs.Download(ctx, "ws1/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestBlobStore_OverwriteReplaces(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	blobs := NewBlobStore(backend)
	ctx := context.Background()

	require.NoError(t, blobs.Upload(ctx, "key", []byte("v1")))
	require.NoError(t, blobs.Upload(ctx, "key", []byte("v2")))

	got, err := blobs.Download(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestBlobStore_DownloadMissing(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	blobs := NewBlobStore(backend)

	_, err = blobs.Download(context.Background(), "absent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBlobStore_Delete(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	blobs := NewBlobStore(backend)
	ctx := context.Background()

	require.NoError(t, blobs.Upload(ctx, "key", []byte("v1")))
	require.NoError(t, blobs.Delete(ctx, "key"))

	_, err = blobs.Download(ctx, "key")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Deleting again is fine
	assert.NoError(t, blobs.Delete(ctx, "key"))
}

func TestBlobStore_EmptyKey(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	blobs := NewBlobStore(backend)
	ctx := context.Background()

	assert.ErrorIs(t, blobs.Upload(ctx, "", nil), storage.ErrInvalidQuery)
	_, err = blobs.Download(ctx, "")
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	assert.ErrorIs(t, blobs.Delete(ctx, ""), storage.ErrInvalidQuery)
}
