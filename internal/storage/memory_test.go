package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "tts/b1/000.mp3", []byte("audio"), AudioContentType))

	data, err := store.Get(ctx, "tts/b1/000.mp3")
	require.NoError(t, err)
	assert.Equal(t, []byte("audio"), data)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorePresign(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "tts/b1/full.mp3", []byte("x"), AudioContentType))

	url, err := store.Presign(ctx, "tts/b1/full.mp3", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, "tts/b1/full.mp3")

	_, err = store.Presign(ctx, "missing", time.Hour)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "tts/b1/000.mp3", []byte("a"), AudioContentType))
	require.NoError(t, store.Put(ctx, "tts/b1/001.mp3", []byte("b"), AudioContentType))
	require.NoError(t, store.Put(ctx, "tts/b2/000.mp3", []byte("c"), AudioContentType))

	keys, err := store.List(ctx, "tts/b1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"tts/b1/000.mp3", "tts/b1/001.mp3"}, keys)

	require.NoError(t, store.Delete(ctx, "tts/b1/000.mp3"))
	keys, err = store.List(ctx, "tts/b1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"tts/b1/001.mp3"}, keys)
}
