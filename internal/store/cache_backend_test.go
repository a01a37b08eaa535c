package store

import (
	"context"
	"testing"
	"time"

	"github.com/nateschmiedehaus/librarian-sub012/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheBackendStoreLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	backend := NewCacheBackend(s, context.Background())

	rec := &cache.Record{Hash: "h1", AnalysisVersion: "v1", Value: []byte("hello"), SizeBytes: 5, CreatedAt: time.Now(), LastAccessed: time.Now(), AccessCount: 1}
	require.NoError(t, backend.Store("h1", rec))

	got, ok, err := backend.Load("h1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", string(got.Value))
}

func TestCacheBackendLoadMissReturnsFalse(t *testing.T) {
	s := newTestStore(t)
	backend := NewCacheBackend(s, context.Background())

	_, ok, err := backend.Load("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheBackendDeleteAndAll(t *testing.T) {
	s := newTestStore(t)
	backend := NewCacheBackend(s, context.Background())

	require.NoError(t, backend.Store("h1", &cache.Record{Hash: "h1", Value: []byte("a"), CreatedAt: time.Now(), LastAccessed: time.Now()}))
	require.NoError(t, backend.Store("h2", &cache.Record{Hash: "h2", Value: []byte("b"), CreatedAt: time.Now(), LastAccessed: time.Now()}))

	all, err := backend.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, backend.Delete("h1"))
	all, err = backend.All()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
