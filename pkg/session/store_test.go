package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartograph/cartograph/pkg/chat"
)

func sampleSession(id string) *Session {
	return &Session{
		ID:         id,
		History:    []chat.Message{chat.NewUserText("hello")},
		LastActive: time.Now(),
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, sampleSession("s1"), time.Minute))

	loaded, ok, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", loaded.History[0].Text())
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, sampleSession("s1"), time.Nanosecond))
	time.Sleep(5 * time.Millisecond)

	_, ok, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreCleanup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, sampleSession("stale"), time.Nanosecond))
	require.NoError(t, store.Put(ctx, sampleSession("fresh"), time.Hour))
	time.Sleep(5 * time.Millisecond)

	store.Cleanup()

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.NotContains(t, store.data, "stale")
	assert.Contains(t, store.data, "fresh")
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put(ctx, sampleSession("s1"), time.Minute))

	loaded, ok, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "s1", loaded.ID)
	require.Len(t, loaded.History, 1)
	assert.Equal(t, "hello", loaded.History[0].Text())

	// A read-modify-write cycle succeeds and bumps the version.
	loaded.History = append(loaded.History, chat.NewUserText("again"))
	require.NoError(t, store.Put(ctx, loaded, time.Minute))

	loaded, ok, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, loaded.History, 2)
	assert.Equal(t, int64(2), loaded.Version)
}

func TestSQLiteStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	sess := sampleSession("old")
	require.NoError(t, store.Put(ctx, sess, time.Second))

	// Force the row into the past instead of sleeping.
	_, err = store.db.ExecContext(ctx, `UPDATE sessions SET expires_at = 1 WHERE id = ?`, "old")
	require.NoError(t, err)

	_, ok, err := store.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStoreConflict(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put(ctx, sampleSession("s1"), time.Minute))

	// Two writers read the same version; the second write loses.
	first, ok, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	second, _, err := store.Get(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, first, time.Minute))
	assert.ErrorIs(t, store.Put(ctx, second, time.Minute), ErrConflict)

	// A writer that never read the existing row conflicts too.
	assert.ErrorIs(t, store.Put(ctx, sampleSession("s1"), time.Minute), ErrConflict)
}
