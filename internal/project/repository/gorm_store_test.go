package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *gormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	store, err := NewGormStore(db)
	require.NoError(t, err)
	return store.(*gormStore)
}

func TestGormStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "est-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "est-1", `{"estimate_id":"est-1"}`))

	value, ok, err := store.Get(ctx, "est-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"estimate_id":"est-1"}`, value)

	// Set on an existing key overwrites.
	require.NoError(t, store.Set(ctx, "est-1", `{"estimate_id":"est-1","v":2}`))
	value, _, err = store.Get(ctx, "est-1")
	require.NoError(t, err)
	assert.Equal(t, `{"estimate_id":"est-1","v":2}`, value)
}

func TestGormStore_KeysAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "b", "{}"))
	require.NoError(t, store.Set(ctx, "a", "{}"))
	require.NoError(t, store.Set(ctx, "c", "{}"))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, keys)

	require.NoError(t, store.Delete(ctx, "b"))
	keys, err = store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, keys)

	// Deleting a missing key is a no-op.
	require.NoError(t, store.Delete(ctx, "missing"))
}
