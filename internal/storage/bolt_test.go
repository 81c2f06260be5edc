package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBoltStore(t *testing.T) (*BoltStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qlearn.db")
	store := NewBoltStore(path)
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestBoltStoreRoundTrip(t *testing.T) {
	store, _ := newTestBoltStore(t)
	exerciseStore(t, store)
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	store, path := newTestBoltStore(t)
	require.NoError(t, store.SaveQTable(ctx, "run-1", sampleSnapshot()))
	require.NoError(t, store.Close())

	reopened := NewBoltStore(path)
	require.NoError(t, reopened.Init(ctx))
	t.Cleanup(func() { _ = reopened.Close() })

	snapshot, ok, err := reopened.GetQTable(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleSnapshot(), snapshot)
}

func TestBoltStoreRequiresInit(t *testing.T) {
	store := NewBoltStore(filepath.Join(t.TempDir(), "qlearn.db"))
	_, _, err := store.GetQTable(context.Background(), "run-1")
	assert.Error(t, err)
	assert.Error(t, NewBoltStore("").Init(context.Background()))
}
