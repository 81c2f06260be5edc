package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Init(context.Background()))
	exerciseStore(t, store)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	input := sampleSnapshot()
	require.NoError(t, store.SaveQTable(ctx, "run-1", input))
	input.Entries[0].Values[0] = 99

	output, _, err := store.GetQTable(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 0.25, output.Entries[0].Values[0])

	output.Entries[0].Values[1] = -5
	again, _, _ := store.GetQTable(ctx, "run-1")
	assert.Equal(t, 0.9, again.Entries[0].Values[1])
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	assert.Error(t, store.SaveQTable(context.Background(), "run-1", sampleSnapshot()))
}
