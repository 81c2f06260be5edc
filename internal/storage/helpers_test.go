package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qlearn/internal/model"
)

func sampleSnapshot() model.QTableSnapshot {
	return model.QTableSnapshot{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		StateShape:      []int{2},
		ActionCount:     2,
		Entries: []model.QEntry{
			{State: "0", Values: []float64{0.25, 0.9}},
			{State: "1", Values: []float64{0, 0}},
		},
	}
}

func sampleRun(id, createdAt string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		RunID:           id,
		CreatedAtUTC:    createdAt,
		Environment:     "chain",
		Episodes:        10,
		LearningRate:    0.1,
		Discount:        0.9,
		Epsilon:         0.1,
		States:          2,
	}
}

// exerciseStore runs the shared round-trip contract against any backend.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.GetQTable(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	input := sampleSnapshot()
	require.NoError(t, store.SaveQTable(ctx, "run-1", input))
	output, ok, err := store.GetQTable(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, input, output)

	history := []model.EpisodeRecord{
		{Episode: 1, Steps: 4, Return: 0.7, Terminated: true},
		{Episode: 2, Steps: 20, Return: -0.2, Truncated: true},
	}
	require.NoError(t, store.SaveEpisodeHistory(ctx, "run-1", history))
	gotHistory, ok, err := store.GetEpisodeHistory(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, history, gotHistory)

	require.NoError(t, store.SaveRun(ctx, sampleRun("run-1", "2026-01-01T00:00:00Z")))
	require.NoError(t, store.SaveRun(ctx, sampleRun("run-2", "2026-01-02T00:00:00Z")))
	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, "run-1", runs[1].RunID)
}
