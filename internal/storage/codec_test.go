package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeQTableVersionMismatch(t *testing.T) {
	snapshot := sampleSnapshot()
	snapshot.SchemaVersion = CurrentSchemaVersion + 1
	payload, err := EncodeQTable(snapshot)
	require.NoError(t, err)

	_, err = DecodeQTable(payload)
	assert.True(t, errors.Is(err, ErrVersionMismatch), "got %v", err)
}

func TestEncodeQTableUsesQTableField(t *testing.T) {
	payload, err := EncodeQTable(sampleSnapshot())
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"qtable":`)
	assert.Contains(t, string(payload), `"state_shape":[2]`)
	assert.Contains(t, string(payload), `"action_count":2`)
}

func TestDecodeRunRejectsGarbage(t *testing.T) {
	_, err := DecodeRun([]byte("{"))
	assert.Error(t, err)
}
