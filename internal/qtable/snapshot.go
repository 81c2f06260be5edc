package qtable

import (
	"fmt"
	"sort"

	"qlearn/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

// Snapshot flattens the table into a concrete, key-sorted mapping.
func (t *Table[S]) Snapshot(codec KeyCodec[S], stateShape []int) (model.QTableSnapshot, error) {
	entries := make([]model.QEntry, 0, len(t.entries))
	seen := make(map[string]struct{}, len(t.entries))
	for state, values := range t.entries {
		key, err := codec.EncodeKey(state)
		if err != nil {
			return model.QTableSnapshot{}, err
		}
		if _, dup := seen[key]; dup {
			return model.QTableSnapshot{}, fmt.Errorf("state key collision: %q", key)
		}
		seen[key] = struct{}{}
		entries = append(entries, model.QEntry{
			State:  key,
			Values: append([]float64(nil), values...),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].State < entries[j].State
	})

	return model.QTableSnapshot{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		StateShape:      append([]int(nil), stateShape...),
		ActionCount:     t.actionCount,
		Entries:         entries,
	}, nil
}

// Restore rebuilds a table from a snapshot. States absent from the snapshot keep the
// zero default.
func Restore[S comparable](snapshot model.QTableSnapshot, codec KeyCodec[S]) (*Table[S], error) {
	table, err := New[S](snapshot.ActionCount)
	if err != nil {
		return nil, err
	}
	for _, entry := range snapshot.Entries {
		if len(entry.Values) != snapshot.ActionCount {
			return nil, fmt.Errorf("state %q has %d values, want %d", entry.State, len(entry.Values), snapshot.ActionCount)
		}
		state, err := codec.DecodeKey(entry.State)
		if err != nil {
			return nil, err
		}
		if _, dup := table.entries[state]; dup {
			return nil, fmt.Errorf("duplicate state %q", entry.State)
		}
		table.entries[state] = append([]float64(nil), entry.Values...)
	}
	return table, nil
}
