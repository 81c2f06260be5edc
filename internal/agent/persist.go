package agent

import (
	"fmt"
	"slices"

	"qlearn/internal/model"
	"qlearn/internal/qtable"
	"qlearn/internal/storage"
)

// Snapshot captures the table together with the state shape and action count.
func (a *Agent[S]) Snapshot() (model.QTableSnapshot, error) {
	return a.table.Snapshot(a.codec, a.stateShape)
}

// Restore replaces the table wholesale. On error the agent is left unchanged.
func (a *Agent[S]) Restore(snapshot model.QTableSnapshot) error {
	if snapshot.ActionCount != a.env.ActionCount() {
		return fmt.Errorf("snapshot has %d actions, environment %s has %d", snapshot.ActionCount, a.env.Name(), a.env.ActionCount())
	}
	table, err := qtable.Restore[S](snapshot, a.codec)
	if err != nil {
		return err
	}
	if !slices.Equal(snapshot.StateShape, a.env.StateShape()) {
		a.log.WithField("snapshot_shape", snapshot.StateShape).Warn("restored state shape differs from environment")
	}
	a.table = table
	a.stateShape = append([]int(nil), snapshot.StateShape...)
	return nil
}

func (a *Agent[S]) Save(path string) error {
	snapshot, err := a.Snapshot()
	if err != nil {
		return &storage.PersistenceError{Op: "save", Path: path, Err: err}
	}
	if err := storage.WriteSnapshotFile(path, snapshot); err != nil {
		return err
	}
	a.log.WithField("path", path).WithField("states", len(snapshot.Entries)).Info("saved q-table")
	return nil
}

// Load reads an artifact written by Save. Missing, corrupt or incompatible artifacts
// fail with a *storage.PersistenceError and leave the current table in place.
func (a *Agent[S]) Load(path string) error {
	snapshot, err := storage.ReadSnapshotFile(path)
	if err != nil {
		return err
	}
	if err := a.Restore(snapshot); err != nil {
		return &storage.PersistenceError{Op: "load", Path: path, Err: err}
	}
	a.log.WithField("path", path).WithField("states", a.table.Len()).Info("loaded q-table")
	return nil
}
