package storage

import (
	"context"
	"errors"
	"sync"

	"qlearn/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	qtables     map[string]model.QTableSnapshot
	history     map[string][]model.EpisodeRecord
	runs        map[string]model.RunRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.qtables = make(map[string]model.QTableSnapshot)
	s.history = make(map[string][]model.EpisodeRecord)
	s.runs = make(map[string]model.RunRecord)
	return nil
}

func (s *MemoryStore) SaveQTable(_ context.Context, runID string, snapshot model.QTableSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.qtables[runID] = cloneSnapshot(snapshot)
	return nil
}

func (s *MemoryStore) GetQTable(_ context.Context, runID string) (model.QTableSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.qtables[runID]
	if !ok {
		return model.QTableSnapshot{}, false, nil
	}
	return cloneSnapshot(snapshot), true, nil
}

func (s *MemoryStore) SaveEpisodeHistory(_ context.Context, runID string, history []model.EpisodeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.history[runID] = append([]model.EpisodeRecord(nil), history...)
	return nil
}

func (s *MemoryStore) GetEpisodeHistory(_ context.Context, runID string) ([]model.EpisodeRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.EpisodeRecord(nil), history...), true, nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.runs[run.RunID] = run
	return nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sortRuns(runs)
	return runs, nil
}

func cloneSnapshot(snapshot model.QTableSnapshot) model.QTableSnapshot {
	out := snapshot
	out.StateShape = append([]int(nil), snapshot.StateShape...)
	out.Entries = make([]model.QEntry, len(snapshot.Entries))
	for i, entry := range snapshot.Entries {
		out.Entries[i] = model.QEntry{State: entry.State, Values: append([]float64(nil), entry.Values...)}
	}
	return out
}
