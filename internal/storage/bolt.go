package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"qlearn/internal/model"
)

var (
	bucketQTables = []byte("qtables")
	bucketHistory = []byte("episode_history")
	bucketRuns    = []byte("runs")
)

// BoltStore keeps one JSON blob per run id in each bucket of a bbolt file.
type BoltStore struct {
	path string

	mu sync.RWMutex
	db *bolt.DB
}

func NewBoltStore(path string) *BoltStore {
	return &BoltStore{path: path}
}

func (s *BoltStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("bbolt path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketQTables, bucketHistory, bucketRuns} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *BoltStore) SaveQTable(_ context.Context, runID string, snapshot model.QTableSnapshot) error {
	payload, err := EncodeQTable(snapshot)
	if err != nil {
		return err
	}
	return s.put(bucketQTables, runID, payload)
}

func (s *BoltStore) GetQTable(_ context.Context, runID string) (model.QTableSnapshot, bool, error) {
	payload, err := s.get(bucketQTables, runID)
	if err != nil || payload == nil {
		return model.QTableSnapshot{}, false, err
	}
	snapshot, err := DecodeQTable(payload)
	if err != nil {
		return model.QTableSnapshot{}, false, fmt.Errorf("decode qtable %s: %w", runID, err)
	}
	return snapshot, true, nil
}

func (s *BoltStore) SaveEpisodeHistory(_ context.Context, runID string, history []model.EpisodeRecord) error {
	payload, err := EncodeEpisodeHistory(history)
	if err != nil {
		return err
	}
	return s.put(bucketHistory, runID, payload)
}

func (s *BoltStore) GetEpisodeHistory(_ context.Context, runID string) ([]model.EpisodeRecord, bool, error) {
	payload, err := s.get(bucketHistory, runID)
	if err != nil || payload == nil {
		return nil, false, err
	}
	history, err := DecodeEpisodeHistory(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode episode history %s: %w", runID, err)
	}
	return history, true, nil
}

func (s *BoltStore) SaveRun(_ context.Context, run model.RunRecord) error {
	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}
	return s.put(bucketRuns, run.RunID, payload)
}

func (s *BoltStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var runs []model.RunRecord
	err = db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(k, v []byte) error {
			run, err := DecodeRun(v)
			if err != nil {
				return fmt.Errorf("decode run %s: %w", k, err)
			}
			runs = append(runs, run)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortRuns(runs)
	return runs, nil
}

func (s *BoltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *BoltStore) put(bucket []byte, key string, payload []byte) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	return db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), payload)
	})
}

// get copies the value out of the transaction; nil means not found.
func (s *BoltStore) get(bucket []byte, key string) ([]byte, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	var payload []byte
	err = db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucket).Get([]byte(key)); v != nil {
			payload = append([]byte(nil), v...)
		}
		return nil
	})
	return payload, err
}

func (s *BoltStore) getDB() (*bolt.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}
