package storage

import "fmt"

const (
	KindMemory = "memory"
	KindBolt   = "bbolt"
	KindSQLite = "sqlite"
)

func DefaultStoreKind() string {
	return KindMemory
}

func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindBolt, "bolt":
		return NewBoltStore(path), nil
	case KindSQLite:
		return newSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
