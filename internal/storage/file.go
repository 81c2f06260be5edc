package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"qlearn/internal/model"
)

// PersistenceError reports a Q-table artifact that could not be written or read back
// into a usable table.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type fileFormat int

const (
	formatJSON fileFormat = iota
	formatYAML
)

func formatForPath(path string) fileFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatJSON
	}
}

// WriteSnapshotFile stores snapshot at path as a single file, YAML for .yaml/.yml and
// JSON otherwise. The file is replaced atomically.
func WriteSnapshotFile(path string, snapshot model.QTableSnapshot) error {
	if err := ValidateSnapshot(snapshot); err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}

	var (
		data []byte
		err  error
	)
	switch formatForPath(path) {
	case formatYAML:
		data, err = yaml.Marshal(snapshot)
	default:
		data, err = json.MarshalIndent(snapshot, "", "  ")
	}
	if err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &PersistenceError{Op: "save", Path: path, Err: err}
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// ReadSnapshotFile loads and validates a snapshot written by WriteSnapshotFile.
func ReadSnapshotFile(path string) (model.QTableSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.QTableSnapshot{}, &PersistenceError{Op: "load", Path: path, Err: err}
	}

	var snapshot model.QTableSnapshot
	switch formatForPath(path) {
	case formatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&snapshot)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&snapshot)
	}
	if err != nil {
		return model.QTableSnapshot{}, &PersistenceError{Op: "load", Path: path, Err: fmt.Errorf("decode: %w", err)}
	}
	if err := checkVersion(snapshot.VersionedRecord); err != nil {
		return model.QTableSnapshot{}, &PersistenceError{Op: "load", Path: path, Err: err}
	}
	if err := ValidateSnapshot(snapshot); err != nil {
		return model.QTableSnapshot{}, &PersistenceError{Op: "load", Path: path, Err: err}
	}
	return snapshot, nil
}

func ValidateSnapshot(snapshot model.QTableSnapshot) error {
	if snapshot.ActionCount <= 0 {
		return fmt.Errorf("action count must be > 0, got %d", snapshot.ActionCount)
	}
	seen := make(map[string]struct{}, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		if len(entry.Values) != snapshot.ActionCount {
			return fmt.Errorf("state %q has %d values, want %d", entry.State, len(entry.Values), snapshot.ActionCount)
		}
		if _, dup := seen[entry.State]; dup {
			return fmt.Errorf("duplicate state %q", entry.State)
		}
		seen[entry.State] = struct{}{}
	}
	return nil
}

// IsPersistenceError reports whether err carries a PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
