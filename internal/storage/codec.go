package storage

import (
	"encoding/json"
	"errors"

	"qlearn/internal/model"
	"qlearn/internal/qtable"
)

const (
	CurrentSchemaVersion = qtable.CurrentSchemaVersion
	CurrentCodecVersion  = qtable.CurrentCodecVersion
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeQTable(s model.QTableSnapshot) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeQTable(data []byte) (model.QTableSnapshot, error) {
	var snapshot model.QTableSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return model.QTableSnapshot{}, err
	}
	if err := checkVersion(snapshot.VersionedRecord); err != nil {
		return model.QTableSnapshot{}, err
	}
	return snapshot, nil
}

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeEpisodeHistory(history []model.EpisodeRecord) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeEpisodeHistory(data []byte) ([]model.EpisodeRecord, error) {
	var history []model.EpisodeRecord
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
