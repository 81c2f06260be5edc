package storage

import (
	"context"

	"qlearn/internal/model"
)

// Store defines persistence operations for training runs and their Q-tables.
type Store interface {
	Init(ctx context.Context) error
	SaveQTable(ctx context.Context, runID string, snapshot model.QTableSnapshot) error
	GetQTable(ctx context.Context, runID string) (model.QTableSnapshot, bool, error)
	SaveEpisodeHistory(ctx context.Context, runID string, history []model.EpisodeRecord) error
	GetEpisodeHistory(ctx context.Context, runID string) ([]model.EpisodeRecord, bool, error)
	SaveRun(ctx context.Context, run model.RunRecord) error
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
}
