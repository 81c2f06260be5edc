package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"qlearn/internal/model"
)

const (
	runFile      = "run.json"
	episodesFile = "episodes.csv"
	summaryFile  = "summary.json"
)

type RunArtifacts struct {
	Run      model.RunRecord
	Episodes []model.EpisodeRecord
	Summary  Summary
}

// WriteRunArtifacts writes run.json, summary.json and episodes.csv under baseDir/<run id>.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Run.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, runFile), artifacts.Run); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, summaryFile), artifacts.Summary); err != nil {
		return "", err
	}
	if err := writeEpisodes(filepath.Join(runDir, episodesFile), artifacts.Episodes); err != nil {
		return "", err
	}
	return runDir, nil
}

func ReadRunRecord(baseDir, runID string) (model.RunRecord, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runID, runFile))
	if err != nil {
		if os.IsNotExist(err) {
			return model.RunRecord{}, false, nil
		}
		return model.RunRecord{}, false, err
	}
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, false, err
	}
	return run, true, nil
}

func ReadEpisodes(baseDir, runID string) ([]model.EpisodeRecord, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, episodesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, true, nil
	}

	records := make([]model.EpisodeRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		record, err := parseEpisodeRow(row)
		if err != nil {
			return nil, false, fmt.Errorf("episodes row %d: %w", i+2, err)
		}
		records = append(records, record)
	}
	return records, true, nil
}

var episodeHeader = []string{"episode", "steps", "return", "terminated", "truncated", "mean_abs_td_error"}

func writeEpisodes(path string, records []model.EpisodeRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(episodeHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := writer.Write([]string{
			strconv.Itoa(r.Episode),
			strconv.Itoa(r.Steps),
			strconv.FormatFloat(r.Return, 'g', -1, 64),
			strconv.FormatBool(r.Terminated),
			strconv.FormatBool(r.Truncated),
			strconv.FormatFloat(r.MeanAbsTDError, 'g', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

func parseEpisodeRow(row []string) (model.EpisodeRecord, error) {
	if len(row) != len(episodeHeader) {
		return model.EpisodeRecord{}, fmt.Errorf("expected %d columns, got %d", len(episodeHeader), len(row))
	}
	var (
		r   model.EpisodeRecord
		err error
	)
	if r.Episode, err = strconv.Atoi(row[0]); err != nil {
		return r, err
	}
	if r.Steps, err = strconv.Atoi(row[1]); err != nil {
		return r, err
	}
	if r.Return, err = strconv.ParseFloat(row[2], 64); err != nil {
		return r, err
	}
	if r.Terminated, err = strconv.ParseBool(row[3]); err != nil {
		return r, err
	}
	if r.Truncated, err = strconv.ParseBool(row[4]); err != nil {
		return r, err
	}
	if r.MeanAbsTDError, err = strconv.ParseFloat(row[5], 64); err != nil {
		return r, err
	}
	return r, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
