// Package qlearn is the public entry point for training, evaluating and inspecting
// tabular Q-learning runs.
package qlearn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"qlearn/internal/agent"
	"qlearn/internal/logging"
	"qlearn/internal/model"
	"qlearn/internal/policy"
	"qlearn/internal/stats"
	"qlearn/internal/storage"
)

const (
	defaultDBPath        = "qlearn.db"
	defaultSummaryWindow = 100
	createdAtLayout      = "2006-01-02T15:04:05.000000000Z07:00"
)

type Options struct {
	StoreKind string
	DBPath    string
	// ArtifactsDir receives run.json, summary.json and episodes.csv per run when set.
	ArtifactsDir string
	Logger       logrus.FieldLogger
}

type Client struct {
	store        storage.Store
	initialized  bool
	artifactsDir string
	log          logrus.FieldLogger
}

// TrainRequest describes one training run. A zero LearningRate and nil Discount or
// Epsilon fall back to agent.DefaultParams.
type TrainRequest struct {
	RunID         string
	Env           model.EnvSpec
	Episodes      int
	LearningRate  float64
	Discount      *float64
	Epsilon       *float64
	Seed          int64
	Output        string
	InitFrom      string
	SummaryWindow int
}

type TrainSummary struct {
	RunID        string
	Env          model.EnvSpec
	TotalSteps   int
	States       int
	Summary      stats.Summary
	Output       string
	ArtifactsDir string
}

// EvaluateRequest selects a table by run id, by Latest or from an Input artifact.
// Random mode needs no table.
type EvaluateRequest struct {
	RunID    string
	Latest   bool
	Input    string
	Env      model.EnvSpec
	Episodes int
	Mode     string
	Seed     int64
}

type EvaluateSummary struct {
	RunID    string
	Mode     string
	Env      model.EnvSpec
	Episodes []model.EpisodeRecord
	Summary  stats.Summary
}

type PolicyRequest struct {
	RunID  string
	Latest bool
	Input  string
}

type PolicyItem struct {
	State  string
	Action int
	Values []float64
}

type PolicySummary struct {
	RunID         string
	SchemaVersion int
	CodecVersion  int
	StateShape    []int
	ActionCount   int
	Items         []PolicyItem
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	CreatedAtUTC string
	Environment  string
	Episodes     int
	States       int
	Seed         int64
	MeanReturn   float64
	TailReturn   float64
}

type HistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
	Window int
}

type HistorySummary struct {
	RunID         string
	Run           model.RunRecord
	Episodes      []model.EpisodeRecord
	MovingAverage []float64
	Summary       stats.Summary
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{
		store:        store,
		artifactsDir: opts.ArtifactsDir,
		log:          logger,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) ensureStore(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

func (c *Client) Train(ctx context.Context, req TrainRequest) (TrainSummary, error) {
	if req.Episodes <= 0 {
		return TrainSummary{}, fmt.Errorf("%w: episodes must be > 0, got %d", agent.ErrInvalidArgument, req.Episodes)
	}
	if req.SummaryWindow <= 0 {
		req.SummaryWindow = defaultSummaryWindow
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	spec := normalizeEnv(req.Env)
	params := agent.DefaultParams()
	if req.LearningRate != 0 {
		params.LearningRate = req.LearningRate
	}
	if req.Discount != nil {
		params.Discount = *req.Discount
	}
	if req.Epsilon != nil {
		params.Epsilon = *req.Epsilon
	}
	if err := c.ensureStore(ctx); err != nil {
		return TrainSummary{}, err
	}

	log := c.log.WithField("run_id", req.RunID)
	r, err := newRunner(spec, agent.Options{Params: params, Seed: req.Seed, Logger: log})
	if err != nil {
		return TrainSummary{}, err
	}
	log.WithFields(logrus.Fields{
		"env":      r.Name(),
		"episodes": req.Episodes,
		"alpha":    params.LearningRate,
		"gamma":    params.Discount,
		"epsilon":  params.Epsilon,
	}).Info("starting training run")

	snapshot, result, err := r.Train(ctx, req.Episodes, req.InitFrom, req.Output)
	if err != nil {
		return TrainSummary{}, err
	}
	summary := stats.Summarize(result.Episodes, req.SummaryWindow)

	run := model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		RunID:        req.RunID,
		CreatedAtUTC: time.Now().UTC().Format(createdAtLayout),
		Environment:  r.Name(),
		Env:          spec,
		Episodes:     req.Episodes,
		LearningRate: params.LearningRate,
		Discount:     params.Discount,
		Epsilon:      params.Epsilon,
		Seed:         req.Seed,
		States:       len(snapshot.Entries),
		MeanReturn:   summary.MeanReturn,
		TailReturn:   summary.TailMeanReturn,
		ArtifactPath: req.Output,
	}
	if err := c.store.SaveQTable(ctx, run.RunID, snapshot); err != nil {
		return TrainSummary{}, err
	}
	if err := c.store.SaveEpisodeHistory(ctx, run.RunID, result.Episodes); err != nil {
		return TrainSummary{}, err
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return TrainSummary{}, err
	}

	out := TrainSummary{
		RunID:      run.RunID,
		Env:        spec,
		TotalSteps: result.TotalSteps(),
		States:     run.States,
		Summary:    summary,
		Output:     req.Output,
	}
	if c.artifactsDir != "" {
		dir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
			Run:      run,
			Episodes: result.Episodes,
			Summary:  summary,
		})
		if err != nil {
			return TrainSummary{}, err
		}
		out.ArtifactsDir = dir
	}
	return out, nil
}

func (c *Client) Evaluate(ctx context.Context, req EvaluateRequest) (EvaluateSummary, error) {
	if req.Episodes <= 0 {
		req.Episodes = 100
	}
	mode := agent.EvalMode(req.Mode)
	if mode == "" {
		mode = agent.EvalGreedy
	}

	spec := req.Env
	var snapshot *model.QTableSnapshot
	runID := ""
	if req.RunID != "" || req.Latest || req.Input != "" {
		loaded, run, err := c.resolveSnapshot(ctx, req.RunID, req.Latest, req.Input)
		if err != nil {
			return EvaluateSummary{}, err
		}
		snapshot = &loaded
		if run != nil {
			runID = run.RunID
			if spec.Name == "" {
				spec = run.Env
			}
		}
	} else if mode != agent.EvalRandom {
		return EvaluateSummary{}, fmt.Errorf("%w: greedy evaluation requires run id, latest or input", agent.ErrInvalidArgument)
	}
	spec = normalizeEnv(spec)
	if req.Seed != 0 {
		spec.Seed = req.Seed
	}

	r, err := newRunner(spec, agent.Options{
		Params: agent.Params{LearningRate: agent.DefaultParams().LearningRate},
		Seed:   spec.Seed,
		Logger: c.log,
	})
	if err != nil {
		return EvaluateSummary{}, err
	}
	records, err := r.Evaluate(ctx, snapshot, req.Episodes, mode)
	if err != nil {
		return EvaluateSummary{}, err
	}
	return EvaluateSummary{
		RunID:    runID,
		Mode:     string(mode),
		Env:      spec,
		Episodes: records,
		Summary:  stats.Summarize(records, 0),
	}, nil
}

// Policy reports the greedy action for every stored state, in key order.
func (c *Client) Policy(ctx context.Context, req PolicyRequest) (PolicySummary, error) {
	snapshot, run, err := c.resolveSnapshot(ctx, req.RunID, req.Latest, req.Input)
	if err != nil {
		return PolicySummary{}, err
	}
	out := PolicySummary{
		SchemaVersion: snapshot.SchemaVersion,
		CodecVersion:  snapshot.CodecVersion,
		StateShape:    snapshot.StateShape,
		ActionCount:   snapshot.ActionCount,
		Items:         make([]PolicyItem, 0, len(snapshot.Entries)),
	}
	if run != nil {
		out.RunID = run.RunID
	}
	for _, entry := range snapshot.Entries {
		out.Items = append(out.Items, PolicyItem{
			State:  entry.State,
			Action: policy.Greedy(entry.Values),
			Values: entry.Values,
		})
	}
	return out, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}

	out := make([]RunItem, 0, len(runs))
	for _, run := range runs {
		out = append(out, RunItem{
			RunID:        run.RunID,
			CreatedAtUTC: run.CreatedAtUTC,
			Environment:  run.Environment,
			Episodes:     run.Episodes,
			States:       run.States,
			Seed:         run.Seed,
			MeanReturn:   run.MeanReturn,
			TailReturn:   run.TailReturn,
		})
	}
	return out, nil
}

func (c *Client) History(ctx context.Context, req HistoryRequest) (HistorySummary, error) {
	if req.Limit < 0 {
		return HistorySummary{}, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return HistorySummary{}, err
	}
	history, ok, err := c.store.GetEpisodeHistory(ctx, runID)
	if err != nil {
		return HistorySummary{}, err
	}
	if !ok && c.artifactsDir != "" {
		history, ok, err = stats.ReadEpisodes(c.artifactsDir, runID)
		if err != nil {
			return HistorySummary{}, err
		}
	}
	if !ok {
		return HistorySummary{}, fmt.Errorf("episode history not found for run id: %s", runID)
	}
	if req.Window <= 0 {
		req.Window = defaultSummaryWindow
	}

	run, found, err := c.lookupRun(ctx, runID)
	if err != nil {
		return HistorySummary{}, err
	}
	if !found {
		run = model.RunRecord{RunID: runID}
	}

	out := HistorySummary{
		RunID:         runID,
		Run:           run,
		Summary:       stats.Summarize(history, req.Window),
		MovingAverage: stats.MovingAverage(history, req.Window),
		Episodes:      history,
	}
	if req.Limit > 0 && len(history) > req.Limit {
		out.Episodes = history[len(history)-req.Limit:]
		out.MovingAverage = out.MovingAverage[len(out.MovingAverage)-req.Limit:]
	}
	return out, nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", fmt.Errorf("%w: use either run id or latest", agent.ErrInvalidArgument)
	}
	if err := c.ensureStore(ctx); err != nil {
		return "", err
	}
	if !latest {
		if runID == "" {
			return "", fmt.Errorf("%w: run id or latest is required", agent.ErrInvalidArgument)
		}
		return runID, nil
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", errors.New("no runs available")
	}
	return runs[0].RunID, nil
}

// resolveSnapshot loads a table from an artifact file or from the store. The run
// record is returned only for stored tables.
func (c *Client) resolveSnapshot(ctx context.Context, runID string, latest bool, input string) (model.QTableSnapshot, *model.RunRecord, error) {
	if input != "" {
		if runID != "" || latest {
			return model.QTableSnapshot{}, nil, fmt.Errorf("%w: use either input or run id/latest", agent.ErrInvalidArgument)
		}
		snapshot, err := storage.ReadSnapshotFile(input)
		return snapshot, nil, err
	}

	id, err := c.resolveRunID(ctx, runID, latest)
	if err != nil {
		return model.QTableSnapshot{}, nil, err
	}
	snapshot, ok, err := c.store.GetQTable(ctx, id)
	if err != nil {
		return model.QTableSnapshot{}, nil, err
	}
	run, found, err := c.lookupRun(ctx, id)
	if err != nil {
		return model.QTableSnapshot{}, nil, err
	}
	if !ok {
		// Runs from earlier processes are reachable through their artifact file.
		if !found || run.ArtifactPath == "" {
			return model.QTableSnapshot{}, nil, fmt.Errorf("q-table not found for run id: %s", id)
		}
		if snapshot, err = storage.ReadSnapshotFile(run.ArtifactPath); err != nil {
			return model.QTableSnapshot{}, nil, err
		}
	}
	if !found {
		run = model.RunRecord{RunID: id}
	}
	return snapshot, &run, nil
}

// lookupRun finds a run record in the store, then in the artifacts directory.
func (c *Client) lookupRun(ctx context.Context, runID string) (model.RunRecord, bool, error) {
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return model.RunRecord{}, false, err
	}
	for _, run := range runs {
		if run.RunID == runID {
			return run, true, nil
		}
	}
	if c.artifactsDir == "" {
		return model.RunRecord{}, false, nil
	}
	return stats.ReadRunRecord(c.artifactsDir, runID)
}
