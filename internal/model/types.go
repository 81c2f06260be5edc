package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version" yaml:"schema_version"`
	CodecVersion  int `json:"codec_version" yaml:"codec_version"`
}

// QTableSnapshot is the concrete form of a Q-table: every materialized state with its
// action values, keyed by the encoded state.
type QTableSnapshot struct {
	VersionedRecord `yaml:",inline"`
	StateShape      []int    `json:"state_shape" yaml:"state_shape"`
	ActionCount     int      `json:"action_count" yaml:"action_count"`
	Entries         []QEntry `json:"qtable" yaml:"qtable"`
}

type QEntry struct {
	State  string    `json:"state" yaml:"state"`
	Values []float64 `json:"values" yaml:"values,flow"`
}

// EpisodeRecord summarizes one training or evaluation episode.
type EpisodeRecord struct {
	Episode        int     `json:"episode"`
	Steps          int     `json:"steps"`
	Return         float64 `json:"return"`
	Terminated     bool    `json:"terminated"`
	Truncated      bool    `json:"truncated"`
	MeanAbsTDError float64 `json:"mean_abs_td_error"`
}

type RunRecord struct {
	VersionedRecord
	RunID        string  `json:"run_id"`
	CreatedAtUTC string  `json:"created_at_utc"`
	Environment  string  `json:"environment"`
	Env          EnvSpec `json:"env"`
	Episodes     int     `json:"episodes"`
	LearningRate float64 `json:"learning_rate"`
	Discount     float64 `json:"discount"`
	Epsilon      float64 `json:"epsilon"`
	Seed         int64   `json:"seed"`
	States       int     `json:"states"`
	MeanReturn   float64 `json:"mean_return"`
	TailReturn   float64 `json:"tail_return"`
	ArtifactPath string  `json:"artifact_path,omitempty"`
}

// EnvSpec records how a run's environment was built so it can be rebuilt later.
type EnvSpec struct {
	Name        string  `json:"name"`
	MaxSteps    int     `json:"max_steps"`
	ChainLength int     `json:"chain_length,omitempty"`
	StepCost    float64 `json:"step_cost"`
	Map         string  `json:"map,omitempty"`
	Slippery    bool    `json:"slippery,omitempty"`
	Seed        int64   `json:"seed"`
}
