// Package config loads training settings from defaults, an optional YAML file,
// QLEARN_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"

	"qlearn/internal/agent"
	"qlearn/internal/storage"
)

const EnvPrefix = "QLEARN"

type Config struct {
	Episodes     int           `mapstructure:"episodes"`
	RunID        string        `mapstructure:"run_id"`
	Output       string        `mapstructure:"output"`
	ArtifactsDir string        `mapstructure:"artifacts_dir"`
	Env          EnvConfig     `mapstructure:"env"`
	Agent        AgentConfig   `mapstructure:"agent"`
	Storage      StorageConfig `mapstructure:"storage"`
}

type EnvConfig struct {
	Name        string  `mapstructure:"name"`
	MaxSteps    int     `mapstructure:"max_steps"`
	ChainLength int     `mapstructure:"chain_length"`
	StepCost    float64 `mapstructure:"step_cost"`
	Map         string  `mapstructure:"map"`
	Slippery    bool    `mapstructure:"slippery"`
	Seed        int64   `mapstructure:"seed"`
}

type AgentConfig struct {
	LearningRate float64 `mapstructure:"learning_rate"`
	Discount     float64 `mapstructure:"discount"`
	Epsilon      float64 `mapstructure:"epsilon"`
	Seed         int64   `mapstructure:"seed"`
}

type StorageConfig struct {
	Kind string `mapstructure:"kind"`
	Path string `mapstructure:"path"`
}

func (a AgentConfig) Params() agent.Params {
	return agent.Params{LearningRate: a.LearningRate, Discount: a.Discount, Epsilon: a.Epsilon}
}

func SetDefaults(v *viper.Viper) {
	params := agent.DefaultParams()
	v.SetDefault("episodes", 500)
	v.SetDefault("run_id", "")
	v.SetDefault("output", "")
	v.SetDefault("artifacts_dir", "")
	v.SetDefault("env.name", "chain")
	v.SetDefault("env.max_steps", 100)
	v.SetDefault("env.chain_length", 5)
	v.SetDefault("env.step_cost", -0.01)
	v.SetDefault("env.map", "4x4")
	v.SetDefault("env.slippery", false)
	v.SetDefault("env.seed", 1)
	v.SetDefault("agent.learning_rate", params.LearningRate)
	v.SetDefault("agent.discount", params.Discount)
	v.SetDefault("agent.epsilon", params.Epsilon)
	v.SetDefault("agent.seed", 1)
	v.SetDefault("storage.kind", storage.DefaultStoreKind())
	v.SetDefault("storage.path", "qlearn.db")
}

// Load reads path (if non-empty) into v on top of the defaults and returns the
// validated result. Flags bound to v before calling Load take precedence.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem in one error.
func (c Config) Validate() error {
	var result *multierror.Error
	if c.Episodes <= 0 {
		result = multierror.Append(result, fmt.Errorf("episodes must be > 0, got %d", c.Episodes))
	}
	if strings.TrimSpace(c.Env.Name) == "" {
		result = multierror.Append(result, errors.New("env.name is required"))
	}
	if c.Env.MaxSteps <= 0 {
		result = multierror.Append(result, fmt.Errorf("env.max_steps must be > 0, got %d", c.Env.MaxSteps))
	}
	if c.Env.Name == "chain" && c.Env.ChainLength < 2 {
		result = multierror.Append(result, fmt.Errorf("env.chain_length must be >= 2, got %d", c.Env.ChainLength))
	}
	if err := c.Agent.Params().Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	switch c.Storage.Kind {
	case storage.KindMemory, storage.KindBolt, storage.KindSQLite:
	default:
		result = multierror.Append(result, fmt.Errorf("storage.kind must be one of memory|bbolt|sqlite, got %q", c.Storage.Kind))
	}
	return result.ErrorOrNil()
}
