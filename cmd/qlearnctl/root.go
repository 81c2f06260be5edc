package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"qlearn/internal/config"
	"qlearn/internal/logging"
	"qlearn/pkg/qlearn"
)

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"store":         "storage.kind",
	"db-path":       "storage.path",
	"artifacts-dir": "artifacts_dir",
	"episodes":      "episodes",
	"run-id":        "run_id",
	"out":           "output",
	"env":           "env.name",
	"max-steps":     "env.max_steps",
	"chain-length":  "env.chain_length",
	"step-cost":     "env.step_cost",
	"map":           "env.map",
	"slippery":      "env.slippery",
	"env-seed":      "env.seed",
	"alpha":         "agent.learning_rate",
	"gamma":         "agent.discount",
	"epsilon":       "agent.epsilon",
	"seed":          "agent.seed",
}

var persistentBound = []string{"store", "db-path", "artifacts-dir"}

// app carries per-invocation state so every NewRootCmd is independent.
type app struct {
	v   *viper.Viper
	log *logrus.Logger
}

func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	cmd := &cobra.Command{
		Use:           "qlearnctl",
		Short:         "Train and inspect tabular Q-learning agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("config", "", "YAML config file")
	cmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	cmd.PersistentFlags().Bool("quiet", false, "Suppress log output")
	cmd.PersistentFlags().String("store", "", "Store backend: memory|bbolt|sqlite")
	cmd.PersistentFlags().String("db-path", "", "Store file path for bbolt and sqlite")
	cmd.PersistentFlags().String("artifacts-dir", "", "Directory for per-run artifacts")

	cmd.AddCommand(
		newTrainCmd(a),
		newEvaluateCmd(a),
		newPolicyCmd(a),
		newInspectCmd(a),
		newRunsCmd(a),
		newHistoryCmd(a),
		newEnvsCmd(),
	)
	return cmd
}

// load binds the named flags of cmd into viper, reads the config and sets up logging.
func (a *app) load(cmd *cobra.Command, bound ...string) (config.Config, error) {
	names := append(append([]string(nil), bound...), persistentBound...)
	if err := bindFlags(a.v, cmd.Flags(), names); err != nil {
		return config.Config{}, err
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	quiet, _ := cmd.Flags().GetBool("quiet")
	a.log = logging.New(logging.Options{Debug: debug, Quiet: quiet, Output: cmd.ErrOrStderr()})

	cfg, err := config.Load(a.v, path)
	if err != nil {
		return config.Config{}, err
	}
	a.log.WithField("store", cfg.Storage.Kind).Debug("configuration loaded")
	return cfg, nil
}

func (a *app) client(cfg config.Config) (*qlearn.Client, error) {
	return qlearn.New(qlearn.Options{
		StoreKind:    cfg.Storage.Kind,
		DBPath:       cfg.Storage.Path,
		ArtifactsDir: cfg.ArtifactsDir,
		Logger:       a.log,
	})
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, names []string) error {
	for _, name := range names {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(flagKeys[name], flag); err != nil {
			return err
		}
	}
	return nil
}

func addEnvFlags(cmd *cobra.Command) {
	cmd.Flags().String("env", "chain", "Environment: chain|gridworld")
	cmd.Flags().Int("max-steps", 100, "Steps before an episode is truncated")
	cmd.Flags().Int("chain-length", 5, "Number of chain states")
	cmd.Flags().Float64("step-cost", -0.01, "Reward for every non-terminal step")
	cmd.Flags().String("map", "4x4", "Gridworld map: 4x4|8x8")
	cmd.Flags().Bool("slippery", false, "Gridworld moves slip sideways")
	cmd.Flags().Int64("env-seed", 1, "Environment random seed")
}

var envFlagNames = []string{"env", "max-steps", "chain-length", "step-cost", "map", "slippery", "env-seed"}
