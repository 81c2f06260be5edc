package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"qlearn/internal/config"
	"qlearn/internal/model"
	"qlearn/pkg/qlearn"
)

func newTrainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train an agent and store its q-table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load(cmd, append([]string{"episodes", "run-id", "out", "alpha", "gamma", "epsilon", "seed"}, envFlagNames...)...)
			if err != nil {
				return err
			}
			initFrom, _ := cmd.Flags().GetString("init-from")
			window, _ := cmd.Flags().GetInt("window")

			client, err := a.client(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.Train(cmd.Context(), qlearn.TrainRequest{
				RunID:         cfg.RunID,
				Env:           envSpec(cfg),
				Episodes:      cfg.Episodes,
				LearningRate:  cfg.Agent.LearningRate,
				Discount:      &cfg.Agent.Discount,
				Epsilon:       &cfg.Agent.Epsilon,
				Seed:          cfg.Agent.Seed,
				Output:        cfg.Output,
				InitFrom:      initFrom,
				SummaryWindow: window,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run_id=%s env=%s episodes=%s steps=%s states=%d\n",
				summary.RunID, summary.Env.Name,
				humanize.Comma(int64(summary.Summary.Episodes)),
				humanize.Comma(int64(summary.TotalSteps)),
				summary.States)
			fmt.Fprintf(out, "mean_return=%.4f std_return=%.4f tail_mean_return=%.4f (last %d)\n",
				summary.Summary.MeanReturn, summary.Summary.StdReturn, summary.Summary.TailMeanReturn, summary.Summary.Window)
			if summary.Output != "" {
				fmt.Fprintf(out, "saved=%s\n", summary.Output)
			}
			if summary.ArtifactsDir != "" {
				fmt.Fprintf(out, "artifacts=%s\n", summary.ArtifactsDir)
			}
			return nil
		},
	}
	cmd.Flags().Int("episodes", 500, "Number of training episodes")
	cmd.Flags().String("run-id", "", "Run id (random when empty)")
	cmd.Flags().String("out", "", "Write the q-table to this file (.json or .yaml)")
	cmd.Flags().String("init-from", "", "Start from a previously saved q-table file")
	cmd.Flags().Float64("alpha", 0.1, "Learning rate")
	cmd.Flags().Float64("gamma", 0.9, "Discount factor")
	cmd.Flags().Float64("epsilon", 0.1, "Exploration rate")
	cmd.Flags().Int64("seed", 1, "Agent random seed")
	cmd.Flags().Int("window", 100, "Trailing window for the summary")
	addEnvFlags(cmd)
	return cmd
}

func newEvaluateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Roll out a stored policy without learning",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load(cmd, envFlagNames...)
			if err != nil {
				return err
			}
			sel, err := readSelector(cmd)
			if err != nil {
				return err
			}
			episodes, _ := cmd.Flags().GetInt("episodes")
			mode, _ := cmd.Flags().GetString("mode")

			req := qlearn.EvaluateRequest{
				RunID:    sel.runID,
				Latest:   sel.latest,
				Input:    sel.input,
				Episodes: episodes,
				Mode:     mode,
			}
			// Stored runs remember their environment unless it is overridden.
			if sel.input != "" || sel.none() || cmd.Flags().Changed("env") {
				req.Env = envSpec(cfg)
			}

			client, err := a.client(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.Evaluate(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mode=%s env=%s episodes=%d mean_return=%.4f std_return=%.4f mean_steps=%.2f terminated=%.0f%% truncated=%.0f%%\n",
				summary.Mode, summary.Env.Name, summary.Summary.Episodes,
				summary.Summary.MeanReturn, summary.Summary.StdReturn, summary.Summary.MeanSteps,
				summary.Summary.TerminatedRate*100, summary.Summary.TruncatedRate*100)
			return nil
		},
	}
	addSelectorFlags(cmd)
	cmd.Flags().Int("episodes", 100, "Number of evaluation episodes")
	cmd.Flags().String("mode", "greedy", "Action selection: greedy|random")
	addEnvFlags(cmd)
	return cmd
}

func newPolicyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Print the greedy action for every stored state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pol, err := a.policy(cmd)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STATE\tACTION")
			for _, item := range pol.Items {
				fmt.Fprintf(w, "%s\t%d\n", item.State, item.Action)
			}
			return w.Flush()
		},
	}
	addSelectorFlags(cmd)
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the contents of a stored q-table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pol, err := a.policy(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if pol.RunID != "" {
				fmt.Fprintf(out, "run_id=%s\n", pol.RunID)
			}
			fmt.Fprintf(out, "schema_version=%d codec_version=%d state_shape=%v action_count=%d states=%d\n",
				pol.SchemaVersion, pol.CodecVersion, pol.StateShape, pol.ActionCount, len(pol.Items))
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STATE\tVALUES\tBEST")
			for _, item := range pol.Items {
				fmt.Fprintf(w, "%s\t%s\t%d\n", item.State, formatValues(item.Values), item.Action)
			}
			return w.Flush()
		},
	}
	addSelectorFlags(cmd)
	return cmd
}

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored training runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			client, err := a.client(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			runs, err := client.Runs(cmd.Context(), qlearn.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN ID\tCREATED\tENV\tEPISODES\tSTATES\tMEAN RETURN\tTAIL RETURN")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.4f\t%.4f\n",
					run.RunID, createdAgo(run.CreatedAtUTC), run.Environment,
					humanize.Comma(int64(run.Episodes)), run.States, run.MeanReturn, run.TailReturn)
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum runs to list")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show per-episode training history of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load(cmd)
			if err != nil {
				return err
			}
			runID, _ := cmd.Flags().GetString("run-id")
			latest, _ := cmd.Flags().GetBool("latest")
			limit, _ := cmd.Flags().GetInt("limit")
			window, _ := cmd.Flags().GetInt("window")

			client, err := a.client(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			history, err := client.History(cmd.Context(), qlearn.HistoryRequest{RunID: runID, Latest: latest, Limit: limit, Window: window})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run_id=%s episodes=%d mean_return=%.4f tail_mean_return=%.4f\n",
				history.RunID, history.Summary.Episodes, history.Summary.MeanReturn, history.Summary.TailMeanReturn)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EPISODE\tSTEPS\tRETURN\tAVG RETURN\tEND")
			for i, ep := range history.Episodes {
				fmt.Fprintf(w, "%d\t%d\t%.4f\t%.4f\t%s\n", ep.Episode, ep.Steps, ep.Return, history.MovingAverage[i], episodeEnd(ep))
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("run-id", "", "Run id")
	cmd.Flags().Bool("latest", false, "Use the most recent run")
	cmd.Flags().Int("limit", 20, "Show only the last N episodes (0 for all)")
	cmd.Flags().Int("window", 100, "Moving-average window")
	return cmd
}

func newEnvsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "envs",
		Short: "List built-in environments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tACTIONS\tMAPS\tDESCRIPTION")
			for _, info := range qlearn.Environments() {
				maps := strings.Join(info.Maps, ",")
				if maps == "" {
					maps = "-"
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", info.Name, info.Actions, maps, info.Description)
			}
			return w.Flush()
		},
	}
}

type selector struct {
	runID  string
	latest bool
	input  string
}

func (s selector) none() bool {
	return s.runID == "" && !s.latest && s.input == ""
}

func addSelectorFlags(cmd *cobra.Command) {
	cmd.Flags().String("run-id", "", "Stored run id")
	cmd.Flags().Bool("latest", false, "Use the most recent stored run")
	cmd.Flags().String("input", "", "Saved q-table file")
}

func readSelector(cmd *cobra.Command) (selector, error) {
	var sel selector
	var err error
	if sel.runID, err = cmd.Flags().GetString("run-id"); err != nil {
		return selector{}, err
	}
	if sel.latest, err = cmd.Flags().GetBool("latest"); err != nil {
		return selector{}, err
	}
	if sel.input, err = cmd.Flags().GetString("input"); err != nil {
		return selector{}, err
	}
	return sel, nil
}

func (a *app) policy(cmd *cobra.Command) (qlearn.PolicySummary, error) {
	cfg, err := a.load(cmd)
	if err != nil {
		return qlearn.PolicySummary{}, err
	}
	sel, err := readSelector(cmd)
	if err != nil {
		return qlearn.PolicySummary{}, err
	}
	if sel.none() {
		return qlearn.PolicySummary{}, errors.New("one of --run-id, --latest or --input is required")
	}
	client, err := a.client(cfg)
	if err != nil {
		return qlearn.PolicySummary{}, err
	}
	defer client.Close()
	return client.Policy(cmd.Context(), qlearn.PolicyRequest{RunID: sel.runID, Latest: sel.latest, Input: sel.input})
}

func envSpec(cfg config.Config) model.EnvSpec {
	return model.EnvSpec{
		Name:        cfg.Env.Name,
		MaxSteps:    cfg.Env.MaxSteps,
		ChainLength: cfg.Env.ChainLength,
		StepCost:    cfg.Env.StepCost,
		Map:         cfg.Env.Map,
		Slippery:    cfg.Env.Slippery,
		Seed:        cfg.Env.Seed,
	}
}

func formatValues(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func episodeEnd(ep model.EpisodeRecord) string {
	switch {
	case ep.Terminated:
		return "terminated"
	case ep.Truncated:
		return "truncated"
	default:
		return "-"
	}
}

func createdAgo(createdAtUTC string) string {
	created, err := time.Parse(time.RFC3339Nano, createdAtUTC)
	if err != nil {
		return createdAtUTC
	}
	return humanize.Time(created)
}
