package qlearn

import (
	"context"
	"fmt"
	"sort"

	"qlearn/internal/agent"
	"qlearn/internal/env"
	"qlearn/internal/model"
	"qlearn/internal/qtable"
)

const (
	EnvChain     = "chain"
	EnvGridWorld = "gridworld"

	defaultMaxSteps    = 100
	defaultChainLength = 5
	defaultMap         = "4x4"
)

type EnvironmentInfo struct {
	Name        string
	Description string
	Actions     int
	Maps        []string
}

// Environments lists the built-in environments a run can be trained on.
func Environments() []EnvironmentInfo {
	maps := make([]string, 0, len(env.Maps))
	for name := range env.Maps {
		maps = append(maps, name)
	}
	sort.Strings(maps)
	return []EnvironmentInfo{
		{
			Name:        EnvChain,
			Description: "states in a line; move right to reach the goal at the far end",
			Actions:     2,
		},
		{
			Name:        EnvGridWorld,
			Description: "frozen-lake grid with holes and one goal, optionally slippery",
			Actions:     4,
			Maps:        maps,
		},
	}
}

func normalizeEnv(spec model.EnvSpec) model.EnvSpec {
	if spec.Name == "" {
		spec.Name = EnvChain
	}
	if spec.MaxSteps <= 0 {
		spec.MaxSteps = defaultMaxSteps
	}
	switch spec.Name {
	case EnvChain:
		if spec.ChainLength <= 0 {
			spec.ChainLength = defaultChainLength
		}
		spec.Map = ""
		spec.Slippery = false
	case EnvGridWorld:
		if spec.Map == "" {
			spec.Map = defaultMap
		}
		spec.ChainLength = 0
	}
	return spec
}

// runner hides the state type of an environment so the client can drive agents of
// any key type.
type runner interface {
	Name() string
	Train(ctx context.Context, episodes int, initFrom, output string) (model.QTableSnapshot, agent.TrainResult, error)
	Evaluate(ctx context.Context, snapshot *model.QTableSnapshot, episodes int, mode agent.EvalMode) ([]model.EpisodeRecord, error)
}

type typedRunner[S comparable] struct {
	environment env.Environment[S]
	codec       qtable.KeyCodec[S]
	opts        agent.Options
}

func (r typedRunner[S]) Name() string {
	return r.environment.Name()
}

func (r typedRunner[S]) Train(ctx context.Context, episodes int, initFrom, output string) (model.QTableSnapshot, agent.TrainResult, error) {
	a, err := agent.New[S](r.environment, r.codec, r.opts)
	if err != nil {
		return model.QTableSnapshot{}, agent.TrainResult{}, err
	}
	if initFrom != "" {
		if err := a.Load(initFrom); err != nil {
			return model.QTableSnapshot{}, agent.TrainResult{}, err
		}
	}
	result, err := a.Train(ctx, episodes)
	if err != nil {
		return model.QTableSnapshot{}, result, err
	}
	if output != "" {
		if err := a.Save(output); err != nil {
			return model.QTableSnapshot{}, result, err
		}
	}
	snapshot, err := a.Snapshot()
	if err != nil {
		return model.QTableSnapshot{}, result, err
	}
	return snapshot, result, nil
}

func (r typedRunner[S]) Evaluate(ctx context.Context, snapshot *model.QTableSnapshot, episodes int, mode agent.EvalMode) ([]model.EpisodeRecord, error) {
	a, err := agent.New[S](r.environment, r.codec, r.opts)
	if err != nil {
		return nil, err
	}
	if snapshot != nil {
		if err := a.Restore(*snapshot); err != nil {
			return nil, err
		}
	}
	return a.Evaluate(ctx, episodes, mode)
}

func newRunner(spec model.EnvSpec, opts agent.Options) (runner, error) {
	switch spec.Name {
	case EnvChain:
		chain, err := env.NewChain(env.ChainConfig{
			Length:   spec.ChainLength,
			StepCost: spec.StepCost,
			Seed:     spec.Seed,
		})
		if err != nil {
			return nil, err
		}
		limited, err := env.NewTimeLimit[int](chain, spec.MaxSteps)
		if err != nil {
			return nil, err
		}
		return typedRunner[int]{environment: limited, codec: qtable.IntCodec{}, opts: opts}, nil
	case EnvGridWorld:
		layout, ok := env.Maps[spec.Map]
		if !ok {
			return nil, fmt.Errorf("unknown gridworld map: %s", spec.Map)
		}
		grid, err := env.NewGridWorld(env.GridWorldConfig{
			Layout:   layout,
			Slippery: spec.Slippery,
			StepCost: spec.StepCost,
			Seed:     spec.Seed,
		})
		if err != nil {
			return nil, err
		}
		limited, err := env.NewTimeLimit[env.Cell](grid, spec.MaxSteps)
		if err != nil {
			return nil, err
		}
		return typedRunner[env.Cell]{environment: limited, codec: qtable.JSONCodec[env.Cell]{}, opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown environment: %s", spec.Name)
	}
}
