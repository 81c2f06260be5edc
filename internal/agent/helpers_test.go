package agent

import (
	"context"
	"testing"

	"qlearn/internal/env"
	"qlearn/internal/qtable"
)

// scriptedEnv replays a fixed list of steps each episode.
type scriptedEnv struct {
	start    int
	script   []env.Step[int]
	actions  int
	resetErr error
	stepErr  error
	onReset  func()
	onStep   func()

	pos int
}

func (s *scriptedEnv) Name() string { return "scripted" }

func (s *scriptedEnv) Reset(_ context.Context) (int, error) {
	if s.onReset != nil {
		s.onReset()
	}
	if s.resetErr != nil {
		return 0, s.resetErr
	}
	s.pos = 0
	return s.start, nil
}

func (s *scriptedEnv) Step(_ context.Context, action int) (env.Step[int], error) {
	if s.onStep != nil {
		s.onStep()
	}
	if s.stepErr != nil {
		return env.Step[int]{}, s.stepErr
	}
	if action < 0 || action >= s.ActionCount() {
		return env.Step[int]{}, env.ErrInvalidAction
	}
	step := s.script[s.pos]
	s.pos++
	return step, nil
}

func (s *scriptedEnv) SampleAction() int { return 0 }

func (s *scriptedEnv) StateShape() []int { return []int{len(s.script) + 1} }

func (s *scriptedEnv) ActionCount() int {
	if s.actions == 0 {
		return 2
	}
	return s.actions
}

func newChainAgent(t *testing.T, length int, params Params, seed int64) *Agent[int] {
	t.Helper()
	chain, err := env.NewChain(env.ChainConfig{Length: length, StepCost: -0.01, Seed: seed})
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}
	limited, err := env.NewTimeLimit[int](chain, 100)
	if err != nil {
		t.Fatalf("new time limit: %v", err)
	}
	a, err := New[int](limited, qtable.IntCodec{}, Options{Params: params, Seed: seed})
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}
	return a
}

func mustSet[S comparable](t *testing.T, a *Agent[S], state S, action int, value float64) {
	t.Helper()
	if err := a.Table().Set(state, action, value); err != nil {
		t.Fatalf("set: %v", err)
	}
}

func almostEqual(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	return d < eps && d > -eps
}
