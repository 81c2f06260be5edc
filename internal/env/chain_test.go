package env

import (
	"context"
	"errors"
	"testing"
)

func TestChainReachesGoal(t *testing.T) {
	ctx := context.Background()
	chain, err := NewChain(ChainConfig{Length: 3, StepCost: -0.1})
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}

	state, err := chain.Reset(ctx)
	if err != nil || state != 0 {
		t.Fatalf("reset: state=%d err=%v", state, err)
	}

	step, err := chain.Step(ctx, ChainLeft)
	if err != nil {
		t.Fatalf("step left: %v", err)
	}
	if step.State != 0 || step.Reward != -0.1 || step.Done() {
		t.Fatalf("expected clamped left move, got %+v", step)
	}

	step, _ = chain.Step(ctx, ChainRight)
	if step.State != 1 || step.Done() {
		t.Fatalf("unexpected step: %+v", step)
	}
	step, _ = chain.Step(ctx, ChainRight)
	if step.State != 2 || !step.Terminated || step.Truncated || step.Reward != 1 {
		t.Fatalf("expected terminal goal step, got %+v", step)
	}

	if _, err := chain.Step(ctx, ChainRight); !errors.Is(err, ErrEpisodeOver) {
		t.Fatalf("expected ErrEpisodeOver, got %v", err)
	}
}

func TestChainErrors(t *testing.T) {
	if _, err := NewChain(ChainConfig{Length: 1}); err == nil {
		t.Fatal("expected length error")
	}
	chain, _ := NewChain(ChainConfig{Length: 2})
	if _, err := chain.Step(context.Background(), ChainRight); !errors.Is(err, ErrNotReset) {
		t.Fatalf("expected ErrNotReset, got %v", err)
	}
	_, _ = chain.Reset(context.Background())
	if _, err := chain.Step(context.Background(), 2); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestChainSampleActionInRange(t *testing.T) {
	chain, _ := NewChain(ChainConfig{Length: 4, Seed: 9})
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		a := chain.SampleAction()
		if a < 0 || a >= chain.ActionCount() {
			t.Fatalf("sampled action out of range: %d", a)
		}
		seen[a] = true
	}
	if len(seen) != 2 {
		t.Fatalf("expected both actions sampled, got %v", seen)
	}
}

func TestChainZeroGoalReward(t *testing.T) {
	zero := 0.0
	chain, err := NewChain(ChainConfig{Length: 2, GoalReward: &zero})
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}
	_, _ = chain.Reset(context.Background())
	step, err := chain.Step(context.Background(), ChainRight)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if !step.Terminated || step.Reward != 0 {
		t.Fatalf("expected terminal step with zero reward, got %+v", step)
	}
}

func TestChainHonorsCancelledContext(t *testing.T) {
	chain, _ := NewChain(ChainConfig{Length: 3})
	_, _ = chain.Reset(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := chain.Step(ctx, ChainRight); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled from step, got %v", err)
	}
	if _, err := chain.Reset(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled from reset, got %v", err)
	}
}
