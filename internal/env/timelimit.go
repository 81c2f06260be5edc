package env

import (
	"context"
	"fmt"
)

// TimeLimit truncates episodes of the wrapped environment after MaxSteps steps.
type TimeLimit[S comparable] struct {
	inner    Environment[S]
	maxSteps int
	steps    int
}

func NewTimeLimit[S comparable](inner Environment[S], maxSteps int) (*TimeLimit[S], error) {
	if inner == nil {
		return nil, fmt.Errorf("time limit requires an environment")
	}
	if maxSteps <= 0 {
		return nil, fmt.Errorf("max steps must be > 0, got %d", maxSteps)
	}
	return &TimeLimit[S]{inner: inner, maxSteps: maxSteps}, nil
}

func (t *TimeLimit[S]) Name() string {
	return t.inner.Name()
}

func (t *TimeLimit[S]) Reset(ctx context.Context) (S, error) {
	t.steps = 0
	return t.inner.Reset(ctx)
}

func (t *TimeLimit[S]) Step(ctx context.Context, action int) (Step[S], error) {
	if t.steps >= t.maxSteps {
		return Step[S]{}, ErrEpisodeOver
	}
	step, err := t.inner.Step(ctx, action)
	if err != nil {
		return Step[S]{}, err
	}
	t.steps++
	if t.steps >= t.maxSteps && !step.Terminated {
		step.Truncated = true
	}
	return step, nil
}

func (t *TimeLimit[S]) SampleAction() int {
	return t.inner.SampleAction()
}

func (t *TimeLimit[S]) StateShape() []int {
	return t.inner.StateShape()
}

func (t *TimeLimit[S]) ActionCount() int {
	return t.inner.ActionCount()
}

func (t *TimeLimit[S]) MaxSteps() int {
	return t.maxSteps
}
