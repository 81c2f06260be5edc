// Package env defines the environment contract the agent trains against and a few
// small discrete environments.
package env

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidAction = errors.New("invalid action")
	ErrNotReset      = errors.New("environment not reset")
	ErrEpisodeOver   = errors.New("episode is over")
)

// Step is the outcome of one environment transition. Terminated marks a natural end
// of the episode; Truncated marks an external cutoff such as a step limit.
type Step[S comparable] struct {
	State      S
	Reward     float64
	Terminated bool
	Truncated  bool
}

func (s Step[S]) Done() bool {
	return s.Terminated || s.Truncated
}

type Environment[S comparable] interface {
	Name() string
	Reset(ctx context.Context) (S, error)
	Step(ctx context.Context, action int) (Step[S], error)
	SampleAction() int
	StateShape() []int
	ActionCount() int
}

func checkAction(action, count int) error {
	if action < 0 || action >= count {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidAction, action, count)
	}
	return nil
}
