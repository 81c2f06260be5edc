package env

import (
	"context"
	"fmt"
	"math/rand"
)

const (
	ChainLeft  = 0
	ChainRight = 1
)

// Chain is a line of states. The agent starts at 0 and the episode terminates when it
// reaches the last state.
type Chain struct {
	length     int
	stepCost   float64
	goalReward float64
	rng        *rand.Rand

	state  int
	active bool
}

type ChainConfig struct {
	Length   int
	StepCost float64
	// GoalReward defaults to 1 when nil.
	GoalReward *float64
	Seed       int64
}

func NewChain(cfg ChainConfig) (*Chain, error) {
	if cfg.Length < 2 {
		return nil, fmt.Errorf("chain length must be >= 2, got %d", cfg.Length)
	}
	goal := 1.0
	if cfg.GoalReward != nil {
		goal = *cfg.GoalReward
	}
	return &Chain{
		length:     cfg.Length,
		stepCost:   cfg.StepCost,
		goalReward: goal,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (c *Chain) Name() string {
	return "chain"
}

func (c *Chain) Reset(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.state = 0
	c.active = true
	return c.state, nil
}

func (c *Chain) Step(ctx context.Context, action int) (Step[int], error) {
	if err := ctx.Err(); err != nil {
		return Step[int]{}, err
	}
	if err := checkAction(action, 2); err != nil {
		return Step[int]{}, err
	}
	if !c.active {
		if c.state == c.length-1 {
			return Step[int]{}, ErrEpisodeOver
		}
		return Step[int]{}, ErrNotReset
	}

	switch action {
	case ChainLeft:
		if c.state > 0 {
			c.state--
		}
	case ChainRight:
		c.state++
	}

	if c.state == c.length-1 {
		c.active = false
		return Step[int]{State: c.state, Reward: c.goalReward, Terminated: true}, nil
	}
	return Step[int]{State: c.state, Reward: c.stepCost}, nil
}

func (c *Chain) SampleAction() int {
	return c.rng.Intn(2)
}

func (c *Chain) StateShape() []int {
	return []int{c.length}
}

func (c *Chain) ActionCount() int {
	return 2
}
