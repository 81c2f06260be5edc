package agent

import (
	"fmt"
	"math/rand"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"qlearn/internal/env"
	"qlearn/internal/logging"
	"qlearn/internal/policy"
	"qlearn/internal/qtable"
)

var (
	ErrInvalidAction   = qtable.ErrInvalidAction
	ErrInvalidArgument = qtable.ErrInvalidArgument
)

// Params are the learning hyperparameters. They are fixed for the agent's lifetime.
type Params struct {
	LearningRate float64
	Discount     float64
	Epsilon      float64
}

func DefaultParams() Params {
	return Params{LearningRate: 0.1, Discount: 0.9, Epsilon: 0.1}
}

// Validate reports every out-of-range parameter at once.
func (p Params) Validate() error {
	var result *multierror.Error
	if !(p.LearningRate > 0 && p.LearningRate <= 1) {
		result = multierror.Append(result, fmt.Errorf("%w: learning rate must be in (0, 1], got %g", ErrInvalidArgument, p.LearningRate))
	}
	if !(p.Discount >= 0 && p.Discount <= 1) {
		result = multierror.Append(result, fmt.Errorf("%w: discount must be in [0, 1], got %g", ErrInvalidArgument, p.Discount))
	}
	if err := policy.ValidateEpsilon(p.Epsilon); err != nil {
		result = multierror.Append(result, fmt.Errorf("%w: %v", ErrInvalidArgument, err))
	}
	return result.ErrorOrNil()
}

type Options struct {
	Params Params
	// Seed seeds the exploration source when Rand is nil.
	Seed   int64
	Rand   *rand.Rand
	Logger logrus.FieldLogger
}

// Phase is the agent's position in the episode loop.
type Phase int

const (
	PhaseReady Phase = iota
	PhaseStepping
	PhaseEpisodeDone
)

func (p Phase) String() string {
	switch p {
	case PhaseStepping:
		return "stepping"
	case PhaseEpisodeDone:
		return "episode_done"
	default:
		return "ready"
	}
}

// Transition is one observed step. Terminated is the environment's natural end
// signal; truncation must not be folded into it.
type Transition[S comparable] struct {
	State      S
	Action     int
	Reward     float64
	Next       S
	Terminated bool
}

// Agent learns a tabular action-value function with one-step Q-learning.
type Agent[S comparable] struct {
	env        env.Environment[S]
	codec      qtable.KeyCodec[S]
	table      *qtable.Table[S]
	params     Params
	policy     policy.EpsilonGreedy
	stateShape []int
	phase      Phase
	log        logrus.FieldLogger
}

// New builds an agent with an empty table sized to the environment's action count. A
// nil codec falls back to JSON-encoded state keys.
func New[S comparable](environment env.Environment[S], codec qtable.KeyCodec[S], opts Options) (*Agent[S], error) {
	if environment == nil {
		return nil, fmt.Errorf("%w: environment is required", ErrInvalidArgument)
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	table, err := qtable.New[S](environment.ActionCount())
	if err != nil {
		return nil, err
	}
	if codec == nil {
		codec = qtable.JSONCodec[S]{}
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(opts.Seed))
	}
	selector, err := policy.NewEpsilonGreedy(opts.Params.Epsilon, rng)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Agent[S]{
		env:        environment,
		codec:      codec,
		table:      table,
		params:     opts.Params,
		policy:     selector,
		stateShape: append([]int(nil), environment.StateShape()...),
		phase:      PhaseReady,
		log:        logger.WithField("env", environment.Name()),
	}, nil
}

func (a *Agent[S]) Params() Params {
	return a.params
}

func (a *Agent[S]) Table() *qtable.Table[S] {
	return a.table
}

func (a *Agent[S]) Phase() Phase {
	return a.phase
}

// StateShape is the environment's state shape, or the one recorded in the last
// loaded artifact.
func (a *Agent[S]) StateShape() []int {
	return append([]int(nil), a.stateShape...)
}

func (a *Agent[S]) ActionCount() int {
	return a.table.ActionCount()
}

// ChooseAction applies the epsilon-greedy policy to the state's entry.
func (a *Agent[S]) ChooseAction(state S) int {
	return a.policy.Select(a.table.Get(state))
}

// Update applies the one-step Q-learning rule and returns the TD error:
//
//	Q(S,A) <- Q(S,A) + alpha * (R + gamma * max Q(S',.) * (1 - terminated) - Q(S,A))
//
// Entries for both S and S' are materialized.
func (a *Agent[S]) Update(t Transition[S]) (float64, error) {
	q, err := a.table.Value(t.State, t.Action)
	if err != nil {
		return 0, err
	}
	maxNext := a.table.Max(t.Next)

	done := 0.0
	if t.Terminated {
		done = 1
	}
	target := t.Reward + a.params.Discount*maxNext*(1-done)
	tdError := target - q

	if err := a.table.Set(t.State, t.Action, q+a.params.LearningRate*tdError); err != nil {
		return 0, err
	}
	return tdError, nil
}

// GreedyPolicy maps every materialized state to its best action.
func (a *Agent[S]) GreedyPolicy() map[S]int {
	out := make(map[S]int, a.table.Len())
	a.table.Range(func(state S, values []float64) bool {
		out[state] = policy.Greedy(values)
		return true
	})
	return out
}
