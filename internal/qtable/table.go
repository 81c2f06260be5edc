// Package qtable holds the sparse state/action value table used by the agent.
package qtable

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrInvalidAction   = errors.New("invalid action")
	ErrInvalidArgument = errors.New("invalid argument")
)

// InvalidActionError reports an action index outside [0, ActionCount).
type InvalidActionError struct {
	Action      int
	ActionCount int
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action %d: want [0, %d)", e.Action, e.ActionCount)
}

func (e *InvalidActionError) Unwrap() error {
	return ErrInvalidAction
}

// Table maps states to fixed-size action value vectors. Unseen states read as
// all-zero and are materialized by the first lookup that touches them.
type Table[S comparable] struct {
	actionCount int
	entries     map[S][]float64
}

func New[S comparable](actionCount int) (*Table[S], error) {
	if actionCount <= 0 {
		return nil, fmt.Errorf("%w: action count must be > 0, got %d", ErrInvalidArgument, actionCount)
	}
	return &Table[S]{
		actionCount: actionCount,
		entries:     make(map[S][]float64),
	}, nil
}

func (t *Table[S]) ActionCount() int {
	return t.actionCount
}

// Len returns the number of materialized states.
func (t *Table[S]) Len() int {
	return len(t.entries)
}

// Get returns a copy of the entry for state, inserting a zero vector first when the
// state has not been seen.
func (t *Table[S]) Get(state S) []float64 {
	return append([]float64(nil), t.entry(state)...)
}

// Peek returns a copy of the entry for state without materializing it.
func (t *Table[S]) Peek(state S) ([]float64, bool) {
	values, ok := t.entries[state]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), values...), true
}

func (t *Table[S]) Value(state S, action int) (float64, error) {
	if err := t.CheckAction(action); err != nil {
		return 0, err
	}
	return t.entry(state)[action], nil
}

// Set overwrites a single action value for state.
func (t *Table[S]) Set(state S, action int, value float64) error {
	if err := t.CheckAction(action); err != nil {
		return err
	}
	t.entry(state)[action] = value
	return nil
}

// Max returns the largest action value for state, materializing the entry.
func (t *Table[S]) Max(state S) float64 {
	return floats.Max(t.entry(state))
}

// Argmax returns the best action for state, materializing the entry. Ties resolve to
// the lowest index.
func (t *Table[S]) Argmax(state S) int {
	return floats.MaxIdx(t.entry(state))
}

// BestAction is Argmax without materialization; unseen states resolve to action 0.
func (t *Table[S]) BestAction(state S) int {
	values, ok := t.entries[state]
	if !ok {
		return 0
	}
	return floats.MaxIdx(values)
}

func (t *Table[S]) States() []S {
	states := make([]S, 0, len(t.entries))
	for state := range t.entries {
		states = append(states, state)
	}
	return states
}

// Range calls fn with a copy of every materialized entry until fn returns false.
func (t *Table[S]) Range(fn func(state S, values []float64) bool) {
	for state, values := range t.entries {
		if !fn(state, append([]float64(nil), values...)) {
			return
		}
	}
}

func (t *Table[S]) CheckAction(action int) error {
	if action < 0 || action >= t.actionCount {
		return &InvalidActionError{Action: action, ActionCount: t.actionCount}
	}
	return nil
}

func (t *Table[S]) entry(state S) []float64 {
	values, ok := t.entries[state]
	if !ok {
		values = make([]float64, t.actionCount)
		t.entries[state] = values
	}
	return values
}
