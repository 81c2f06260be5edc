// Package policy implements action selection over a state's action values.
package policy

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// EpsilonGreedy explores uniformly with probability Epsilon and otherwise exploits the
// best known action. Every call is an independent draw from Rand.
type EpsilonGreedy struct {
	Epsilon float64
	Rand    *rand.Rand
}

func NewEpsilonGreedy(epsilon float64, rng *rand.Rand) (EpsilonGreedy, error) {
	if err := ValidateEpsilon(epsilon); err != nil {
		return EpsilonGreedy{}, err
	}
	if rng == nil {
		return EpsilonGreedy{}, fmt.Errorf("epsilon-greedy requires a random source")
	}
	return EpsilonGreedy{Epsilon: epsilon, Rand: rng}, nil
}

func (p EpsilonGreedy) Name() string {
	return "epsilon-greedy"
}

// Select picks an index into values. values must be non-empty.
func (p EpsilonGreedy) Select(values []float64) int {
	if p.Rand.Float64() < p.Epsilon {
		return p.Rand.Intn(len(values))
	}
	return Greedy(values)
}

// Greedy returns the index of the largest value; ties go to the lowest index.
func Greedy(values []float64) int {
	return floats.MaxIdx(values)
}

func ValidateEpsilon(epsilon float64) error {
	if !(epsilon >= 0 && epsilon <= 1) {
		return fmt.Errorf("epsilon must be in [0, 1], got %g", epsilon)
	}
	return nil
}
