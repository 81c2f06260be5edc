package policy

import (
	"math"
	"math/rand"
	"testing"
)

func TestGreedyLowestIndexOnTie(t *testing.T) {
	cases := []struct {
		values []float64
		want   int
	}{
		{values: []float64{0, 0, 0}, want: 0},
		{values: []float64{1, 3, 3}, want: 1},
		{values: []float64{-2, -1, -3}, want: 1},
		{values: []float64{4}, want: 0},
	}
	for _, tc := range cases {
		if got := Greedy(tc.values); got != tc.want {
			t.Fatalf("greedy(%v): expected %d, got %d", tc.values, tc.want, got)
		}
	}
}

func TestEpsilonZeroIsDeterministic(t *testing.T) {
	p, err := NewEpsilonGreedy(0, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	values := []float64{0.2, 1.4, -0.3, 1.1}
	for i := 0; i < 500; i++ {
		if got := p.Select(values); got != 1 {
			t.Fatalf("call %d: expected argmax 1, got %d", i, got)
		}
	}
}

func TestEpsilonOneIsUniform(t *testing.T) {
	p, err := NewEpsilonGreedy(1, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	const draws = 20000
	values := []float64{10, 0, 0, 0}
	counts := make([]int, len(values))
	for i := 0; i < draws; i++ {
		counts[p.Select(values)]++
	}
	for action, count := range counts {
		share := float64(count) / draws
		if math.Abs(share-0.25) > 0.02 {
			t.Fatalf("action %d drawn with share %.4f, expected ~0.25 (counts=%v)", action, share, counts)
		}
	}
}

func TestValidateEpsilon(t *testing.T) {
	for _, eps := range []float64{-0.1, 1.01} {
		if err := ValidateEpsilon(eps); err == nil {
			t.Fatalf("expected error for epsilon %g", eps)
		}
	}
	if _, err := NewEpsilonGreedy(0.5, nil); err == nil {
		t.Fatal("expected error for nil random source")
	}
}
