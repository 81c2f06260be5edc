package stats

import (
	"math"
	"testing"

	"qlearn/internal/model"
)

func TestSummarize(t *testing.T) {
	records := []model.EpisodeRecord{
		{Episode: 1, Steps: 10, Return: -1, Truncated: true},
		{Episode: 2, Steps: 4, Return: 1, Terminated: true},
		{Episode: 3, Steps: 2, Return: 3, Terminated: true},
	}
	summary := Summarize(records, 2)

	if summary.Episodes != 3 || summary.TotalSteps != 16 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if summary.MeanReturn != 1 {
		t.Fatalf("expected mean return 1, got %f", summary.MeanReturn)
	}
	if math.Abs(summary.StdReturn-2) > 1e-12 {
		t.Fatalf("expected sample std 2, got %f", summary.StdReturn)
	}
	if summary.TailMeanReturn != 2 || summary.Window != 2 {
		t.Fatalf("expected tail mean 2 over 2 episodes, got %+v", summary)
	}
	if math.Abs(summary.TerminatedRate-2.0/3.0) > 1e-12 || math.Abs(summary.TruncatedRate-1.0/3.0) > 1e-12 {
		t.Fatalf("unexpected rates: %+v", summary)
	}
}

func TestSummarizeEdgeCases(t *testing.T) {
	if got := Summarize(nil, 5); got != (Summary{}) {
		t.Fatalf("expected zero summary, got %+v", got)
	}
	single := Summarize([]model.EpisodeRecord{{Episode: 1, Steps: 3, Return: 0.5}}, 10)
	if single.StdReturn != 0 || single.Window != 1 || single.TailMeanReturn != 0.5 {
		t.Fatalf("unexpected single-episode summary: %+v", single)
	}
}

func TestMovingAverage(t *testing.T) {
	records := []model.EpisodeRecord{{Return: 1}, {Return: 3}, {Return: 5}, {Return: 7}}
	got := MovingAverage(records, 2)
	want := []float64{1, 2, 4, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: want %f, got %f", i, want[i], got[i])
		}
	}
}
