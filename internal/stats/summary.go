package stats

import (
	"gonum.org/v1/gonum/stat"

	"qlearn/internal/model"
)

// Summary aggregates episode records from a training or evaluation run.
type Summary struct {
	Episodes       int     `json:"episodes"`
	TotalSteps     int     `json:"total_steps"`
	MeanReturn     float64 `json:"mean_return"`
	StdReturn      float64 `json:"std_return"`
	MeanSteps      float64 `json:"mean_steps"`
	TerminatedRate float64 `json:"terminated_rate"`
	TruncatedRate  float64 `json:"truncated_rate"`
	// TailMeanReturn is the mean return over the last Window episodes.
	TailMeanReturn float64 `json:"tail_mean_return"`
	Window         int     `json:"window"`
}

// Summarize computes a Summary; window <= 0 or larger than the run uses every episode.
func Summarize(records []model.EpisodeRecord, window int) Summary {
	if len(records) == 0 {
		return Summary{}
	}
	if window <= 0 || window > len(records) {
		window = len(records)
	}

	returns := make([]float64, len(records))
	steps := make([]float64, len(records))
	summary := Summary{Episodes: len(records), Window: window}
	for i, r := range records {
		returns[i] = r.Return
		steps[i] = float64(r.Steps)
		summary.TotalSteps += r.Steps
		if r.Terminated {
			summary.TerminatedRate++
		}
		if r.Truncated {
			summary.TruncatedRate++
		}
	}
	n := float64(len(records))
	summary.TerminatedRate /= n
	summary.TruncatedRate /= n
	summary.MeanReturn, summary.StdReturn = stat.MeanStdDev(returns, nil)
	if len(records) == 1 {
		summary.StdReturn = 0
	}
	summary.MeanSteps = stat.Mean(steps, nil)
	summary.TailMeanReturn = stat.Mean(returns[len(returns)-window:], nil)
	return summary
}

// MovingAverage smooths episode returns over a trailing window.
func MovingAverage(records []model.EpisodeRecord, window int) []float64 {
	if window <= 0 {
		window = 1
	}
	out := make([]float64, len(records))
	sum := 0.0
	for i, r := range records {
		sum += r.Return
		if i >= window {
			sum -= records[i-window].Return
			out[i] = sum / float64(window)
			continue
		}
		out[i] = sum / float64(i+1)
	}
	return out
}
