package reinforcement

import (
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the tail of a training history.
type Summary struct {
	// Episodes is the number of records summarized.
	Episodes         int
	MeanReward       float64
	MeanSteps        float64
	SuccessRate      float64
	FinalExploration float64
}

// Summarize averages the last window records of history; a window < 1 or larger
// than the history covers all of it. An empty history yields the zero Summary.
func Summarize(history []EpisodeRecord, window int) Summary {
	if len(history) == 0 {
		return Summary{}
	}
	if window < 1 || window > len(history) {
		window = len(history)
	}
	tail := history[len(history)-window:]

	rewards := make([]float64, len(tail))
	steps := make([]float64, len(tail))
	successes := make([]float64, len(tail))
	for i, rec := range tail {
		rewards[i] = rec.TotalReward
		steps[i] = float64(rec.Steps)
		if rec.Success {
			successes[i] = 1
		}
	}

	return Summary{
		Episodes:         len(tail),
		MeanReward:       stat.Mean(rewards, nil),
		MeanSteps:        stat.Mean(steps, nil),
		SuccessRate:      stat.Mean(successes, nil),
		FinalExploration: tail[len(tail)-1].ExplorationRate,
	}
}
