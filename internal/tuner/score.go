package tuner

import (
	"fmt"
	"strings"
)

// ScoreMode selects how a series is reduced to one number.
type ScoreMode string

const (
	ScoreFinal    ScoreMode = "final"
	ScoreMeanTail ScoreMode = "mean_tail"
)

// ParseScoreMode accepts "final" and "mean_tail".
func ParseScoreMode(s string) (ScoreMode, error) {
	switch m := ScoreMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ScoreFinal, ScoreMeanTail:
		return m, nil
	default:
		return "", fmt.Errorf("unknown score mode %q (want final or mean_tail)", s)
	}
}

// Score reduces a series: its last value, or the mean of its last tail values.
// An empty series scores 0.
func Score(vals []float64, mode ScoreMode, tail int) float64 {
	if len(vals) == 0 {
		return 0
	}
	if mode == ScoreMeanTail {
		k := min(max(tail, 1), len(vals))
		sum := 0.0
		for _, v := range vals[len(vals)-k:] {
			sum += v
		}
		return sum / float64(k)
	}
	return vals[len(vals)-1]
}
