// Package stats computes summary statistics over a probability
// distribution produced by a program run.
package stats

import (
	"errors"
	"fmt"
	"math"

	"github.com/louisbranch/probify/internal/dist"
)

// ErrEmptyDistribution indicates a distribution with no outcomes.
var ErrEmptyDistribution = errors.New("distribution has no outcomes")

// ErrInvalidLevel indicates a confidence level outside (0, 1).
var ErrInvalidLevel = errors.New("confidence level must be between 0 and 1")

// Summary captures the statistics reported alongside a distribution.
type Summary struct {
	Mean   float64
	Var    float64
	StdDev float64
	Median int
	Min    int
	Max    int
}

// Summarize computes the summary statistics of d.
//
// The median is the smallest outcome whose cumulative probability
// reaches one half, taken in ascending outcome order.
func Summarize(d dist.Dist) (Summary, error) {
	outcomes := d.Outcomes()
	if len(outcomes) == 0 {
		return Summary{}, ErrEmptyDistribution
	}

	mean := 0.0
	for _, x := range outcomes {
		mean += float64(x) * d.Prob(x)
	}
	variance := 0.0
	for _, x := range outcomes {
		delta := float64(x) - mean
		variance += d.Prob(x) * delta * delta
	}

	median := outcomes[len(outcomes)-1]
	cumulative := 0.0
	for _, x := range outcomes {
		cumulative += d.Prob(x)
		if cumulative >= 0.5 {
			median = x
			break
		}
	}

	return Summary{
		Mean:   mean,
		Var:    variance,
		StdDev: math.Sqrt(variance),
		Median: median,
		Min:    outcomes[0],
		Max:    outcomes[len(outcomes)-1],
	}, nil
}

// Interval is a confidence interval over outcomes.
type Interval struct {
	Lower int
	Upper int
	Level float64
}

// ConfidenceInterval returns the central interval holding at least level
// of the total mass: the lower bound is the first outcome whose
// cumulative probability reaches (1-level)/2, the upper bound the first
// to reach 1-(1-level)/2.
func ConfidenceInterval(d dist.Dist, level float64) (Interval, error) {
	if level <= 0 || level >= 1 {
		return Interval{}, fmt.Errorf("%w: %v", ErrInvalidLevel, level)
	}
	outcomes := d.Outcomes()
	if len(outcomes) == 0 {
		return Interval{}, ErrEmptyDistribution
	}

	lowerTarget := (1 - level) / 2
	upperTarget := 1 - lowerTarget

	interval := Interval{Level: level, Lower: outcomes[0], Upper: outcomes[len(outcomes)-1]}
	lowerSet := false
	cumulative := 0.0
	for _, x := range outcomes {
		cumulative += d.Prob(x)
		if !lowerSet && cumulative >= lowerTarget {
			interval.Lower = x
			lowerSet = true
		}
		if cumulative >= upperTarget {
			interval.Upper = x
			break
		}
	}
	return interval, nil
}
