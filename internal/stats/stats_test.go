package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/louisbranch/probify/internal/dist"
)

const tolerance = 1e-9

func mustNotation(t *testing.T, notation string) dist.Dist {
	t.Helper()
	d, err := dist.FromNotation(notation)
	if err != nil {
		t.Fatalf("FromNotation(%q) returned error: %v", notation, err)
	}
	return d
}

func TestSummarizeSingleDie(t *testing.T) {
	summary, err := Summarize(mustNotation(t, "1d6"))
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if math.Abs(summary.Mean-3.5) > tolerance {
		t.Fatalf("mean = %v, want 3.5", summary.Mean)
	}
	// Var(1d6) = (36-1)/12.
	if math.Abs(summary.Var-35.0/12) > tolerance {
		t.Fatalf("variance = %v, want 35/12", summary.Var)
	}
	if math.Abs(summary.StdDev-math.Sqrt(35.0/12)) > tolerance {
		t.Fatalf("stddev = %v, want sqrt(35/12)", summary.StdDev)
	}
	if summary.Median != 3 {
		t.Fatalf("median = %d, want 3", summary.Median)
	}
	if summary.Min != 1 || summary.Max != 6 {
		t.Fatalf("range = [%d, %d], want [1, 6]", summary.Min, summary.Max)
	}
}

func TestSummarizeTwoDice(t *testing.T) {
	summary, err := Summarize(mustNotation(t, "2d6"))
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if math.Abs(summary.Mean-7) > tolerance {
		t.Fatalf("mean = %v, want 7", summary.Mean)
	}
	if summary.Median != 7 {
		t.Fatalf("median = %d, want 7", summary.Median)
	}
}

func TestSummarizeConstant(t *testing.T) {
	summary, err := Summarize(dist.Constant(42))
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if summary.Mean != 42 || summary.Var != 0 || summary.Median != 42 {
		t.Fatalf("unexpected summary for constant: %+v", summary)
	}
}

func TestSummarizeEmptyDistribution(t *testing.T) {
	if _, err := Summarize(dist.Dist{}); !errors.Is(err, ErrEmptyDistribution) {
		t.Fatalf("Summarize error = %v, want %v", err, ErrEmptyDistribution)
	}
}

func TestConfidenceIntervalTwoDice(t *testing.T) {
	// Cumulative mass of 2d6 reaches 5% at outcome 3 and 95% at 11.
	interval, err := ConfidenceInterval(mustNotation(t, "2d6"), 0.90)
	if err != nil {
		t.Fatalf("ConfidenceInterval returned error: %v", err)
	}
	if interval.Lower != 3 || interval.Upper != 11 {
		t.Fatalf("interval = [%d, %d], want [3, 11]", interval.Lower, interval.Upper)
	}
}

func TestConfidenceIntervalConstantCollapses(t *testing.T) {
	interval, err := ConfidenceInterval(dist.Constant(5), 0.95)
	if err != nil {
		t.Fatalf("ConfidenceInterval returned error: %v", err)
	}
	if interval.Lower != 5 || interval.Upper != 5 {
		t.Fatalf("interval = [%d, %d], want [5, 5]", interval.Lower, interval.Upper)
	}
}

func TestConfidenceIntervalRejectsBadLevel(t *testing.T) {
	for _, level := range []float64{0, 1, -0.5, 1.5} {
		if _, err := ConfidenceInterval(dist.Constant(1), level); !errors.Is(err, ErrInvalidLevel) {
			t.Fatalf("ConfidenceInterval(%v) error = %v, want %v", level, err, ErrInvalidLevel)
		}
	}
}
