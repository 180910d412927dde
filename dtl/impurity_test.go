package dtl

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestGiniCalculator(t *testing.T) {
	calc := giniCalculator{numClasses: 3}
	stats := make([]float64, calc.StatsSize())
	for _, label := range []float64{0, 0, 1, 2} {
		calc.Add(stats, label)
	}
	if got := calc.Count(stats); got != 4 {
		t.Fatalf("count = %g, want 4", got)
	}
	// 1 - (1/2)^2 - (1/4)^2 - (1/4)^2
	if got := calc.Impurity(stats); !almostEqual(got, 0.625) {
		t.Fatalf("gini = %g, want 0.625", got)
	}
	if got := calc.Predict(stats); got != 0 {
		t.Fatalf("predict = %g, want 0", got)
	}
	if got := calc.Prob(stats); !almostEqual(got, 0.5) {
		t.Fatalf("prob = %g, want 0.5", got)
	}
}

func TestEntropyCalculator(t *testing.T) {
	calc := entropyCalculator{numClasses: 2}
	stats := []float64{2, 2}
	if got := calc.Impurity(stats); !almostEqual(got, 1.0) {
		t.Fatalf("entropy = %g, want 1", got)
	}
	if got := calc.Impurity([]float64{4, 0}); got != 0 {
		t.Fatalf("entropy of a pure node = %g, want 0", got)
	}
	if got := calc.Impurity([]float64{0, 0}); got != 0 {
		t.Fatalf("entropy of an empty node = %g, want 0", got)
	}
}

func TestVarianceCalculator(t *testing.T) {
	calc := varianceCalculator{}
	stats := make([]float64, calc.StatsSize())
	for _, label := range []float64{1, 2, 3, 4} {
		calc.Add(stats, label)
	}
	if got := calc.Count(stats); got != 4 {
		t.Fatalf("count = %g, want 4", got)
	}
	if got := calc.Predict(stats); !almostEqual(got, 2.5) {
		t.Fatalf("mean = %g, want 2.5", got)
	}
	if got := calc.Impurity(stats); !almostEqual(got, 1.25) {
		t.Fatalf("variance = %g, want 1.25", got)
	}
}

func TestMergeStatsMatchesSingleAccumulation(t *testing.T) {
	calc := varianceCalculator{}
	labels := []float64{0.5, 1.5, -2, 7, 3.25, 0}

	whole := make([]float64, calc.StatsSize())
	for _, label := range labels {
		calc.Add(whole, label)
	}

	left := make([]float64, calc.StatsSize())
	right := make([]float64, calc.StatsSize())
	for ind, label := range labels {
		if ind%2 == 0 {
			calc.Add(left, label)
		} else {
			calc.Add(right, label)
		}
	}
	mergeStats(left, right)

	for ind := range whole {
		if left[ind] != whole[ind] {
			t.Fatalf("merged stats %v differ from whole-pass stats %v", left, whole)
		}
	}
}
