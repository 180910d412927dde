package dtl

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ImpurityCalculator interprets one flat slice of sufficient statistics.
// Classification statistics are per-class example counts; regression
// statistics are count, label sum and label sum of squares. The calculator
// is selected once per training run, never dispatched per example kind.
//
// Merging two statistics slices is element-wise addition, so partial
// aggregates computed over disjoint data shards combine correctly in any
// order.
type ImpurityCalculator interface {
	// StatsSize is the number of float64 values in one statistics slice.
	StatsSize() int
	// Add folds one label into stats.
	Add(stats []float64, label float64)
	// Count is the number of examples folded into stats.
	Count(stats []float64) float64
	// Impurity computes the impurity of stats; 0 for empty stats.
	Impurity(stats []float64) float64
	// Predict is the prediction a leaf holding stats would emit.
	Predict(stats []float64) float64
	// Prob is the probability of the predicted class, 0 when undefined.
	Prob(stats []float64) float64
}

// mergeStats adds src into dst element-wise.
func mergeStats(dst, src []float64) {
	floats.Add(dst, src)
}

type giniCalculator struct {
	numClasses int
}

func (c giniCalculator) StatsSize() int { return c.numClasses }

func (c giniCalculator) Add(stats []float64, label float64) {
	stats[int(label)]++
}

func (c giniCalculator) Count(stats []float64) float64 {
	return floats.Sum(stats)
}

func (c giniCalculator) Impurity(stats []float64) float64 {
	total := floats.Sum(stats)
	if total == 0 {
		return 0
	}
	sumSq := 0.0
	for _, count := range stats {
		p := count / total
		sumSq += p * p
	}
	return 1.0 - sumSq
}

func (c giniCalculator) Predict(stats []float64) float64 {
	return argmax(stats)
}

func (c giniCalculator) Prob(stats []float64) float64 {
	return classProb(stats)
}

type entropyCalculator struct {
	numClasses int
}

func (c entropyCalculator) StatsSize() int { return c.numClasses }

func (c entropyCalculator) Add(stats []float64, label float64) {
	stats[int(label)]++
}

func (c entropyCalculator) Count(stats []float64) float64 {
	return floats.Sum(stats)
}

func (c entropyCalculator) Impurity(stats []float64) float64 {
	total := floats.Sum(stats)
	if total == 0 {
		return 0
	}
	ent := 0.0
	for _, count := range stats {
		if count > 0 {
			p := count / total
			ent -= p * math.Log2(p)
		}
	}
	return ent
}

func (c entropyCalculator) Predict(stats []float64) float64 {
	return argmax(stats)
}

func (c entropyCalculator) Prob(stats []float64) float64 {
	return classProb(stats)
}

// varianceCalculator keeps count, sum and sum of squares, enough to
// recover the label variance of any merged population.
type varianceCalculator struct{}

func (c varianceCalculator) StatsSize() int { return 3 }

func (c varianceCalculator) Add(stats []float64, label float64) {
	stats[0]++
	stats[1] += label
	stats[2] += label * label
}

func (c varianceCalculator) Count(stats []float64) float64 {
	return stats[0]
}

func (c varianceCalculator) Impurity(stats []float64) float64 {
	count, sum, sumSq := stats[0], stats[1], stats[2]
	if count == 0 {
		return 0
	}
	mean := sum / count
	return sumSq/count - mean*mean
}

func (c varianceCalculator) Predict(stats []float64) float64 {
	if stats[0] == 0 {
		return 0
	}
	return stats[1] / stats[0]
}

func (c varianceCalculator) Prob(stats []float64) float64 { return 0 }

func argmax(stats []float64) float64 {
	best := 0
	for ind, count := range stats {
		if count > stats[best] {
			best = ind
		}
	}
	return float64(best)
}

func classProb(stats []float64) float64 {
	total := floats.Sum(stats)
	if total == 0 {
		return 0
	}
	return floats.Max(stats) / total
}
