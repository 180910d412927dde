package dtl

import (
	"math"
)

// splitEvaluation carries the winning split of one node together with the
// child predictions needed to seed the next level.
type splitEvaluation struct {
	valid        bool
	split        Split
	stats        *InformationGainStats
	leftPredict  float64
	leftProb     float64
	rightPredict float64
	rightProb    float64
}

// bestSplit converts one node's slice of the aggregate table into
// left/right statistics per candidate split and selects the split with
// the highest information gain. Features are scanned in index order and
// splits in index order; the comparison is strictly greater-than, so ties
// keep the first-seen candidate and selection is reproducible.
func (a *binAggregator) bestSplit(localNode int, parentImpurity float64) splitEvaluation {
	row := a.nodeView(localNode)
	statsSize := a.calc.StatsSize()

	eval := splitEvaluation{}
	bestGain := math.Inf(-1)

	leftBuf := make([]float64, statsSize)
	rightBuf := make([]float64, statsSize)
	totalBuf := make([]float64, statsSize)

	for feature, fs := range a.q.schema {
		offset := a.featureOffset[feature]
		if fs.Unordered {
			// halves are stored separately, no prefix sums needed
			for s := range a.q.splits[feature] {
				cell := offset + 2*s*statsSize
				left := row[cell : cell+statsSize]
				right := row[cell+statsSize : cell+2*statsSize]
				a.consider(&eval, &bestGain, a.q.splits[feature][s], left, right, parentImpurity)
			}
			continue
		}

		zeroStats(totalBuf)
		for b := 0; b < fs.NumBins; b++ {
			cell := offset + b*statsSize
			mergeStats(totalBuf, row[cell:cell+statsSize])
		}

		// left prefix sums across bins; right follows by subtraction
		zeroStats(leftBuf)
		for s := range a.q.splits[feature] {
			cell := offset + s*statsSize
			mergeStats(leftBuf, row[cell:cell+statsSize])
			for ind := range rightBuf {
				rightBuf[ind] = totalBuf[ind] - leftBuf[ind]
			}
			a.consider(&eval, &bestGain, a.q.splits[feature][s], leftBuf, rightBuf, parentImpurity)
		}
	}
	return eval
}

// consider scores one candidate split and keeps it when it strictly beats
// the current best. A candidate whose population is empty has undefined
// gain and is skipped.
func (a *binAggregator) consider(eval *splitEvaluation, bestGain *float64, split Split, left, right []float64, parentImpurity float64) {
	leftCount := a.calc.Count(left)
	rightCount := a.calc.Count(right)
	total := leftCount + rightCount
	if total == 0 {
		return
	}

	leftImpurity := a.calc.Impurity(left)
	rightImpurity := a.calc.Impurity(right)
	gain := parentImpurity - leftCount/total*leftImpurity - rightCount/total*rightImpurity
	if gain <= *bestGain {
		return
	}

	*bestGain = gain
	eval.valid = true
	eval.split = split
	eval.stats = &InformationGainStats{
		Gain:          gain,
		Impurity:      parentImpurity,
		LeftImpurity:  leftImpurity,
		RightImpurity: rightImpurity,
	}
	eval.leftPredict = a.calc.Predict(left)
	eval.leftProb = a.calc.Prob(left)
	eval.rightPredict = a.calc.Predict(right)
	eval.rightProb = a.calc.Prob(right)
}

func zeroStats(stats []float64) {
	for ind := range stats {
		stats[ind] = 0
	}
}
