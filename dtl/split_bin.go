package dtl

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// FeatureSchema describes one feature after quantization planning.
// Immutable once computed.
type FeatureSchema struct {
	Categorical bool
	Arity       int
	// Unordered marks low-arity categorical features in multiclass
	// settings whose bin budget allows exact subset enumeration.
	Unordered bool
	NumBins   int
}

// NumSplits is the number of candidate splits for the feature.
func (fs FeatureSchema) NumSplits() int {
	if fs.Unordered {
		return fs.NumBins
	}
	return fs.NumBins - 1
}

// Split is one candidate binary decision boundary: a threshold for a
// continuous feature or a left-routed category set for a categorical one.
type Split struct {
	Feature     int
	Categorical bool
	Threshold   float64
	Categories  []float64
}

// GoesLeft reports whether a feature value is routed to the left child.
func (s Split) GoesLeft(value float64) bool {
	if s.Categorical {
		return s.contains(value)
	}
	return value <= s.Threshold
}

func (s Split) contains(category float64) bool {
	for _, c := range s.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Bin is the half-open interval (Low, High] between two consecutive
// splits of one feature. Edge bins carry unbounded sentinel splits.
type Bin struct {
	Low, High Split
}

func (b Bin) contains(value float64) bool {
	if b.High.Categorical {
		return b.High.contains(value) && !b.Low.contains(value)
	}
	return b.Low.Threshold < value && value <= b.High.Threshold
}

// quantization holds the read-only split and bin tables produced once by
// the split/bin builder and shared by every later data pass.
type quantization struct {
	schema []FeatureSchema
	splits [][]Split
	bins   [][]Bin
}

// findSplitsBins samples the dataset and computes candidate splits and
// bins for every feature. The sample is sized so that maxBins^2 values
// back each quantile estimate, capped at the dataset size.
func findSplitsBins(data *PartitionedDataset, numFeatures int, params TreeParams, calc ImpurityCalculator) (*quantization, error) {
	count := data.Count()
	if count == 0 {
		return nil, errors.Wrap(ErrConfig, "empty dataset")
	}
	requiredSamples := params.MaxBins * params.MaxBins
	fraction := 1.0
	if requiredSamples < count {
		fraction = float64(requiredSamples) / float64(count)
	}
	sample := data.Sample(fraction, params.Seed)

	q := &quantization{
		schema: make([]FeatureSchema, numFeatures),
		splits: make([][]Split, numFeatures),
		bins:   make([][]Bin, numFeatures),
	}
	for feature := 0; feature < numFeatures; feature++ {
		arity, categorical := params.CategoricalFeatures[feature]
		switch {
		case !categorical:
			q.buildContinuous(feature, sample, minInt(params.MaxBins, count))
		case params.isMulticlass() && params.MaxBins > (1<<(arity-1))-1:
			q.buildUnordered(feature, arity)
		default:
			q.buildOrdered(feature, arity, sample, params, calc)
		}
	}
	return q, nil
}

// buildContinuous places numBins-1 thresholds a fixed stride apart in the
// sorted sample. Each threshold is the midpoint of the two straddling
// values so that no split coincides with a data point.
func (q *quantization) buildContinuous(feature int, sample []Example, numBins int) {
	values := make([]float64, len(sample))
	for ind, example := range sample {
		values[ind] = example.Features[feature]
	}
	sort.Float64s(values)

	if numBins > len(values) {
		numBins = len(values)
	}
	if numBins < 1 {
		numBins = 1
	}
	stride := len(values) / numBins

	splits := make([]Split, 0, numBins-1)
	for k := 0; k < numBins-1; k++ {
		ind := (k + 1) * stride
		threshold := (values[ind-1] + values[ind]) / 2.0
		splits = append(splits, Split{Feature: feature, Threshold: threshold})
	}

	q.schema[feature] = FeatureSchema{NumBins: numBins}
	q.splits[feature] = splits
	q.bins[feature] = continuousBins(feature, splits)
}

func continuousBins(feature int, splits []Split) []Bin {
	low := Split{Feature: feature, Threshold: math.Inf(-1)}
	high := Split{Feature: feature, Threshold: math.Inf(1)}
	bins := make([]Bin, 0, len(splits)+1)
	prev := low
	for _, split := range splits {
		bins = append(bins, Bin{Low: prev, High: split})
		prev = split
	}
	return append(bins, Bin{Low: prev, High: high})
}

// buildUnordered enumerates every non-empty proper subset of categories
// through the bitmask 1..2^(arity-1)-1; split k routes left the categories
// whose bit is set in k+1. Complement subsets are covered implicitly.
func (q *quantization) buildUnordered(feature, arity int) {
	numSplits := (1 << (arity - 1)) - 1
	splits := make([]Split, numSplits)
	bins := make([]Bin, numSplits)
	for k := 0; k < numSplits; k++ {
		mask := k + 1
		var categories []float64
		for c := 0; c < arity; c++ {
			if mask&(1<<c) != 0 {
				categories = append(categories, float64(c))
			}
		}
		splits[k] = Split{Feature: feature, Categorical: true, Categories: categories}
		bins[k] = Bin{Low: splits[k], High: splits[k]}
	}
	q.schema[feature] = FeatureSchema{Categorical: true, Arity: arity, Unordered: true, NumBins: numSplits}
	q.splits[feature] = splits
	q.bins[feature] = bins
}

// buildOrdered ranks categories by a per-category centroid computed over
// the sample: mean label for regression and binary classification,
// per-category impurity for multiclass. Split k routes left the
// categories ranked <= k, the standard device that makes optimal binary
// categorical splitting tractable in O(arity log arity).
func (q *quantization) buildOrdered(feature, arity int, sample []Example, params TreeParams, calc ImpurityCalculator) {
	statsSize := calc.StatsSize()
	stats := make([]float64, arity*statsSize)
	for _, example := range sample {
		category := int(example.Features[feature])
		calc.Add(stats[category*statsSize:(category+1)*statsSize], example.Label)
	}

	centroids := make([]float64, arity)
	for c := 0; c < arity; c++ {
		categoryStats := stats[c*statsSize : (c+1)*statsSize]
		n := calc.Count(categoryStats)
		switch {
		case n == 0:
			// categories unseen in the sample sort last
			centroids[c] = math.Inf(1)
		case params.isMulticlass():
			centroids[c] = calc.Impurity(categoryStats)
		default:
			centroids[c] = meanLabel(categoryStats, params.Algo)
		}
	}

	ranked := make([]float64, arity)
	for c := range ranked {
		ranked[c] = float64(c)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		ci, cj := centroids[int(ranked[i])], centroids[int(ranked[j])]
		if ci != cj {
			return ci < cj
		}
		return ranked[i] < ranked[j]
	})

	splits := make([]Split, arity-1)
	for k := 0; k < arity-1; k++ {
		categories := append([]float64(nil), ranked[:k+1]...)
		splits[k] = Split{Feature: feature, Categorical: true, Categories: categories}
	}

	low := Split{Feature: feature, Categorical: true}
	high := Split{Feature: feature, Categorical: true, Categories: append([]float64(nil), ranked...)}
	bins := make([]Bin, 0, arity)
	prev := low
	for _, split := range splits {
		bins = append(bins, Bin{Low: prev, High: split})
		prev = split
	}
	bins = append(bins, Bin{Low: prev, High: high})

	q.schema[feature] = FeatureSchema{Categorical: true, Arity: arity, NumBins: arity}
	q.splits[feature] = splits
	q.bins[feature] = bins
}

// meanLabel recovers the mean label from classification counts or
// regression moments.
func meanLabel(stats []float64, algo Algo) float64 {
	if algo == Regression {
		return stats[1] / stats[0]
	}
	total, weighted := 0.0, 0.0
	for class, count := range stats {
		total += count
		weighted += float64(class) * count
	}
	return weighted / total
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
