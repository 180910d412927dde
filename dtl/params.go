package dtl

import (
	"github.com/pkg/errors"
)

// Algo selects the learning task.
type Algo int

const (
	Classification Algo = iota
	Regression
)

// ImpurityKind selects the impurity measure used for information gain.
type ImpurityKind int

const (
	Gini ImpurityKind = iota
	Entropy
	Variance
)

// QuantileStrategy selects how continuous feature thresholds are found.
// Only the exact sort-based strategy is implemented; the other two are
// recognized so that configs naming them fail with a clear error instead
// of a silent fallback.
type QuantileStrategy int

const (
	SortStrategy QuantileStrategy = iota
	MinMaxStrategy
	ApproxHistogramStrategy
)

// Configuration errors are detected before any data pass and are never
// retried. An invariant violation aborts the training run; it signals a
// quantization bug, not a recoverable data condition.
var (
	ErrConfig                      = errors.New("invalid tree configuration")
	ErrUnsupportedQuantileStrategy = errors.New("only the sort-based quantile strategy is implemented")
	ErrInsufficientBins            = errors.New("maxBins must exceed the arity of every categorical feature")
	ErrInvariantViolation          = errors.New("tree training invariant violated")
)

// TreeParams collects arguments required to train one tree.
type TreeParams struct {
	Algo                Algo
	Impurity            ImpurityKind
	MaxDepth            int
	MaxBins             int
	NumClasses          int
	CategoricalFeatures map[int]int // feature index -> arity
	MaxMemoryBytes      uint64
	Quantile            QuantileStrategy
	Seed                int64
}

// maxSupportedDepth bounds the binary-heap node id space to int range.
const maxSupportedDepth = 30

func (p TreeParams) validate() error {
	if p.Quantile != SortStrategy {
		return errors.Wrapf(ErrUnsupportedQuantileStrategy, "strategy %d", p.Quantile)
	}
	if p.MaxDepth < 1 || p.MaxDepth > maxSupportedDepth {
		return errors.Wrapf(ErrConfig, "maxDepth %d outside [1, %d]", p.MaxDepth, maxSupportedDepth)
	}
	if p.MaxBins < 2 {
		return errors.Wrapf(ErrConfig, "maxBins %d, need at least 2", p.MaxBins)
	}
	switch p.Algo {
	case Classification:
		if p.NumClasses < 2 {
			return errors.Wrapf(ErrConfig, "classification needs numClasses >= 2, got %d", p.NumClasses)
		}
		if p.Impurity != Gini && p.Impurity != Entropy {
			return errors.Wrap(ErrConfig, "classification requires Gini or Entropy impurity")
		}
	case Regression:
		if p.Impurity != Variance {
			return errors.Wrap(ErrConfig, "regression requires Variance impurity")
		}
	default:
		return errors.Wrapf(ErrConfig, "unknown algo %d", p.Algo)
	}
	for feature, arity := range p.CategoricalFeatures {
		if arity < 2 {
			return errors.Wrapf(ErrConfig, "categorical feature %d has arity %d", feature, arity)
		}
		if p.MaxBins <= arity {
			return errors.Wrapf(ErrInsufficientBins, "feature %d has %d categories, maxBins is %d", feature, arity, p.MaxBins)
		}
	}
	return nil
}

func (p TreeParams) isMulticlass() bool {
	return p.Algo == Classification && p.NumClasses > 2
}

func (p TreeParams) newCalculator() ImpurityCalculator {
	switch p.Impurity {
	case Gini:
		return giniCalculator{numClasses: p.NumClasses}
	case Entropy:
		return entropyCalculator{numClasses: p.NumClasses}
	default:
		return varianceCalculator{}
	}
}
