package dtl

import (
	"math"
)

// Rmse reports the root mean squared error of a tree over a dataset.
func Rmse(t *Tree, data *PartitionedDataset) float64 {
	type residuals struct {
		sumSq float64
		n     float64
	}
	total, _ := MapReduce(data,
		func(part []Example) (residuals, error) {
			var r residuals
			for _, example := range part {
				diff := example.Label - t.Predict(example.Features)
				r.sumSq += diff * diff
				r.n++
			}
			return r, nil
		},
		func(x, y residuals) residuals { return residuals{x.sumSq + y.sumSq, x.n + y.n} },
	)
	if total.n == 0 {
		return 0
	}
	return math.Sqrt(total.sumSq / total.n)
}

// Accuracy reports the fraction of examples whose predicted class matches
// the label.
func Accuracy(t *Tree, data *PartitionedDataset) float64 {
	type hits struct {
		correct float64
		n       float64
	}
	total, _ := MapReduce(data,
		func(part []Example) (hits, error) {
			var h hits
			for _, example := range part {
				if t.Predict(example.Features) == example.Label {
					h.correct++
				}
				h.n++
			}
			return h, nil
		},
		func(x, y hits) hits { return hits{x.correct + y.correct, x.n + y.n} },
	)
	if total.n == 0 {
		return 0
	}
	return total.correct / total.n
}
