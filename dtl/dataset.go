package dtl

import (
	"math/rand"
	"os"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Example is one labeled training row. Classification labels are class
// ids 0..numClasses-1 stored as float64; categorical feature values are
// category ids stored the same way.
type Example struct {
	Label    float64
	Features []float64
}

// PartitionedDataset is the in-memory stand-in for the distributed
// dataset collaborator: a logically partitioned example set offering a
// count, deterministic sampling, and a bulk-synchronous map-reduce over
// its partitions.
type PartitionedDataset struct {
	examples   []Example
	partitions [][]Example
}

// NewDataset slices the examples into numPartitions contiguous shards.
func NewDataset(examples []Example, numPartitions int) *PartitionedDataset {
	if numPartitions < 1 {
		numPartitions = 1
	}
	if numPartitions > len(examples) && len(examples) > 0 {
		numPartitions = len(examples)
	}
	d := &PartitionedDataset{examples: examples}
	chunk := (len(examples) + numPartitions - 1) / numPartitions
	for begin := 0; begin < len(examples); begin += chunk {
		end := begin + chunk
		if end > len(examples) {
			end = len(examples)
		}
		d.partitions = append(d.partitions, examples[begin:end])
	}
	return d
}

// Count is the total number of examples.
func (d *PartitionedDataset) Count() int { return len(d.examples) }

// NumPartitions is the number of shards the map phase fans out over.
func (d *PartitionedDataset) NumPartitions() int { return len(d.partitions) }

// NumFeatures is the width of the feature vectors, 0 for an empty set.
func (d *PartitionedDataset) NumFeatures() int {
	if len(d.examples) == 0 {
		return 0
	}
	return len(d.examples[0].Features)
}

// Sample draws a deterministic sample without replacement. A fraction of
// 1 or more returns every example.
func (d *PartitionedDataset) Sample(fraction float64, seed int64) []Example {
	if fraction >= 1 {
		return append([]Example(nil), d.examples...)
	}
	k := int(fraction * float64(len(d.examples)))
	if k < 1 {
		k = 1
	}
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(d.examples))
	sample := make([]Example, 0, k)
	for _, ind := range perm[:k] {
		sample = append(sample, d.examples[ind])
	}
	return sample
}

// MapReduce runs mapFn over every partition concurrently and folds the
// partial results in partition order. As long as mergeFn is associative
// and commutative the outcome is independent of partitioning, which the
// level aggregator's merge operator guarantees.
func MapReduce[A any](d *PartitionedDataset, mapFn func([]Example) (A, error), mergeFn func(A, A) A) (A, error) {
	if len(d.partitions) == 0 {
		var zero A
		return zero, errors.Wrap(ErrConfig, "empty dataset")
	}
	partials := make([]A, len(d.partitions))
	var group errgroup.Group
	for ind := range d.partitions {
		ind := ind
		group.Go(func() error {
			partial, err := mapFn(d.partitions[ind])
			if err != nil {
				return err
			}
			partials[ind] = partial
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		var zero A
		return zero, err
	}
	result := partials[0]
	for _, partial := range partials[1:] {
		result = mergeFn(result, partial)
	}
	return result, nil
}

// ReadNpy reads the content of a npy file into a dense matrix.
func ReadNpy(fileName string) (*mat.Dense, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", fileName)
	}
	defer func() { HandleError(f.Close()) }()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read npy header of %s", fileName)
	}

	denseMat := &mat.Dense{}
	if err := r.Read(denseMat); err != nil {
		return nil, errors.Wrapf(err, "read npy payload of %s", fileName)
	}
	return denseMat, nil
}

// DatasetFromMatrix unites a feature matrix and a label column into a
// partitioned dataset.
func DatasetFromMatrix(features, labels *mat.Dense, numPartitions int) (*PartitionedDataset, error) {
	h, w := features.Dims()
	labelH, labelW := labels.Dims()
	if labelH != h {
		return nil, errors.Wrapf(ErrConfig, "label height %d differs from feature height %d", labelH, h)
	}
	if labelW != 1 {
		return nil, errors.Wrapf(ErrConfig, "label width should be 1, not %d", labelW)
	}

	examples := make([]Example, h)
	for p := 0; p < h; p++ {
		row := make([]float64, w)
		for q := 0; q < w; q++ {
			row[q] = features.At(p, q)
		}
		examples[p] = Example{Label: labels.At(p, 0), Features: row}
	}
	return NewDataset(examples, numPartitions), nil
}
