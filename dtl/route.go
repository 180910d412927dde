package dtl

import (
	"sort"

	"github.com/pkg/errors"
)

// notReached marks an example that fell out of the active level at an
// earlier leaf.
const notReached = -1

// locateBin maps one feature value to its bin index. Continuous features
// binary-search the bin table, ordered categorical features scan the
// category sets linearly, and for unordered categorical features the raw
// category value is the bin index.
//
// A lookup miss means a value escaped every bin, which violates the
// quantization invariant and aborts training.
func (q *quantization) locateBin(feature int, value float64) (int, error) {
	fs := q.schema[feature]
	if fs.Unordered {
		return int(value), nil
	}
	bins := q.bins[feature]
	if fs.Categorical {
		for ind, bin := range bins {
			if bin.contains(value) {
				return ind, nil
			}
		}
		return 0, errors.Wrapf(ErrInvariantViolation, "category %g of feature %d matches no bin", value, feature)
	}
	ind := sort.Search(len(bins), func(k int) bool { return value <= bins[k].High.Threshold })
	if ind == len(bins) || !bins[ind].contains(value) {
		return 0, errors.Wrapf(ErrInvariantViolation, "value %g of feature %d matches no bin", value, feature)
	}
	return ind, nil
}

// locateActiveNode replays an example from the root through the finalized
// splits of earlier levels and returns the node id it occupies at the
// given level, or notReached if it already rests at a leaf. The replay
// makes each level pass stateless with respect to earlier levels: only
// the node arena is consulted, never per-example history.
func locateActiveNode(example Example, arena *nodeArena, level int) int {
	id := rootNodeId
	for depth := 0; depth < level; depth++ {
		node := arena.at(id)
		if node == nil || node.split == nil {
			return notReached
		}
		if node.split.GoesLeft(example.Features[node.split.Feature]) {
			id = leftChildId(id)
		} else {
			id = rightChildId(id)
		}
	}
	return id
}
