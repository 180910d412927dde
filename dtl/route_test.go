package dtl

import (
	"math"
	"math/rand"
	"testing"
)

// coveringBins counts the bins of one feature containing a value.
func coveringBins(q *quantization, feature int, value float64) int {
	covering := 0
	for _, bin := range q.bins[feature] {
		if bin.contains(value) {
			covering++
		}
	}
	return covering
}

func TestBinCoverageIsExact(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	examples := make([]Example, 200)
	for ind := range examples {
		examples[ind] = Example{
			Label:    rng.Float64(),
			Features: []float64{rng.NormFloat64() * 10, float64(rng.Intn(5))},
		}
	}
	data := NewDataset(examples, 1)

	params := regressionParams(3, 16)
	params.CategoricalFeatures = map[int]int{1: 5}
	q, err := findSplitsBins(data, 2, params, varianceCalculator{})
	if err != nil {
		t.Fatal(err)
	}

	for _, example := range examples {
		for feature := 0; feature < 2; feature++ {
			value := example.Features[feature]
			if got := coveringBins(q, feature, value); got != 1 {
				t.Fatalf("feature %d value %g covered by %d bins, want exactly 1", feature, value, got)
			}
			bin, err := q.locateBin(feature, value)
			if err != nil {
				t.Fatal(err)
			}
			if !q.bins[feature][bin].contains(value) {
				t.Fatalf("locateBin returned bin %d which does not contain %g", bin, value)
			}
		}
	}
}

func TestLocateBinRejectsEscapedValue(t *testing.T) {
	data := rangeDataset(64, 1)
	q, err := findSplitsBins(data, 1, regressionParams(3, 8), varianceCalculator{})
	if err != nil {
		t.Fatal(err)
	}
	// NaN escapes every half-open interval
	if _, err := q.locateBin(0, math.NaN()); err == nil {
		t.Fatal("expected an invariant violation for a value outside all bins")
	}
}

func TestLocateActiveNodeReplaysFinalizedSplits(t *testing.T) {
	arena := newNodeArena()
	arena.nodes[rootNodeId] = flatNode{created: true}
	arena.at(rootNodeId).split = &Split{Feature: 0, Threshold: 0.5}
	arena.createChild(2, 0, 0, 0)
	arena.createChild(3, 0, 0, 0)
	arena.at(2).isLeaf = true
	arena.at(3).split = &Split{Feature: 1, Threshold: -1}
	arena.createChild(6, 0, 0, 0)
	arena.createChild(7, 0, 0, 0)

	left := Example{Features: []float64{0.25, 0}}
	right := Example{Features: []float64{0.75, 0}}

	if got := locateActiveNode(left, arena, 0); got != rootNodeId {
		t.Fatalf("level 0 should land on the root, got %d", got)
	}
	if got := locateActiveNode(left, arena, 1); got != 2 {
		t.Fatalf("left example at level 1 should land on node 2, got %d", got)
	}
	// node 2 is a leaf, the example never reaches level 2
	if got := locateActiveNode(left, arena, 2); got != notReached {
		t.Fatalf("left example at level 2 should report notReached, got %d", got)
	}
	if got := locateActiveNode(right, arena, 2); got != 7 {
		t.Fatalf("right example at level 2 should land on node 7, got %d", got)
	}
}
