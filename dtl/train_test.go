package dtl

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstantLabelsYieldSingleLeaf(t *testing.T) {
	examples := make([]Example, 40)
	for ind := range examples {
		examples[ind] = Example{Label: 3.5, Features: []float64{float64(ind)}}
	}
	data := NewDataset(examples, 4)

	tree, err := TrainTree(data, regressionParams(5, 8))
	require.NoError(t, err)

	require.Equal(t, 1, tree.NodeCount())
	require.True(t, tree.Root.IsLeaf)
	require.Nil(t, tree.Root.Left)
	require.Nil(t, tree.Root.Right)
	require.Equal(t, 3.5, tree.Root.Prediction)
}

func TestZeroGainNodesNeverGainChildren(t *testing.T) {
	// labels are identically distributed across every feature value, so
	// no candidate split can reduce impurity
	var examples []Example
	for value := 0; value < 4; value++ {
		for _, label := range []float64{0, 0, 1, 1} {
			examples = append(examples, Example{Label: label, Features: []float64{float64(value)}})
		}
	}
	data := NewDataset(examples, 2)

	params := TreeParams{
		Algo:           Classification,
		Impurity:       Gini,
		MaxDepth:       4,
		MaxBins:        8,
		NumClasses:     2,
		MaxMemoryBytes: 128 << 20,
		Seed:           1,
	}
	tree, err := TrainTree(data, params)
	require.NoError(t, err)

	require.True(t, tree.Root.IsLeaf)
	require.Nil(t, tree.Root.Left)
	if tree.Root.Stats != nil {
		require.LessOrEqual(t, tree.Root.Stats.Gain, 0.0)
	}
}

func TestDepthBoundHolds(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	examples := make([]Example, 512)
	for ind := range examples {
		value := rng.Float64() * 100
		examples[ind] = Example{Label: value, Features: []float64{value}}
	}
	data := NewDataset(examples, 4)

	tree, err := TrainTree(data, regressionParams(2, 32))
	require.NoError(t, err)

	require.LessOrEqual(t, tree.Depth(), 2)
	assertDepths(t, tree.Root, 0, 2)
}

func assertDepths(t *testing.T, node *Node, depth, maxDepth int) {
	t.Helper()
	if node == nil {
		return
	}
	require.LessOrEqual(t, depth, maxDepth, "node %d deeper than the bound", node.Id)
	assertDepths(t, node.Left, depth+1, maxDepth)
	assertDepths(t, node.Right, depth+1, maxDepth)
}

func TestUnorderedCategoricalIsolatesACategory(t *testing.T) {
	// one categorical feature, arity 3, three classes, five examples per
	// class; the bin budget admits exact subset enumeration
	var examples []Example
	for _, category := range []float64{0, 1, 2} {
		for p := 0; p < 5; p++ {
			examples = append(examples, Example{Label: category, Features: []float64{category}})
		}
	}
	data := NewDataset(examples, 3)

	params := TreeParams{
		Algo:                Classification,
		Impurity:            Gini,
		MaxDepth:            2,
		MaxBins:             7,
		NumClasses:          3,
		CategoricalFeatures: map[int]int{0: 3},
		MaxMemoryBytes:      128 << 20,
		Seed:                1,
	}
	tree, err := TrainTree(data, params)
	require.NoError(t, err)

	root := tree.Root
	require.NotNil(t, root.Split)
	require.True(t, root.Split.Categorical)
	// candidates {0}, {1} and {0,1} tie on gain; first-seen wins
	require.Equal(t, []float64{0}, root.Split.Categories)
	require.Equal(t, 0.0, root.Stats.LeftImpurity)
	require.Greater(t, root.Stats.Gain, 0.0)

	// two levels separate the three classes perfectly
	require.Equal(t, 1.0, Accuracy(tree, data))
	require.Equal(t, 5, tree.NodeCount())
}

func TestGroupingDoesNotChangeTheTree(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	examples := make([]Example, 1024)
	for ind := range examples {
		value := float64(ind % 128)
		noise := rng.Float64() * 1e-3
		examples[ind] = Example{Label: value + noise, Features: []float64{value, float64(ind % 7)}}
	}
	data := NewDataset(examples, 4)

	wide := regressionParams(6, 32)
	wide.MaxMemoryBytes = 256 << 20

	narrow := wide
	// a few node rows per pass forces multi-group training on the deep levels
	narrow.MaxMemoryBytes = 4 * 8 * 64

	oneGroup, err := TrainTree(data, wide)
	require.NoError(t, err)
	manyGroups, err := TrainTree(data, narrow)
	require.NoError(t, err)

	require.GreaterOrEqual(t, oneGroup.Depth(), 4)
	require.True(t, reflect.DeepEqual(oneGroup, manyGroups), "grouped training produced a different tree")
}

func TestTrainingIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	examples := make([]Example, 300)
	for ind := range examples {
		examples[ind] = Example{
			Label:    rng.Float64() * 10,
			Features: []float64{rng.Float64() * 10, float64(rng.Intn(4))},
		}
	}
	data := NewDataset(examples, 3)

	params := regressionParams(4, 16)
	params.CategoricalFeatures = map[int]int{1: 4}

	first, err := TrainTree(data, params)
	require.NoError(t, err)
	second, err := TrainTree(data, params)
	require.NoError(t, err)

	require.True(t, reflect.DeepEqual(first, second), "two identical runs disagreed")
}

func TestPredictRoutesThroughCategoricalSplits(t *testing.T) {
	// label depends only on the category parity
	var examples []Example
	for category := 0; category < 4; category++ {
		for p := 0; p < 8; p++ {
			examples = append(examples, Example{
				Label:    float64(category % 2),
				Features: []float64{float64(category)},
			})
		}
	}
	data := NewDataset(examples, 2)

	params := TreeParams{
		Algo:                Classification,
		Impurity:            Entropy,
		MaxDepth:            3,
		MaxBins:             8,
		NumClasses:          2,
		CategoricalFeatures: map[int]int{0: 4},
		MaxMemoryBytes:      128 << 20,
		Seed:                1,
	}
	tree, err := TrainTree(data, params)
	require.NoError(t, err)

	require.Equal(t, 1.0, Accuracy(tree, data))
	for category := 0; category < 4; category++ {
		want := float64(category % 2)
		require.Equal(t, want, tree.Predict([]float64{float64(category)}), "category %d", category)
	}
}

func TestTrainRejectsOutOfRangeLabels(t *testing.T) {
	examples := []Example{
		{Label: 0, Features: []float64{1}},
		{Label: 5, Features: []float64{2}},
	}
	params := TreeParams{
		Algo:           Classification,
		Impurity:       Gini,
		MaxDepth:       2,
		MaxBins:        4,
		NumClasses:     2,
		MaxMemoryBytes: 1 << 20,
		Seed:           1,
	}
	_, err := TrainTree(NewDataset(examples, 1), params)
	require.Error(t, err)
}
