package dtl

import (
	"math"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// TrainTree grows one decision tree level by level. All nodes of a level
// are trained from shared data passes; when the aggregate table for a
// whole level exceeds the memory budget, the level is cut into node
// groups and one full pass runs per group. Training stops when every
// active node is a leaf or the depth bound is reached.
func TrainTree(data *PartitionedDataset, params TreeParams) (*Tree, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if data == nil || data.Count() == 0 {
		return nil, errors.Wrap(ErrConfig, "empty dataset")
	}

	calc := params.newCalculator()
	q, err := findSplitsBins(data, data.NumFeatures(), params, calc)
	if err != nil {
		return nil, err
	}

	// whole-dataset impurity pass seeding the root's parent-impurity entry
	rootStats, err := MapReduce(data,
		func(part []Example) ([]float64, error) { return labelStats(part, calc, params) },
		func(x, y []float64) []float64 { mergeStats(x, y); return x },
	)
	if err != nil {
		return nil, err
	}

	arena := newNodeArena()
	arena.nodes[rootNodeId] = flatNode{
		created:    true,
		prediction: calc.Predict(rootStats),
		prob:       calc.Prob(rootStats),
	}
	arena.parentImpurity[rootNodeId] = calc.Impurity(rootStats)

	stride, _ := nodeStrideFor(q.schema, calc.StatsSize())
	perGroup := nodesPerGroup(params.MaxMemoryBytes, stride)

	active := []int{rootNodeId}
	for level := 0; level < params.MaxDepth && len(active) > 0; level++ {
		numGroups := (len(active) + perGroup - 1) / perGroup
		log.WithFields(log.Fields{
			"level":       level,
			"activeNodes": len(active),
			"groups":      numGroups,
		}).Debug("training tree level")

		var next []int
		for g := 0; g < numGroups; g++ {
			groupNodes := active[g*perGroup : minInt((g+1)*perGroup, len(active))]
			groupIndex := make(map[int]int, len(groupNodes))
			for local, id := range groupNodes {
				groupIndex[id] = local
			}

			agg, err := MapReduce(data,
				func(part []Example) (*binAggregator, error) {
					return aggregateGroup(part, q, calc, arena, level, groupIndex)
				},
				(*binAggregator).merge,
			)
			if err != nil {
				return nil, err
			}

			lastLevel := level == params.MaxDepth-1
			for local, id := range groupNodes {
				children := finalizeNode(arena, id, agg.bestSplit(local, arena.parentImpurity[id]), lastLevel)
				next = append(next, children...)
			}
		}
		active = next
	}

	return arena.link(params.Algo), nil
}

// finalizeNode applies one node's split evaluation: the node turns into a
// leaf when no candidate improved on the parent impurity, otherwise into
// an internal node whose children are seeded with the winning split's
// child impurities and predictions. Children born at the depth bound are
// leaves immediately and never enter the active set.
func finalizeNode(arena *nodeArena, id int, eval splitEvaluation, lastLevel bool) []int {
	node := arena.at(id)
	if eval.valid {
		eval.stats.Predict = node.prediction
		eval.stats.Prob = node.prob
		node.stats = eval.stats
	}
	if !eval.valid || eval.stats.Gain <= 0 {
		node.isLeaf = true
		return nil
	}

	split := eval.split
	node.split = &split

	leftId, rightId := leftChildId(id), rightChildId(id)
	arena.createChild(leftId, eval.leftPredict, eval.leftProb, eval.stats.LeftImpurity)
	arena.createChild(rightId, eval.rightPredict, eval.rightProb, eval.stats.RightImpurity)
	if lastLevel {
		arena.at(leftId).isLeaf = true
		arena.at(rightId).isLeaf = true
		return nil
	}
	return []int{leftId, rightId}
}

// labelStats folds one partition's labels into a statistics slice,
// validating classification labels on the way.
func labelStats(part []Example, calc ImpurityCalculator, params TreeParams) ([]float64, error) {
	stats := make([]float64, calc.StatsSize())
	for _, example := range part {
		if params.Algo == Classification {
			label := example.Label
			if label != math.Trunc(label) || label < 0 || int(label) >= params.NumClasses {
				return nil, errors.Wrapf(ErrConfig, "label %g outside classes [0, %d)", label, params.NumClasses)
			}
		}
		calc.Add(stats, example.Label)
	}
	return stats, nil
}
