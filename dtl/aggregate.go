package dtl

import (
	"gorgonia.org/tensor"
)

const bytesPerStat = 8

// binAggregator is the dense sufficient-statistics table for one node
// group of one level, laid out as (node, feature, bin[, class]). Ordered
// features hold one statistics cell per bin; unordered categorical
// features hold separate left and right cells per candidate split, since
// their halves cannot be recovered by prefix sums.
//
// The table is backed by a 2D float64 tensor of shape
// (numNodes, nodeStride) and the raw backing slice is used on the hot
// path. It is ephemeral: discarded right after best-split selection.
type binAggregator struct {
	calc          ImpurityCalculator
	q             *quantization
	featureOffset []int
	nodeStride    int
	numNodes      int
	table         *tensor.Dense
	raw           []float64
}

// nodeStrideFor computes the float64 width of one node row and the
// per-feature offsets inside it.
func nodeStrideFor(schema []FeatureSchema, statsSize int) (stride int, offsets []int) {
	offsets = make([]int, len(schema))
	for feature, fs := range schema {
		offsets[feature] = stride
		if fs.Unordered {
			stride += 2 * fs.NumSplits() * statsSize
		} else {
			stride += fs.NumBins * statsSize
		}
	}
	return stride, offsets
}

func newBinAggregator(q *quantization, calc ImpurityCalculator, numNodes int) *binAggregator {
	stride, offsets := nodeStrideFor(q.schema, calc.StatsSize())
	table := tensor.New(tensor.WithShape(numNodes, stride), tensor.Of(tensor.Float64))
	return &binAggregator{
		calc:          calc,
		q:             q,
		featureOffset: offsets,
		nodeStride:    stride,
		numNodes:      numNodes,
		table:         table,
		raw:           table.Data().([]float64),
	}
}

func (a *binAggregator) nodeView(localNode int) []float64 {
	return a.raw[localNode*a.nodeStride : (localNode+1)*a.nodeStride]
}

// update folds one example into the row of its local node. Ordered
// features charge the single bin the example lands in; unordered features
// charge, for every candidate split, the left or right half depending on
// which side the split routes the example's category.
func (a *binAggregator) update(localNode int, example Example) error {
	row := a.nodeView(localNode)
	statsSize := a.calc.StatsSize()
	for feature, fs := range a.q.schema {
		offset := a.featureOffset[feature]
		if fs.Unordered {
			category := example.Features[feature]
			for s, split := range a.q.splits[feature] {
				cell := offset + 2*s*statsSize
				if !split.contains(category) {
					cell += statsSize
				}
				a.calc.Add(row[cell:cell+statsSize], example.Label)
			}
			continue
		}
		bin, err := a.q.locateBin(feature, example.Features[feature])
		if err != nil {
			return err
		}
		cell := offset + bin*statsSize
		a.calc.Add(row[cell:cell+statsSize], example.Label)
	}
	return nil
}

// merge folds another partial table into the receiver. Element-wise
// addition is associative and commutative, so shard count and merge order
// never change the result.
func (a *binAggregator) merge(other *binAggregator) *binAggregator {
	mergeStats(a.raw, other.raw)
	return a
}

// aggregateGroup is the map side of one level pass for one partition:
// every example is routed to its active node, examples outside the
// current group's node range are skipped, and the rest are folded into
// the group's statistics table.
func aggregateGroup(part []Example, q *quantization, calc ImpurityCalculator, arena *nodeArena, level int, groupIndex map[int]int) (*binAggregator, error) {
	agg := newBinAggregator(q, calc, len(groupIndex))
	for _, example := range part {
		id := locateActiveNode(example, arena, level)
		if id == notReached {
			continue
		}
		local, ok := groupIndex[id]
		if !ok {
			continue
		}
		if err := agg.update(local, example); err != nil {
			return nil, err
		}
	}
	return agg, nil
}

// nodesPerGroup bounds how many nodes one level pass may aggregate at
// once. A budget too small for even one node degrades to one node per
// pass instead of failing.
func nodesPerGroup(maxMemoryBytes uint64, nodeStride int) int {
	bytesPerNode := uint64(nodeStride) * bytesPerStat
	if bytesPerNode == 0 {
		return 1
	}
	n := int(maxMemoryBytes / bytesPerNode)
	if n < 1 {
		n = 1
	}
	return n
}
