package dtl

// Nodes live in a fixed binary-heap layout: the root is id 1 and node i
// has children 2i and 2i+1. No pointers exist while training runs; the id
// arithmetic alone recovers the tree shape.
const rootNodeId = 1

func leftChildId(id int) int  { return 2 * id }
func rightChildId(id int) int { return 2*id + 1 }

// InformationGainStats records the outcome of the best-split search at
// one node. Prob is the probability of the predicted class and stays 0
// for regression.
type InformationGainStats struct {
	Gain          float64
	Impurity      float64
	LeftImpurity  float64
	RightImpurity float64
	Predict       float64
	Prob          float64
}

// flatNode is the per-id training state. A node is created pending by its
// parent, trained exactly once when its level runs, and then mutated once
// more into a leaf or an internal node; it is immutable afterwards.
type flatNode struct {
	created    bool
	isLeaf     bool
	split      *Split
	prediction float64
	prob       float64
	stats      *InformationGainStats
}

// nodeArena holds the append-only node and parent-impurity arrays indexed
// by node id. Entries are written only between level passes, so the arena
// is safely shared by reference with every concurrent map task.
type nodeArena struct {
	nodes          []flatNode
	parentImpurity []float64
}

func newNodeArena() *nodeArena {
	arena := &nodeArena{}
	arena.grow(rootNodeId)
	return arena
}

func (a *nodeArena) grow(id int) {
	for len(a.nodes) <= id {
		a.nodes = append(a.nodes, flatNode{})
		a.parentImpurity = append(a.parentImpurity, 0)
	}
}

// at returns the node for an id, or nil when the id was never created.
func (a *nodeArena) at(id int) *flatNode {
	if id >= len(a.nodes) || !a.nodes[id].created {
		return nil
	}
	return &a.nodes[id]
}

// createChild seeds a pending node with the prediction and impurity its
// parent's winning split assigned to it.
func (a *nodeArena) createChild(id int, prediction, prob, impurity float64) {
	a.grow(id)
	a.nodes[id] = flatNode{created: true, prediction: prediction, prob: prob}
	a.parentImpurity[id] = impurity
}

// Node is one node of a finished tree.
type Node struct {
	Id          int
	Prediction  float64
	Prob        float64
	IsLeaf      bool
	Split       *Split
	Stats       *InformationGainStats
	Left, Right *Node
}

// Tree is a trained decision tree.
type Tree struct {
	Root *Node
	Algo Algo
}

// link runs once after training reaches its terminal state and turns the
// flat node array into a root-referenced tree.
func (a *nodeArena) link(algo Algo) *Tree {
	return &Tree{Root: a.linkNode(rootNodeId), Algo: algo}
}

func (a *nodeArena) linkNode(id int) *Node {
	flat := a.at(id)
	node := &Node{
		Id:         id,
		Prediction: flat.prediction,
		Prob:       flat.prob,
		IsLeaf:     flat.isLeaf,
		Split:      flat.split,
		Stats:      flat.stats,
	}
	if flat.split != nil {
		node.Left = a.linkNode(leftChildId(id))
		node.Right = a.linkNode(rightChildId(id))
	}
	return node
}

// Predict routes one feature vector to a leaf and returns its prediction.
func (t *Tree) Predict(features []float64) float64 {
	node := t.Root
	for node.Split != nil {
		if node.Split.GoesLeft(features[node.Split.Feature]) {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Prediction
}

// NodeCount is the number of nodes reachable from the root.
func (t *Tree) NodeCount() int {
	return countNodes(t.Root)
}

func countNodes(node *Node) int {
	if node == nil {
		return 0
	}
	return 1 + countNodes(node.Left) + countNodes(node.Right)
}

// Depth is the depth of the deepest node, with the root at depth 0.
func (t *Tree) Depth() int {
	return depthOf(t.Root)
}

func depthOf(node *Node) int {
	if node == nil || node.Split == nil {
		return 0
	}
	left, right := depthOf(node.Left), depthOf(node.Right)
	if right > left {
		left = right
	}
	return 1 + left
}
