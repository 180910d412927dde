package dtl

import (
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
)

// Description renders a split in a human-readable form for graphs and logs.
func (s Split) Description() string {
	if !s.Categorical {
		return fmt.Sprintf("f_%d <= %6.5f", s.Feature, s.Threshold)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("f_%d in {", s.Feature))
	for ind, category := range s.Categories {
		if ind > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%g", category))
	}
	sb.WriteString("}")
	return sb.String()
}

func (n *Node) graphDescription() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintln("id:", n.Id))
	if n.Split == nil {
		sb.WriteString(fmt.Sprintf("predict: %6.4f\n", n.Prediction))
		if n.Prob > 0 {
			sb.WriteString(fmt.Sprintf("prob: %4.2f\n", n.Prob))
		}
		return sb.String()
	}
	if n.Stats != nil {
		sb.WriteString(fmt.Sprintf("gain: %6.4f\n", n.Stats.Gain))
		sb.WriteString(fmt.Sprintf("impurity: %6.4f\n", n.Stats.Impurity))
	}
	sb.WriteString(n.Split.Description())
	return sb.String()
}

func recurrentDraw(g *cgraph.Graph, node *Node, parentNode *cgraph.Node) {
	currentNode, err := g.CreateNode(fmt.Sprint(node.Id))
	HandleError(err)

	if parentNode != nil {
		_, err = g.CreateEdge("", parentNode, currentNode)
		HandleError(err)
	}

	currentNode.Set("label", node.graphDescription())
	if node.Split == nil {
		currentNode.Set("shape", "box")
		return
	}
	recurrentDraw(g, node.Left, currentNode)
	recurrentDraw(g, node.Right, currentNode)
}

// DrawGraph builds a graphviz representation of the tree.
func (t *Tree) DrawGraph() (*graphviz.Graphviz, *cgraph.Graph) {
	graphViz := graphviz.New()
	graph, err := graphViz.Graph()
	HandleError(err)

	recurrentDraw(graph, t.Root, nil)

	return graphViz, graph
}

// RenderFile writes the tree picture to a file; figureType is one of
// png, svg or jpg.
func (t *Tree) RenderFile(filename, figureType string) error {
	graphvizType := map[string]graphviz.Format{
		"png": graphviz.PNG,
		"svg": graphviz.SVG,
		"jpg": graphviz.JPG,
	}[figureType]

	graphViz, graph := t.DrawGraph()
	return graphViz.RenderFilename(graph, graphvizType, filename)
}
