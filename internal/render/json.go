package render

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/matsen/clustergraph/internal/graph"
	"github.com/matsen/clustergraph/internal/style"
)

// CytoscapeElements represents the Cytoscape.js data format.
type CytoscapeElements struct {
	Nodes []CytoscapeNode `json:"nodes"`
	Edges []CytoscapeEdge `json:"edges"`
}

// CytoscapeNode represents a node in Cytoscape.js format.
type CytoscapeNode struct {
	Data CytoscapeNodeData `json:"data"`
}

// CytoscapeNodeData contains the node data fields.
type CytoscapeNodeData struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Fill       string   `json:"fill"`
	Colors     []string `json:"colors,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Hidden     bool     `json:"hidden,omitempty"`
}

// CytoscapeEdge represents an edge in Cytoscape.js format.
type CytoscapeEdge struct {
	Data CytoscapeEdgeData `json:"data"`
}

// CytoscapeEdgeData contains the edge data fields.
type CytoscapeEdgeData struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Weight      float64 `json:"weight"`
	Opaque      bool    `json:"opaque"`
	Constraint  bool    `json:"constraint"`
	Color       string  `json:"color"`
	Citations   int     `json:"citations"`
	Influential int     `json:"influential"`
}

// JSON writes the graph as Cytoscape.js elements.
type JSON struct{}

// Render implements Renderer.
func (JSON) Render(_ context.Context, g *graph.ClusterGraph, w io.Writer) error {
	elements := ToCytoscape(g)
	data, err := json.MarshalIndent(elements, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling Cytoscape elements to JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// ToCytoscape converts a cluster graph to Cytoscape.js elements.
func ToCytoscape(g *graph.ClusterGraph) CytoscapeElements {
	elements := CytoscapeElements{
		Nodes: make([]CytoscapeNode, 0, len(g.Nodes)),
		Edges: make([]CytoscapeEdge, 0, len(g.Edges)),
	}

	for _, n := range g.Nodes {
		elements.Nodes = append(elements.Nodes, CytoscapeNode{Data: CytoscapeNodeData{
			ID:         strconv.Itoa(n.Label),
			Label:      n.Name,
			Fill:       string(n.Style.Fill),
			Colors:     n.Style.Colors,
			Categories: n.Style.Categories,
		}})
	}

	// Edge endpoints that are not graph nodes get hidden placeholders so
	// every edge references an existing node.
	declared := make(map[int]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		declared[n.Label] = true
	}
	for _, e := range g.Edges {
		for _, l := range []int{e.Source, e.Target} {
			if declared[l] {
				continue
			}
			declared[l] = true
			elements.Nodes = append(elements.Nodes, CytoscapeNode{Data: CytoscapeNodeData{
				ID:     strconv.Itoa(l),
				Fill:   string(style.FillNone),
				Hidden: true,
			}})
		}
	}

	for _, e := range g.Edges {
		influential := 0
		for _, l := range e.Links {
			if l.Influential {
				influential++
			}
		}
		elements.Edges = append(elements.Edges, CytoscapeEdge{Data: CytoscapeEdgeData{
			ID:          edgeID(e.Source, e.Target),
			Source:      strconv.Itoa(e.Source),
			Target:      strconv.Itoa(e.Target),
			Weight:      e.Attrs.Weight,
			Opaque:      e.Attrs.Opaque,
			Constraint:  e.Attrs.Constraint,
			Color:       e.Attrs.Color,
			Citations:   len(e.Links),
			Influential: influential,
		}})
	}

	return elements
}

// edgeID is stable across builds: there is at most one edge per ordered pair.
func edgeID(source, target int) string {
	return fmt.Sprintf("%d-%d", source, target)
}
