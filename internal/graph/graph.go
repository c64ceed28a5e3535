// Package graph assembles the attributed cluster graph handed to renderers.
package graph

import (
	"strconv"

	"github.com/matsen/clustergraph/internal/expert"
	"github.com/matsen/clustergraph/internal/linkage"
	"github.com/matsen/clustergraph/internal/style"
)

// Node is a cluster that participates in at least one retained edge.
type Node struct {
	Label int             `json:"label"`
	Name  string          `json:"name"`
	Style style.NodeStyle `json:"style"`
}

// Edge is an aggregated cluster pair with its evidence and derived attributes.
// Edges that failed retention are still present, marked transparent.
type Edge struct {
	linkage.Pair
	Links []linkage.Link  `json:"links"`
	Attrs style.EdgeAttrs `json:"attrs"`
}

// ClusterGraph is the final attributed directed graph.
type ClusterGraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// IsEmpty returns true if the graph has no nodes.
func (g *ClusterGraph) IsEmpty() bool {
	return len(g.Nodes) == 0
}

// Node returns the node with the given label.
func (g *ClusterGraph) Node(label int) (Node, bool) {
	for _, n := range g.Nodes {
		if n.Label == label {
			return n, true
		}
	}
	return Node{}, false
}

// Edge returns the edge for a pair.
func (g *ClusterGraph) Edge(p linkage.Pair) (Edge, bool) {
	for _, e := range g.Edges {
		if e.Pair == p {
			return e, true
		}
	}
	return Edge{}, false
}

// RetainedEdges counts the edges that passed retention.
func (g *ClusterGraph) RetainedEdges() int {
	n := 0
	for _, e := range g.Edges {
		if e.Attrs.Constraint {
			n++
		}
	}
	return n
}

// Assemble builds the cluster graph. Nodes are the retention participants in
// ascending label order; edges are every aggregated pair in source-then-target
// order. Every cluster in the score table is checked for colorability first, so
// a palette gap fails the whole assembly.
func Assemble(buckets *linkage.Buckets, table *expert.Table, names Names, d style.Deriver) (*ClusterGraph, error) {
	if err := d.ValidateTable(table); err != nil {
		return nil, err
	}

	g := &ClusterGraph{}
	for _, label := range d.Policy.Participants(buckets) {
		ns, err := d.Node(label, table)
		if err != nil {
			return nil, err
		}
		g.Nodes = append(g.Nodes, Node{
			Label: label,
			Name:  names.Display(label),
			Style: ns,
		})
	}

	for _, pair := range buckets.Pairs() {
		g.Edges = append(g.Edges, Edge{
			Pair:  pair,
			Links: buckets.Get(pair),
			Attrs: d.Edge(pair, buckets),
		})
	}

	return g, nil
}

// Names maps cluster labels to human-readable names.
type Names struct {
	names map[int]string
	width int
}

// NewNames builds a name lookup that wraps display names at width columns.
// A width of zero or less disables wrapping.
func NewNames(names map[int]string, width int) Names {
	return Names{names: names, width: width}
}

// Display returns the wrapped name of a cluster, or its label when unnamed.
func (n Names) Display(label int) string {
	name, ok := n.names[label]
	if !ok || name == "" {
		return strconv.Itoa(label)
	}
	if n.width <= 0 {
		return name
	}
	return Wrap(name, n.width)
}

// Len returns the number of named clusters.
func (n Names) Len() int {
	return len(n.names)
}
