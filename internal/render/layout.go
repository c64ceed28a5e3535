package render

import (
	"sort"

	"github.com/matsen/clustergraph/internal/graph"
)

// Position is a 2D coordinate on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutConfig configures the layered layout.
type LayoutConfig struct {
	NodeSpacing float64 // horizontal distance between node centers
	RankSpacing float64 // vertical distance between ranks
	Padding     float64 // margin around the drawing
}

// Layout is the result of placing every vertex of a graph.
type Layout struct {
	Positions map[int]Position
	Ranks     [][]int
	Width     float64
	Height    float64
}

// LayeredLayout places vertices in ranks. Only constraint edges influence
// ranking: a vertex is placed one rank below the first vertex that reaches it
// through a retained edge, and vertices with no retained incoming edge start
// at the top.
func LayeredLayout(g *graph.ClusterGraph, cfg LayoutConfig) Layout {
	vertices := vertexSet(g)

	outgoing := make(map[int][]int)
	incoming := make(map[int]int)
	for _, e := range g.Edges {
		if !e.Attrs.Constraint || e.Source == e.Target {
			continue
		}
		outgoing[e.Source] = append(outgoing[e.Source], e.Target)
		incoming[e.Target]++
	}

	var roots []int
	for _, v := range vertices {
		if incoming[v] == 0 {
			roots = append(roots, v)
		}
	}
	if len(roots) == 0 && len(vertices) > 0 {
		roots = []int{vertices[0]}
	}

	var ranks [][]int
	visited := make(map[int]bool, len(vertices))
	current := roots
	for _, v := range current {
		visited[v] = true
	}
	for len(current) > 0 {
		ranks = append(ranks, current)
		var next []int
		for _, v := range current {
			for _, t := range outgoing[v] {
				if !visited[t] {
					visited[t] = true
					next = append(next, t)
				}
			}
		}
		sort.Ints(next)
		current = next
	}

	// Vertices on cycles unreachable from any root.
	var rest []int
	for _, v := range vertices {
		if !visited[v] {
			rest = append(rest, v)
		}
	}
	if len(rest) > 0 {
		ranks = append(ranks, rest)
	}

	widest := 0
	for _, r := range ranks {
		widest = max(widest, len(r))
	}

	layout := Layout{
		Positions: make(map[int]Position, len(vertices)),
		Ranks:     ranks,
		Width:     2*cfg.Padding + float64(max(widest, 1))*cfg.NodeSpacing,
		Height:    2*cfg.Padding + float64(max(len(ranks), 1))*cfg.RankSpacing,
	}

	inner := layout.Width - 2*cfg.Padding
	for i, rank := range ranks {
		y := cfg.Padding + (float64(i)+0.5)*cfg.RankSpacing
		step := inner / float64(len(rank))
		for j, v := range rank {
			layout.Positions[v] = Position{
				X: cfg.Padding + (float64(j)+0.5)*step,
				Y: y,
			}
		}
	}

	return layout
}

// vertexSet returns graph nodes plus any edge endpoint that is not a node, sorted.
func vertexSet(g *graph.ClusterGraph) []int {
	seen := make(map[int]bool)
	var out []int
	add := func(v int) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, n := range g.Nodes {
		add(n.Label)
	}
	for _, e := range g.Edges {
		add(e.Source)
		add(e.Target)
	}
	sort.Ints(out)
	return out
}
