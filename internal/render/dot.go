package render

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matsen/clustergraph/internal/graph"
	"github.com/matsen/clustergraph/internal/style"
)

// NodeFontSize is the Graphviz font size of node labels.
const NodeFontSize = 40

// DOT writes the graph in the Graphviz DOT language.
//
// Edges are drawn with dir=back. Suppressed edges stay in the description
// with a transparent color so the layout does not shift when evidence changes
// slightly; edge endpoints that are not graph nodes are declared invisible.
type DOT struct{}

// Render implements Renderer.
func (DOT) Render(_ context.Context, g *graph.ClusterGraph, w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("digraph clusters {\n")
	fmt.Fprintf(&sb, "\tnode [fontsize=%d];\n", NodeFontSize)
	sb.WriteString("\tedge [dir=back];\n")

	declared := make(map[int]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		declared[n.Label] = true
		sb.WriteString("\t")
		sb.WriteString(nodeID(n.Label))
		sb.WriteString(" [")
		sb.WriteString(attrList(nodeAttrs(n)))
		sb.WriteString("];\n")
	}

	for _, e := range g.Edges {
		for _, l := range []int{e.Source, e.Target} {
			if !declared[l] {
				declared[l] = true
				fmt.Fprintf(&sb, "\t%s [label=\"\", style=invis];\n", nodeID(l))
			}
		}
	}

	for _, e := range g.Edges {
		fmt.Fprintf(&sb, "\t%s -> %s [%s];\n", nodeID(e.Source), nodeID(e.Target), attrList(edgeAttrs(e)))
	}

	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

type attr struct {
	key, value string
}

func nodeAttrs(n graph.Node) []attr {
	attrs := []attr{{"label", quote(n.Name)}}
	switch n.Style.Fill {
	case style.FillSolid, style.FillWedged:
		attrs = append(attrs,
			attr{"fillcolor", quote(strings.Join(n.Style.Colors, ":"))},
			attr{"style", string(n.Style.Fill)},
		)
	}
	return attrs
}

func edgeAttrs(e graph.Edge) []attr {
	return []attr{
		{"penwidth", strconv.FormatFloat(e.Attrs.Weight, 'f', -1, 64)},
		{"constraint", strconv.FormatBool(e.Attrs.Constraint)},
		{"color", quote(e.Attrs.Color)},
	}
}

func attrList(attrs []attr) string {
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = a.key + "=" + a.value
	}
	return strings.Join(parts, ", ")
}

func nodeID(label int) string {
	return quote(strconv.Itoa(label))
}

// quote returns a DOT double-quoted string; newlines become centered line breaks.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return `"` + s + `"`
}
