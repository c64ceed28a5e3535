package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/matsen/clustergraph/internal/graph"
)

// DefaultGraphvizCommand is the Graphviz layout program used for rendering.
const DefaultGraphvizCommand = "dot"

// Graphviz renders by piping DOT into an external Graphviz process.
type Graphviz struct {
	Command string
	Format  Format
}

// NewGraphviz returns a Graphviz renderer producing the given format.
func NewGraphviz(format Format) *Graphviz {
	return &Graphviz{Command: DefaultGraphvizCommand, Format: format}
}

// Render implements Renderer.
func (r *Graphviz) Render(ctx context.Context, g *graph.ClusterGraph, w io.Writer) error {
	var dot bytes.Buffer
	if err := (DOT{}).Render(ctx, g, &dot); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, r.Command, "-T"+string(r.Format))
	cmd.Stdin = &dot
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%w: %s: %v: %s", ErrBackend, r.Command, err, msg)
		}
		return fmt.Errorf("%w: %s: %v", ErrBackend, r.Command, err)
	}

	_, err := w.Write(stdout.Bytes())
	return err
}
