// Package render turns an attributed cluster graph into an image or a
// description another tool can draw.
//
// Renderers write to an in-memory buffer and copy it to the destination only
// on success, so a failing backend never leaves partial output behind.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/matsen/clustergraph/internal/graph"
)

// Format is an output format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatSVG  Format = "svg"
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// Engine selects how image formats are produced.
type Engine string

const (
	// EngineBuiltin draws PNG images in-process.
	EngineBuiltin Engine = "builtin"
	// EngineGraphviz pipes DOT into an external Graphviz process.
	EngineGraphviz Engine = "graphviz"
)

var (
	// ErrUnsupported is returned for format/engine combinations that cannot be rendered.
	ErrUnsupported = errors.New("unsupported output format")
	// ErrBackend is returned when the rendering backend fails.
	ErrBackend = errors.New("rendering backend failed")
)

// Renderer draws a cluster graph.
type Renderer interface {
	Render(ctx context.Context, g *graph.ClusterGraph, w io.Writer) error
}

// New returns the renderer for a format and engine.
func New(format Format, engine Engine) (Renderer, error) {
	if engine != EngineBuiltin && engine != EngineGraphviz {
		return nil, fmt.Errorf("%w: engine %q", ErrUnsupported, engine)
	}
	switch format {
	case FormatDOT:
		return DOT{}, nil
	case FormatJSON:
		return JSON{}, nil
	case FormatPNG:
		if engine == EngineGraphviz {
			return NewGraphviz(format), nil
		}
		return NewPNG(DefaultPNGOptions()), nil
	case FormatSVG:
		if engine == EngineGraphviz {
			return NewGraphviz(format), nil
		}
		return nil, fmt.Errorf("%w: %s requires the graphviz engine", ErrUnsupported, format)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, format)
}

// ToFile renders g and writes the result to path. Nothing is written if
// rendering fails.
func ToFile(ctx context.Context, r Renderer, g *graph.ClusterGraph, path string) error {
	var buf bytes.Buffer
	if err := r.Render(ctx, g, &buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}

// ToWriter renders g into w, buffering the whole result first.
func ToWriter(ctx context.Context, r Renderer, g *graph.ClusterGraph, w io.Writer) error {
	var buf bytes.Buffer
	if err := r.Render(ctx, g, &buf); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
