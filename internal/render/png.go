package render

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"github.com/matsen/clustergraph/internal/graph"
	"github.com/matsen/clustergraph/internal/style"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/basicfont"
)

// PNGOptions configures the in-process PNG renderer.
type PNGOptions struct {
	Layout      LayoutConfig
	NodeRadius  float64
	WeightScale float64 // pixels of stroke per unit of edge weight
	ArrowSize   float64
	Background  string
}

// DefaultPNGOptions returns options sized for a few dozen clusters.
func DefaultPNGOptions() PNGOptions {
	return PNGOptions{
		Layout: LayoutConfig{
			NodeSpacing: 220,
			RankSpacing: 200,
			Padding:     80,
		},
		NodeRadius:  60,
		WeightScale: 1.5,
		ArrowSize:   14,
		Background:  "white",
	}
}

// PNG draws the graph with a layered layout into a PNG image.
type PNG struct {
	opts PNGOptions
}

// NewPNG returns a PNG renderer.
func NewPNG(opts PNGOptions) *PNG {
	return &PNG{opts: opts}
}

// Render implements Renderer.
func (r *PNG) Render(ctx context.Context, g *graph.ClusterGraph, w io.Writer) error {
	layout := LayeredLayout(g, r.opts.Layout)
	dc := gg.NewContext(int(math.Ceil(layout.Width)), int(math.Ceil(layout.Height)))

	bg, err := parseColor(r.opts.Background)
	if err != nil {
		return err
	}
	dc.SetColor(bg)
	dc.Clear()

	for _, e := range g.Edges {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.Attrs.Opaque || e.Source == e.Target {
			continue
		}
		c, err := parseColor(e.Attrs.Color)
		if err != nil {
			return err
		}
		r.drawEdge(dc, layout.Positions[e.Source], layout.Positions[e.Target], e.Attrs.Weight, c)
	}

	dc.SetFontFace(basicfont.Face7x13)
	for _, n := range g.Nodes {
		if err := r.drawNode(dc, layout.Positions[n.Label], n); err != nil {
			return err
		}
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("%w: encoding PNG: %v", ErrBackend, err)
	}
	return nil
}

// drawEdge strokes src→trg and puts the arrowhead at the source end (dir=back).
func (r *PNG) drawEdge(dc *gg.Context, src, trg Position, weight float64, c color.Color) {
	angle := math.Atan2(trg.Y-src.Y, trg.X-src.X)
	rad := r.opts.NodeRadius
	x1, y1 := src.X+rad*math.Cos(angle), src.Y+rad*math.Sin(angle)
	x2, y2 := trg.X-rad*math.Cos(angle), trg.Y-rad*math.Sin(angle)

	dc.SetColor(c)
	dc.SetLineWidth(math.Max(weight*r.opts.WeightScale, 1))
	dc.DrawLine(x1, y1, x2, y2)
	dc.Stroke()

	size := r.opts.ArrowSize
	dc.MoveTo(x1, y1)
	dc.LineTo(x1+size*math.Cos(angle-math.Pi/7), y1+size*math.Sin(angle-math.Pi/7))
	dc.LineTo(x1+size*math.Cos(angle+math.Pi/7), y1+size*math.Sin(angle+math.Pi/7))
	dc.ClosePath()
	dc.Fill()
}

func (r *PNG) drawNode(dc *gg.Context, p Position, n graph.Node) error {
	rad := r.opts.NodeRadius

	switch n.Style.Fill {
	case style.FillSolid:
		c, err := parseColor(n.Style.Colors[0])
		if err != nil {
			return err
		}
		dc.SetColor(c)
		dc.DrawCircle(p.X, p.Y, rad)
		dc.Fill()
	case style.FillWedged:
		span := 2 * math.Pi / float64(len(n.Style.Colors))
		for i, name := range n.Style.Colors {
			c, err := parseColor(name)
			if err != nil {
				return err
			}
			start := -math.Pi/2 + float64(i)*span
			dc.SetColor(c)
			dc.MoveTo(p.X, p.Y)
			dc.DrawArc(p.X, p.Y, rad, start, start+span)
			dc.ClosePath()
			dc.Fill()
		}
	default:
		dc.SetColor(color.White)
		dc.DrawCircle(p.X, p.Y, rad)
		dc.Fill()
	}

	dc.SetColor(color.Black)
	dc.SetLineWidth(2)
	dc.DrawCircle(p.X, p.Y, rad)
	dc.Stroke()

	lines := strings.Split(n.Name, "\n")
	lineHeight := dc.FontHeight() * 1.3
	top := p.Y - lineHeight*float64(len(lines)-1)/2
	for i, line := range lines {
		dc.DrawStringAnchored(line, p.X, top+float64(i)*lineHeight, 0.5, 0.35)
	}
	return nil
}

// parseColor accepts SVG/X11 color names, "#rrggbb[aa]" and "transparent".
func parseColor(name string) (color.Color, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == style.TransparentColor {
		return color.Transparent, nil
	}
	if strings.HasPrefix(name, "#") {
		return parseHex(name)
	}
	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: unknown color %q", ErrUnsupported, name)
}

func parseHex(s string) (color.Color, error) {
	var c color.NRGBA
	c.A = 0xff
	var err error
	switch len(s) {
	case 7:
		_, err = fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B)
	case 9:
		_, err = fmt.Sscanf(s, "#%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		return nil, fmt.Errorf("%w: bad hex color %q", ErrUnsupported, s)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: bad hex color %q", ErrUnsupported, s)
	}
	return c, nil
}
