// Package style derives the visual encoding of the cluster graph: edge weight,
// visibility and layout constraint from link evidence, and node fill from
// expert threat scores.
package style

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/matsen/clustergraph/internal/expert"
	"github.com/matsen/clustergraph/internal/linkage"
	"github.com/matsen/clustergraph/internal/retention"
)

// Defaults for the derived attributes.
const (
	DefaultThreshold    = 0.85
	DefaultMaxWeight    = 5.0
	DefaultWeightCap    = 5
	EdgeColor           = "black"
	TransparentColor    = "transparent"
	weightPerDistinctID = 0.5
)

// ErrUnmappedCategory is returned when a category qualifies for a node fill
// but the palette has no color for it.
var ErrUnmappedCategory = errors.New("threat category has no display color")

// UnmappedCategoryError names the cluster and category that could not be colored.
type UnmappedCategoryError struct {
	Cluster  int
	Category string
	Score    float64
}

func (e *UnmappedCategoryError) Error() string {
	return fmt.Sprintf("%s: %q (cluster %d, score %.3f)", ErrUnmappedCategory, e.Category, e.Cluster, e.Score)
}

func (e *UnmappedCategoryError) Unwrap() error {
	return ErrUnmappedCategory
}

// Palette is a closed mapping from threat category to display color.
// Lookups ignore case.
type Palette struct {
	colors map[string]string
	order  []string
}

// NewPalette builds a palette from category → color.
func NewPalette(colors map[string]string) Palette {
	p := Palette{colors: make(map[string]string, len(colors))}
	for cat, col := range colors {
		key := strings.ToLower(strings.TrimSpace(cat))
		if _, dup := p.colors[key]; !dup {
			p.order = append(p.order, cat)
		}
		p.colors[key] = col
	}
	sort.Strings(p.order)
	return p
}

// DefaultPalette returns the standard category colors.
func DefaultPalette() Palette {
	return NewPalette(map[string]string{
		"Viral":     "red",
		"Bacterial": "green",
		"Toxin":     "blue",
		"Fungal":    "yellow",
		"Prion":     "purple",
	})
}

// Color returns the display color of a category.
func (p Palette) Color(category string) (string, bool) {
	c, ok := p.colors[strings.ToLower(strings.TrimSpace(category))]
	return c, ok
}

// Categories returns the palette's categories, sorted.
func (p Palette) Categories() []string {
	return append([]string(nil), p.order...)
}

// EdgeAttrs is the rendering encoding of one aggregated pair.
type EdgeAttrs struct {
	Weight     float64 `json:"weight"`
	Opaque     bool    `json:"opaque"`
	Constraint bool    `json:"constraint"`
	Color      string  `json:"color"`
}

// Fill is the kind of node fill.
type Fill string

const (
	FillNone   Fill = "none"
	FillSolid  Fill = "filled"
	FillWedged Fill = "wedged"
)

// NodeStyle is the rendering encoding of one cluster.
type NodeStyle struct {
	Fill       Fill     `json:"fill"`
	Colors     []string `json:"colors,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// Deriver computes edge and node attributes. It carries its configuration
// explicitly so tests can substitute category sets.
type Deriver struct {
	Policy    retention.Policy
	Palette   Palette
	Threshold float64
	MaxWeight float64
	WeightCap int
}

// DefaultDeriver returns a Deriver with the standard policy, palette and limits.
func DefaultDeriver() Deriver {
	return Deriver{
		Policy:    retention.DefaultPolicy(),
		Palette:   DefaultPalette(),
		Threshold: DefaultThreshold,
		MaxWeight: DefaultMaxWeight,
		WeightCap: DefaultWeightCap,
	}
}

// Edge derives the attributes of a pair. Attributes are computed for every
// aggregated pair; pairs that fail retention are transparent and do not
// constrain layout.
func (d Deriver) Edge(pair linkage.Pair, buckets *linkage.Buckets) EdgeAttrs {
	keep := d.Policy.Keep(pair, buckets)

	weight := d.MaxWeight
	if !buckets.AnyInfluential(pair) {
		weight = float64(min(buckets.DistinctTargets(pair), d.WeightCap)) * weightPerDistinctID
	}

	color := TransparentColor
	if keep {
		color = EdgeColor
	}

	return EdgeAttrs{
		Weight:     weight,
		Opaque:     keep,
		Constraint: keep,
		Color:      color,
	}
}

// Node derives the fill of a cluster from its expert scores. Categories whose
// score exceeds the threshold qualify, in the order they were recorded.
func (d Deriver) Node(label int, table *expert.Table) (NodeStyle, error) {
	var style NodeStyle
	for _, entry := range table.Scores(label) {
		if entry.Score <= d.Threshold {
			continue
		}
		color, ok := d.Palette.Color(entry.Category)
		if !ok {
			return NodeStyle{}, &UnmappedCategoryError{Cluster: label, Category: entry.Category, Score: entry.Score}
		}
		style.Colors = append(style.Colors, color)
		style.Categories = append(style.Categories, entry.Category)
	}

	switch len(style.Colors) {
	case 0:
		style.Fill = FillNone
	case 1:
		style.Fill = FillSolid
	default:
		style.Fill = FillWedged
	}
	return style, nil
}

// ValidateTable checks that every qualifying category in the table has a color.
func (d Deriver) ValidateTable(table *expert.Table) error {
	for _, label := range table.Clusters() {
		if _, err := d.Node(label, table); err != nil {
			return err
		}
	}
	return nil
}
