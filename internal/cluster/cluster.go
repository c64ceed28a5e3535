// Package cluster maps papers to the cluster labels assigned by an external
// embedding and clustering step.
package cluster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Noise is the label reserved for papers the clustering left unassigned.
const Noise = -1

// CSV column names of the cluster-point table.
const (
	ColPaperID = "Paper ID"
	ColLabel   = "Cluster Label"
	ColDim1    = "t-SNE Dim 1"
	ColDim2    = "t-SNE Dim 2"
	ColDim3    = "t-SNE Dim 3"
)

// ErrMissingColumn is returned when a required CSV column is absent.
var ErrMissingColumn = errors.New("missing column")

// Point is the embedding of one paper.
type Point struct {
	PaperID string  `json:"paper_id"`
	Label   int     `json:"cluster_label"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
}

// Points indexes cluster points by paper id.
type Points struct {
	byID map[string]Point
}

// NewPoints indexes points. A later point for the same paper replaces an earlier one.
func NewPoints(points []Point) *Points {
	p := &Points{byID: make(map[string]Point, len(points))}
	for _, pt := range points {
		p.byID[pt.PaperID] = pt
	}
	return p
}

// Get returns the point for a paper.
func (p *Points) Get(paperID string) (Point, bool) {
	pt, ok := p.byID[paperID]
	return pt, ok
}

// Len returns the number of embedded papers.
func (p *Points) Len() int {
	return len(p.byID)
}

// Project returns the cluster label of a paper. It reports false when the paper
// has no point or was left unclustered.
func (p *Points) Project(paperID string) (int, bool) {
	pt, ok := p.byID[paperID]
	if !ok || pt.Label == Noise {
		return 0, false
	}
	return pt.Label, true
}

// LoadPoints reads a cluster-point CSV file.
func LoadPoints(path string) (*Points, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cluster points: %w", err)
	}
	defer f.Close()

	points, err := ReadPoints(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return NewPoints(points), nil
}

// ReadPoints parses cluster-point rows from CSV with a header line.
func ReadPoints(r io.Reader) ([]Point, error) {
	rows, err := ReadTable(r, ColPaperID, ColLabel, ColDim1, ColDim2, ColDim3)
	if err != nil {
		return nil, err
	}

	points := make([]Point, 0, len(rows))
	for i, row := range rows {
		pt := Point{PaperID: row[ColPaperID]}
		if pt.Label, err = strconv.Atoi(strings.TrimSpace(row[ColLabel])); err != nil {
			return nil, fmt.Errorf("row %d: cluster label: %w", i+2, err)
		}
		coords := []*float64{&pt.X, &pt.Y, &pt.Z}
		for j, col := range []string{ColDim1, ColDim2, ColDim3} {
			if *coords[j], err = strconv.ParseFloat(strings.TrimSpace(row[col]), 64); err != nil {
				return nil, fmt.Errorf("row %d: %s: %w", i+2, col, err)
			}
		}
		points = append(points, pt)
	}
	return points, nil
}

// ReadTable reads a headed CSV into one map per row. Every column in required
// must be present in the header; other columns are kept as well.
func ReadTable(r io.Reader, required ...string) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
		}
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	for _, col := range required {
		if !have[col] {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}

	var rows []map[string]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
