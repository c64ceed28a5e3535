package graph

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/matsen/clustergraph/internal/cluster"
)

// CSV column names of the cluster name table.
const (
	ColClusterID   = "Cluster_ID"
	ColClusterName = "Cluster_Name"
)

// DefaultLabelWidth is the column width cluster names are wrapped to.
const DefaultLabelWidth = 20

// LoadNames reads the cluster name table.
func LoadNames(path string, width int) (Names, error) {
	f, err := os.Open(path)
	if err != nil {
		return Names{}, fmt.Errorf("opening cluster names: %w", err)
	}
	defer f.Close()

	rows, err := cluster.ReadTable(f, ColClusterID, ColClusterName)
	if err != nil {
		return Names{}, fmt.Errorf("reading %s: %w", path, err)
	}

	names := make(map[int]string, len(rows))
	for i, row := range rows {
		id, err := strconv.Atoi(strings.TrimSpace(row[ColClusterID]))
		if err != nil {
			return Names{}, fmt.Errorf("reading %s: row %d: cluster id: %w", path, i+2, err)
		}
		names[id] = strings.TrimSpace(row[ColClusterName])
	}
	return NewNames(names, width), nil
}

// Wrap breaks text into lines of at most width runes, joined by newlines.
// Words longer than width are split across lines.
func Wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	var lines []string
	var current []rune

	flush := func() {
		if len(current) > 0 {
			lines = append(lines, string(current))
			current = current[:0]
		}
	}

	for _, word := range strings.Fields(text) {
		w := []rune(word)
		switch {
		case len(current) == 0:
		case len(current)+1+len(w) <= width:
			current = append(current, ' ')
		default:
			flush()
		}
		for len(current)+len(w) > width {
			take := width - len(current)
			current = append(current, w[:take]...)
			w = w[take:]
			flush()
		}
		current = append(current, w...)
	}
	flush()

	return strings.Join(lines, "\n")
}
