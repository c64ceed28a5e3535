// Package expert builds the per-cluster threat-category score table from a
// ranked list of expert judgments.
//
// The input is read in chunks of ChunkSize rows. Each chunk is sorted by score
// and contributes one entry: keyed by the category of its lowest-scoring row,
// valued at the mean of the fifth- and sixth-lowest scores.
package expert

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/matsen/clustergraph/internal/cluster"
)

// ChunkSize is the number of expert rows judged per cluster.
const ChunkSize = 10

// CSV column names of the expert score table.
const (
	ColCluster = "Cluster"
	ColThreat  = "Threat Type"
	ColScore   = "Score"
)

// ErrShortChunk is reported when the trailing chunk has fewer than ChunkSize rows.
var ErrShortChunk = errors.New("short chunk")

// ErrMalformedRow is reported when a row's cluster or score cannot be parsed.
var ErrMalformedRow = errors.New("malformed row")

// Row is one expert judgment as read from the table. Values are kept as text
// so that parse failures surface during Build, where chunk handling is decided.
type Row struct {
	Cluster  string
	Category string
	Score    string
}

// CategoryScore is one entry of a cluster's score mapping.
type CategoryScore struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// Table maps cluster label to category scores, in first-insertion order.
type Table struct {
	scores map[int][]CategoryScore
}

// Report describes how much of the input was consumed.
type Report struct {
	Chunks    int    `json:"chunks"`
	Dropped   int    `json:"dropped_rows"`
	StoppedAt int    `json:"stopped_at_row,omitempty"` // 1-based data row, 0 if fully consumed
	Reason    string `json:"reason,omitempty"`
}

// Options controls how malformed input is handled.
type Options struct {
	// Strict returns an error for a short or malformed chunk instead of
	// stopping quietly.
	Strict bool
}

// Build folds rows into a Table. Processing stops at the first short or
// malformed chunk; that chunk and everything after it is dropped.
func Build(rows []Row, opts Options) (*Table, Report, error) {
	t := &Table{scores: make(map[int][]CategoryScore)}
	var report Report

	for start := 0; start < len(rows); start += ChunkSize {
		end := start + ChunkSize
		var chunkErr error
		var label int
		var entry CategoryScore

		if end > len(rows) {
			chunkErr = fmt.Errorf("%w: %d rows", ErrShortChunk, len(rows)-start)
		} else {
			label, entry, chunkErr = reduceChunk(rows[start:end])
		}

		if chunkErr != nil {
			report.Dropped = len(rows) - start
			report.StoppedAt = start + 1
			report.Reason = chunkErr.Error()
			if opts.Strict {
				return nil, report, fmt.Errorf("chunk at row %d: %w", start+1, chunkErr)
			}
			break
		}

		t.set(label, entry)
		report.Chunks++
	}

	return t, report, nil
}

type parsedRow struct {
	cluster  int
	category string
	score    float64
}

// reduceChunk applies the table's construction rule to one full chunk.
func reduceChunk(chunk []Row) (int, CategoryScore, error) {
	parsed := make([]parsedRow, len(chunk))
	for i, r := range chunk {
		c, err := strconv.Atoi(strings.TrimSpace(r.Cluster))
		if err != nil {
			return 0, CategoryScore{}, fmt.Errorf("%w: cluster %q", ErrMalformedRow, r.Cluster)
		}
		s, err := strconv.ParseFloat(strings.TrimSpace(r.Score), 64)
		if err != nil {
			return 0, CategoryScore{}, fmt.Errorf("%w: score %q", ErrMalformedRow, r.Score)
		}
		parsed[i] = parsedRow{cluster: c, category: r.Category, score: s}
	}

	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].score < parsed[j].score
	})

	lowest := parsed[0]
	return lowest.cluster, CategoryScore{
		Category: lowest.category,
		Score:    (parsed[4].score + parsed[5].score) / 2,
	}, nil
}

// NewTable builds a table directly from per-cluster entries, applied in order.
func NewTable(entries map[int][]CategoryScore) *Table {
	t := &Table{scores: make(map[int][]CategoryScore, len(entries))}
	for label, list := range entries {
		for _, e := range list {
			t.set(label, e)
		}
	}
	return t
}

func (t *Table) set(label int, entry CategoryScore) {
	entries := t.scores[label]
	for i := range entries {
		if entries[i].Category == entry.Category {
			entries[i].Score = entry.Score
			return
		}
	}
	t.scores[label] = append(entries, entry)
}

// Scores returns a cluster's category scores in first-insertion order.
func (t *Table) Scores(label int) []CategoryScore {
	return append([]CategoryScore(nil), t.scores[label]...)
}

// Score returns the score of one category for a cluster.
func (t *Table) Score(label int, category string) (float64, bool) {
	for _, e := range t.scores[label] {
		if e.Category == category {
			return e.Score, true
		}
	}
	return 0, false
}

// Has reports whether the cluster has any entry.
func (t *Table) Has(label int) bool {
	_, ok := t.scores[label]
	return ok
}

// Clusters returns every cluster with an entry, ascending.
func (t *Table) Clusters() []int {
	labels := make([]int, 0, len(t.scores))
	for l := range t.scores {
		labels = append(labels, l)
	}
	sort.Ints(labels)
	return labels
}

// LoadRows reads an expert score CSV file.
func LoadRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening expert scores: %w", err)
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

// ReadRows parses expert score rows from CSV with a header line.
func ReadRows(r io.Reader) ([]Row, error) {
	table, err := cluster.ReadTable(r, ColCluster, ColThreat, ColScore)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(table))
	for _, rec := range table {
		rows = append(rows, Row{
			Cluster:  rec[ColCluster],
			Category: strings.TrimSpace(rec[ColThreat]),
			Score:    rec[ColScore],
		})
	}
	return rows, nil
}
