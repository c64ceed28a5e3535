package storage

import (
	"path/filepath"
	"testing"

	"github.com/matsen/clustergraph/internal/corpus"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "corpus.db"))
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testStore(t *testing.T) *corpus.Store {
	t.Helper()
	papers := []corpus.Paper{
		{PaperID: "A", Title: "Anthrax detection", CitationCount: 10, Journal: &corpus.Journal{Name: "Science"}},
		{PaperID: "B", Title: "Smallpox history", CitationCount: 40},
		{PaperID: "C", Title: "Ricin toxicity", CitationCount: 7},
		{PaperID: "D", Title: "Unrelated", CitationCount: 1},
	}
	outbound := map[string][]corpus.Citation{
		"A": {
			{Source: "A", Target: "B", Influential: true},
			{Source: "A", Target: "C"},
			{Source: "A", Target: "Z"}, // outside corpus
		},
		"C": {
			{Source: "C", Target: "B", Intents: []string{"methodology"}},
		},
	}
	store, _, err := corpus.NewStore(papers, outbound, corpus.Options{})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func TestRebuildFromStore(t *testing.T) {
	db := setupTestDB(t)

	n, err := db.RebuildFromStore(testStore(t))
	if err != nil {
		t.Fatalf("RebuildFromStore() error = %v", err)
	}
	if n != 4 {
		t.Errorf("RebuildFromStore() = %d, want 4", n)
	}

	// A second rebuild replaces rather than duplicates.
	if _, err := db.RebuildFromStore(testStore(t)); err != nil {
		t.Fatalf("second RebuildFromStore() error = %v", err)
	}

	stats, err := db.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	want := Stats{Papers: 4, Citations: 3, Influential: 1, CitingPapers: 2, CitedPapers: 2, IsolatedPaper: 1}
	if stats != want {
		t.Errorf("Stats() = %+v, want %+v", stats, want)
	}
}

func TestTopCited(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.RebuildFromStore(testStore(t)); err != nil {
		t.Fatalf("RebuildFromStore() error = %v", err)
	}

	top, err := db.TopCited(10)
	if err != nil {
		t.Fatalf("TopCited() error = %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("TopCited() returned %d papers, want 2", len(top))
	}
	if top[0].ID != "B" || top[0].InCorpus != 2 || top[0].Influential != 1 {
		t.Errorf("top[0] = %+v, want B with 2 citations (1 influential)", top[0])
	}
	if top[1].ID != "C" || top[1].InCorpus != 1 {
		t.Errorf("top[1] = %+v, want C with 1 citation", top[1])
	}

	limited, err := db.TopCited(1)
	if err != nil {
		t.Fatalf("TopCited(1) error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("TopCited(1) returned %d papers", len(limited))
	}
}

func TestStats_EmptyDB(t *testing.T) {
	db := setupTestDB(t)
	stats, err := db.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats != (Stats{}) {
		t.Errorf("Stats() = %+v, want zero", stats)
	}
}
