package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/matsen/clustergraph/internal/corpus"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			reference_count INTEGER NOT NULL,
			citation_count INTEGER NOT NULL,
			influential_citation_count INTEGER NOT NULL,
			journal_name TEXT,
			fields_json TEXT
		);

		-- In-corpus citations only; parallel rows are kept
		CREATE TABLE IF NOT EXISTS citations (
			source TEXT NOT NULL,
			target TEXT NOT NULL,
			intents_json TEXT NOT NULL,
			influential INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_citations_source ON citations(source);
		CREATE INDEX IF NOT EXISTS idx_citations_target ON citations(target);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromStore clears the database and loads every paper and in-corpus
// citation of the store. Returns the number of papers written.
func (d *DB) RebuildFromStore(store *corpus.Store) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM citations"); err != nil {
		return 0, fmt.Errorf("clearing citations table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM papers"); err != nil {
		return 0, fmt.Errorf("clearing papers table: %w", err)
	}

	paperStmt, err := tx.Prepare(`
		INSERT INTO papers (
			id, title, reference_count, citation_count,
			influential_citation_count, journal_name, fields_json
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing papers insert: %w", err)
	}
	defer paperStmt.Close()

	citeStmt, err := tx.Prepare(`
		INSERT INTO citations (source, target, intents_json, influential)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing citations insert: %w", err)
	}
	defer citeStmt.Close()

	papers := store.Papers()
	for _, p := range papers {
		var journal any
		if p.Journal != nil && p.Journal.Name != "" {
			journal = p.Journal.Name
		}
		fieldsJSON, err := json.Marshal(p.FieldsOfStudy)
		if err != nil {
			return 0, fmt.Errorf("marshaling fields for %s: %w", p.PaperID, err)
		}
		_, err = paperStmt.Exec(
			p.PaperID, p.Title, p.ReferenceCount, p.CitationCount,
			p.InfluentialCitationCount, journal, string(fieldsJSON),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting paper %s: %w", p.PaperID, err)
		}
	}

	for _, c := range store.Edges() {
		intents := c.Intents
		if intents == nil {
			intents = []string{}
		}
		intentsJSON, err := json.Marshal(intents)
		if err != nil {
			return 0, fmt.Errorf("marshaling intents for %s: %w", c.Source, err)
		}
		if _, err := citeStmt.Exec(c.Source, c.Target, string(intentsJSON), boolToInt(c.Influential)); err != nil {
			return 0, fmt.Errorf("inserting citation %s -> %s: %w", c.Source, c.Target, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(papers), nil
}

// Stats summarizes the cached corpus.
type Stats struct {
	Papers        int `json:"papers"`
	Citations     int `json:"citations"`
	Influential   int `json:"influential"`
	CitingPapers  int `json:"citing_papers"`
	CitedPapers   int `json:"cited_papers"`
	IsolatedPaper int `json:"isolated_papers"`
}

// Stats returns aggregate counts over the cached corpus.
func (d *DB) Stats() (Stats, error) {
	var s Stats
	err := d.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM papers),
			(SELECT COUNT(*) FROM citations),
			(SELECT COUNT(*) FROM citations WHERE influential = 1),
			(SELECT COUNT(DISTINCT source) FROM citations),
			(SELECT COUNT(DISTINCT target) FROM citations),
			(SELECT COUNT(*) FROM papers p WHERE
				NOT EXISTS (SELECT 1 FROM citations c WHERE c.source = p.id OR c.target = p.id))
	`).Scan(&s.Papers, &s.Citations, &s.Influential, &s.CitingPapers, &s.CitedPapers, &s.IsolatedPaper)
	if err != nil {
		return Stats{}, fmt.Errorf("querying stats: %w", err)
	}
	return s, nil
}

// CitedPaper is a paper with its in-corpus citation counts.
type CitedPaper struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	InCorpus      int    `json:"in_corpus_citations"`
	Influential   int    `json:"influential_citations"`
	GlobalCitedBy int    `json:"citation_count"`
}

// TopCited returns the papers most cited from within the corpus.
func (d *DB) TopCited(limit int) ([]CitedPaper, error) {
	rows, err := d.db.Query(`
		SELECT p.id, p.title, COUNT(c.target), COALESCE(SUM(c.influential), 0), p.citation_count
		FROM papers p
		JOIN citations c ON c.target = p.id
		GROUP BY p.id
		ORDER BY COUNT(c.target) DESC, p.id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top cited: %w", err)
	}
	defer rows.Close()

	var out []CitedPaper
	for rows.Next() {
		var cp CitedPaper
		if err := rows.Scan(&cp.ID, &cp.Title, &cp.InCorpus, &cp.Influential, &cp.GlobalCitedBy); err != nil {
			return nil, fmt.Errorf("scanning top cited: %w", err)
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
