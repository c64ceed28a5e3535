// Package corpus holds the paper/citation dataset the cluster graph is built from.
//
// A Store is self-referential: citations are kept only when their target paper is
// itself part of the corpus. Iteration order is deterministic so that everything
// derived from a Store is reproducible across runs.
package corpus

import (
	"fmt"
	"sort"
)

// Paper is a single research paper record.
type Paper struct {
	PaperID                  string         `json:"paperId" validate:"required"`
	Title                    string         `json:"title" validate:"required"`
	ReferenceCount           int            `json:"referenceCount"`
	CitationCount            int            `json:"citationCount"`
	InfluentialCitationCount int            `json:"influentialCitationCount"`
	FieldsOfStudy            []string       `json:"fieldsOfStudy"`
	S2FieldsOfStudy          []FieldOfStudy `json:"s2FieldsOfStudy"`
	PublicationTypes         []string       `json:"publicationTypes"`
	Journal                  *Journal       `json:"journal"`
}

// FieldOfStudy is a field tag assigned by Semantic Scholar.
type FieldOfStudy struct {
	Category string `json:"category"`
	Source   string `json:"source"`
}

// Journal describes where a paper was published.
type Journal struct {
	Name   string `json:"name,omitempty"`
	Volume string `json:"volume,omitempty"`
}

// Citation is a directed citation edge from Source to Target.
// Multiple citations may exist between the same two papers.
type Citation struct {
	Source      string   `json:"source" validate:"required"`
	Target      string   `json:"target" validate:"required"`
	Intents     []string `json:"intents"`
	Influential bool     `json:"isInfluential"`
}

// Options controls how records are admitted into a Store.
type Options struct {
	// Strict turns the first malformed record into an error instead of dropping it.
	Strict bool
}

// LoadReport summarizes what was admitted and dropped while building a Store.
type LoadReport struct {
	Papers           int `json:"papers"`
	DroppedPapers    int `json:"dropped_papers"`
	Citations        int `json:"citations"`
	ExternalCitation int `json:"external_citations"` // source or target outside the corpus
	DroppedCitations int `json:"dropped_citations"`  // malformed
}

// Store is the immutable paper/citation dataset.
type Store struct {
	papers    map[string]Paper
	ids       []string
	citations map[string][]Citation
}

// NewStore builds a Store from papers and raw outbound citations keyed by source
// paper id. Citations whose source or target is not in papers are excluded.
func NewStore(papers []Paper, outbound map[string][]Citation, opts Options) (*Store, LoadReport, error) {
	var report LoadReport
	s := &Store{
		papers:    make(map[string]Paper, len(papers)),
		citations: make(map[string][]Citation),
	}

	for _, p := range papers {
		if err := validatePaper(p); err != nil {
			if opts.Strict {
				return nil, report, err
			}
			report.DroppedPapers++
			continue
		}
		if _, dup := s.papers[p.PaperID]; !dup {
			s.ids = append(s.ids, p.PaperID)
		}
		s.papers[p.PaperID] = p
	}
	sort.Strings(s.ids)
	report.Papers = len(s.ids)

	sources := make([]string, 0, len(outbound))
	for src := range outbound {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	for _, src := range sources {
		for i, c := range outbound[src] {
			c.Source = src
			if err := validateCitation(c); err != nil {
				if opts.Strict {
					return nil, report, fmt.Errorf("citation %d of %s: %w", i, src, err)
				}
				report.DroppedCitations++
				continue
			}
			if !s.has(src) || !s.has(c.Target) {
				report.ExternalCitation++
				continue
			}
			s.citations[src] = append(s.citations[src], c)
			report.Citations++
		}
	}

	return s, report, nil
}

// Paper returns the paper with the given id.
func (s *Store) Paper(id string) (Paper, bool) {
	p, ok := s.papers[id]
	return p, ok
}

// Papers returns all papers in ascending id order.
func (s *Store) Papers() []Paper {
	out := make([]Paper, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.papers[id])
	}
	return out
}

func (s *Store) has(id string) bool {
	_, ok := s.papers[id]
	return ok
}

// Len returns the number of papers.
func (s *Store) Len() int {
	return len(s.ids)
}

// Citations returns the in-corpus outbound citations of a paper, in input order.
func (s *Store) Citations(id string) []Citation {
	return append([]Citation(nil), s.citations[id]...)
}

// Edges returns every in-corpus citation, grouped by source paper in ascending
// source id order and in input order within a source.
func (s *Store) Edges() []Citation {
	sources := make([]string, 0, len(s.citations))
	for src := range s.citations {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	var out []Citation
	for _, src := range sources {
		out = append(out, s.citations[src]...)
	}
	return out
}
