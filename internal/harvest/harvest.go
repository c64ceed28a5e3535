// Package harvest builds the corpus files from Semantic Scholar: a bulk keyword
// search for papers, then the reference list of every paper found.
package harvest

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sync"

	"github.com/matsen/clustergraph/internal/corpus"
	"github.com/matsen/clustergraph/internal/logging"
	"github.com/matsen/clustergraph/internal/s2"
	"github.com/matsen/clustergraph/internal/storage"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of reference lists fetched at once.
const DefaultConcurrency = 4

// Source is the subset of the Semantic Scholar client a Harvester needs.
type Source interface {
	SearchBulk(ctx context.Context, query string) iter.Seq2[corpus.Paper, error]
	References(ctx context.Context, paperID string) iter.Seq2[corpus.RawCitation, error]
}

// Harvester fetches a corpus and writes it to disk.
type Harvester struct {
	Source         Source
	PapersPath     string
	CitationsPath  string
	CheckpointPath string
	Concurrency    int
	Logger         *logging.Logger
}

// Summary reports what a Run fetched.
type Summary struct {
	Papers     int `json:"papers"`
	Fetched    int `json:"fetched"`    // reference lists fetched in this run
	Skipped    int `json:"skipped"`    // already present in the checkpoint
	NotFound   int `json:"not_found"`  // papers the references endpoint did not know
	References int `json:"references"` // total references written
}

// Run searches for query, fetches references for every paper not already in the
// checkpoint, and writes the papers and citations files. Reference lists are
// checkpointed as they arrive, so an interrupted run resumes where it stopped.
func (h *Harvester) Run(ctx context.Context, query string) (Summary, error) {
	log := h.Logger
	if log == nil {
		log = logging.NewNop()
	}
	var sum Summary

	var papers []corpus.Paper
	index := make(map[string]int)
	for p, err := range h.Source.SearchBulk(ctx, query) {
		if err != nil {
			return sum, fmt.Errorf("searching %q: %w", query, err)
		}
		if i, ok := index[p.PaperID]; ok {
			papers[i] = p
			continue
		}
		index[p.PaperID] = len(papers)
		papers = append(papers, p)
	}
	sum.Papers = len(papers)
	log.Info("search complete", "query", query, "papers", len(papers))

	if dir := filepath.Dir(h.CheckpointPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return sum, fmt.Errorf("creating checkpoint directory: %w", err)
		}
	}
	done, err := storage.ReadCheckpoints(h.CheckpointPath)
	if err != nil {
		return sum, err
	}

	var pending []string
	for _, p := range papers {
		if _, ok := done[p.PaperID]; ok {
			sum.Skipped++
			continue
		}
		pending = append(pending, p.PaperID)
	}

	var mu sync.Mutex
	fetched := make(map[string][]corpus.RawCitation, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(h.Concurrency, 1))

	for _, id := range pending {
		g.Go(func() error {
			refs, err := collect(h.Source.References(gctx, id))
			if s2.IsNotFound(err) {
				log.Warn("paper has no reference list", "paper", id)
				refs, err = nil, nil
				mu.Lock()
				sum.NotFound++
				mu.Unlock()
			}
			if err != nil {
				return fmt.Errorf("fetching references of %s: %w", id, err)
			}

			mu.Lock()
			defer mu.Unlock()
			if err := storage.AppendCheckpoint(h.CheckpointPath, storage.Checkpoint{PaperID: id, Citations: refs}); err != nil {
				return err
			}
			fetched[id] = refs
			sum.Fetched++
			log.Debug("references fetched", "paper", id, "count", len(refs))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sum, err
	}
	for id, refs := range fetched {
		done[id] = refs
	}

	outbound := make(map[string][]corpus.RawCitation, len(papers))
	for _, p := range papers {
		refs := done[p.PaperID]
		outbound[p.PaperID] = refs
		sum.References += len(refs)
	}

	if err := corpus.WritePapers(h.PapersPath, papers); err != nil {
		return sum, err
	}
	if err := corpus.WriteCitations(h.CitationsPath, outbound); err != nil {
		return sum, err
	}
	log.Info("corpus written",
		"papers", h.PapersPath, "citations", h.CitationsPath,
		"fetched", sum.Fetched, "skipped", sum.Skipped)
	return sum, nil
}

func collect(seq iter.Seq2[corpus.RawCitation, error]) ([]corpus.RawCitation, error) {
	var out []corpus.RawCitation
	for r, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
