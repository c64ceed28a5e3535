package harvest

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"sync"
	"testing"

	"github.com/matsen/clustergraph/internal/corpus"
	"github.com/matsen/clustergraph/internal/s2"
	"github.com/matsen/clustergraph/internal/storage"
)

type fakeSource struct {
	papers []corpus.Paper
	refs   map[string][]string
	fail   map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeSource) SearchBulk(_ context.Context, _ string) iter.Seq2[corpus.Paper, error] {
	return func(yield func(corpus.Paper, error) bool) {
		for _, p := range f.papers {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func (f *fakeSource) References(_ context.Context, id string) iter.Seq2[corpus.RawCitation, error] {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[id]++
	f.mu.Unlock()

	return func(yield func(corpus.RawCitation, error) bool) {
		if err := f.fail[id]; err != nil {
			yield(corpus.RawCitation{}, err)
			return
		}
		for _, target := range f.refs[id] {
			if !yield(corpus.RawCitation{CitedPaper: corpus.PaperRef{PaperID: &target}}, nil) {
				return
			}
		}
	}
}

func newHarvester(t *testing.T, src Source) *Harvester {
	t.Helper()
	dir := t.TempDir()
	return &Harvester{
		Source:         src,
		PapersPath:     filepath.Join(dir, "allPapers.json"),
		CitationsPath:  filepath.Join(dir, "allCitations.json"),
		CheckpointPath: filepath.Join(dir, ".clustergraph", "citations.jsonl"),
		Concurrency:    2,
	}
}

func testSource() *fakeSource {
	return &fakeSource{
		papers: []corpus.Paper{
			{PaperID: "A", Title: "a"},
			{PaperID: "B", Title: "b"},
			{PaperID: "C", Title: "c"},
		},
		refs: map[string][]string{
			"A": {"B", "C", "X"},
			"B": {"C"},
		},
	}
}

func TestRun(t *testing.T) {
	src := testSource()
	h := newHarvester(t, src)

	sum, err := h.Run(context.Background(), "bioterrorism")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := Summary{Papers: 3, Fetched: 3, References: 4}
	if sum != want {
		t.Errorf("Run() = %+v, want %+v", sum, want)
	}

	store, report, err := corpus.Load(h.PapersPath, h.CitationsPath, corpus.Options{Strict: true})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if store.Len() != 3 || report.Citations != 3 || report.ExternalCitation != 1 {
		t.Errorf("loaded %d papers, report %+v", store.Len(), report)
	}
}

func TestRun_ResumesFromCheckpoint(t *testing.T) {
	src := testSource()
	h := newHarvester(t, src)

	if _, err := h.Run(context.Background(), "q"); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	sum, err := h.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if sum.Fetched != 0 || sum.Skipped != 3 || sum.References != 4 {
		t.Errorf("second Run() = %+v, want everything skipped", sum)
	}
	for id, n := range src.calls {
		if n != 1 {
			t.Errorf("References(%s) called %d times, want 1", id, n)
		}
	}
}

func TestRun_FailureKeepsProgress(t *testing.T) {
	src := testSource()
	src.fail = map[string]error{"C": fmt.Errorf("%w: boom", s2.ErrNetworkError)}
	h := newHarvester(t, src)
	h.Concurrency = 1

	if _, err := h.Run(context.Background(), "q"); !errors.Is(err, s2.ErrNetworkError) {
		t.Fatalf("Run() error = %v, want ErrNetworkError", err)
	}

	done, err := storage.ReadCheckpoints(h.CheckpointPath)
	if err != nil {
		t.Fatalf("ReadCheckpoints() error = %v", err)
	}
	if _, ok := done["C"]; ok {
		t.Error("failed paper must not be checkpointed")
	}
	if len(done["A"]) != 3 {
		t.Errorf("checkpoint A = %+v, want 3 references", done["A"])
	}

	src.fail = nil
	sum, err := h.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("retry Run() error = %v", err)
	}
	if sum.Fetched != 1 || sum.Skipped != 2 {
		t.Errorf("retry Run() = %+v, want only C fetched", sum)
	}
}

func TestRun_NotFoundIsEmpty(t *testing.T) {
	src := testSource()
	src.fail = map[string]error{"B": fmt.Errorf("%w: B", s2.ErrNotFound)}
	h := newHarvester(t, src)

	sum, err := h.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.NotFound != 1 || sum.Fetched != 3 {
		t.Errorf("Run() = %+v", sum)
	}
}
