package linkage

import (
	"reflect"
	"testing"

	"github.com/matsen/clustergraph/internal/cluster"
	"github.com/matsen/clustergraph/internal/corpus"
)

func newStore(t *testing.T, ids []string, outbound map[string][]corpus.Citation) *corpus.Store {
	t.Helper()
	papers := make([]corpus.Paper, 0, len(ids))
	for _, id := range ids {
		papers = append(papers, corpus.Paper{PaperID: id, Title: "Title " + id})
	}
	s, _, err := corpus.NewStore(papers, outbound, corpus.Options{Strict: true})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func TestProjectEdge(t *testing.T) {
	points := cluster.NewPoints([]cluster.Point{
		{PaperID: "a", Label: 1},
		{PaperID: "b", Label: 2},
		{PaperID: "n", Label: cluster.Noise},
	})

	tests := []struct {
		name   string
		cit    corpus.Citation
		want   Pair
		wantOK bool
	}{
		{"both clustered", corpus.Citation{Source: "a", Target: "b"}, Pair{1, 2}, true},
		{"self cluster", corpus.Citation{Source: "a", Target: "a"}, Pair{1, 1}, true},
		{"target noise", corpus.Citation{Source: "a", Target: "n"}, Pair{}, false},
		{"source noise", corpus.Citation{Source: "n", Target: "b"}, Pair{}, false},
		{"no point", corpus.Citation{Source: "x", Target: "b"}, Pair{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ProjectEdge(tt.cit, points)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.Pair != tt.want {
				t.Errorf("Pair = %+v, want %+v", got.Pair, tt.want)
			}
		})
	}
}

func TestProject_PaperWithoutPointContributesNothing(t *testing.T) {
	store := newStore(t, []string{"a", "b", "orphan"}, map[string][]corpus.Citation{
		"a":      {{Target: "b"}, {Target: "orphan"}},
		"orphan": {{Target: "a"}, {Target: "b"}},
	})
	points := cluster.NewPoints([]cluster.Point{
		{PaperID: "a", Label: 1},
		{PaperID: "b", Label: 2},
	})

	triples := Project(store, points)
	if len(triples) != 1 {
		t.Fatalf("len(triples) = %d, want 1", len(triples))
	}
	for _, tr := range triples {
		if tr.Link.SourcePaper == "orphan" || tr.Link.TargetPaper == "orphan" {
			t.Errorf("orphan paper leaked into %+v", tr)
		}
	}

	b := Aggregate(triples)
	for _, p := range b.Pairs() {
		if p.Source == cluster.Noise || p.Target == cluster.Noise {
			t.Errorf("noise label in pair %+v", p)
		}
	}
}

func TestAggregate(t *testing.T) {
	triples := []Triple{
		{Link: Link{SourcePaper: "a", TargetPaper: "b"}, Pair: Pair{2, 1}},
		{Link: Link{SourcePaper: "a", TargetPaper: "c"}, Pair: Pair{1, 2}},
		{Link: Link{SourcePaper: "d", TargetPaper: "b", Influential: true}, Pair: Pair{2, 1}},
		{Link: Link{SourcePaper: "d", TargetPaper: "b", Intents: []string{"result"}}, Pair: Pair{2, 1}},
	}

	b := Aggregate(triples)

	if got, want := b.Pairs(), []Pair{{1, 2}, {2, 1}}; !reflect.DeepEqual(got, want) {
		t.Errorf("Pairs() = %v, want %v", got, want)
	}

	links := b.Get(Pair{2, 1})
	if len(links) != 3 {
		t.Fatalf("len(Get(2,1)) = %d, want 3 (parallel links kept)", len(links))
	}
	if links[0].SourcePaper != "a" || links[1].SourcePaper != "d" || !links[1].Influential {
		t.Errorf("insertion order not preserved: %+v", links)
	}

	if got := b.DistinctTargets(Pair{2, 1}); got != 1 {
		t.Errorf("DistinctTargets(2,1) = %d, want 1", got)
	}
	if !b.AnyInfluential(Pair{2, 1}) {
		t.Error("AnyInfluential(2,1) = false, want true")
	}
	if b.AnyInfluential(Pair{1, 2}) {
		t.Error("AnyInfluential(1,2) = true, want false")
	}
	if got := b.Get(Pair{3, 3}); got != nil {
		t.Errorf("Get(absent) = %v, want nil", got)
	}
	if got, want := b.Labels(), []int{1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("Labels() = %v, want %v", got, want)
	}
}

func TestAggregate_Empty(t *testing.T) {
	b := Aggregate(nil)
	if b.Len() != 0 || len(b.Pairs()) != 0 || len(b.Labels()) != 0 {
		t.Errorf("empty aggregate not empty: %d pairs", b.Len())
	}
}
