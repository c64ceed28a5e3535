// Package linkage projects paper-level citations onto cluster pairs and groups
// them into per-pair buckets of evidence.
package linkage

import (
	"sort"

	"github.com/matsen/clustergraph/internal/corpus"
)

// Pair is an ordered (source cluster, target cluster) key.
type Pair struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// IsLoop reports whether the pair starts and ends in the same cluster.
func (p Pair) IsLoop() bool {
	return p.Source == p.Target
}

// Link is a citation tagged with the papers it originated from.
type Link struct {
	SourcePaper string   `json:"source_paper"`
	TargetPaper string   `json:"target_paper"`
	Intents     []string `json:"intents"`
	Influential bool     `json:"influential"`
}

// Triple is a citation that survived projection, with both cluster labels.
type Triple struct {
	Link Link
	Pair Pair
}

// Projector maps a paper to its cluster label. It reports false for papers that
// have no cluster point or were left unclustered.
type Projector interface {
	Project(paperID string) (int, bool)
}

// ProjectEdge projects a single citation. It reports false when either endpoint
// does not project onto a cluster.
func ProjectEdge(c corpus.Citation, clusters Projector) (Triple, bool) {
	src, ok := clusters.Project(c.Source)
	if !ok {
		return Triple{}, false
	}
	trg, ok := clusters.Project(c.Target)
	if !ok {
		return Triple{}, false
	}
	return Triple{
		Link: Link{
			SourcePaper: c.Source,
			TargetPaper: c.Target,
			Intents:     c.Intents,
			Influential: c.Influential,
		},
		Pair: Pair{Source: src, Target: trg},
	}, true
}

// Project projects every citation in the store, in store order, dropping those
// whose endpoints do not both project.
func Project(store *corpus.Store, clusters Projector) []Triple {
	edges := store.Edges()
	triples := make([]Triple, 0, len(edges))
	for _, c := range edges {
		if t, ok := ProjectEdge(c, clusters); ok {
			triples = append(triples, t)
		}
	}
	return triples
}

// Buckets groups links by cluster pair. It is built once by Aggregate and is
// read-only afterwards.
type Buckets struct {
	links map[Pair][]Link
	pairs []Pair
}

// Aggregate groups triples by pair, preserving insertion order within each pair.
// Parallel links are not de-duplicated.
func Aggregate(triples []Triple) *Buckets {
	b := &Buckets{links: make(map[Pair][]Link)}
	for _, t := range triples {
		if _, seen := b.links[t.Pair]; !seen {
			b.pairs = append(b.pairs, t.Pair)
		}
		b.links[t.Pair] = append(b.links[t.Pair], t.Link)
	}
	sort.Slice(b.pairs, func(i, j int) bool {
		return Less(b.pairs[i], b.pairs[j])
	})
	return b
}

// Less orders pairs by source then target.
func Less(a, b Pair) bool {
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	return a.Target < b.Target
}

// Get returns the links of a pair. The returned slice must not be modified.
func (b *Buckets) Get(p Pair) []Link {
	return b.links[p]
}

// Pairs returns all pairs with at least one link, sorted by source then target.
func (b *Buckets) Pairs() []Pair {
	return append([]Pair(nil), b.pairs...)
}

// Len returns the number of pairs.
func (b *Buckets) Len() int {
	return len(b.pairs)
}

// Labels returns every cluster label that appears in some pair, ascending.
func (b *Buckets) Labels() []int {
	seen := make(map[int]bool)
	var labels []int
	for _, p := range b.pairs {
		for _, l := range []int{p.Source, p.Target} {
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	sort.Ints(labels)
	return labels
}

// DistinctTargets counts the distinct target papers cited within a pair.
func (b *Buckets) DistinctTargets(p Pair) int {
	seen := make(map[string]struct{})
	for _, l := range b.links[p] {
		seen[l.TargetPaper] = struct{}{}
	}
	return len(seen)
}

// AnyInfluential reports whether any link of a pair is influential.
func (b *Buckets) AnyInfluential(p Pair) bool {
	for _, l := range b.links[p] {
		if l.Influential {
			return true
		}
	}
	return false
}
