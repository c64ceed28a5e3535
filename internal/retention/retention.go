// Package retention decides which aggregated cluster pairs are strong enough
// to be treated as meaningful edges.
package retention

import (
	"sort"

	"github.com/matsen/clustergraph/internal/linkage"
)

// DefaultMinDistinctTargets is the distinct-target count that retains a pair
// without any influential citation.
const DefaultMinDistinctTargets = 3

// Policy is the edge retention rule. It is evaluated per ordered pair.
type Policy struct {
	MinDistinctTargets int
}

// DefaultPolicy returns the standard retention rule.
func DefaultPolicy() Policy {
	return Policy{MinDistinctTargets: DefaultMinDistinctTargets}
}

// Keep reports whether a pair is retained. Self-loops and pairs without links
// are never retained; otherwise a single influential link or enough distinct
// target papers suffices.
func (p Policy) Keep(pair linkage.Pair, buckets *linkage.Buckets) bool {
	if pair.IsLoop() {
		return false
	}
	if len(buckets.Get(pair)) == 0 {
		return false
	}
	return buckets.AnyInfluential(pair) || buckets.DistinctTargets(pair) >= p.MinDistinctTargets
}

// Retained returns every retained pair, sorted by source then target.
func (p Policy) Retained(buckets *linkage.Buckets) []linkage.Pair {
	var kept []linkage.Pair
	for _, pair := range buckets.Pairs() {
		if p.Keep(pair, buckets) {
			kept = append(kept, pair)
		}
	}
	return kept
}

// Participants returns the labels that are the source or target of at least
// one retained pair, ascending.
func (p Policy) Participants(buckets *linkage.Buckets) []int {
	seen := make(map[int]bool)
	var labels []int
	for _, pair := range p.Retained(buckets) {
		for _, l := range []int{pair.Source, pair.Target} {
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	sort.Ints(labels)
	return labels
}
