// Package search combines the lexical index and the chunk store into
// one hybrid retriever. Ranked lists are merged with Reciprocal Rank
// Fusion, which only looks at relative rank, so either backend can be
// swapped without touching the other or this package.
package search

import "sort"

// DefaultRRFConstant is the standard RRF smoothing parameter.
// k=60 is empirically validated across domains.
const DefaultRRFConstant = 60

// FusedResult is a single item after rank fusion.
type FusedResult struct {
	// Path identifies the note.
	Path string `json:"path"`

	// Score is the summed RRF contribution across lists.
	Score float64 `json:"score"`

	// LexRank and SimRank are 1-indexed positions in the source lists,
	// 0 when the item was absent from that list.
	LexRank int `json:"lex_rank,omitempty"`
	SimRank int `json:"sim_rank,omitempty"`
}

// Fuse merges ranked path lists with Reciprocal Rank Fusion.
//
// An item at zero-based rank r in a list contributes 1/(k + r + 1) from
// that list; absence from a list contributes zero, not a penalty. The
// fused output sorts by descending score, ties broken by the order items
// were first seen across the merge, truncated to limit.
func Fuse(lexical, similarity []string, k, limit int) []FusedResult {
	if k <= 0 {
		k = DefaultRRFConstant
	}

	index := make(map[string]*FusedResult, len(lexical)+len(similarity))
	order := make([]*FusedResult, 0, len(lexical)+len(similarity))

	add := func(path string) *FusedResult {
		if r, ok := index[path]; ok {
			return r
		}
		r := &FusedResult{Path: path}
		index[path] = r
		order = append(order, r)
		return r
	}

	for rank, path := range lexical {
		r := add(path)
		r.LexRank = rank + 1
		r.Score += 1.0 / float64(k+rank+1)
	}
	for rank, path := range similarity {
		r := add(path)
		r.SimRank = rank + 1
		r.Score += 1.0 / float64(k+rank+1)
	}

	// Stable sort preserves first-seen order for equal scores.
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Score > order[j].Score
	})

	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}

	results := make([]FusedResult, len(order))
	for i, r := range order {
		results[i] = *r
	}
	return results
}
