package minhash

import (
	"sort"

	"github.com/faithful-index/minhash-neighbors/sparsematrix"
)

// refine re-ranks one query's approximate candidates by an exact distance
// over their sparse feature vectors and truncates to k. corpus must
// contain every id in candidates; ids missing from it (pruned/never-fit)
// are dropped.
func refine(query *sparsematrix.Instance, candidates []uint64, corpus *sparsematrix.Matrix, k int, similarity bool) ([]uint64, []float64) {
	type scored struct {
		id   uint64
		dist float64
	}
	scoredCandidates := make([]scored, 0, len(candidates))
	for _, id := range candidates {
		row, ok := corpus.Row(id)
		if !ok {
			continue
		}
		var d float64
		if similarity {
			// Higher cosine similarity means closer; convert to a
			// distance so sorting ascending means "nearest first" for
			// both refinement modes.
			d = 1 - sparsematrix.CosineSimilarity(query, row)
		} else {
			d = sparsematrix.Euclidean(query, row)
		}
		scoredCandidates = append(scoredCandidates, scored{id: id, dist: d})
	}
	sort.SliceStable(scoredCandidates, func(i, j int) bool {
		return scoredCandidates[i].dist < scoredCandidates[j].dist
	})
	if k > 0 && k < len(scoredCandidates) {
		scoredCandidates = scoredCandidates[:k]
	}

	ids := make([]uint64, len(scoredCandidates))
	dists := make([]float64, len(scoredCandidates))
	for i, sc := range scoredCandidates {
		ids[i] = sc.id
		dists[i] = sc.dist
	}
	return ids, dists
}
