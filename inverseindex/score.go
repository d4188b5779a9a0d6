package inverseindex

import (
	"context"
	"math"
	"sort"

	"github.com/faithful-index/minhash-neighbors/mhash"
)

// scoreResult is what a scoreWorker produces: the ranked candidate ids and
// distance approximations for one query sid, to be replicated to every
// original instance id sharing that sid.
type scoreResult struct {
	queryIDs  []uint64
	neighbors []uint64
	distances []float64
}

// scoreWorker computes the candidate neighborhood for a single query
// signature, read-only against the shared storage: no locking needed
// since scoring never mutates storage.
type scoreWorker struct {
	idx       *InverseIndex
	queryIDs  []uint64
	signature []uint64
	done      func()
}

func newScoreWorker(idx *InverseIndex, queryIDs []uint64, signature []uint64, done func()) *scoreWorker {
	return &scoreWorker{idx: idx, queryIDs: queryIDs, signature: signature, done: done}
}

type countedCandidate struct {
	id    uint64
	count int
	order int
}

func (w *scoreWorker) Run(ctx context.Context) interface{} {
	defer w.done()

	idx := w.idx
	counts := make(map[uint64]int)
	order := make(map[uint64]int)
	nextOrder := 0

	for j, hashID := range w.signature {
		if idx.isComponentDisabled(j) {
			continue
		}
		if hashID == 0 || hashID == mhash.MaxValue {
			continue
		}
		cell, ok := idx.storage.Get(j, hashID)
		if !ok {
			continue
		}
		if len(cell) == 0 || len(cell) >= idx.cfg.MaxBinSize {
			continue
		}
		for _, id := range cell {
			if _, seen := order[id]; !seen {
				order[id] = nextOrder
				nextOrder++
			}
			counts[id]++
		}
	}

	candidates := make([]countedCandidate, 0, len(counts))
	for id, c := range counts {
		if c < idx.cfg.MinimalBlocksInCommon {
			continue
		}
		candidates = append(candidates, countedCandidate{id: id, count: c, order: order[id]})
	}
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].count != candidates[b].count {
			return candidates[a].count > candidates[b].count
		}
		return candidates[a].order < candidates[b].order
	})

	limit := int(math.Min(
		float64(idx.cfg.SizeOfNeighborhood*idx.cfg.ExcessFactor),
		float64(len(candidates)),
	))
	if limit < 0 {
		limit = 0
	}

	neighbors := make([]uint64, 0, limit)
	distances := make([]float64, 0, limit)
	for i := 0; i < limit; i++ {
		neighbors = append(neighbors, candidates[i].id)
		d := 1 - float64(candidates[i].count)/float64(idx.cfg.MaximalNumberOfHashCollisions)
		distances = append(distances, d)
	}

	return scoreResult{queryIDs: w.queryIDs, neighbors: neighbors, distances: distances}
}
