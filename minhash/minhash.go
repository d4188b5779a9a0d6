// Package minhash is the public facade binding signature computation,
// the inverted index, optional exact refinement, and index metadata into
// fit/kneighbors/radius operations, the way minHash_PythonInterface
// binds the original estimator's internals behind one class.
package minhash

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/faithful-index/minhash-neighbors/continuity"
	"github.com/faithful-index/minhash-neighbors/inverseindex"
	"github.com/faithful-index/minhash-neighbors/meta"
	"github.com/faithful-index/minhash-neighbors/sparsematrix"
)

// MinHashBase binds a Config to an InverseIndex and exposes fit/query
// operations, matching the original's minHash_PythonInterface surface.
type MinHashBase struct {
	cfg      Config
	idx      *inverseindex.InverseIndex
	meta     meta.Meta
	reporter *DistributionReporter

	// corpus retains every fitted row's feature vector for exact
	// refinement; nil when Fast is true, since nothing needs it.
	corpus *sparsematrix.Matrix
}

// New builds a MinHashBase from DefaultConfig plus the given options.
func New(opts ...Option) *MinHashBase {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MinHashBase{cfg: cfg, reporter: NewDistributionReporter()}
}

func (mb *MinHashBase) inverseIndexConfig() inverseindex.Config {
	return inverseindex.Config{
		NumHashFunctions:              mb.cfg.NumHashFunctions,
		BlockSize:                     mb.cfg.BlockSize,
		NumberOfCores:                 mb.cfg.NumberOfCores,
		ChunkSize:                     mb.cfg.ChunkSize,
		MaxBinSize:                    mb.cfg.MaxBinSize,
		SizeOfNeighborhood:            mb.cfg.NNeighbors,
		MinimalBlocksInCommon:         mb.cfg.MinimalBlocksInCommon,
		ExcessFactor:                  mb.cfg.ExcessFactor,
		MaximalNumberOfHashCollisions: mb.cfg.MaximalNumberOfHashCollisions,
		UseBloomierStorage:            mb.cfg.BloomierFilter,
		PruneAfterFraction:            mb.cfg.PruneInverseIndexAfterInstance,
		PruneThreshold:                mb.cfg.PruneInverseIndex,
		LSBMaskBits:                   mb.cfg.RemoveValueWithLeastSignificantBit,
	}
}

// Fit builds a fresh InverseIndex from corpus. Calling Fit again discards
// any previously fitted state; use PartialFit to extend an existing one.
func (mb *MinHashBase) Fit(ctx context.Context, corpus *Corpus) error {
	mb.idx = inverseindex.New(mb.inverseIndexConfig())
	mb.corpus = nil
	return mb.commitFit(ctx, corpus)
}

// PartialFit ingests additional instances into an already-fitted index,
// or behaves like Fit if nothing has been fitted yet.
func (mb *MinHashBase) PartialFit(ctx context.Context, corpus *Corpus) error {
	if mb.idx == nil {
		return mb.Fit(ctx, corpus)
	}
	return mb.commitFit(ctx, corpus)
}

// commitFit runs the multi-step post-ingestion pipeline (fit plus the
// post-fit prune when PruneInverseIndex > 0, optional component pruning,
// metadata annotation) as a continuity chain so a failure at any step
// stops the rest and is reported as a single error, the way
// compactindexsized.Builder.SealAndClose chains its own steps.
func (mb *MinHashBase) commitFit(ctx context.Context, corpus *Corpus) error {
	err := continuity.New().
		Thenf("fit inverse index", func() error {
			if err := mb.idx.Fit(ctx, corpus.Matrix); err != nil {
				return err
			}
			if mb.cfg.PruneInverseIndex > 0 {
				mb.idx.Prune(mb.cfg.PruneInverseIndex)
				metricsPruneEvents.Inc()
			}
			return nil
		}).
		Thenf("remove under-populated hash functions", func() error {
			if !mb.cfg.RemoveHashFunctionsEnabled {
				return nil
			}
			return mb.idx.RemoveHashFunctionsBelow(mb.cfg.RemoveHashFunctionWithLessEntriesAs)
		}).
		Thenf("annotate meta", func() error { return mb.annotateMeta(corpus) }).
		Err()
	if err != nil {
		return fmt.Errorf("minhash: fit failed: %w", err)
	}

	if !mb.cfg.Fast {
		mb.mergeCorpus(corpus)
	}

	sizes := mb.idx.ComponentSizes()
	dist := mb.reporter.Snapshot(sizes)
	klog.Infof("minhash: fit complete, %d components, mean active keys %.2f (stddev %.2f)",
		len(sizes), dist.Mean, stddev(dist.Variance))
	return nil
}

// mergeCorpus folds corpus's rows into the retained refinement corpus,
// growing it across successive PartialFit calls.
func (mb *MinHashBase) mergeCorpus(c *Corpus) {
	if mb.corpus == nil {
		mb.corpus = sparsematrix.New(nil, nil, nil)
	}
	for _, id := range c.Matrix.InstanceIDs() {
		row, ok := c.Matrix.Row(id)
		if !ok {
			continue
		}
		mb.corpus.Put(id, row.Features, row.Values)
	}
}

func (mb *MinHashBase) annotateMeta(corpus *Corpus) error {
	if err := mb.meta.SetNumHashFunctions(mb.cfg.NumHashFunctions); err != nil {
		return err
	}
	if err := mb.meta.SetBlockSize(mb.cfg.BlockSize); err != nil {
		return err
	}
	kind := meta.StorageKindMap
	if mb.cfg.BloomierFilter {
		kind = meta.StorageKindBloomier
	}
	if err := mb.meta.SetStorageKind(kind); err != nil {
		return err
	}
	return mb.meta.SetBuildDigest(corpus.Digest())
}

// Meta returns the index-build annotations accumulated across Fit/
// PartialFit calls, surfaced by the describe command.
func (mb *MinHashBase) Meta() meta.Meta { return mb.meta }

// Distribution snapshots the current per-component active-key counts.
func (mb *MinHashBase) Distribution() Distribution {
	if mb.idx == nil {
		return Distribution{}
	}
	return mb.reporter.Snapshot(mb.idx.ComponentSizes())
}

// KNeighbors computes the k nearest candidates for each query instance,
// optionally re-ranked by exact distance when Fast is false. k <= 0 uses
// cfg.NNeighbors.
func (mb *MinHashBase) KNeighbors(ctx context.Context, queries *Corpus, k int) (neighbors map[uint64][]uint64, distances map[uint64][]float64, err error) {
	if mb.idx == nil {
		return nil, nil, fmt.Errorf("minhash: KNeighbors called before Fit")
	}
	if k <= 0 {
		k = mb.cfg.NNeighbors
	}

	sigMap := mb.idx.ComputeSignatureMap(ctx, queries.Matrix)
	rawNeighbors, rawDistances := mb.idx.KNeighbors(ctx, sigMap)

	if mb.cfg.Fast || mb.corpus == nil {
		neighbors, distances = truncate(rawNeighbors, rawDistances, k)
		return neighbors, distances, nil
	}

	neighbors = make(map[uint64][]uint64, len(rawNeighbors))
	distances = make(map[uint64][]float64, len(rawNeighbors))
	for id, candidates := range rawNeighbors {
		row, ok := queries.Matrix.Row(id)
		if !ok {
			continue
		}
		ids, dists := refine(row, candidates, mb.corpus, k, mb.cfg.Similarity)
		neighbors[id] = ids
		distances[id] = dists
	}
	return neighbors, distances, nil
}

// RadiusNeighbors returns every candidate whose approximate (or, when
// Fast is false, exact) distance is <= radius. It filters the same scored
// candidate pool KNeighbors draws from instead of truncating it to k; that
// pool holds at most NNeighbors*ExcessFactor candidates per query, and
// candidates outside it are not considered.
func (mb *MinHashBase) RadiusNeighbors(ctx context.Context, queries *Corpus, radius float64) (neighbors map[uint64][]uint64, distances map[uint64][]float64, err error) {
	if mb.idx == nil {
		return nil, nil, fmt.Errorf("minhash: RadiusNeighbors called before Fit")
	}

	sigMap := mb.idx.ComputeSignatureMap(ctx, queries.Matrix)
	rawNeighbors, rawDistances := mb.idx.KNeighbors(ctx, sigMap)

	neighbors = make(map[uint64][]uint64, len(rawNeighbors))
	distances = make(map[uint64][]float64, len(rawNeighbors))
	for id, candidates := range rawNeighbors {
		dists := rawDistances[id]
		if !mb.cfg.Fast && mb.corpus != nil {
			if row, ok := queries.Matrix.Row(id); ok {
				candidates, dists = refine(row, candidates, mb.corpus, 0, mb.cfg.Similarity)
			}
		}
		var keptIDs []uint64
		var keptDist []float64
		for i, c := range candidates {
			if dists[i] <= radius {
				keptIDs = append(keptIDs, c)
				keptDist = append(keptDist, dists[i])
			}
		}
		neighbors[id] = keptIDs
		distances[id] = keptDist
	}
	return neighbors, distances, nil
}

// Prune drops under-populated posting-list cells across every component.
func (mb *MinHashBase) Prune(threshold int) {
	if mb.idx == nil {
		return
	}
	mb.idx.Prune(threshold)
	metricsPruneEvents.Inc()
}

// truncate clips every neighbor/distance list to at most k entries.
func truncate(neighbors map[uint64][]uint64, distances map[uint64][]float64, k int) (map[uint64][]uint64, map[uint64][]float64) {
	outNeighbors := make(map[uint64][]uint64, len(neighbors))
	outDistances := make(map[uint64][]float64, len(neighbors))
	for id, n := range neighbors {
		d := distances[id]
		if k > 0 && k < len(n) {
			n = n[:k]
			d = d[:k]
		}
		outNeighbors[id] = n
		outDistances[id] = d
	}
	return outNeighbors, outDistances
}
