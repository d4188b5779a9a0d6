package minhash

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildCorpus(rows map[uint64][]uint64) *Corpus {
	var instanceIDs, featureIDs []uint64
	var values []float64
	for id, feats := range rows {
		for _, f := range feats {
			instanceIDs = append(instanceIDs, id)
			featureIDs = append(featureIDs, f)
			values = append(values, 1.0)
		}
	}
	return NewCorpus(instanceIDs, featureIDs, values)
}

// TestSelfRetrieval is spec Scenario B: fit a single instance, query the
// same feature vector with k=1, and expect to find itself.
func TestSelfRetrieval(t *testing.T) {
	mb := New(
		WithNumHashFunctions(16),
		WithBlockSize(4),
		WithNNeighbors(1),
		WithMaximalNumberOfHashCollisions(5),
		WithExcessFactor(1),
	)
	corpus := buildCorpus(map[uint64][]uint64{42: {1, 2, 3, 4, 5}})

	require.NoError(t, mb.Fit(context.Background(), corpus))

	neighbors, distances, err := mb.KNeighbors(context.Background(), corpus, 1)
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, neighbors[42])
	require.Len(t, distances[42], 1)
}

func TestKNeighborsBeforeFitErrors(t *testing.T) {
	mb := New()
	_, _, err := mb.KNeighbors(context.Background(), buildCorpus(map[uint64][]uint64{1: {1}}), 1)
	require.Error(t, err)
}

func TestPartialFitExtendsExistingIndex(t *testing.T) {
	mb := New(WithNumHashFunctions(16), WithBlockSize(4), WithNNeighbors(2), WithExcessFactor(2))

	require.NoError(t, mb.Fit(context.Background(), buildCorpus(map[uint64][]uint64{1: {1, 2, 3}})))
	require.NoError(t, mb.PartialFit(context.Background(), buildCorpus(map[uint64][]uint64{2: {1, 2, 3, 4}})))

	queries := buildCorpus(map[uint64][]uint64{2: {1, 2, 3, 4}})
	neighbors, _, err := mb.KNeighbors(context.Background(), queries, 2)
	require.NoError(t, err)
	require.Contains(t, neighbors[2], uint64(2))
}

func TestFastFalseRefinesCandidates(t *testing.T) {
	mb := New(
		WithNumHashFunctions(16), WithBlockSize(4),
		WithNNeighbors(2), WithExcessFactor(3), WithFast(false),
	)
	corpus := buildCorpus(map[uint64][]uint64{
		1: {1, 2, 3},
		2: {1, 2, 3, 4},
		3: {100, 200, 300},
	})
	require.NoError(t, mb.Fit(context.Background(), corpus))

	neighbors, distances, err := mb.KNeighbors(context.Background(), corpus, 2)
	require.NoError(t, err)
	require.LessOrEqual(t, len(neighbors[1]), 2)
	require.Equal(t, len(neighbors[1]), len(distances[1]))
}

func TestRadiusNeighborsFiltersByThreshold(t *testing.T) {
	mb := New(WithNumHashFunctions(16), WithBlockSize(4), WithNNeighbors(3), WithExcessFactor(3))
	corpus := buildCorpus(map[uint64][]uint64{
		1: {1, 2, 3},
		2: {1, 2, 3, 4},
		3: {100, 200, 300},
	})
	require.NoError(t, mb.Fit(context.Background(), corpus))

	neighbors, distances, err := mb.RadiusNeighbors(context.Background(), corpus, 1.1)
	require.NoError(t, err)
	for id, n := range neighbors {
		d := distances[id]
		for i := range n {
			require.LessOrEqual(t, d[i], 1.1)
		}
	}
}

func TestMetaAnnotatedAfterFit(t *testing.T) {
	mb := New(WithNumHashFunctions(8), WithBlockSize(2), WithBloomierFilter(true))
	corpus := buildCorpus(map[uint64][]uint64{1: {1, 2}})
	require.NoError(t, mb.Fit(context.Background(), corpus))

	n, ok := mb.Meta().NumHashFunctions()
	require.True(t, ok)
	require.Equal(t, uint64(8), n)

	kind, ok := mb.Meta().StorageKind()
	require.True(t, ok)
	require.Equal(t, "bloomier", kind)

	digest, ok := mb.Meta().BuildDigest()
	require.True(t, ok)
	require.Equal(t, corpus.Digest(), digest)
}

func TestDistributionReflectsFit(t *testing.T) {
	mb := New(WithNumHashFunctions(16), WithBlockSize(4))
	corpus := buildCorpus(map[uint64][]uint64{1: {1, 2, 3}, 2: {1, 2, 3}})
	require.NoError(t, mb.Fit(context.Background(), corpus))

	dist := mb.Distribution()
	require.NotEmpty(t, dist.PerComponent)
	require.GreaterOrEqual(t, dist.Max, dist.Min)
}
