package inverseindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/faithful-index/minhash-neighbors/sparsematrix"
)

func testConfig() Config {
	return Config{
		NumHashFunctions:              16,
		BlockSize:                     4,
		NumberOfCores:                 2,
		MaxBinSize:                    50,
		SizeOfNeighborhood:            2,
		MinimalBlocksInCommon:         1,
		ExcessFactor:                  2,
		MaximalNumberOfHashCollisions: 5,
	}
}

func buildCorpus() *sparsematrix.Matrix {
	instanceIDs := []uint64{}
	featureIDs := []uint64{}
	values := []float64{}
	rows := map[uint64][]uint64{
		1: {1, 2, 3},
		2: {1, 2, 3, 4},
		3: {100, 200, 300},
	}
	for id, feats := range rows {
		for _, f := range feats {
			instanceIDs = append(instanceIDs, id)
			featureIDs = append(featureIDs, f)
			values = append(values, 1.0)
		}
	}
	return sparsematrix.New(instanceIDs, featureIDs, values)
}

func TestFitAndSelfQueryFindsNeighbors(t *testing.T) {
	idx := New(testConfig())
	corpus := buildCorpus()

	err := idx.Fit(context.Background(), corpus)
	require.NoError(t, err)

	sigMap := idx.ComputeSignatureMap(context.Background(), corpus)
	neighbors, distances := idx.KNeighbors(context.Background(), sigMap)

	for _, id := range []uint64{1, 2, 3} {
		n, ok := neighbors[id]
		require.True(t, ok, "expected a neighbor entry for instance %d", id)
		require.Equal(t, len(n), len(distances[id]))
	}

	// instances 1 and 2 share most features and should find each other.
	n1 := neighbors[1]
	found := false
	for _, c := range n1 {
		if c == 2 {
			found = true
		}
	}
	require.True(t, found, "expected instance 1 to find instance 2 as a close neighbor, got %v", n1)
}

func TestPruneRemovesLowCountCells(t *testing.T) {
	idx := New(testConfig())
	corpus := buildCorpus()
	require.NoError(t, idx.Fit(context.Background(), corpus))

	idx.Prune(1000) // drop everything: nothing has 1000+ entries per cell

	sigMap := idx.ComputeSignatureMap(context.Background(), corpus)
	neighbors, _ := idx.KNeighbors(context.Background(), sigMap)
	for id, n := range neighbors {
		require.Empty(t, n, "expected no neighbors for instance %d after aggressive prune", id)
	}
}

func TestRemoveHashFunctionsBelowKeepsSomeComponents(t *testing.T) {
	idx := New(testConfig())
	corpus := buildCorpus()
	require.NoError(t, idx.Fit(context.Background(), corpus))

	err := idx.RemoveHashFunctionsBelow(0)
	require.NoError(t, err)
}

func TestBloomierBackedStorageRoundTrip(t *testing.T) {
	cfg := testConfig()
	cfg.UseBloomierStorage = true
	idx := New(cfg)
	corpus := buildCorpus()

	require.NoError(t, idx.Fit(context.Background(), corpus))
	sigMap := idx.ComputeSignatureMap(context.Background(), corpus)
	neighbors, _ := idx.KNeighbors(context.Background(), sigMap)
	require.Contains(t, neighbors, uint64(1))
}

func TestMidFitPruneCheckpointDoesNotPanic(t *testing.T) {
	cfg := testConfig()
	cfg.PruneAfterFraction = 0.5
	cfg.PruneThreshold = 0
	idx := New(cfg)
	corpus := buildCorpus()
	require.NoError(t, idx.Fit(context.Background(), corpus))
}
