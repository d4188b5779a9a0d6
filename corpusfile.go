package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/faithful-index/minhash-neighbors/minhash"
)

// corpusFile is the on-disk JSON shape the CLI reads for a fit/query
// corpus: instance ids, feature ids, and optional values, flattened
// row-major the same way the original's Python binding accepts them.
// There is no writer for a fitted index: every CLI command fits in-memory
// for the duration of one invocation, nothing is persisted to disk.
type corpusFile struct {
	InstanceIDs []uint64  `json:"instance_ids"`
	FeatureIDs  []uint64  `json:"feature_ids"`
	Values      []float64 `json:"values,omitempty"`
}

func loadCorpus(path string) (*minhash.Corpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus file %q: %w", path, err)
	}
	var cf corpusFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("parsing corpus file %q: %w", path, err)
	}
	if len(cf.InstanceIDs) != len(cf.FeatureIDs) {
		return nil, fmt.Errorf("corpus file %q: instance_ids and feature_ids length mismatch (%d vs %d)",
			path, len(cf.InstanceIDs), len(cf.FeatureIDs))
	}
	if cf.Values != nil && len(cf.Values) != len(cf.InstanceIDs) {
		return nil, fmt.Errorf("corpus file %q: values length mismatch (%d vs %d)", path, len(cf.Values), len(cf.InstanceIDs))
	}
	return minhash.NewCorpus(cf.InstanceIDs, cf.FeatureIDs, cf.Values), nil
}

type neighborhoodOutput struct {
	Neighbors map[uint64][]uint64  `json:"neighbors"`
	Distances map[uint64][]float64 `json:"distances"`
}

func printNeighborhood(neighbors map[uint64][]uint64, distances map[uint64][]float64) error {
	out := neighborhoodOutput{Neighbors: neighbors, Distances: distances}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
