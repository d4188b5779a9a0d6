package minhash

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/faithful-index/minhash-neighbors/sparsematrix"
)

// Corpus wraps the CLI's flattened-triple input format (three parallel
// integer/float sequences: instanceIds, featureIds, values) around a
// sparsematrix.Matrix, adding a cheap content fingerprint for log lines
// and the describe command.
type Corpus struct {
	Matrix *sparsematrix.Matrix
}

// NewCorpus builds a Corpus from the flattened row-major triples. values
// may be nil, meaning every feature carries an implicit weight of 1.
func NewCorpus(instanceIDs, featureIDs []uint64, values []float64) *Corpus {
	return &Corpus{Matrix: sparsematrix.New(instanceIDs, featureIDs, values)}
}

// Digest returns a cheap xxhash fingerprint of the corpus's content,
// independent of the triples' original order: rows are visited in
// ascending instance-id order, and each row's already-sorted
// (feature, value) pairs are hashed in sequence. This is a log-line and
// describe-command convenience, not a cryptographic or collision-free
// hash, and is unrelated to the MinHash mixing function in mhash.
func (c *Corpus) Digest() uint64 {
	ids := c.Matrix.InstanceIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	h := xxhash.New()
	var buf [8]byte
	for _, id := range ids {
		binary.LittleEndian.PutUint64(buf[:], id)
		h.Write(buf[:])
		row, ok := c.Matrix.Row(id)
		if !ok {
			continue
		}
		for i, f := range row.Features {
			binary.LittleEndian.PutUint64(buf[:], f)
			h.Write(buf[:])
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(row.Values[i]))
			h.Write(buf[:])
		}
	}
	return h.Sum64()
}
