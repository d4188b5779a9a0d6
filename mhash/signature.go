package mhash

import "math"

// Params bundles the knobs signature computation needs: the number of
// MinHash functions before block reduction and the block size used to fold
// them down. Signature length is B = ceil(H/b) + 1.
type Params struct {
	NumHashFunctions uint64
	BlockSize        uint64
}

// SignatureLength returns B = ceil(H/b) + 1.
func (p Params) SignatureLength() int {
	if p.BlockSize == 0 {
		return 1
	}
	return int(uint64(math.Ceil(float64(p.NumHashFunctions)/float64(p.BlockSize)))) + 1
}

// Signature computes the MinHash signature for a list of feature ids: for
// each of H hash functions take the minimum hash over all features, then
// fold every run of b consecutive values into one via repeated seeded
// hashing. An empty feature vector yields MaxValue in every component.
func Signature(features []uint64, p Params) []uint64 {
	h := p.NumHashFunctions
	b := p.BlockSize
	if b == 0 {
		b = 1
	}
	if len(features) == 0 {
		empty := make([]uint64, p.SignatureLength())
		for i := range empty {
			empty[i] = MaxValue
		}
		return empty
	}

	minHashes := make([]uint64, h)
	for j := uint64(0); j < h; j++ {
		minHashes[j] = MaxValue
		for _, f := range features {
			v := Hash(f+1, MaxValue, j+1)
			if v < minHashes[j] {
				minHashes[j] = v
			}
		}
	}

	out := make([]uint64, 0, p.SignatureLength())
	for k := uint64(0); k < h; k += b {
		v := minHashes[k]
		end := k + b
		if end > h {
			end = h
		}
		for t := k; t < end; t++ {
			v = Hash(minHashes[t], MaxValue, v)
		}
		out = append(out, v)
	}

	// The inverted index is sized ceil(H/b)+1 components (see inverseIndex's
	// constructor in the original source): one more than the natural block
	// fold above produces. Fold the block outputs together once more so
	// that trailing component carries real, deterministic signal instead of
	// sitting permanently empty, keeping the self-retrieval invariant
	// (every component collides for an unmodified re-query) true for all B
	// components, not just the first ceil(H/b).
	last := MaxValue
	for _, v := range out {
		last = Hash(v, MaxValue, last+1)
	}
	out = append(out, last)
	return out
}

// SignatureID folds a feature list into a single scalar used to deduplicate
// instances that carry an identical feature set within one fit/query call.
func SignatureID(features []uint64) uint64 {
	sid := uint64(0)
	for _, f := range features {
		sid = Hash(f+1, MaxValue, sid+1)
	}
	return sid
}
