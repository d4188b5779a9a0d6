// Package bloomierhash derives the per-key neighbor slots and XOR mask the
// Bloomier filter needs from a single key/seed pair, reusing the module's
// one deterministic mixing hash (mhash) rather than introducing a second
// hash family.
package bloomierhash

import "github.com/faithful-index/minhash-neighbors/mhash"

// Hash parameterizes neighbor-slot and mask generation: K distinct
// neighbors are chosen from [0, M), and masks are byteWidth bytes wide
// (byteWidth = ceil(q/8) for a q-bit value domain).
type Hash struct {
	M           uint64
	K           int
	ByteWidth   int
	DefaultSeed uint64
}

// New constructs a Hash for an m-slot table, K neighbors per key, and a
// q-bit value domain.
func New(m uint64, k int, q int, defaultSeed uint64) *Hash {
	byteWidth := (q + 7) / 8
	if byteWidth < 1 {
		byteWidth = 1
	}
	return &Hash{M: m, K: k, ByteWidth: byteWidth, DefaultSeed: defaultSeed}
}

// Mask derives a ByteWidth-byte bit-vector for key under seed by hashing
// (key, seed, i) for each output byte.
func (h *Hash) Mask(key uint64, seed uint64) []byte {
	out := make([]byte, h.ByteWidth)
	for i := 0; i < h.ByteWidth; i++ {
		combined := mhash.Hash(key, mhash.MaxValue, seed+uint64(i)+1)
		out[i] = byte(combined)
	}
	return out
}

// Neighbors returns exactly K distinct slot indices in [0, M) for key under
// seed. Collisions within the K picks are resolved by rehashing with an
// incrementing probe counter, the same "bump and retry" shape as
// OrderAndMatchFinder's seed search. The key is hashed as key+1 so that
// key 0 still yields a different slot per probe.
func (h *Hash) Neighbors(key uint64, seed uint64) []uint64 {
	out := make([]uint64, 0, h.K)
	seen := make(map[uint64]bool, h.K)
	probe := uint64(0)
	for len(out) < h.K {
		slot := mhash.Hash(key+1, h.M, seed+probe*uint64(h.K)+uint64(len(out))+1)
		probe++
		if seen[slot] {
			continue
		}
		seen[slot] = true
		out = append(out, slot)
	}
	return out
}
