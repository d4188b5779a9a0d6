// Package orderandmatch implements the Bloomier filter's construction
// algorithm: given a batch of keys, find an admission order π and, per key,
// a "singleton" neighbor-slot index τ such that XOR-resolving the table
// against that slot is unambiguous.
//
// This is ported line-for-line from the original C++
// (orderAndMatchFinder.cpp) rather than re-derived from a loose
// description of the algorithm, because its control flow has a couple of
// quirks that a clean-room re-implementation would likely "fix" by
// accident:
//
//   - tweak checks a slot against hashesSeen, which computeNonSingeltons
//     populated from every key in the batch at the default seed, not
//     against nonSingletons. A slot counts as this key's singleton purely
//     because no key in the batch has touched it yet, even under a
//     different seed than the one actually used to admit this key.
//   - once a singleton slot is found, ALL of the key's neighbors are marked
//     into nonSingletons, not just the chosen one.
package orderandmatch

import "github.com/faithful-index/minhash-neighbors/bloomierhash"

// seedState is the three-valued result of GetSeed.
type seedState int

const (
	// SeedUnseen means the key has never been admitted.
	SeedUnseen seedState = iota
	// SeedDefault means the key was admitted using the hash's default seed.
	SeedDefault
	// SeedCustom means the key needed a non-default seed; call Seed to get it.
	SeedCustom
)

// Finder incrementally builds π (admission order) and τ (chosen singleton
// index per admitted key) over a growing universe of keys, backed by two
// bitsets over the neighbor-hash's slot space and two over a hashed key
// space (see keyBit).
type Finder struct {
	hash *bloomierhash.Hash

	hashesSeen     bitset
	nonSingletons  bitset
	instance       bitset // has this key ever been admitted?
	instanceSeeded bitset // was admission for this key non-default-seed?

	seeds map[uint64]uint64

	pi  []uint64
	tau []int
}

// New constructs a Finder over hash's slot space.
func New(hash *bloomierhash.Hash) *Finder {
	return &Finder{
		hash:           hash,
		hashesSeen:     newBitset(hash.M),
		nonSingletons:  newBitset(hash.M),
		instance:       newBitset(maxKeyBits),
		instanceSeeded: newBitset(maxKeyBits),
		seeds:          make(map[uint64]uint64),
	}
}

// maxKeyBits bounds the instance/instanceSeeded bitsets; keys are rehashed
// into this space rather than indexed directly, since key values (instance
// or signature ids) can be arbitrarily large.
const maxKeyBits = 1 << 20

func keyBit(key uint64) uint64 { return key % maxKeyBits }

// Pi returns the admission order built so far.
func (f *Finder) Pi() []uint64 { return append([]uint64(nil), f.pi...) }

// Tau returns the chosen singleton index per admitted key, same order as Pi.
func (f *Finder) Tau() []int { return append([]int(nil), f.tau...) }

// GetSeed reports whether key has been admitted and, if so, whether it used
// the hash's default seed or a custom one.
func (f *Finder) GetSeed(key uint64) (state seedState, seed uint64) {
	bit := keyBit(key)
	if !f.instance.get(bit) {
		return SeedUnseen, 0
	}
	if f.instanceSeeded.get(bit) {
		return SeedCustom, f.seeds[key]
	}
	return SeedDefault, f.hash.DefaultSeed
}

// Find runs the full per-batch algorithm: mark every key's default-seed
// neighbors into hashesSeen/nonSingletons, then attempt admission
// (tweak-and-commit) for each key. Matches the original's
// find = computeNonSingeltons + findMatch.
func (f *Finder) Find(keys []uint64) {
	f.computeNonSingletons(keys, f.hash.DefaultSeed)
	f.findMatch(keys)
}

// computeNonSingletons marks, for the whole batch, every neighbor slot that
// was already in hashesSeen as now belonging to nonSingletons, then marks
// every neighbor slot of the batch into hashesSeen. The two passes are
// kept separate deliberately: a slot touched by two keys within the same
// batch is only caught because the second key's neighbors are checked
// against hashesSeen *before* the first key's neighbors are folded in.
func (f *Finder) computeNonSingletons(keys []uint64, seed uint64) {
	for _, k := range keys {
		neighbors := f.hash.Neighbors(k, seed)
		for _, n := range neighbors {
			if f.hashesSeen.get(n) {
				f.nonSingletons.set(n)
			}
		}
		for _, n := range neighbors {
			f.hashesSeen.set(n)
		}
	}
}

// findMatch attempts admission for every key in the batch via tweak, and
// appends the batch's π/τ to the global ones only if the two have equal
// length; otherwise the batch is rejected as a whole. tweak retries seeds
// until it finds a singleton, so every key in a batch is admitted. Each
// key's instance bit and any custom seed are recorded during tweak,
// before that check.
func (f *Finder) findMatch(keys []uint64) {
	pi := make([]uint64, 0, len(keys))
	tau := make([]int, 0, len(keys))
	for _, k := range keys {
		singleton := f.tweak(k)
		f.instance.set(keyBit(k))
		if singleton >= 0 {
			pi = append(pi, k)
			tau = append(tau, singleton)
		}
	}
	if len(pi) == len(tau) {
		f.pi = append(f.pi, pi...)
		f.tau = append(f.tau, tau...)
	}
}

// tweak searches for a seed under which key has a neighbor slot untouched
// by hashesSeen, retrying with an incrementing seed until one is found.
// On success it marks every neighbor of key into nonSingletons (not just
// the chosen slot) and, if a non-default seed was needed, records it.
func (f *Finder) tweak(key uint64) int {
	for i := uint64(0); ; i++ {
		seed := f.hash.DefaultSeed + i
		neighbors := f.hash.Neighbors(key, seed)
		for j, n := range neighbors {
			if f.hashesSeen.get(n) {
				continue
			}
			for _, nn := range neighbors {
				f.nonSingletons.set(nn)
			}
			if seed != f.hash.DefaultSeed {
				f.instanceSeeded.set(keyBit(key))
				f.seeds[key] = seed
			}
			return j
		}
	}
}
