// Package bloomierfilter implements a Bloomier filter: a compact
// approximate map from keys to posting lists, with keys admitted lazily
// one at a time as they are first inserted.
package bloomierfilter

import (
	"github.com/faithful-index/minhash-neighbors/bloomierhash"
	"github.com/faithful-index/minhash-neighbors/encoder"
	"github.com/faithful-index/minhash-neighbors/orderandmatch"
)

// maxLookupTries bounds Get/Set's retry loop over bumped seeds, matching
// the original's fixed `tries = 5`.
const maxLookupTries = 5

// Filter is a Bloomier filter over a modulo-sized table. Values are
// posting lists (instance ids sharing a signature component), matching
// this module's usage as an inverted-index storage backend rather than
// the original's generic scalar value.
type Filter struct {
	hash    *bloomierhash.Hash
	finder  *orderandmatch.Finder
	encoder *encoder.Encoder

	table      [][]byte   // per-slot XOR-resolved bit vector
	valueTable [][]uint64 // per-slot posting list; nil means never created

	tauOf      map[uint64]int // key -> chosen singleton index, cached once admitted
	maxBinSize int
}

// New constructs an empty filter over an m-slot table storing k-neighbor
// keys with byteWidth-wide masks, disabling any posting list that grows
// past maxBinSize.
func New(m uint64, k int, q int, seed uint64, maxBinSize int) *Filter {
	hash := bloomierhash.New(m, k, q, seed)
	return &Filter{
		hash:       hash,
		finder:     orderandmatch.New(hash),
		encoder:    encoder.New(hash.ByteWidth),
		table:      make([][]byte, m),
		valueTable: make([][]uint64, m),
		tauOf:      make(map[uint64]int),
		maxBinSize: maxBinSize,
	}
}

// xorFold XORs mask with the table rows addressed by neighbors into dst.
func (f *Filter) xorFold(dst []byte, mask []byte, neighbors []uint64) {
	copy(dst, mask)
	for _, n := range neighbors {
		if row := f.table[n]; row != nil {
			for i := range dst {
				dst[i] ^= row[i]
			}
		}
	}
}

// admit runs (or replays) OrderAndMatchFinder admission for key as a
// single-key batch, returning the singleton index l and the seed under
// which key was admitted. Returns ok=false if admission was rejected: this
// should not happen for a singleton batch, but the guard is kept since a
// single key is still a batch of one.
func (f *Filter) admit(key uint64) (l int, seed uint64, ok bool) {
	if l, cached := f.tauOf[key]; cached {
		_, seed := f.finder.GetSeed(key)
		return l, seed, true
	}
	before := len(f.finder.Tau())
	f.finder.Find([]uint64{key})
	tau := f.finder.Tau()
	if len(tau) <= before {
		return 0, 0, false
	}
	l = tau[before]
	f.tauOf[key] = l
	_, seed = f.finder.GetSeed(key)
	return l, seed, true
}

// Create inserts key with an initial posting-list value of value. Fails
// silently if admission is rejected, matching the original's documented
// failure mode.
func (f *Filter) Create(key uint64, value uint64) {
	l, seed, ok := f.admit(key)
	if !ok {
		return
	}
	neighbors := f.hash.Neighbors(key, seed)
	L := neighbors[l]
	mask := f.hash.Mask(key, seed)
	encoded := f.encoder.Encode(uint64(l))

	row := make([]byte, f.hash.ByteWidth)
	for i := range row {
		row[i] = encoded[i] ^ mask[i]
	}
	for j, n := range neighbors {
		if j == l {
			continue
		}
		if other := f.table[n]; other != nil {
			for i := range row {
				row[i] ^= other[i]
			}
		}
	}
	f.table[L] = row

	if f.valueTable[L] == nil {
		f.valueTable[L] = []uint64{value}
	}
}

// Get returns the posting list for key, retrying across bumped seeds the
// way the original's tries-based lookup does, since a key's resolved slot
// can only be recovered by replaying the same seed search used at
// admission time.
func (f *Filter) Get(key uint64) ([]uint64, bool) {
	mask := f.hash.Mask(key, f.hash.DefaultSeed)
	valueToGet := make([]byte, f.hash.ByteWidth)
	for i := 0; i < maxLookupTries; i++ {
		seed := f.hash.DefaultSeed + uint64(i)
		neighbors := f.hash.Neighbors(key, seed)
		f.xorFold(valueToGet, mask, neighbors)
		h := f.encoder.Decode(valueToGet)
		if int(h) < len(neighbors) {
			L := neighbors[h]
			if f.valueTable[L] != nil {
				return f.valueTable[L], true
			}
		}
	}
	return nil, false
}

// Set appends value to key's existing posting list if one can be found by
// the same retry search as Get, disabling (clearing) the list outright
// once it reaches maxBinSize. If no existing slot is found within
// maxLookupTries, the key is treated as new and created with the given
// value.
//
// A bin that has already overflowed to empty stays disabled: the
// `len(list) > 0` guard below is deliberate, preserving the original's
// quirk of never re-enabling a cleared bin with new appends.
func (f *Filter) Set(key uint64, value uint64) {
	mask := f.hash.Mask(key, f.hash.DefaultSeed)
	valueToGet := make([]byte, f.hash.ByteWidth)
	for i := 0; i < maxLookupTries; i++ {
		seed := f.hash.DefaultSeed + uint64(i)
		neighbors := f.hash.Neighbors(key, seed)
		f.xorFold(valueToGet, mask, neighbors)
		h := f.encoder.Decode(valueToGet)
		if int(h) >= len(neighbors) {
			continue
		}
		L := neighbors[h]
		list := f.valueTable[L]
		if list == nil {
			continue
		}
		if len(list) < f.maxBinSize {
			if len(list) > 0 {
				f.valueTable[L] = append(list, value)
			}
		} else {
			f.valueTable[L] = list[:0]
		}
		return
	}
	f.Create(key, value)
}

// Disable clears key's resolved posting list in place, the same
// lookup-then-clear shape Set uses on overflow, exposed directly so a
// caller (inverseindex's prune pass) can force a cell into the disabled
// sentinel state without waiting for it to grow past maxBinSize.
func (f *Filter) Disable(key uint64) bool {
	mask := f.hash.Mask(key, f.hash.DefaultSeed)
	valueToGet := make([]byte, f.hash.ByteWidth)
	for i := 0; i < maxLookupTries; i++ {
		seed := f.hash.DefaultSeed + uint64(i)
		neighbors := f.hash.Neighbors(key, seed)
		f.xorFold(valueToGet, mask, neighbors)
		h := f.encoder.Decode(valueToGet)
		if int(h) >= len(neighbors) {
			continue
		}
		L := neighbors[h]
		if f.valueTable[L] == nil {
			continue
		}
		f.valueTable[L] = f.valueTable[L][:0]
		return true
	}
	return false
}
