// Package mhash implements the deterministic multiplicative hash that backs
// every locality-sensitive structure in this module: MinHash signatures,
// the Bloomier filter's slot/mask hashing, and the order-and-match finder's
// seed search all reduce to repeated calls into this one mixing function.
package mhash

import "math"

// invSqrt2Minus1 is A = sqrt(2) - 1, pre-multiplied into the hash input the
// same way the original MinHash source does it. It exists purely to spread
// small, related keys (adjacent feature ids, adjacent hash-function
// indices) across the mixing function's input domain.
var invSqrt2Minus1 = math.Sqrt2 - 1

// MaxValue is the modulus used throughout the signature pipeline. Both the
// empty-signature sentinel and the "ignore this component" sentinel in
// InverseIndex.KNeighbors are this value.
const MaxValue = ^uint64(0) >> 1

// twoTo64 is the first float64 value too large to convert to a uint64.
const twoTo64 = 1 << 64

// Hash mixes key, scales it by seed and the constant A, and reduces modulo
// modulo. It is deterministic and uniform on [0, modulo) but makes no
// cryptographic claims. A scaled product too large for a uint64 is fed to
// the mixer through its IEEE-754 bit pattern instead of being converted.
func Hash(key uint64, modulo uint64, seed uint64) uint64 {
	product := float64(key) * float64(seed) * invSqrt2Minus1
	scaled := math.Float64bits(product)
	if product < twoTo64 {
		scaled = uint64(product)
	}
	return mix(scaled) % modulo
}

// mix is the xor-shift-multiply-xor-shift chain from the original hash.h.
func mix(key uint64) uint64 {
	key = ^key + (key << 15)
	key = key ^ (key >> 12)
	key = key + (key << 2)
	key = key ^ (key >> 4)
	key = key * 2057
	key = key ^ (key >> 16)
	return key
}
