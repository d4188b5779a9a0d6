// Package encoder packs a small integer into a fixed-width byte vector and
// back, the way compactindexsized packs a hash value into a
// variable-width field (uintLe/putUintLe) rather than reaching for a
// general varint codec.
package encoder

// Encoder encodes/decodes unsigned integers into ByteWidth-byte
// little-endian vectors. Round-trip identity is the only contract.
type Encoder struct {
	ByteWidth int
}

// New returns an Encoder packing values into byteWidth bytes.
func New(byteWidth int) *Encoder {
	if byteWidth < 1 {
		byteWidth = 1
	}
	return &Encoder{ByteWidth: byteWidth}
}

// Encode packs x into e.ByteWidth little-endian bytes. Bits beyond the
// configured width are silently truncated, matching the original's
// unchecked cast into a fixed bitVector.
func (e *Encoder) Encode(x uint64) []byte {
	out := make([]byte, e.ByteWidth)
	for i := 0; i < e.ByteWidth; i++ {
		out[i] = byte(x >> (8 * uint(i)))
	}
	return out
}

// Decode unpacks a little-endian byte vector back into an integer. Only the
// first e.ByteWidth bytes of bits are read; extra bytes are ignored.
func (e *Encoder) Decode(bits []byte) uint64 {
	var x uint64
	n := e.ByteWidth
	if len(bits) < n {
		n = len(bits)
	}
	for i := 0; i < n; i++ {
		x |= uint64(bits[i]) << (8 * uint(i))
	}
	return x
}
