// Package meta holds the small set of key/value annotations a fitted
// index carries about itself: hash-function count, block size, which
// storage backend built it, and a corpus fingerprint. It is Borsh-encoded
// with the same length-prefixed (count, then key/value pairs each
// prefixed by a one-byte length) layout gagliardetto/binary's decoder
// expects, so annotations round-trip through the same wire format used
// for other single-byte-length-prefixed binary records in this
// ecosystem, without adopting any CID or content-addressing semantics.
package meta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	bin "github.com/gagliardetto/binary"
)

// MaxNumKVs, MaxKeySize and MaxValueSize bound a one-byte length prefix
// each: the annotation set, and every key and value within it, must fit
// in 255 or fewer bytes.
const (
	MaxNumKVs    = 255
	MaxKeySize   = 255
	MaxValueSize = 255
)

// Entry is one annotation: a key naming a fact about a fitted index
// (e.g. "block_size") and its encoded value.
type Entry struct {
	Key   []byte
	Value []byte
}

// NewEntry builds an Entry without copying key or value.
func NewEntry(key, value []byte) Entry {
	return Entry{Key: key, Value: value}
}

// Meta is an ordered, possibly-duplicate-keyed set of annotations
// attached to one fitted index.
type Meta struct {
	Entries []Entry
}

// Bytes serializes the annotation set, panicking if it exceeds the
// one-byte length limits (Add/Set already reject anything that would).
func (m *Meta) Bytes() []byte {
	b, err := m.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return b
}

func writeLenPrefixed(buf *bytes.Buffer, b []byte, max int, what string) error {
	if len(b) > max {
		return fmt.Errorf("%s size %d exceeds max %d", what, len(b), max)
	}
	buf.WriteByte(byte(len(b)))
	buf.Write(b)
	return nil
}

func (m Meta) MarshalBinary() ([]byte, error) {
	if len(m.Entries) > MaxNumKVs {
		return nil, fmt.Errorf("number of entries %d exceeds max %d", len(m.Entries), MaxNumKVs)
	}
	var buf bytes.Buffer
	buf.WriteByte(byte(len(m.Entries)))
	for i, e := range m.Entries {
		if err := writeLenPrefixed(&buf, e.Key, MaxKeySize, fmt.Sprintf("entry %d key", i)); err != nil {
			return nil, err
		}
		if err := writeLenPrefixed(&buf, e.Value, MaxValueSize, fmt.Sprintf("entry %d value", i)); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Decoder is the minimal read surface UnmarshalWithDecoder needs; Borsh's
// decoder (and a plain bytes.Reader) both satisfy it.
type Decoder interface {
	io.ByteReader
	io.Reader
}

func readLenPrefixed(r Decoder, max int, what string) ([]byte, error) {
	n, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading %s length: %w", what, err)
	}
	if int(n) > max {
		return nil, fmt.Errorf("%s size %d exceeds max %d", what, n, max)
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("reading %s: %w", what, err)
	}
	return out, nil
}

// UnmarshalWithDecoder reads an annotation set from an already-positioned
// decoder, appending to any entries already present in m.
func (m *Meta) UnmarshalWithDecoder(decoder Decoder) error {
	count, err := decoder.ReadByte()
	if err != nil {
		return fmt.Errorf("reading entry count: %w", err)
	}
	if count > MaxNumKVs {
		return fmt.Errorf("number of entries %d exceeds max %d", count, MaxNumKVs)
	}
	for i := 0; i < int(count); i++ {
		key, err := readLenPrefixed(decoder, MaxKeySize, fmt.Sprintf("entry %d key", i))
		if err != nil {
			return err
		}
		value, err := readLenPrefixed(decoder, MaxValueSize, fmt.Sprintf("entry %d value", i))
		if err != nil {
			return err
		}
		m.Entries = append(m.Entries, Entry{Key: key, Value: value})
	}
	return nil
}

// UnmarshalBinary decodes b (produced by MarshalBinary) via Borsh, or
// leaves m untouched if b is empty.
func (m *Meta) UnmarshalBinary(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return m.UnmarshalWithDecoder(bin.NewBorshDecoder(b))
}

func cloneBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}

// Add appends a new key/value entry, rejecting it if the set is already
// at MaxNumKVs or either side exceeds its one-byte length limit. Unlike
// Set, Add never overwrites: a repeated key produces a second entry.
func (m *Meta) Add(key, value []byte) error {
	if len(m.Entries) >= MaxNumKVs {
		return fmt.Errorf("number of entries %d exceeds max %d", len(m.Entries), MaxNumKVs)
	}
	if len(key) > MaxKeySize {
		return fmt.Errorf("key size %d exceeds max %d", len(key), MaxKeySize)
	}
	if len(value) > MaxValueSize {
		return fmt.Errorf("value size %d exceeds max %d", len(value), MaxValueSize)
	}
	m.Entries = append(m.Entries, Entry{Key: cloneBytes(key), Value: cloneBytes(value)})
	return nil
}

// AddString is Add for a string value.
func (m *Meta) AddString(key []byte, value string) error {
	return m.Add(key, []byte(value))
}

// GetString is Get decoded as a string.
func (m Meta) GetString(key []byte) (string, bool) {
	value, ok := m.Get(key)
	if !ok {
		return "", false
	}
	return string(value), true
}

// AddUint64 is Add with value little-endian encoded to 8 bytes.
func (m *Meta) AddUint64(key []byte, value uint64) error {
	return m.Add(key, encodeUint64(value))
}

// GetUint64 is Get decoded as a little-endian uint64.
func (m Meta) GetUint64(key []byte) (uint64, bool) {
	value, ok := m.Get(key)
	if !ok {
		return 0, false
	}
	return decodeUint64(value), true
}

func encodeUint64(value uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, value)
	return buf
}

func decodeUint64(buf []byte) uint64 {
	return binary.LittleEndian.Uint64(buf)
}

// Replace overwrites the first entry's value for key, failing if no entry
// with that key exists yet.
func (m *Meta) Replace(key, value []byte) error {
	if len(key) > MaxKeySize {
		return fmt.Errorf("key size %d exceeds max %d", len(key), MaxKeySize)
	}
	if len(value) > MaxValueSize {
		return fmt.Errorf("value size %d exceeds max %d", len(value), MaxValueSize)
	}
	for i, e := range m.Entries {
		if bytes.Equal(e.Key, key) {
			m.Entries[i].Value = cloneBytes(value)
			return nil
		}
	}
	return fmt.Errorf("key %q not found", key)
}

// Set adds key/value, or overwrites the first existing entry for key if
// one is already present (Add alone would append a second entry for a
// duplicate key, Replace alone would reject a missing one). Index-build annotations are
// always set this way: rebuilding a value for an already-recorded key
// (e.g. re-fitting with a different block size) should not pile up a
// second entry behind the first.
func (m *Meta) Set(key, value []byte) error {
	if _, ok := m.Get(key); ok {
		return m.Replace(key, value)
	}
	return m.Add(key, value)
}

// Get returns the first entry's value for key.
func (m Meta) Get(key []byte) ([]byte, bool) {
	for _, e := range m.Entries {
		if bytes.Equal(e.Key, key) {
			return e.Value, true
		}
	}
	return nil, false
}

// ReadFirst copies the first entry's value for key into valueDst,
// returning the number of bytes copied.
func (m Meta) ReadFirst(key []byte, valueDst []byte) int {
	for _, e := range m.Entries {
		if bytes.Equal(e.Key, key) {
			return copy(valueDst, e.Value)
		}
	}
	return 0
}

// HasDuplicateKeys reports whether any key appears in more than one entry.
func (m Meta) HasDuplicateKeys() bool {
	seen := make(map[string]struct{}, len(m.Entries))
	for _, e := range m.Entries {
		if _, ok := seen[string(e.Key)]; ok {
			return true
		}
		seen[string(e.Key)] = struct{}{}
	}
	return false
}

// Remove deletes every entry for key.
func (m *Meta) Remove(key []byte) {
	var kept []Entry
	for _, e := range m.Entries {
		if !bytes.Equal(e.Key, key) {
			kept = append(kept, e)
		}
	}
	m.Entries = kept
}

// GetAll returns every entry's value for key, in insertion order.
func (m Meta) GetAll(key []byte) [][]byte {
	var values [][]byte
	for _, e := range m.Entries {
		if bytes.Equal(e.Key, key) {
			values = append(values, e.Value)
		}
	}
	return values
}

// Count returns how many entries carry key.
func (m *Meta) Count(key []byte) int {
	count := 0
	for _, e := range m.Entries {
		if bytes.Equal(e.Key, key) {
			count++
		}
	}
	return count
}

// Well-known keys for the facts an index records about its own build:
// how many MinHash functions it was fit with, the block-reduction factor,
// which InverseIndex storage backend produced it, and a fingerprint of
// the fitted corpus. describe prints these after fitting its corpus.
var (
	KeyNumHashFunctions = []byte("num_hash_functions")
	KeyBlockSize        = []byte("block_size")
	KeyStorageKind      = []byte("storage_kind")
	KeyBuildDigest      = []byte("build_digest")
)

// Storage kind values recorded under KeyStorageKind.
const (
	StorageKindMap      = "map"
	StorageKindBloomier = "bloomier"
)

// SetNumHashFunctions records the MinHash count an index was fit with.
func (m *Meta) SetNumHashFunctions(n uint64) error {
	return m.Set(KeyNumHashFunctions, encodeUint64(n))
}

// NumHashFunctions returns the MinHash count an index was fit with, if set.
func (m Meta) NumHashFunctions() (uint64, bool) {
	return m.GetUint64(KeyNumHashFunctions)
}

// SetBlockSize records the block-reduction factor an index was fit with.
func (m *Meta) SetBlockSize(b uint64) error {
	return m.Set(KeyBlockSize, encodeUint64(b))
}

// BlockSize returns the block-reduction factor an index was fit with, if set.
func (m Meta) BlockSize() (uint64, bool) {
	return m.GetUint64(KeyBlockSize)
}

// SetStorageKind records which InverseIndex storage variant built the index.
func (m *Meta) SetStorageKind(kind string) error {
	return m.Set(KeyStorageKind, []byte(kind))
}

// StorageKind returns which InverseIndex storage variant built the index, if set.
func (m Meta) StorageKind() (string, bool) {
	return m.GetString(KeyStorageKind)
}

// SetBuildDigest records a content fingerprint of the fitted corpus (an
// xxhash checksum computed by minhash.Corpus.Digest), which the fit and
// describe commands print.
func (m *Meta) SetBuildDigest(digest uint64) error {
	return m.Set(KeyBuildDigest, encodeUint64(digest))
}

// BuildDigest returns the fitted corpus's content fingerprint, if set.
func (m Meta) BuildDigest() (uint64, bool) {
	return m.GetUint64(KeyBuildDigest)
}
