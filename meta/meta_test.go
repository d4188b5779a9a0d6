package meta_test

import (
	"testing"

	"github.com/faithful-index/minhash-neighbors/meta"
	"github.com/stretchr/testify/require"
)

func TestHeaderMeta(t *testing.T) {
	require.Equal(t, (255), meta.MaxKeySize)
	require.Equal(t, (255), meta.MaxValueSize)
	require.Equal(t, (255), meta.MaxNumKVs)

	var m meta.Meta
	require.NoError(t, m.Add([]byte("foo"), []byte("bar")))
	require.NoError(t, m.Add([]byte("foo"), []byte("baz")))

	require.Equal(t, 2, m.Count([]byte("foo")))

	got, ok := m.Get([]byte("foo"))
	require.True(t, ok)
	require.Equal(t, []byte("bar"), got)

	require.Equal(t, [][]byte{[]byte("bar"), []byte("baz")}, m.GetAll([]byte("foo")))

	require.Equal(t, [][]byte(nil), m.GetAll([]byte("bar")))

	got, ok = m.Get([]byte("bar"))
	require.False(t, ok)
	require.Equal(t, []byte(nil), got)

	require.Equal(t, 0, m.Count([]byte("bar")))

	encoded, err := m.MarshalBinary()
	require.NoError(t, err)
	{
		mustBeEncoded := concatBytes(
			[]byte{2}, // number of key-value pairs

			[]byte{3},     // length of key
			[]byte("foo"), // key

			[]byte{3},     // length of value
			[]byte("bar"), // value

			[]byte{3},     // length of key
			[]byte("foo"), // key

			[]byte{3},     // length of value
			[]byte("baz"), // value
		)
		require.Equal(t, mustBeEncoded, encoded)
	}

	var decoded meta.Meta
	require.NoError(t, decoded.UnmarshalBinary(encoded))

	require.Equal(t, m, decoded)
}

func TestIndexBuildAnnotations(t *testing.T) {
	var m meta.Meta
	require.NoError(t, m.SetNumHashFunctions(128))
	require.NoError(t, m.SetBlockSize(4))
	require.NoError(t, m.SetStorageKind(meta.StorageKindBloomier))
	require.NoError(t, m.SetBuildDigest(0xdeadbeef))

	n, ok := m.NumHashFunctions()
	require.True(t, ok)
	require.Equal(t, uint64(128), n)

	b, ok := m.BlockSize()
	require.True(t, ok)
	require.Equal(t, uint64(4), b)

	kind, ok := m.StorageKind()
	require.True(t, ok)
	require.Equal(t, meta.StorageKindBloomier, kind)

	digest, ok := m.BuildDigest()
	require.True(t, ok)
	require.Equal(t, uint64(0xdeadbeef), digest)

	// Setting again overwrites rather than duplicating the key.
	require.NoError(t, m.SetNumHashFunctions(256))
	require.Equal(t, 1, m.Count(meta.KeyNumHashFunctions))
	n, _ = m.NumHashFunctions()
	require.Equal(t, uint64(256), n)
}

func concatBytes(bs ...[]byte) []byte {
	var out []byte
	for _, b := range bs {
		out = append(out, b...)
	}
	return out
}
