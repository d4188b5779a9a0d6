package mhash

import "testing"

func TestHashDeterministic(t *testing.T) {
	a := Hash(42, 1000, 7)
	b := Hash(42, 1000, 7)
	if a != b {
		t.Fatalf("Hash not deterministic: %d != %d", a, b)
	}
	if a >= 1000 {
		t.Fatalf("Hash(42, 1000, 7) = %d, want < 1000", a)
	}
}

func TestHashVariesWithSeed(t *testing.T) {
	seen := map[uint64]bool{}
	for seed := uint64(1); seed <= 20; seed++ {
		seen[Hash(42, MaxValue, seed)] = true
	}
	if len(seen) < 15 {
		t.Fatalf("expected hash to vary across seeds, got %d distinct values out of 20", len(seen))
	}
}

// TestSignatureDeterminism is spec Scenario A: same features, H=4, b=2,
// computed twice, must be bitwise equal.
func TestSignatureDeterminism(t *testing.T) {
	features := []uint64{3, 7, 9}
	p := Params{NumHashFunctions: 4, BlockSize: 2}
	s1 := Signature(features, p)
	s2 := Signature(features, p)
	if len(s1) != len(s2) {
		t.Fatalf("signature lengths differ: %d vs %d", len(s1), len(s2))
	}
	for i := range s1 {
		if s1[i] != s2[i] {
			t.Fatalf("signature component %d differs: %d vs %d", i, s1[i], s2[i])
		}
	}
}

func TestSignatureLength(t *testing.T) {
	p := Params{NumHashFunctions: 10, BlockSize: 3}
	got := Signature([]uint64{1, 2, 3}, p)
	if len(got) != p.SignatureLength() {
		t.Fatalf("signature length = %d, want %d", len(got), p.SignatureLength())
	}
	if p.SignatureLength() != 5 { // ceil(10/3) + 1 = 4 + 1
		t.Fatalf("SignatureLength() = %d, want 5", p.SignatureLength())
	}
}

func TestSignatureEmptyFeatures(t *testing.T) {
	p := Params{NumHashFunctions: 4, BlockSize: 2}
	got := Signature(nil, p)
	if len(got) != p.SignatureLength() {
		t.Fatalf("signature length = %d, want %d", len(got), p.SignatureLength())
	}
}

func TestSignatureIDCollision(t *testing.T) {
	a := SignatureID([]uint64{1, 2, 3})
	b := SignatureID([]uint64{1, 2, 3})
	c := SignatureID([]uint64{1, 2, 4})
	if a != b {
		t.Fatalf("identical feature sets should share a signature id")
	}
	if a == c {
		t.Fatalf("different feature sets collided on signature id (unlucky, but check the test fixture)")
	}
}
