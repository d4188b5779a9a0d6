package bloomierhash

import "testing"

func TestNeighborsDistinctAndInRange(t *testing.T) {
	h := New(3500, 2, 8, 100)
	for key := uint64(0); key < 50; key++ {
		n := h.Neighbors(key, h.DefaultSeed)
		if len(n) != 2 {
			t.Fatalf("key %d: got %d neighbors, want 2", key, len(n))
		}
		if n[0] == n[1] {
			t.Fatalf("key %d: neighbors not distinct: %v", key, n)
		}
		for _, slot := range n {
			if slot >= h.M {
				t.Fatalf("key %d: neighbor slot %d out of range [0,%d)", key, slot, h.M)
			}
		}
	}
}

func TestNeighborsDeterministic(t *testing.T) {
	h := New(3500, 2, 8, 100)
	a := h.Neighbors(17, h.DefaultSeed)
	b := h.Neighbors(17, h.DefaultSeed)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Neighbors not deterministic: %v vs %v", a, b)
		}
	}
}

func TestMaskWidth(t *testing.T) {
	h := New(3500, 2, 8, 100)
	if got := len(h.Mask(17, h.DefaultSeed)); got != 1 {
		t.Fatalf("Mask width = %d, want 1 (q=8 -> 1 byte)", got)
	}
	h16 := New(3500, 2, 16, 100)
	if got := len(h16.Mask(17, h16.DefaultSeed)); got != 2 {
		t.Fatalf("Mask width = %d, want 2 (q=16 -> 2 bytes)", got)
	}
}
