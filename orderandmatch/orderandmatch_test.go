package orderandmatch

import (
	"testing"

	"github.com/faithful-index/minhash-neighbors/bloomierhash"
)

func TestFindProducesSingletonPerKey(t *testing.T) {
	h := bloomierhash.New(401, 3, 8, 1000)
	f := New(h)

	keys := []uint64{1, 2, 3, 4, 5, 6, 7, 8}
	f.Find(keys)

	pi := f.Pi()
	tau := f.Tau()
	if len(pi) != len(tau) {
		t.Fatalf("Pi/Tau length mismatch: %d vs %d", len(pi), len(tau))
	}
	if len(pi) == 0 {
		t.Fatalf("expected at least one key admitted")
	}
	for i, k := range pi {
		if tau[i] < 0 || tau[i] >= h.K {
			t.Fatalf("key %d: tau index %d out of range [0,%d)", k, tau[i], h.K)
		}
	}
}

func TestGetSeedTriState(t *testing.T) {
	h := bloomierhash.New(401, 3, 8, 1000)
	f := New(h)

	if state, _ := f.GetSeed(42); state != SeedUnseen {
		t.Fatalf("expected SeedUnseen before admission, got %v", state)
	}

	f.Find([]uint64{42})

	state, _ := f.GetSeed(42)
	if state == SeedUnseen {
		t.Fatalf("expected key to be admitted")
	}
}

func TestFindIsDeterministic(t *testing.T) {
	keys := []uint64{10, 20, 30, 40, 50}

	h1 := bloomierhash.New(601, 3, 8, 2024)
	f1 := New(h1)
	f1.Find(keys)

	h2 := bloomierhash.New(601, 3, 8, 2024)
	f2 := New(h2)
	f2.Find(keys)

	pi1, tau1 := f1.Pi(), f1.Tau()
	pi2, tau2 := f2.Pi(), f2.Tau()
	if len(pi1) != len(pi2) {
		t.Fatalf("non-deterministic pi length: %d vs %d", len(pi1), len(pi2))
	}
	for i := range pi1 {
		if pi1[i] != pi2[i] || tau1[i] != tau2[i] {
			t.Fatalf("non-deterministic result at %d: (%d,%d) vs (%d,%d)", i, pi1[i], tau1[i], pi2[i], tau2[i])
		}
	}
}

func TestBitsetSetGet(t *testing.T) {
	b := newBitset(200)
	if b.get(150) {
		t.Fatalf("expected bit 150 unset initially")
	}
	b.set(150)
	if !b.get(150) {
		t.Fatalf("expected bit 150 set after Set")
	}
	if b.get(151) {
		t.Fatalf("expected bit 151 to remain unset")
	}
}
