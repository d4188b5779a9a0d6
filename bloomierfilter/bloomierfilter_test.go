package bloomierfilter

import "testing"

func TestCreateThenGetRoundTrip(t *testing.T) {
	f := New(2003, 3, 8, 777, 10)
	keys := []uint64{11, 22, 33, 44, 55}

	for i, k := range keys {
		f.Create(k, uint64(i)+100)
	}

	for i, k := range keys {
		got, ok := f.Get(k)
		if !ok {
			t.Fatalf("key %d: expected a hit after Create", k)
		}
		want := uint64(i) + 100
		found := false
		for _, v := range got {
			if v == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("key %d: posting list %v missing expected value %d", k, got, want)
		}
	}
}

func TestGetMissingKeyMiss(t *testing.T) {
	f := New(2003, 3, 8, 777, 10)
	keys := []uint64{11, 22, 33}
	for i, k := range keys {
		f.Create(k, uint64(i))
	}

	if _, ok := f.Get(999999); ok {
		t.Fatalf("expected miss for a key never created")
	}
}

func TestSetAppendsToExistingBin(t *testing.T) {
	f := New(2003, 3, 8, 777, 10)
	keys := []uint64{11, 22, 33}
	for i, k := range keys {
		f.Create(k, uint64(i))
	}

	k := keys[0]
	f.Set(k, 9999)
	got, ok := f.Get(k)
	if !ok {
		t.Fatalf("expected hit after Set on existing key")
	}
	found := false
	for _, v := range got {
		if v == 9999 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected appended value 9999 in posting list, got %v", got)
	}
}

func TestSetOverflowDisablesBin(t *testing.T) {
	f := New(2003, 3, 8, 777, 2)
	f.Create(11, 1)

	f.Set(11, 2) // bin now at maxBinSize (2)
	f.Set(11, 3) // should clear (disable) the bin, not append

	got, ok := f.Get(11)
	if !ok {
		t.Fatalf("expected the slot to still resolve to a (now empty) bin")
	}
	if len(got) != 0 {
		t.Fatalf("expected disabled bin to be empty, got %v", got)
	}

	f.Set(11, 4) // a disabled (len 0) bin must stay disabled
	got, _ = f.Get(11)
	if len(got) != 0 {
		t.Fatalf("expected disabled bin to remain empty after further Set, got %v", got)
	}
}

func TestCreateFreshKeyAfterSetMiss(t *testing.T) {
	f := New(2003, 3, 8, 777, 10)
	f.Set(7, 70) // key never seen before -> falls through to Create
	got, ok := f.Get(7)
	if !ok || len(got) != 1 || got[0] != 70 {
		t.Fatalf("expected Set on unseen key to create it, got %v ok=%v", got, ok)
	}
}
