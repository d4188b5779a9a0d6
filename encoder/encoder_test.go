package encoder

import "testing"

func TestRoundTrip(t *testing.T) {
	e := New(1)
	for x := uint64(0); x < 256; x++ {
		if got := e.Decode(e.Encode(x)); got != x {
			t.Fatalf("round trip failed for %d: got %d", x, got)
		}
	}
}

func TestRoundTripWiderWidth(t *testing.T) {
	e := New(2)
	for _, x := range []uint64{0, 1, 255, 256, 65535} {
		if got := e.Decode(e.Encode(x)); got != x {
			t.Fatalf("round trip failed for %d: got %d", x, got)
		}
	}
}
