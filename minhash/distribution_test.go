package minhash

import "testing"

func TestSnapshotComputesMeanAndVariance(t *testing.T) {
	r := NewDistributionReporter()
	d := r.Snapshot([]int{1, 2, 3, 4, 5})
	if d.Min != 1 || d.Max != 5 {
		t.Fatalf("Min/Max = %d/%d, want 1/5", d.Min, d.Max)
	}
	if d.Mean != 3 {
		t.Fatalf("Mean = %v, want 3", d.Mean)
	}
	if len(d.PerComponent) != 5 {
		t.Fatalf("PerComponent length = %d, want 5", len(d.PerComponent))
	}
}

func TestSnapshotEmpty(t *testing.T) {
	r := NewDistributionReporter()
	d := r.Snapshot(nil)
	if d.Mean != 0 || len(d.PerComponent) != 0 {
		t.Fatalf("expected zero-value Distribution for empty input, got %+v", d)
	}
}
