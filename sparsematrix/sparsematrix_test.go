package sparsematrix

import "testing"

func TestNewGroupsByInstance(t *testing.T) {
	m := New(
		[]uint64{1, 2, 1, 2},
		[]uint64{5, 9, 3, 1},
		[]float64{1.5, 2.0, 0.5, 3.0},
	)
	if m.NumInstances() != 2 {
		t.Fatalf("NumInstances() = %d, want 2", m.NumInstances())
	}
	row, ok := m.Row(1)
	if !ok {
		t.Fatalf("instance 1 missing")
	}
	if len(row.Features) != 2 || row.Features[0] != 3 || row.Features[1] != 5 {
		t.Fatalf("expected sorted features [3 5], got %v", row.Features)
	}
}

func TestRowMissing(t *testing.T) {
	m := New([]uint64{1}, []uint64{1}, []float64{1})
	if _, ok := m.Row(42); ok {
		t.Fatalf("expected instance 42 to be absent")
	}
}

func TestSquaredEuclideanIdentical(t *testing.T) {
	m := New(nil, nil, nil)
	m.Put(1, []uint64{1, 2, 3}, []float64{1, 2, 3})
	m.Put(2, []uint64{1, 2, 3}, []float64{1, 2, 3})
	a, _ := m.Row(1)
	b, _ := m.Row(2)
	if got := SquaredEuclidean(a, b); got != 0 {
		t.Fatalf("SquaredEuclidean(identical) = %v, want 0", got)
	}
}

func TestSquaredEuclideanDisjoint(t *testing.T) {
	m := New(nil, nil, nil)
	m.Put(1, []uint64{1}, []float64{3})
	m.Put(2, []uint64{2}, []float64{4})
	a, _ := m.Row(1)
	b, _ := m.Row(2)
	if got := SquaredEuclidean(a, b); got != 25 {
		t.Fatalf("SquaredEuclidean(disjoint) = %v, want 25", got)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	m := New(nil, nil, nil)
	m.Put(1, []uint64{1}, []float64{1})
	m.Put(2, []uint64{2}, []float64{1})
	a, _ := m.Row(1)
	b, _ := m.Row(2)
	if got := CosineSimilarity(a, b); got != 0 {
		t.Fatalf("CosineSimilarity(orthogonal) = %v, want 0", got)
	}
}
