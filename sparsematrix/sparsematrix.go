// Package sparsematrix holds a column-compressed view of the input corpus:
// parallel (instance, feature, value) triples grouped by instance, with
// feature ids kept sorted so Euclidean refinement can merge-walk two
// instances' feature lists in one pass.
package sparsematrix

import "sort"

// Instance is one row of the sparse matrix: sorted feature ids and their
// parallel weights.
type Instance struct {
	Features []uint64
	Values   []float64
}

// Matrix is built once per fit/query call from the flattened row-major
// corpus format and released when the operation ends: callers own it and
// simply let it go out of scope, there is no explicit Close because it
// owns no external resource.
type Matrix struct {
	rows map[uint64]*Instance
	ids  []uint64 // insertion order, stable for iteration
}

// New builds a Matrix from parallel (instanceIds, featureIds, values)
// triples, the flattened shape the CLI's corpus file uses. Triples for
// the same instanceId need not be contiguous; they are grouped here.
func New(instanceIDs, featureIDs []uint64, values []float64) *Matrix {
	m := &Matrix{rows: make(map[uint64]*Instance)}
	for i := range instanceIDs {
		id := instanceIDs[i]
		inst, ok := m.rows[id]
		if !ok {
			inst = &Instance{}
			m.rows[id] = inst
			m.ids = append(m.ids, id)
		}
		inst.Features = append(inst.Features, featureIDs[i])
		if values != nil {
			inst.Values = append(inst.Values, values[i])
		} else {
			inst.Values = append(inst.Values, 1)
		}
	}
	for _, inst := range m.rows {
		sortByFeature(inst)
	}
	return m
}

// sortByFeature sorts one instance's (feature, value) pairs ascending by
// feature id, the ordering the merge-walk distance functions assume.
func sortByFeature(inst *Instance) {
	idx := make([]int, len(inst.Features))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return inst.Features[idx[i]] < inst.Features[idx[j]] })
	features := make([]uint64, len(idx))
	values := make([]float64, len(idx))
	for i, j := range idx {
		features[i] = inst.Features[j]
		values[i] = inst.Values[j]
	}
	inst.Features, inst.Values = features, values
}

// NumInstances returns the number of rows in the matrix.
func (m *Matrix) NumInstances() int { return len(m.ids) }

// InstanceIDs returns the instance ids in the order they were first seen.
func (m *Matrix) InstanceIDs() []uint64 {
	out := make([]uint64, len(m.ids))
	copy(out, m.ids)
	return out
}

// Row returns the sorted feature/value pair for an instance, and whether it
// exists in the matrix.
func (m *Matrix) Row(instanceID uint64) (*Instance, bool) {
	inst, ok := m.rows[instanceID]
	return inst, ok
}

// Put inserts (or overwrites) one row directly, bypassing the flattened
// triple constructor, used by minhash's refinement corpus and by tests to
// build a Matrix from already-grouped data.
func (m *Matrix) Put(instanceID uint64, features []uint64, values []float64) {
	if m.rows == nil {
		m.rows = make(map[uint64]*Instance)
	}
	if _, exists := m.rows[instanceID]; !exists {
		m.ids = append(m.ids, instanceID)
	}
	inst := &Instance{Features: append([]uint64(nil), features...)}
	if values != nil {
		inst.Values = append([]float64(nil), values...)
	} else {
		inst.Values = make([]float64, len(features))
		for i := range inst.Values {
			inst.Values[i] = 1
		}
	}
	sortByFeature(inst)
	m.rows[instanceID] = inst
}
