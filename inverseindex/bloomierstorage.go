package inverseindex

import "github.com/faithful-index/minhash-neighbors/bloomierfilter"

// bloomierFilterModulo, bloomierFilterK, bloomierFilterQ and
// bloomierFilterSeed are the fixed construction parameters every
// per-component BloomierFilter is built with (m=3500, K=2, q=8,
// seed=100, plus the caller's maxBinSize).
const (
	bloomierFilterModulo = 3500
	bloomierFilterK      = 2
	bloomierFilterQ      = 8
	bloomierFilterSeed   = 100
)

// bloomierStorage is the Bloomier-filter-backed InverseIndexStorage
// variant: one BloomierFilter per component, constructed lazily on
// first insert.
//
// Since a Bloomier filter cannot enumerate the keys it holds (it is a
// compact functional representation, not an explicit map), keys are also
// tracked in a small per-component registry purely for the Size/Prune
// bookkeeping InverseIndex needs, the same role the original's
// commented-out, never-wired-up `mStoredNeighbors` map in
// bloomierFilter.cpp would have served.
type bloomierStorage struct {
	filters    []*bloomierfilter.Filter
	keys       []map[uint64]int // key -> current posting-list length, mirrored from the filter
	maxBinSize int
}

func newBloomierStorage(numComponents int, maxBinSize int) *bloomierStorage {
	return &bloomierStorage{
		filters:    make([]*bloomierfilter.Filter, numComponents),
		keys:       make([]map[uint64]int, numComponents),
		maxBinSize: maxBinSize,
	}
}

func (s *bloomierStorage) NumComponents() int { return len(s.filters) }

func (s *bloomierStorage) filterFor(component int) *bloomierfilter.Filter {
	if s.filters[component] == nil {
		s.filters[component] = bloomierfilter.New(
			bloomierFilterModulo, bloomierFilterK, bloomierFilterQ, bloomierFilterSeed, s.maxBinSize,
		)
		s.keys[component] = make(map[uint64]int)
	}
	return s.filters[component]
}

func (s *bloomierStorage) Get(component int, key uint64) ([]uint64, bool) {
	if component < 0 || component >= len(s.filters) || s.filters[component] == nil {
		return nil, false
	}
	return s.filters[component].Get(key)
}

func (s *bloomierStorage) Insert(component int, key uint64, id uint64) {
	f := s.filterFor(component)
	f.Set(key, id)
	if list, ok := f.Get(key); ok {
		s.keys[component][key] = len(list)
	}
}

func (s *bloomierStorage) Size(component int) int {
	if s.filters[component] == nil {
		return 0
	}
	count := 0
	for _, n := range s.keys[component] {
		if n > 0 {
			count++
		}
	}
	return count
}

func (s *bloomierStorage) Prune(threshold int) {
	for j, f := range s.filters {
		if f == nil {
			continue
		}
		for key, n := range s.keys[j] {
			if n <= threshold {
				f.Disable(key)
				s.keys[j][key] = 0
			}
		}
	}
}
