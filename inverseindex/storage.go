package inverseindex

// Storage is the per-component posting-list backend InverseIndex drives.
// Two implementations are provided: mapStorage (native Go maps, the
// default) and bloomierStorage (wraps one bloomierfilter.Filter per
// component).
//
// Insert, Size and Prune are called while InverseIndex holds its lock
// (Insert from the single per-instance critical section); Get is also
// called without that lock by concurrent scoring workers. Implementations
// have no internal locking of their own.
type Storage interface {
	// Get returns the posting list for key in component j, and whether the
	// cell is present at all (an empty-but-present cell is the overflow
	// sentinel, distinct from "absent").
	Get(component int, key uint64) ([]uint64, bool)

	// Insert applies one instance's admission into component j's cell for
	// key, following the "absent -> create, empty -> stays disabled,
	// below cap -> append, at cap -> clear" rule.
	Insert(component int, key uint64, id uint64)

	// Size reports the number of active (present, non-empty) keys tracked
	// in component j, used by RemoveHashFunctionsBelow's mean/stddev pass.
	Size(component int) int

	// Prune drops every cell (in every component) whose posting list has
	// <= threshold entries.
	Prune(threshold int)

	// NumComponents reports how many components this storage was built
	// for.
	NumComponents() int
}
