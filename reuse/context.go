package reuse

// Infinite stands in for an unseen (first-use) reuse distance. Chosen as
// the maximum uint64 rather than the original model's magic 99999999, so
// "is this a miss" comparisons (`distance >= cacheWays`) hold without a
// special case.
const Infinite = ^uint64(0)

// stackExtraSize is slack added to a per-set tree's capacity beyond the
// pre-counted access total, covering accesses the pre-count pass may have
// mis-estimated a run's active tree size for. Mirrors STACK_EXTRA_SIZE.
const stackExtraSize = 256

// lastUse is P from the Bennett & Kruskal paper: the logical time (tree
// leaf index) a line address was last committed at. Absence is represented
// by the ok return, per the map-lookup idiom, never by a zero sentinel.
type lastUse struct {
	m map[uint64]uint64
}

func newLastUse() *lastUse {
	return &lastUse{m: make(map[uint64]uint64)}
}

func (l *lastUse) Get(lineAddr uint64) (uint64, bool) {
	t, ok := l.m[lineAddr]
	return t, ok
}

func (l *lastUse) Set(lineAddr, t uint64) {
	l.m[lineAddr] = t
}
