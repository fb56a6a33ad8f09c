// Package ordered provides a sorted (frequency, distance) view over a
// reuse-distance histogram, for the "most interesting distances" bounded
// stdout print.
package ordered

import "github.com/google/btree"

// entry is one histogram bucket: distance is the reuse distance (or
// math.MaxUint64 standing in for infinity), frequency is the access count
// that fell at that distance. Entries order by frequency, then by
// descending distance to break ties, so a descending walk reports equal
// frequencies in ascending distance order.
type entry struct {
	frequency uint64
	distance  uint64
}

// Less implements btree.Item.
func (e entry) Less(than btree.Item) bool {
	o := than.(entry)
	if e.frequency != o.frequency {
		return e.frequency < o.frequency
	}
	return e.distance > o.distance
}

// Histogram is a btree-backed sorted view of a distance->frequency map,
// supporting descending-by-frequency iteration.
type Histogram struct {
	tree *btree.BTree
}

// NewHistogram builds a Histogram from a distance->frequency map.
func NewHistogram(counts map[uint64]uint64) *Histogram {
	t := btree.New(8)
	for distance, frequency := range counts {
		t.ReplaceOrInsert(entry{frequency: frequency, distance: distance})
	}
	return &Histogram{tree: t}
}

// Top calls fn for up to n entries, most-frequent first. Infinite distance
// is reported via the isInf flag, matching io.cpp's "[inf]" rendering of
// INF-valued distances.
func (h *Histogram) Top(n int, isInf func(distance uint64) bool, fn func(distance, frequency uint64, isInf bool)) {
	count := 0
	h.tree.Descend(func(item btree.Item) bool {
		if count >= n {
			return false
		}
		e := item.(entry)
		fn(e.distance, e.frequency, isInf(e.distance))
		count++
		return true
	})
}
