package reuse

import (
	"github.com/tue-es/gpu-cache-model/tree"
	"github.com/tue-es/gpu-cache-model/warppool"
)

// commitSet applies every request due at timestamp in one set's queue to
// that set's tree and to P, in enqueue order. Mirrors process_requests:
// the previous occurrence (if any) is unset from the tree before the new
// occurrence is set, and the set's logical clock advances once per
// committed request.
func commitSet(q *warppool.Requests, timestamp uint64, p *lastUse, t *tree.Tree, counter *uint64) {
	due := q.Take(timestamp)
	for _, req := range due {
		if previous, ok := p.Get(req.Line); ok {
			t.Unset(previous)
		}
		p.Set(req.Line, *counter)
		t.Set(*counter)
		*counter++
	}
}

// commitAll runs commitSet for every set, hits before misses, in
// ascending set order, matching reusedistance.cpp's per-tick commit scan.
func commitAll(hit, miss []*warppool.Requests, timestamp uint64, p *lastUse, trees []*tree.Tree, counters []uint64) {
	for set := range trees {
		commitSet(hit[set], timestamp, p, trees[set], &counters[set])
		commitSet(miss[set], timestamp, p, trees[set], &counters[set])
	}
}
