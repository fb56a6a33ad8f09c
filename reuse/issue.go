package reuse

import (
	"github.com/tue-es/gpu-cache-model/cachemap"
	"github.com/tue-es/gpu-cache-model/tree"
	"github.com/tue-es/gpu-cache-model/warppool"
)

// issueArgs bundles the state issue needs. Grouped into a struct rather
// than a long positional parameter list, since this call site appears
// twice per access (primary line, then a straddled second line).
type issueArgs struct {
	p_              *lastUse
	trees           []*tree.Tree
	counters        []uint64
	requestsHit     []*warppool.Requests
	requestsMiss    []*warppool.Requests
	histogram       map[uint64]uint64
	timestamp       uint64
	params          Params
	numMissRequests uint64
	maxFutureTime   *uint32
	canRollback     bool
	lineAddr        uint64
}

// issue evaluates one line address at issue time: looks up its reuse
// distance against the stale tree, records the histogram bucket,
// classifies hit or miss, and enqueues the resulting request for commit
// at its arrival time. When canRollback is set and the MSHR pool is
// already full, it reports a rollback instead of enqueuing anything,
// leaving the caller to unschedule the access and retry the warp with
// zero delay.
func (e *Engine) issue(a issueArgs) (rolledBack bool) {
	p := a.params
	set := cachemap.SetOf(a.lineAddr, p.HashMode, p.CacheSets)

	distance := Infinite
	if previous, ok := a.p_.Get(a.lineAddr); ok {
		distance = a.trees[set].Count(previous)
	}

	isMiss := distance >= uint64(p.CacheWays)
	if isMiss {
		latency := uint64(p.MemLatency) + uint64(e.jitter.Jitter())
		arrival := a.timestamp + latency
		if latency > uint64(*a.maxFutureTime) {
			*a.maxFutureTime = uint32(latency)
		}

		if a.canRollback && a.numMissRequests >= uint64(p.NumMSHR) {
			return true
		}

		a.requestsMiss[set].Enqueue(arrival, a.lineAddr)
	} else {
		arrival := a.timestamp + uint64(p.NonMemLatency)
		a.requestsHit[set].Enqueue(arrival, a.lineAddr)
	}

	a.histogram[distance]++
	return false
}
