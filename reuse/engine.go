// Package reuse implements the reuse-distance simulation core: the
// per-set partial-sum tree bookkeeping, the cooperative warp-pool
// execution loop, MSHR back-pressure, and commit-at-arrival accounting.
package reuse

import (
	"fmt"

	pkgmath "github.com/pkg/math"

	"github.com/tue-es/gpu-cache-model/cachemap"
	"github.com/tue-es/gpu-cache-model/hwconfig"
	"github.com/tue-es/gpu-cache-model/internal/randlat"
	"github.com/tue-es/gpu-cache-model/trace"
	"github.com/tue-es/gpu-cache-model/tree"
	"github.com/tue-es/gpu-cache-model/warppool"
)

// InfiniteMSHR, passed as Params.NumMSHR, disables MSHR back-pressure
// entirely (the "unlimited MSHRs" decomposition run).
const InfiniteMSHR = ^uint32(0)

// Params is the per-run configuration the engine simulates against: a
// decompose run varies these independently of the base hwconfig.Settings
// (e.g. folding all sets into one for the full-associativity comparison).
type Params struct {
	CacheSets     uint32
	CacheWays     uint32
	LineSize      uint32
	WarpSize      uint32
	MemLatency    uint32
	NonMemLatency uint32
	NumMSHR       uint32
	HashMode      hwconfig.HashMode
	ActiveBlocks  uint32
}

// FromSettings derives the default (case 0, "normal") run parameters from
// a hardware configuration.
func FromSettings(s hwconfig.Settings) Params {
	return Params{
		CacheSets:     s.CacheSets,
		CacheWays:     s.CacheWays,
		LineSize:      s.LineSize,
		WarpSize:      s.WarpSize,
		MemLatency:    s.MemLatency,
		NonMemLatency: s.NonMemLatency,
		NumMSHR:       s.NumMSHR,
		HashMode:      s.HashMode,
	}
}

// Result is the outcome of one engine run: the reuse-distance histogram
// merged across every set, and the grand total of accesses accounted
// for, for the caller's sanity check against the histogram sum.
type Result struct {
	Histogram  map[uint64]uint64
	GrandTotal uint64
}

// Engine drives the warp-pool simulation loop described in §4.5. It holds
// no state across Run calls; each Run is a fresh simulation pass over the
// same thread/warp/block tables under possibly different Params, as the
// four-run decomposition driver requires.
type Engine struct {
	jitter randlat.Sampler
}

// NewEngine returns an Engine that samples memory-latency jitter from the
// given Sampler.
func NewEngine(jitter randlat.Sampler) *Engine {
	return &Engine{jitter: jitter}
}

func ceilDivU(a, b uint32) uint32 {
	return (a + b - 1) / b
}

// Run simulates one core's execution: core lists the block ids assigned
// to it, blocks maps a block id to its warp ids, warps maps a warp id to
// its thread ids, and threads is the full thread table (accesses plus
// scheduling state). p.ActiveBlocks caps how many blocks run concurrently
// before the next group is admitted.
func (e *Engine) Run(core []uint32, blocks, warps [][]uint32, threads []trace.Thread, p Params) (Result, error) {
	if p.ActiveBlocks == 0 {
		return Result{}, fmt.Errorf("reuse: active blocks must be positive")
	}

	numTotal, grandTotal, err := countAccesses(threads, p)
	if err != nil {
		return Result{}, err
	}

	trees := make([]*tree.Tree, p.CacheSets)
	counters := make([]uint64, p.CacheSets)
	for set := uint32(0); set < p.CacheSets; set++ {
		trees[set] = tree.New(uint64(numTotal[set]) + stackExtraSize)
		counters[set] = 1
	}
	p_ := newLastUse()

	histogram := make(map[uint64]uint64)
	var timestamp uint64

	numGroups := ceilDivU(uint32(len(core)), p.ActiveBlocks)
	for snum := uint32(0); snum < numGroups; snum++ {
		pool := warppool.NewPool()
		start := snum * p.ActiveBlocks
		stop := (snum + 1) * p.ActiveBlocks
		if stop > uint32(len(core)) {
			stop = uint32(len(core))
		}
		for bnum := start; bnum < stop; bnum++ {
			bid := core[bnum]
			for _, wid := range blocks[bid] {
				pool.Add(wid, 0)
			}
		}
		pool.SetSize()

		requestsHit := make([]*warppool.Requests, p.CacheSets)
		requestsMiss := make([]*warppool.Requests, p.CacheSets)
		for set := range requestsHit {
			requestsHit[set] = warppool.NewRequests()
			requestsMiss[set] = warppool.NewRequests()
		}

		for !pool.AllDone() {
			var numMissRequests uint64
			for set := range requestsMiss {
				numMissRequests += uint64(requestsMiss[set].NumUnique())
			}

			if pool.HasReady() {
				wnum := pool.Take()
				warp := warps[wnum]

				// A warp can end up with zero threads when the last
				// block is only partly filled with threads; such a warp
				// has nothing to schedule and is immediately done.
				if len(warp) == 0 {
					pool.MarkDone()
					commitAll(requestsHit, requestsMiss, timestamp, p_, trees, counters)
					pool.Tick()
					timestamp++
					continue
				}

				maxFutureTime := uint32(0)
				threadsDone := 0

				bytes := threads[warp[0]].NextBytes()
				portions := pkgmath.MaxUint32(1, bytes/4)

				for portion := uint32(0); portion < portions; portion++ {
					tnumStart := portion * (p.WarpSize / portions)
					tnumStop := (portion + 1) * (p.WarpSize / portions)

					for tnum := tnumStart; tnum < tnumStop && tnum < uint32(len(warp)); tnum++ {
						tid := warp[tnum]
						if threads[tid].IsDone() {
							threadsDone++
							continue
						}

						access, err := threads[tid].Schedule()
						if err != nil {
							return Result{}, err
						}
						if access.Width == 0 {
							continue
						}

						rolledBack := e.issue(issueArgs{
							p_:              p_,
							trees:           trees,
							counters:        counters,
							requestsHit:     requestsHit,
							requestsMiss:    requestsMiss,
							histogram:       histogram,
							timestamp:       timestamp,
							params:          p,
							numMissRequests: numMissRequests,
							maxFutureTime:   &maxFutureTime,
							canRollback:     tnum == 0,
							lineAddr:        access.Address / uint64(p.LineSize),
						})
						if rolledBack {
							threads[tid].Unschedule()
							maxFutureTime = 0
							break
						}

						// Open Question 3: a straddling access's second
						// line is tracked against P too, for consistency
						// with the pre-count pass. It can never trigger
						// rollback: the primary line already committed
						// to a request queue by this point.
						secondLine := access.EndAddress / uint64(p.LineSize)
						if secondLine != access.Address/uint64(p.LineSize) {
							e.issue(issueArgs{
								p_:              p_,
								trees:           trees,
								counters:        counters,
								requestsHit:     requestsHit,
								requestsMiss:    requestsMiss,
								histogram:       histogram,
								timestamp:       timestamp,
								params:          p,
								numMissRequests: numMissRequests,
								maxFutureTime:   &maxFutureTime,
								canRollback:     false,
								lineAddr:        secondLine,
							})
						}
					}

					commitAll(requestsHit, requestsMiss, timestamp, p_, trees, counters)
				}

				if threadsDone == len(warp) {
					pool.MarkDone()
				} else {
					pool.Add(wnum, maxFutureTime)
				}
			}

			commitAll(requestsHit, requestsMiss, timestamp, p_, trees, counters)
			pool.Tick()
			timestamp++
		}
	}

	for tid := range threads {
		threads[tid].Reset()
	}

	return Result{Histogram: histogram, GrandTotal: grandTotal}, nil
}

// countAccesses runs the pre-count pass of §4.5 step 1: it walks every
// thread's coalesced access list once to size each set's tree, and
// returns the grand total of non-zero-width line touches (a straddling
// access counts for both of its sets, matching the pre-count pass).
func countAccesses(threads []trace.Thread, p Params) ([]uint32, uint64, error) {
	numTotal := make([]uint32, p.CacheSets)
	var grandTotal uint64

	for tid := range threads {
		for !threads[tid].IsDone() {
			access, err := threads[tid].Schedule()
			if err != nil {
				return nil, 0, err
			}
			if access.Width == 0 {
				continue
			}
			lineAddr := access.Address / uint64(p.LineSize)
			set := cachemap.SetOf(lineAddr, p.HashMode, p.CacheSets)
			numTotal[set]++
			grandTotal++

			lineAddr2 := access.EndAddress / uint64(p.LineSize)
			if lineAddr2 != lineAddr {
				set2 := cachemap.SetOf(lineAddr2, p.HashMode, p.CacheSets)
				numTotal[set2]++
				grandTotal++
			}
		}
		threads[tid].Reset()
	}
	return numTotal, grandTotal, nil
}
