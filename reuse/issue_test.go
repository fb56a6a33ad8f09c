package reuse

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tue-es/gpu-cache-model/internal/randlat"
	"github.com/tue-es/gpu-cache-model/tree"
	"github.com/tue-es/gpu-cache-model/warppool"
)

func newTestFixture(cacheWays, cacheSets uint32, numMSHR uint32) (*Engine, Params, []*tree.Tree, []uint64, *lastUse, []*warppool.Requests, []*warppool.Requests, map[uint64]uint64) {
	engine := NewEngine(randlat.New(0, rand.NewSource(1)))
	params := Params{
		CacheSets:     cacheSets,
		CacheWays:     cacheWays,
		LineSize:      64,
		WarpSize:      1,
		MemLatency:    10,
		NonMemLatency: 1,
		NumMSHR:       numMSHR,
	}

	trees := make([]*tree.Tree, cacheSets)
	counters := make([]uint64, cacheSets)
	for s := uint32(0); s < cacheSets; s++ {
		trees[s] = tree.New(16)
		counters[s] = 1
	}

	p := newLastUse()
	requestsHit := make([]*warppool.Requests, cacheSets)
	requestsMiss := make([]*warppool.Requests, cacheSets)
	for s := uint32(0); s < cacheSets; s++ {
		requestsHit[s] = warppool.NewRequests()
		requestsMiss[s] = warppool.NewRequests()
	}

	return engine, params, trees, counters, p, requestsHit, requestsMiss, make(map[uint64]uint64)
}

var _ = Describe("Engine.issue", func() {
	It("classifies a first-ever line access as a compulsory miss", func() {
		engine, params, trees, counters, p, reqHit, reqMiss, histogram := newTestFixture(2, 1, InfiniteMSHR)
		var maxFuture uint32

		rolledBack := engine.issue(issueArgs{
			p_: p, trees: trees, counters: counters,
			requestsHit: reqHit, requestsMiss: reqMiss,
			histogram: histogram, timestamp: 0, params: params,
			maxFutureTime: &maxFuture, canRollback: true, lineAddr: 0x1000,
		})

		Expect(rolledBack).To(BeFalse())
		Expect(histogram[Infinite]).To(Equal(uint64(1)))
		Expect(reqMiss[0].NumUnique()).To(Equal(1))
		Expect(reqHit[0].NumUnique()).To(Equal(0))
	})

	It("classifies an immediate reuse as a hit once committed", func() {
		engine, params, trees, counters, p, reqHit, reqMiss, histogram := newTestFixture(2, 1, InfiniteMSHR)
		var maxFuture uint32

		engine.issue(issueArgs{
			p_: p, trees: trees, counters: counters,
			requestsHit: reqHit, requestsMiss: reqMiss,
			histogram: histogram, timestamp: 0, params: params,
			maxFutureTime: &maxFuture, canRollback: true, lineAddr: 0x1000,
		})
		commitAll(reqHit, reqMiss, 10, p, trees, counters)

		engine.issue(issueArgs{
			p_: p, trees: trees, counters: counters,
			requestsHit: reqHit, requestsMiss: reqMiss,
			histogram: histogram, timestamp: 11, params: params,
			maxFutureTime: &maxFuture, canRollback: true, lineAddr: 0x1000,
		})

		Expect(histogram[uint64(0)]).To(Equal(uint64(1)))
		Expect(reqHit[0].NumUnique()).To(Equal(1))
	})

	It("rolls back when MSHRs are exhausted and rollback is allowed", func() {
		engine, params, trees, counters, p, reqHit, reqMiss, histogram := newTestFixture(2, 1, 1)
		var maxFuture uint32

		rolledBack := engine.issue(issueArgs{
			p_: p, trees: trees, counters: counters,
			requestsHit: reqHit, requestsMiss: reqMiss,
			histogram: histogram, timestamp: 0, params: params,
			numMissRequests: 1, maxFutureTime: &maxFuture,
			canRollback: true, lineAddr: 0x2000,
		})

		Expect(rolledBack).To(BeTrue())
		Expect(histogram).To(BeEmpty())
		Expect(reqMiss[0].NumUnique()).To(Equal(0))
	})

	It("does not roll back when rollback is disallowed, even if MSHRs are full", func() {
		engine, params, trees, counters, p, reqHit, reqMiss, histogram := newTestFixture(2, 1, 1)
		var maxFuture uint32

		rolledBack := engine.issue(issueArgs{
			p_: p, trees: trees, counters: counters,
			requestsHit: reqHit, requestsMiss: reqMiss,
			histogram: histogram, timestamp: 0, params: params,
			numMissRequests: 1, maxFutureTime: &maxFuture,
			canRollback: false, lineAddr: 0x2000,
		})

		Expect(rolledBack).To(BeFalse())
		Expect(reqMiss[0].NumUnique()).To(Equal(1))
	})
})
