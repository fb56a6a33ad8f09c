package reuse

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tue-es/gpu-cache-model/internal/randlat"
	"github.com/tue-es/gpu-cache-model/trace"
)

var _ = Describe("Engine.Run", func() {
	It("runs two threads touching the same fresh line to two compulsory misses", func() {
		threads := make([]trace.Thread, 2)
		threads[0].Append(trace.Access{Direction: trace.Load, Address: 0, EndAddress: 3, Bytes: 4, Width: 1})
		threads[1].Append(trace.Access{Direction: trace.Load, Address: 0, EndAddress: 3, Bytes: 4, Width: 1})

		blocks := [][]uint32{{0}}
		warps := [][]uint32{{0, 1}}
		core := []uint32{0}

		engine := NewEngine(randlat.New(0, rand.NewSource(1)))
		params := Params{
			CacheSets: 1, CacheWays: 1, LineSize: 64, WarpSize: 2,
			MemLatency: 0, NonMemLatency: 0, NumMSHR: InfiniteMSHR,
			ActiveBlocks: 1,
		}

		result, err := engine.Run(core, blocks, warps, threads, params)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Histogram[Infinite]).To(Equal(uint64(2)))
		Expect(result.GrandTotal).To(Equal(uint64(2)))
	})

	It("rejects a non-positive active-block count", func() {
		engine := NewEngine(randlat.New(0, rand.NewSource(1)))
		_, err := engine.Run(nil, nil, nil, nil, Params{})
		Expect(err).To(HaveOccurred())
	})

	// The two blocks below run one thread each: block 0's thread touches
	// line A then line B, block 1's thread touches line A again. With
	// both blocks admitted into the same group (ActiveBlocks 2), block 1's
	// repeat touch to A is scheduled cooperatively before block 0's touch
	// to B ever commits, landing at reuse distance 0. Serialized one block
	// per group (ActiveBlocks 1), block 0 fully retires — committing both
	// A and B — before block 1 starts, so the repeat touch to A lands at
	// distance 1 instead. This is the group-admission clamp resolveActiveBlocks
	// in cmd/gpucachesim feeds into.
	runTwoBlockFixture := func(activeBlocks uint32) map[uint64]uint64 {
		threads := make([]trace.Thread, 2)
		threads[0].Append(trace.Access{Direction: trace.Load, Address: 0, EndAddress: 3, Bytes: 4, Width: 1})
		threads[0].Append(trace.Access{Direction: trace.Load, Address: 64, EndAddress: 67, Bytes: 4, Width: 1})
		threads[1].Append(trace.Access{Direction: trace.Load, Address: 0, EndAddress: 3, Bytes: 4, Width: 1})

		blocks := [][]uint32{{0}, {1}}
		warps := [][]uint32{{0}, {1}}
		core := []uint32{0, 1}

		engine := NewEngine(randlat.New(0, rand.NewSource(1)))
		params := Params{
			CacheSets: 1, CacheWays: 100, LineSize: 64, WarpSize: 1,
			MemLatency: 0, NonMemLatency: 0, NumMSHR: InfiniteMSHR,
			ActiveBlocks: activeBlocks,
		}

		result, err := engine.Run(core, blocks, warps, threads, params)
		Expect(err).NotTo(HaveOccurred())
		return result.Histogram
	}

	It("interleaves block-local reuse when the hardware admits both blocks at once", func() {
		histogram := runTwoBlockFixture(2)
		Expect(histogram).To(Equal(map[uint64]uint64{Infinite: 2, 0: 1}))
	})

	It("serializes blocks into independent groups when only one fits at a time", func() {
		histogram := runTwoBlockFixture(1)
		Expect(histogram).To(Equal(map[uint64]uint64{Infinite: 2, 1: 1}))
	})
})
