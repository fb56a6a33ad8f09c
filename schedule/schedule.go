// Package schedule assigns threads to warps, blocks and cores, and
// coalesces same-line accesses within a warp before the reuse-distance
// engine sees them.
package schedule

import (
	"github.com/tue-es/gpu-cache-model/hwconfig"
	"github.com/tue-es/gpu-cache-model/trace"
)

// Tables groups the thread ids belonging to each warp, the warp ids
// belonging to each block, and the block ids belonging to each core, in
// schedule order. The reuse-distance engine walks Cores/Blocks/Warps to
// fill its warp pool; Warps is also what Coalesce operates over.
type Tables struct {
	Warps  [][]uint32
	Blocks [][]uint32
	Cores  [][]uint32
}

func ceilDiv(a, b uint32) uint32 {
	return (a + b - 1) / b
}

// Build assigns every thread in threads a warp id (via SetWarp) according
// to blockSize and the warp size in hw, groups warps into per-core
// dispatch order, and coalesces same-line accesses within each warp.
//
// Block ids are not recorded on the threads themselves: nothing downstream
// of scheduling reads a thread's block id, mirroring scheduler.cpp, which
// computes the block id only to derive the core id.
func Build(threads []trace.Thread, blockSize uint32, hw hwconfig.Settings) Tables {
	warpsPerBlock := ceilDiv(blockSize, hw.WarpSize)
	numBlocks := ceilDiv(uint32(len(threads)), blockSize)
	numWarps := warpsPerBlock * numBlocks

	warps := make([][]uint32, numWarps)
	for tid := range threads {
		t := uint32(tid)
		wid := (t%blockSize)/hw.WarpSize + (t/blockSize)*warpsPerBlock
		threads[tid].SetWarp(wid)
		warps[wid] = append(warps[wid], t)
	}

	// Every warp belongs to exactly one block, in index order, regardless
	// of whether it ended up with any threads.
	blocks := make([][]uint32, numBlocks)
	for wid := uint32(0); wid < numWarps; wid++ {
		bid := wid / warpsPerBlock
		blocks[bid] = append(blocks[bid], wid)
	}

	// Every block belongs to exactly one core, round-robin by block index.
	cores := make([][]uint32, hw.NumCores)
	for bid := uint32(0); bid < numBlocks; bid++ {
		cid := bid % hw.NumCores
		cores[cid] = append(cores[cid], bid)
	}

	Coalesce(threads, warps, hw.LineSize, hw.WarpSize)

	return Tables{Warps: warps, Blocks: blocks, Cores: cores}
}

// groupSize returns the schedule-group size for accesses of the given byte
// width: half a warp for 8-byte accesses, a quarter warp for 16-byte
// accesses, and a full warp otherwise (CUDA programming guide section
// G.4.2, "Global Memory").
func groupSize(warpSize, bytes uint32) uint32 {
	switch bytes {
	case 8:
		return warpSize / 2
	case 16:
		return warpSize / 4
	default:
		return warpSize
	}
}

// Coalesce zeroes the Width of every access that falls on the same cache
// line as an earlier access at the same position in another thread's
// access list, within the same schedule group of a warp. The earlier
// access absorbing a coalesced one has its Width incremented and its
// EndAddress widened to cover the later access, unless the two addresses
// are identical (a true duplicate, which needs no widening).
//
// Coalescing is computed once, up front, by access-list position rather
// than by runtime program counter: threads in a warp are assumed to reach
// position N together, matching scheduler.cpp.
func Coalesce(threads []trace.Thread, warps [][]uint32, lineSize, warpSize uint32) {
	for _, warp := range warps {
		coalesceWarp(threads, warp, lineSize, warpSize)
	}
}

func coalesceWarp(threads []trace.Thread, warp []uint32, lineSize, warpSize uint32) {
	done := 0
	for pos := 0; done < len(warp); pos++ {
		for tnum := 0; tnum < len(warp); tnum++ {
			tid := warp[tnum]
			accesses := threads[tid].Accesses
			if pos >= len(accesses) {
				if pos == len(accesses) {
					done++
				}
				continue
			}

			a := &accesses[pos]
			gs := int(groupSize(warpSize, a.Bytes))
			thisLine := a.Address / uint64(lineSize)
			groupStart := gs * (tnum / gs)

			for oldTnum := groupStart; oldTnum < tnum; oldTnum++ {
				oldTid := warp[oldTnum]
				old := &threads[oldTid].Accesses[pos]
				oldLine := old.Address / uint64(lineSize)
				if thisLine != oldLine {
					continue
				}
				a.Width = 0
				if a.Address != old.Address {
					if a.EndAddress > old.EndAddress {
						old.EndAddress = a.EndAddress
					}
					old.Width++
				}
				break
			}
		}
	}
}
