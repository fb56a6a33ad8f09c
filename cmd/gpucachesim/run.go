package main

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"

	pkgmath "github.com/pkg/math"
	"github.com/rs/xid"

	"github.com/tue-es/gpu-cache-model/decompose"
	"github.com/tue-es/gpu-cache-model/history"
	"github.com/tue-es/gpu-cache-model/hwconfig"
	"github.com/tue-es/gpu-cache-model/report"
	"github.com/tue-es/gpu-cache-model/schedule"
	"github.com/tue-es/gpu-cache-model/status"
	"github.com/tue-es/gpu-cache-model/trace"
)

func configHash(hw hwconfig.Settings) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%+v", hw)
	return fmt.Sprintf("%016x", h.Sum64())
}

// resolveActiveBlocks derives the number of blocks admitted into a warp
// group at once, matching model.cpp's main: the hardware caps resident
// blocks both by total thread slots (MaxActiveThreads/blockSize) and by
// block-slot count (MaxActiveBlocks), and a core with fewer blocks than
// that can't fill even the hardware cap.
func resolveActiveBlocks(numCoreBlocks uint32, hw hwconfig.Settings, blockSize uint32) uint32 {
	hwActiveBlocks := pkgmath.MinUint32(hw.MaxActiveThreads/blockSize, hw.MaxActiveBlocks)
	return pkgmath.MinUint32(numCoreBlocks, hwActiveBlocks)
}

func runBenchmark(benchmark string) error {
	hw, err := loadHardware()
	if err != nil {
		return fmt.Errorf("gpucachesim: %w", err)
	}

	printer := report.NewPrinter(!noColor)
	printer.Banner(hw)

	var store history.Store
	if historyDB != "" {
		store, err = history.Open(historyDB)
		if err != nil {
			return fmt.Errorf("gpucachesim: %w", err)
		}
		defer store.Close()
	}

	var statusServer *status.Server
	if httpAddr != "" {
		statusServer = status.New()
		go func() {
			if err := statusServer.ListenAndServe(httpAddr); err != nil {
				printer.Warn("status server stopped: %v", err)
			}
		}()
		defer statusServer.Close()
	}

	var reader trace.Reader = trace.FileReader{Root: traceRoot}
	return runKernels(benchmark, hw, reader, store, statusServer, printer)
}

// runKernels drives the kernel-index loop against an already-resolved
// hardware configuration and injected dependencies, so tests can swap in a
// MockReader/MockStore without touching a real trace directory or database.
func runKernels(benchmark string, hw hwconfig.Settings, reader trace.Reader, store history.Store, statusServer *status.Server, printer *report.Printer) error {
	hash := configHash(hw)

	for kernelIndex := 0; ; kernelIndex++ {
		kernelName := fmt.Sprintf("%s_%02d", benchmark, kernelIndex)

		dim, threads, err := reader.ReadKernel(benchmark, kernelName)
		if err != nil {
			if errors.Is(err, trace.ErrNotFound) {
				if kernelIndex == 0 {
					return fmt.Errorf("gpucachesim: no trace found for kernel 0 of %s", benchmark)
				}
				return nil
			}
			if errors.Is(err, trace.ErrEmpty) {
				printer.Warn("kernel %s has no load accesses, stopping", kernelName)
				return nil
			}
			return fmt.Errorf("gpucachesim: %w", err)
		}

		printer.Separator()
		printer.Info("Processing kernel %s (%d threads)", kernelName, len(threads))

		if statusServer != nil {
			statusServer.Update(status.Progress{Benchmark: benchmark, Kernel: kernelName, Phase: "scheduling"})
		}

		blockSize := dim.BlockSize()
		tbl := schedule.Build(threads, blockSize, hw)

		src := rand.NewSource(int64(xid.New().Counter()))

		var perCore [][]decompose.Run
		for cid := range tbl.Cores {
			if len(tbl.Cores[cid]) == 0 {
				continue
			}
			if statusServer != nil {
				statusServer.Update(status.Progress{
					Benchmark: benchmark, Kernel: kernelName, Phase: "simulating",
					Case: cid, NumCases: len(tbl.Cores),
				})
			}

			activeBlocks := resolveActiveBlocks(uint32(len(tbl.Cores[cid])), hw, blockSize)
			runs, err := decompose.RunAll(tbl.Cores[cid], tbl, threads, hw, activeBlocks, src)
			if err != nil {
				return fmt.Errorf("gpucachesim: kernel %s core %d: %w", kernelName, cid, err)
			}
			perCore = append(perCore, runs)
		}

		merged := decompose.MergeRuns(perCore)
		for _, r := range merged {
			if !r.HistogramSanityOK {
				printer.Warn("kernel %s: histogram total does not match access count", kernelName)
			}
		}

		breakdown := decompose.Decompose(merged)
		report.PrintWarnings(printer, breakdown)
		report.PrintTopDistances(printer, merged[0].Histogram)

		runID, err := report.WriteResult(traceRoot, benchmark, kernelName, hw, merged[0].Histogram, breakdown)
		if err != nil {
			return fmt.Errorf("gpucachesim: %w", err)
		}
		if err := report.MergeVerifier(traceRoot, benchmark, kernelName, printer); err != nil {
			printer.Warn("verifier merge failed for %s: %v", kernelName, err)
		}
		if err := report.WriteProfile(traceRoot, benchmark, kernelName, breakdown); err != nil {
			printer.Warn("profile emission failed for %s: %v", kernelName, err)
		}

		printer.Info("Kernel %s predicted miss rate: %.4f%%", kernelName, breakdown.MissRate())

		if store != nil {
			if err := store.Insert(history.Record{
				RunID:         runID,
				Benchmark:     benchmark,
				Kernel:        kernelName,
				ConfigHash:    hash,
				Compulsory:    breakdown.Compulsory,
				Capacity:      breakdown.Capacity,
				Associativity: breakdown.Associativity,
				Latency:       breakdown.Latency,
				MSHR:          breakdown.MSHR,
				Hits:          breakdown.Hits,
				TotalAccesses: breakdown.TotalAccesses,
				MissRate:      breakdown.MissRate(),
			}); err != nil {
				printer.Warn("history insert failed for %s: %v", kernelName, err)
			}
		}

		if statusServer != nil {
			statusServer.Update(status.Progress{
				Benchmark: benchmark, Kernel: kernelName, Phase: "done",
				Done: true, MissRate: breakdown.MissRate(),
			})
		}
	}
}
