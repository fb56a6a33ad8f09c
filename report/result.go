package report

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/xid"

	"github.com/tue-es/gpu-cache-model/decompose"
	"github.com/tue-es/gpu-cache-model/hwconfig"
	"github.com/tue-es/gpu-cache-model/internal/ordered"
	"github.com/tue-es/gpu-cache-model/reuse"
)

// outPath returns output/<bench>/<kernel>.out, the layout the original
// tool writes its result file to.
func outPath(root, bench, kernel string) string {
	return filepath.Join(root, bench, kernel+".out")
}

// WriteResult writes the .out file for one kernel: hardware geometry,
// the sorted reuse-distance histogram, and the categorized miss counts.
// It returns the per-run correlation id stamped into the file, so the
// caller can propagate it to history.Store / status.
func WriteResult(root, bench, kernel string, hw hwconfig.Settings, normalHistogram map[uint64]uint64, b decompose.Breakdown) (string, error) {
	path := outPath(root, bench, kernel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	runID := xid.New().String()

	fmt.Fprintf(w, "run_id: %s\n", runID)
	fmt.Fprintf(w, "line_size: %d\n", hw.LineSize)
	fmt.Fprintf(w, "cache_bytes: %d\n", hw.CacheBytes)
	fmt.Fprintf(w, "cache_lines: %d\n", hw.CacheLines)
	fmt.Fprintf(w, "cache_ways: %d\n", hw.CacheWays)
	fmt.Fprintf(w, "cache_sets: %d\n", hw.CacheSets)
	fmt.Fprintf(w, "\nhistogram:\n")

	for _, distance := range sortedDistances(normalHistogram) {
		fmt.Fprintf(w, "%s %d\n", distanceLabel(distance), normalHistogram[distance])
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "modelled_accesses: %d\n", b.TotalAccesses)
	fmt.Fprintf(w, "modelled_misses(compulsory): %d\n", b.Compulsory)
	fmt.Fprintf(w, "modelled_misses(capacity): %d\n", b.Capacity)
	fmt.Fprintf(w, "modelled_misses(associativity): %d\n", b.Associativity)
	fmt.Fprintf(w, "modelled_misses(latency): %d\n", b.Latency)
	fmt.Fprintf(w, "modelled_misses(mshr): %d\n", b.MSHR)
	fmt.Fprintf(w, "modelled_misses(tot_associativity): %d\n", b.TotalAssociativity)
	fmt.Fprintf(w, "modelled_misses(tot_latency): %d\n", b.TotalLatency)
	fmt.Fprintf(w, "modelled_misses(tot_mshr): %d\n", b.TotalMSHR)
	fmt.Fprintf(w, "modelled_hits: %d\n", b.Hits)
	fmt.Fprintf(w, "modelled_miss_rate: %g\n", b.MissRate())

	if err := w.Flush(); err != nil {
		return "", err
	}
	return runID, nil
}

// PrintWarnings surfaces decompose.Breakdown.Warnings through p.Warn,
// matching io.cpp's #ifdef ENABLE_WARNINGS block.
func PrintWarnings(p *Printer, b decompose.Breakdown) {
	for _, w := range b.Warnings() {
		p.Warn(w)
	}
}

func sortedDistances(h map[uint64]uint64) []uint64 {
	ds := make([]uint64, 0, len(h))
	for d := range h {
		ds = append(ds, d)
	}
	sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
	return ds
}

func distanceLabel(d uint64) string {
	if d == reuse.Infinite {
		return "inf"
	}
	return fmt.Sprintf("%d", d)
}

// PrintTopDistances prints up to PrintMaxDistances histogram entries,
// most-frequent first, via p, matching io.cpp's reverse-sorted-by-frequency
// stdout view with "[inf]" rendering for the infinite bucket.
func PrintTopDistances(p *Printer, h map[uint64]uint64) {
	hist := ordered.NewHistogram(h)
	p.Info("Printing results as [reuse_distance] => frequency:")
	hist.Top(PrintMaxDistances, func(d uint64) bool { return d == reuse.Infinite },
		func(distance, frequency uint64, isInf bool) {
			if isInf {
				p.Info("%%%% [inf] => %d", frequency)
			} else {
				p.Info("%%%% [%d] => %d", distance, frequency)
			}
		})
}

// MergeVerifier reads output/<bench>/<kernel>.prof (two whitespace/
// newline-separated integers: hit count then miss count, matching
// verify_miss_rate's parse) and appends verified_* lines to the .out
// file already written by WriteResult. Absence of the .prof file is not
// an error: it means no hardware run exists to verify against yet.
func MergeVerifier(root, bench, kernel string, p *Printer) error {
	profPath := filepath.Join(root, bench, kernel+".prof")
	profFile, err := os.Open(profPath)
	if err != nil {
		if os.IsNotExist(err) {
			p.Info("No verifier data information available, skipping verification")
			return nil
		}
		return err
	}
	defer profFile.Close()

	var values []uint64
	sc := bufio.NewScanner(profFile)
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		var v uint64
		if _, err := fmt.Sscanf(sc.Text(), "%d", &v); err == nil {
			values = append(values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}

	var hit, miss uint64
	if len(values) > 0 {
		hit = values[0]
	}
	if len(values) > 1 {
		miss = values[1]
	}

	total := hit + miss
	var missRate float64
	if total > 0 {
		missRate = 100 * float64(miss) / float64(total)
	}

	p.Info("Cache miss rate according to verification data:")
	p.Info("\t Total accesses: %d", total)
	p.Info("\t Misses: %d", miss)
	p.Info("\t Hits: %d", hit)
	p.Info("\t Miss rate: %g%%", missRate)

	out, err := os.OpenFile(outPath(root, bench, kernel), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "\nverified_misses: %d\n", miss)
	fmt.Fprintf(w, "verified_hits: %d\n", hit)
	fmt.Fprintf(w, "verified_miss_rate: %g\n", missRate)
	return w.Flush()
}
