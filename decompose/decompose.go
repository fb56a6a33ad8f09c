// Package decompose runs the four reuse-distance simulation passes (the
// normal configuration, plus three passes each disabling one modeled
// effect) and turns their histograms into a miss-category breakdown.
package decompose

import (
	"fmt"
	"math/rand"

	pkgmath "github.com/pkg/math"

	"github.com/tue-es/gpu-cache-model/hwconfig"
	"github.com/tue-es/gpu-cache-model/internal/randlat"
	"github.com/tue-es/gpu-cache-model/reuse"
	"github.com/tue-es/gpu-cache-model/schedule"
	"github.com/tue-es/gpu-cache-model/trace"
)

// NumCases is the number of simulation passes the decomposition needs:
// normal, fully-associative, zero-latency, infinite-MSHR.
const NumCases = 4

const (
	caseNormal = iota
	caseFullyAssociative
	caseZeroLatency
	caseInfiniteMSHR
)

// Run is the outcome of one of the four simulation passes: its histogram
// and the effective cache-ways used to classify it (case 1 folds all
// sets into one, multiplying the effective ways accordingly).
type Run struct {
	Histogram         map[uint64]uint64
	EffectiveWays     uint32
	GrandTotal        uint64
	HistogramSanityOK bool
}

// paramsForCase derives one of the four runs' Params and latency-jitter
// standard deviation from the base (case-0) settings, per model.cpp's
// per-run overrides.
func paramsForCase(c int, base reuse.Params, baseStddev float64) (reuse.Params, float64) {
	p := base
	stddev := baseStddev
	switch c {
	case caseFullyAssociative:
		p.CacheWays = base.CacheWays * base.CacheSets
		p.CacheSets = 1
	case caseZeroLatency:
		p.MemLatency = 0
		p.NonMemLatency = 0
		stddev = 0
	case caseInfiniteMSHR:
		p.NumMSHR = reuse.InfiniteMSHR
	}
	return p, stddev
}

// RunAll executes all four passes over the same thread/warp/block tables
// and returns their results in case order. src seeds each run's
// half-normal latency-jitter sampler; the caller supplies the source
// (rather than a single shared Sampler) because the zero-latency run
// needs its own zero-stddev sampler, not a re-parameterized shared one.
func RunAll(core []uint32, tbl schedule.Tables, threads []trace.Thread, hw hwconfig.Settings, activeBlocks uint32, src rand.Source) ([]Run, error) {
	base := reuse.FromSettings(hw)
	base.ActiveBlocks = activeBlocks

	runs := make([]Run, NumCases)
	for c := 0; c < NumCases; c++ {
		p, stddev := paramsForCase(c, base, hw.MemLatencyStddev)
		jitter := randlat.New(stddev, src)
		engine := reuse.NewEngine(jitter)

		result, err := engine.Run(core, tbl.Blocks, tbl.Warps, threads, p)
		if err != nil {
			return nil, err
		}

		runs[c] = Run{
			Histogram:         result.Histogram,
			EffectiveWays:     p.CacheWays,
			GrandTotal:        result.GrandTotal,
			HistogramSanityOK: sumHistogram(result.Histogram) == result.GrandTotal,
		}
	}
	return runs, nil
}

// MergeRuns combines one set of NumCases runs per core into a single set
// of NumCases runs spanning every core, by summing each case's histogram
// bucket-by-bucket. The caller runs RunAll once per core (each core's
// blocks are scheduled independently) and merges before calling Decompose,
// matching model.cpp's per-core accumulation into a single histogram set
// before the decomposition arithmetic runs.
func MergeRuns(perCore [][]Run) []Run {
	merged := make([]Run, NumCases)
	for c := 0; c < NumCases; c++ {
		merged[c].Histogram = make(map[uint64]uint64)
		if len(perCore) > 0 {
			merged[c].EffectiveWays = perCore[0][c].EffectiveWays
		}
	}
	for _, runs := range perCore {
		for c := 0; c < NumCases; c++ {
			for distance, freq := range runs[c].Histogram {
				merged[c].Histogram[distance] += freq
			}
			merged[c].GrandTotal += runs[c].GrandTotal
		}
	}
	for c := 0; c < NumCases; c++ {
		merged[c].HistogramSanityOK = sumHistogram(merged[c].Histogram) == merged[c].GrandTotal
	}
	return merged
}

func sumHistogram(h map[uint64]uint64) uint64 {
	var total uint64
	for _, freq := range h {
		total += freq
	}
	return total
}

// Breakdown is the categorized cache miss counts derived from the four
// runs, matching io.cpp:output_miss_rate's decomposition arithmetic
// exactly, including its literal (not loosely-rounded) deficit
// redistribution: when the residual "rest" of run 0's misses left after
// assigning latency/associativity/mshr misses is negative, that deficit
// is taken back out of mshr first, then latency, then associativity, in
// that priority order, before any max(0, ...) clamping is applied.
type Breakdown struct {
	Compulsory    int64
	Capacity      int64
	Associativity int64
	Latency       int64
	MSHR          int64

	TotalAssociativity int64 // miss[1], for the "tot_associativity" field
	TotalLatency       int64 // miss[2]
	TotalMSHR          int64 // miss[3]

	Hits          int64
	TotalMisses   int64
	TotalAccesses int64
}

// Decompose turns the four runs into a Breakdown. runs must be in case
// order (RunAll's return order).
func Decompose(runs []Run) Breakdown {
	var missCompulsory, missCapacity, miss [NumCases]int64
	var hits int64

	for c := 0; c < NumCases; c++ {
		for distance, freq := range runs[c].Histogram {
			f := int64(freq)
			switch {
			case distance == reuse.Infinite:
				missCompulsory[c] += f
			case distance > uint64(runs[c].EffectiveWays):
				missCapacity[c] += f
			case c == caseNormal:
				hits += f
			}
		}
		miss[c] = missCompulsory[c] + missCapacity[c]
	}

	missAssociativity := miss[caseNormal] - miss[caseFullyAssociative]
	missLatency := missCompulsory[caseNormal] - missCompulsory[caseZeroLatency]
	missMSHR := miss[caseNormal] - miss[caseInfiniteMSHR]
	compulsory := missCompulsory[caseZeroLatency]

	rest := miss[caseNormal] - (compulsory + pkgmath.MaxInt64(0, missLatency) + pkgmath.MaxInt64(0, missAssociativity) + pkgmath.MaxInt64(0, missMSHR))
	capacity := pkgmath.MaxInt64(0, rest)
	if rest < 0 {
		switch {
		case missMSHR > -rest:
			missMSHR += rest
		case missLatency > -rest:
			missLatency += rest
		default:
			missAssociativity += rest
		}
	}

	return Breakdown{
		Compulsory:         compulsory,
		Capacity:           capacity,
		Associativity:      pkgmath.MaxInt64(0, missAssociativity),
		Latency:            pkgmath.MaxInt64(0, missLatency),
		MSHR:               pkgmath.MaxInt64(0, missMSHR),
		TotalAssociativity: miss[caseFullyAssociative],
		TotalLatency:       miss[caseZeroLatency],
		TotalMSHR:          miss[caseInfiniteMSHR],
		Hits:               hits,
		TotalMisses:        miss[caseNormal],
		TotalAccesses:      miss[caseNormal] + hits,
	}
}

// MissRate returns the percentage of accesses that missed, matching
// 100*total_misses/(float)total_accesses.
func (b Breakdown) MissRate() float64 {
	if b.TotalAccesses == 0 {
		return 0
	}
	return 100 * float64(b.TotalMisses) / float64(b.TotalAccesses)
}

// WarningFactor bounds how far a single decomposition run's miss count may
// exceed the normal run's total misses before it's flagged as suspicious,
// matching io.cpp's #ifdef ENABLE_WARNINGS threshold check.
const WarningFactor = 1.5

// Warnings returns one message per decomposition run whose total miss
// count exceeds WarningFactor times the normal run's total misses, a sign
// the run's variant configuration (full associativity, zero latency,
// infinite MSHRs) produced an implausible result worth a second look.
func (b Breakdown) Warnings() []string {
	threshold := float64(b.TotalMisses) * WarningFactor
	var warns []string
	if float64(b.TotalAssociativity) > threshold {
		warns = append(warns, fmt.Sprintf("fully-associative run's miss count (%d) exceeds %.1fx the normal run's total misses (%d)", b.TotalAssociativity, WarningFactor, b.TotalMisses))
	}
	if float64(b.TotalLatency) > threshold {
		warns = append(warns, fmt.Sprintf("zero-latency run's miss count (%d) exceeds %.1fx the normal run's total misses (%d)", b.TotalLatency, WarningFactor, b.TotalMisses))
	}
	if float64(b.TotalMSHR) > threshold {
		warns = append(warns, fmt.Sprintf("infinite-MSHR run's miss count (%d) exceeds %.1fx the normal run's total misses (%d)", b.TotalMSHR, WarningFactor, b.TotalMisses))
	}
	return warns
}
