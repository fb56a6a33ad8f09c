// Package randlat samples the half-normal memory-latency jitter the
// engine adds on top of the best-case memory latency.
package randlat

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws jitter from Normal(0, stddev) and folds it to its
// absolute, rounded value, mirroring
// mem_latency + abs(round(distribution(gen))).
type Sampler struct {
	dist distuv.Normal
}

// sourceAdapter lets a math/rand.Source back the golang.org/x/exp/rand.Source
// that gonum's distuv package requires.
type sourceAdapter struct {
	src rand.Source
}

func (a sourceAdapter) Uint64() uint64 {
	return uint64(a.src.Int63())<<1 | uint64(a.src.Int63()&1)
}

func (a sourceAdapter) Seed(seed uint64) {
	a.src.Seed(int64(seed))
}

// New returns a Sampler seeded from src. A stddev of 0 is valid: every
// draw then returns 0 without consulting src, matching a
// std::normal_distribution<> with zero variance.
func New(stddev float64, src rand.Source) Sampler {
	return Sampler{dist: distuv.Normal{Mu: 0, Sigma: stddev, Src: sourceAdapter{src: src}}}
}

// Jitter returns one non-negative latency jitter sample.
func (s Sampler) Jitter() uint32 {
	if s.dist.Sigma == 0 {
		return 0
	}
	return uint32(math.Abs(math.Round(s.dist.Rand())))
}
