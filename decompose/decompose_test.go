package decompose

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tue-es/gpu-cache-model/reuse"
)

func syntheticRuns() []Run {
	runs := make([]Run, NumCases)
	runs[caseNormal] = Run{
		EffectiveWays: 2,
		Histogram:     map[uint64]uint64{reuse.Infinite: 5, 3: 2, 1: 10},
	}
	runs[caseFullyAssociative] = Run{
		EffectiveWays: 8,
		Histogram:     map[uint64]uint64{reuse.Infinite: 5, 1: 12},
	}
	runs[caseZeroLatency] = Run{
		EffectiveWays: 2,
		Histogram:     map[uint64]uint64{reuse.Infinite: 3, 1: 14},
	}
	runs[caseInfiniteMSHR] = Run{
		EffectiveWays: 2,
		Histogram:     map[uint64]uint64{reuse.Infinite: 5, 3: 1, 1: 11},
	}
	return runs
}

var _ = Describe("Decompose", func() {
	It("redistributes a negative residual from mshr to latency before associativity", func() {
		b := Decompose(syntheticRuns())

		Expect(b.Compulsory).To(Equal(int64(3)))
		Expect(b.Capacity).To(Equal(int64(0)))
		Expect(b.Associativity).To(Equal(int64(2)))
		Expect(b.Latency).To(Equal(int64(1)))
		Expect(b.MSHR).To(Equal(int64(1)))

		Expect(b.TotalAssociativity).To(Equal(int64(5)))
		Expect(b.TotalLatency).To(Equal(int64(3)))
		Expect(b.TotalMSHR).To(Equal(int64(6)))

		Expect(b.Hits).To(Equal(int64(10)))
		Expect(b.TotalMisses).To(Equal(int64(7)))
		Expect(b.TotalAccesses).To(Equal(int64(17)))
	})

	It("computes the miss rate as a percentage of total accesses", func() {
		b := Decompose(syntheticRuns())
		Expect(b.MissRate()).To(BeNumerically("~", 100*7.0/17.0, 0.0001))
	})

	It("returns zero miss rate for zero accesses", func() {
		var b Breakdown
		Expect(b.MissRate()).To(Equal(0.0))
	})

	It("flags a run whose miss count badly exceeds the normal run's total", func() {
		b := Breakdown{TotalMisses: 10, TotalAssociativity: 100}
		warnings := b.Warnings()
		Expect(warnings).To(HaveLen(1))
		Expect(warnings[0]).To(ContainSubstring("fully-associative"))
	})

	It("raises no warnings when every run stays within the factor", func() {
		b := Breakdown{TotalMisses: 10, TotalAssociativity: 12, TotalLatency: 12, TotalMSHR: 12}
		Expect(b.Warnings()).To(BeEmpty())
	})
})

var _ = Describe("MergeRuns", func() {
	It("sums histograms bucket by bucket across cores", func() {
		core1 := []Run{
			{Histogram: map[uint64]uint64{reuse.Infinite: 2}, GrandTotal: 2, EffectiveWays: 2},
			{Histogram: map[uint64]uint64{reuse.Infinite: 2}, GrandTotal: 2},
			{Histogram: map[uint64]uint64{reuse.Infinite: 2}, GrandTotal: 2},
			{Histogram: map[uint64]uint64{reuse.Infinite: 2}, GrandTotal: 2},
		}
		core2 := []Run{
			{Histogram: map[uint64]uint64{reuse.Infinite: 3, 1: 1}, GrandTotal: 4},
			{Histogram: map[uint64]uint64{reuse.Infinite: 4}, GrandTotal: 4},
			{Histogram: map[uint64]uint64{reuse.Infinite: 4}, GrandTotal: 4},
			{Histogram: map[uint64]uint64{reuse.Infinite: 4}, GrandTotal: 4},
		}

		merged := MergeRuns([][]Run{core1, core2})

		Expect(merged[caseNormal].Histogram[reuse.Infinite]).To(Equal(uint64(5)))
		Expect(merged[caseNormal].Histogram[uint64(1)]).To(Equal(uint64(1)))
		Expect(merged[caseNormal].GrandTotal).To(Equal(uint64(6)))
		Expect(merged[caseNormal].EffectiveWays).To(Equal(uint32(2)))
		Expect(merged[caseNormal].HistogramSanityOK).To(BeTrue())
	})

	It("returns empty-but-initialized runs for no cores", func() {
		merged := MergeRuns(nil)
		Expect(merged).To(HaveLen(NumCases))
		Expect(merged[0].Histogram).To(BeEmpty())
	})
})
