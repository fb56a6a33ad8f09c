package reuse

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tue-es/gpu-cache-model/tree"
	"github.com/tue-es/gpu-cache-model/warppool"
)

var _ = Describe("commitSet", func() {
	It("advances the logical counter and records the leaf on first commit", func() {
		q := warppool.NewRequests()
		q.Enqueue(5, 0x100)

		trees := []*tree.Tree{tree.New(8)}
		counters := []uint64{1}
		p := newLastUse()

		commitSet(q, 5, p, trees[0], &counters[0])

		last, ok := p.Get(0x100)
		Expect(ok).To(BeTrue())
		Expect(last).To(Equal(uint64(1)))
		Expect(counters[0]).To(Equal(uint64(2)))
	})

	It("unsets the line's previous commit before re-setting it", func() {
		q := warppool.NewRequests()
		trees := []*tree.Tree{tree.New(8)}
		counters := []uint64{1}
		p := newLastUse()

		q.Enqueue(1, 0x100)
		commitSet(q, 1, p, trees[0], &counters[0])

		q.Enqueue(2, 0x100)
		commitSet(q, 2, p, trees[0], &counters[0])

		last, ok := p.Get(0x100)
		Expect(ok).To(BeTrue())
		Expect(last).To(Equal(uint64(2)))
		Expect(counters[0]).To(Equal(uint64(3)))
	})

	It("does nothing when nothing is due at the given commit time", func() {
		q := warppool.NewRequests()
		trees := []*tree.Tree{tree.New(8)}
		counters := []uint64{1}
		p := newLastUse()

		commitSet(q, 99, p, trees[0], &counters[0])

		Expect(counters[0]).To(Equal(uint64(1)))
	})
})
