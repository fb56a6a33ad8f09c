package tree

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Tree", func() {
	It("counts nothing above target when empty", func() {
		t := New(5)
		Expect(t.Count(0)).To(Equal(uint64(0)))
		Expect(t.Count(4)).To(Equal(uint64(0)))
	})

	It("counts set leaves strictly above target", func() {
		t := New(5)
		t.Set(1)
		t.Set(3)
		t.Set(4)

		Expect(t.Count(0)).To(Equal(uint64(3)))
		Expect(t.Count(1)).To(Equal(uint64(2)))
		Expect(t.Count(3)).To(Equal(uint64(1)))
		Expect(t.Count(4)).To(Equal(uint64(0)))
	})

	It("stops counting a leaf once it has been unset", func() {
		t := New(5)
		t.Set(0)
		t.Set(2)
		Expect(t.Count(0)).To(Equal(uint64(1)))

		t.Unset(2)
		Expect(t.Count(0)).To(Equal(uint64(0)))
	})

	It("panics when a leaf is set twice without an intervening unset", func() {
		t := New(5)
		t.Set(2)
		Expect(func() { t.Set(2) }).To(Panic())
	})

	It("panics when an unset leaf is unset", func() {
		t := New(5)
		Expect(func() { t.Unset(2) }).To(Panic())
	})

	It("treats a zero capacity as a single-leaf tree of capacity one", func() {
		t := New(0)
		t.Set(0)
		Expect(t.Count(0)).To(Equal(uint64(0)))
	})

	It("handles a single-leaf tree", func() {
		t := New(1)
		Expect(t.Count(0)).To(Equal(uint64(0)))
		t.Set(0)
		Expect(t.value[0]).To(Equal(uint64(1)))
	})
})
