package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armemu/emu"
)

var _ = Describe("Memory", func() {
	var memory *emu.Memory

	BeforeEach(func() {
		memory = emu.NewMemoryWithSize(64)
	})

	It("should default to 64 KiB", func() {
		Expect(emu.NewMemory().Size()).To(Equal(uint32(emu.DefaultMemorySize)))
	})

	It("should start zeroed", func() {
		v, err := memory.Read32(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeZero())

		words, err := memory.NonZeroWords()
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(BeEmpty())
	})

	It("should store words little-endian", func() {
		Expect(memory.Write32(8, 0x11223344)).To(Succeed())

		v, err := memory.Read32(8)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint32(0x11223344)))

		words, err := memory.NonZeroWords()
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(HaveLen(1))
		Expect(words[0].Addr).To(Equal(uint32(8)))
		Expect(words[0].Bytes).To(Equal([4]byte{0x44, 0x33, 0x22, 0x11}))
		Expect(words[0].Value()).To(Equal(uint32(0x11223344)))
		Expect(words[0].Raw()).To(Equal(uint32(0x44332211)))
	})

	It("should allow unaligned word access", func() {
		Expect(memory.Write32(1, 0xAABBCCDD)).To(Succeed())
		v, err := memory.Read32(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint32(0xAABBCCDD)))

		words, err := memory.NonZeroWords()
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(HaveLen(2))
	})

	It("should list words on both sides of a page boundary", func() {
		memory = emu.NewMemoryWithSize(3 * emu.PageSize)
		Expect(memory.Write32(emu.PageSize-2, 0x11223344)).To(Succeed())

		words, err := memory.NonZeroWords()
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(HaveLen(2))
		Expect(words[0].Addr).To(Equal(uint32(emu.PageSize - 4)))
		Expect(words[1].Addr).To(Equal(uint32(emu.PageSize)))
	})

	It("should scan a full 4 GiB memory by the pages that were written", func() {
		memory = emu.NewMemoryWithSize(0xFFFFFFFF)
		Expect(memory.Write32(0xFFFFFFF0, 0xCAFEBABE)).To(Succeed())
		Expect(memory.Write32(0x10, 1)).To(Succeed())
		_, err := memory.Read32(0x80000000)
		Expect(err).NotTo(HaveOccurred())

		words, err := memory.NonZeroWords()
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(HaveLen(2))
		Expect(words[0].Addr).To(Equal(uint32(0x10)))
		Expect(words[1].Addr).To(Equal(uint32(0xFFFFFFF0)))
		Expect(words[1].Value()).To(Equal(uint32(0xCAFEBABE)))
	})

	It("should accept the last full word", func() {
		Expect(memory.Write32(60, 1)).To(Succeed())
	})

	DescribeTable("out of bounds accesses",
		func(access func() error, addr uint32, kind emu.Access) {
			err := access()
			var oob *emu.OutOfBoundsError
			Expect(errors.As(err, &oob)).To(BeTrue())
			Expect(oob.Addr).To(Equal(addr))
			Expect(oob.Access).To(Equal(kind))
		},
		Entry("fetch past the end", func() error {
			_, err := memory.Fetch32(64)
			return err
		}, uint32(64), emu.AccessFetch),
		Entry("load straddling the end", func() error {
			_, err := memory.Read32(61)
			return err
		}, uint32(61), emu.AccessLoad),
		Entry("store near the top of the address space", func() error {
			return memory.Write32(0xFFFFFFFE, 1)
		}, uint32(0xFFFFFFFE), emu.AccessStore),
	)

	Describe("LoadImage", func() {
		It("should copy the image to address 0", func() {
			Expect(memory.LoadImage(program(0xE3A00001))).To(Succeed())
			v, err := memory.Fetch32(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint32(0xE3A00001)))
		})

		It("should accept an image that fills memory", func() {
			Expect(memory.LoadImage(make([]byte, 64))).To(Succeed())
		})

		It("should reject an image larger than memory", func() {
			Expect(memory.LoadImage(make([]byte, 65))).To(MatchError(emu.ErrProgramTooLarge))
		})
	})
})
