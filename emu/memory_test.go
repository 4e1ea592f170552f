package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/emu"
)

var _ = Describe("InstructionMemory", func() {
	var imem *emu.InstructionMemory

	BeforeEach(func() {
		imem = emu.NewInstructionMemory(8)
	})

	It("should start zero-filled", func() {
		word, err := imem.Read(28)
		Expect(err).NotTo(HaveOccurred())
		Expect(word).To(Equal(uint32(0)))
	})

	It("should load a program at address 0", func() {
		Expect(imem.Load([]uint32{11, 22, 33})).To(Succeed())

		word, err := imem.Read(8)
		Expect(err).NotTo(HaveOccurred())
		Expect(word).To(Equal(uint32(33)))
	})

	It("should reject a program larger than the store", func() {
		err := imem.Load(make([]uint32, 9))
		Expect(err).To(MatchError(emu.ErrAddressOutOfRange))
	})

	It("should fail reads past the end", func() {
		_, err := imem.Read(32)

		Expect(err).To(MatchError(emu.ErrAddressOutOfRange))
		var addrErr *emu.AddressError
		Expect(err).To(BeAssignableToTypeOf(addrErr))
		Expect(err.Error()).To(ContainSubstring("instruction address 32"))
	})
})

var _ = Describe("DataMemory", func() {
	var dmem *emu.DataMemory

	BeforeEach(func() {
		dmem = emu.NewDataMemory(16)
	})

	It("should map byte addresses to words", func() {
		Expect(dmem.Write(8, 42)).To(Succeed())

		Expect(dmem.Words()[2]).To(Equal(int64(42)))
		value, err := dmem.Read(8)
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal(int64(42)))
	})

	It("should truncate unaligned addresses", func() {
		Expect(dmem.Write(9, 7)).To(Succeed())

		value, err := dmem.Read(8)
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal(int64(7)))
	})

	It("should load a sparse image", func() {
		Expect(dmem.Load([]emu.DataEntry{{Addr: 0, Value: 5}, {Addr: 60, Value: -3}})).To(Succeed())

		words := dmem.Words()
		Expect(words[0]).To(Equal(int64(5)))
		Expect(words[15]).To(Equal(int64(-3)))
	})

	It("should reject negative addresses", func() {
		_, err := dmem.Read(-4)
		Expect(err).To(MatchError(emu.ErrAddressOutOfRange))
	})

	It("should reject addresses past the end", func() {
		err := dmem.Write(64, 1)
		Expect(err).To(MatchError(emu.ErrAddressOutOfRange))
	})

	It("should return a copy from Words", func() {
		words := dmem.Words()
		words[0] = 99

		value, _ := dmem.Read(0)
		Expect(value).To(BeZero())
	})

	It("should use the default capacities", func() {
		Expect(emu.NewDataMemory(emu.DefaultDataWords).Size()).To(Equal(100000))
		Expect(emu.NewInstructionMemory(emu.DefaultInstructionWords).Size()).To(Equal(4096))
	})
})

var _ = Describe("RegFile", func() {
	It("should let register 0 hold a value", func() {
		rf := &emu.RegFile{}
		rf.WriteReg(0, 13)
		Expect(rf.ReadReg(0)).To(Equal(int64(13)))
	})
})
