package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
)

var _ = Describe("ALU", func() {
	var alu *emu.ALU

	BeforeEach(func() {
		alu = emu.NewALU()
	})

	DescribeTable("Compute",
		func(op insts.Op, r1, r2 int64, shamt uint8, expected int64) {
			Expect(alu.Compute(op, r1, r2, shamt)).To(Equal(expected))
		},
		Entry("ADD", insts.OpADD, int64(7), int64(5), uint8(0), int64(12)),
		Entry("SUB", insts.OpSUB, int64(7), int64(10), uint8(0), int64(-3)),
		Entry("AND", insts.OpAND, int64(0b1100), int64(0b1010), uint8(0), int64(0b1000)),
		Entry("OR", insts.OpOR, int64(0b1100), int64(0b1010), uint8(0), int64(0b1110)),
		Entry("SLT true", insts.OpSLT, int64(-1), int64(0), uint8(0), int64(1)),
		Entry("SLT false", insts.OpSLT, int64(3), int64(3), uint8(0), int64(0)),
		Entry("SLL", insts.OpSLL, int64(99), int64(3), uint8(4), int64(48)),
		Entry("SRL", insts.OpSRL, int64(0), int64(64), uint8(3), int64(8)),
		Entry("SRL keeps the sign", insts.OpSRL, int64(0), int64(-16), uint8(2), int64(-4)),
		Entry("LUI", insts.OpLUI, int64(0), int64(0x1234), uint8(0), int64(0x12340000)),
	)

	It("should execute LUI from the immediate", func() {
		inst, err := insts.NewDecoder().Decode(insts.EncodeI(insts.OpLUI, 0, 5, 2))
		Expect(err).NotTo(HaveOccurred())

		Expect(alu.Execute(inst, 100, 200)).To(Equal(int64(2 << 16)))
	})

	Describe("branches", func() {
		var beq, bne *insts.Instruction

		BeforeEach(func() {
			d := insts.NewDecoder()
			beq, _ = d.Decode(insts.EncodeI(insts.OpBEQ, 1, 2, 3))
			bne, _ = d.Decode(insts.EncodeI(insts.OpBNE, 1, 2, 0xFFFF))
		})

		It("should evaluate conditions", func() {
			Expect(emu.BranchTaken(beq, 4, 4)).To(BeTrue())
			Expect(emu.BranchTaken(beq, 4, 5)).To(BeFalse())
			Expect(emu.BranchTaken(bne, 4, 5)).To(BeTrue())
			Expect(emu.BranchTaken(bne, 4, 4)).To(BeFalse())
		})

		It("should compute the target from the branch's own address", func() {
			Expect(emu.BranchTarget(beq, 8, false)).To(Equal(uint64(24)))
		})

		It("should sign-extend when asked", func() {
			Expect(emu.BranchTarget(bne, 8, true)).To(Equal(uint64(8)))
			Expect(emu.BranchTarget(bne, 8, false)).To(Equal(uint64(8 + 4 + 4*0xFFFF)))
		})
	})
})
