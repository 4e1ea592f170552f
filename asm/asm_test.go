package asm_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/asm"
	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
)

var _ = Describe("Assembler", func() {
	assemble := func(src string) []uint32 {
		words, err := asm.AssembleString(src)
		Expect(err).NotTo(HaveOccurred())
		return words
	}

	DescribeTable("should encode each mnemonic",
		func(src string, word uint32) {
			Expect(assemble(src)).To(Equal([]uint32{word}))
		},
		Entry("add", "add $3, $1, $2", uint32(0x00221820)),
		Entry("sub", "sub $t0 $t1 $t2", insts.EncodeR(insts.OpSUB, 8, 9, 10)),
		Entry("and", "and $s0, $s1, $s2", insts.EncodeR(insts.OpAND, 16, 17, 18)),
		Entry("or", "or $v0, $a0, $zero", insts.EncodeR(insts.OpOR, 2, 4, 0)),
		Entry("slt", "SLT $1, $2, $3", insts.EncodeR(insts.OpSLT, 1, 2, 3)),
		Entry("sll", "sll $2, $3, 4", uint32(0x00031100)),
		Entry("srl", "srl $7, $8, 2", insts.EncodeShift(insts.OpSRL, 7, 8, 2)),
		Entry("lw", "lw $4, 8($1)", uint32(0x8C240008)),
		Entry("sw", "sw $3, 0($1)", uint32(0xAC230000)),
		Entry("lw without offset", "lw $4, ($1)", uint32(0x8C240000)),
		Entry("beq", "beq $1, $2, 3", uint32(0x10220003)),
		Entry("bne with negative offset", "bne $1, $0, -3", insts.EncodeI(insts.OpBNE, 1, 0, 0xFFFD)),
		Entry("j", "j 25", uint32(0x08000019)),
		Entry("jal", "jal 25", uint32(0x0C000019)),
		Entry("jr", "jr $ra", uint32(0x03E00008)),
		Entry("lui", "lui $5, 0x1234", uint32(0x3C051234)),
		Entry("nop", "nop", uint32(0)),
	)

	It("should skip comments and blank lines", func() {
		words := assemble(`
# header
add $3, $1, $2   # sum

nop
`)
		Expect(words).To(Equal([]uint32{0x00221820, 0}))
	})

	It("should resolve forward and backward labels", func() {
		words := assemble(`
start: lw $t0, 0($zero)
loop:  sub $t0, $t0, $t1
       bne $t0, $zero, loop
       j end
       nop
end:   jr $ra
`)
		Expect(words).To(Equal([]uint32{
			insts.EncodeI(insts.OpLW, 0, 8, 0),
			insts.EncodeR(insts.OpSUB, 8, 8, 9),
			insts.EncodeI(insts.OpBNE, 8, 0, 0xFFFE),
			insts.EncodeJ(insts.OpJ, 5),
			0,
			insts.EncodeJR(31),
		}))
	})

	It("should accept a label on its own line", func() {
		words := assemble("beq $1, $2, out\nadd $1, $1, $1\nout:\nnop\n")
		Expect(words[0]).To(Equal(insts.EncodeI(insts.OpBEQ, 1, 2, 1)))
	})

	It("should produce a program the emulator runs", func() {
		words := assemble(`
      lw   $1, 0($0)
      lw   $2, 4($0)
loop: sub  $1, $1, $2
      add  $3, $3, $2
      bne  $1, $zero, loop
      sw   $3, 12($0)
`)
		imem := emu.NewInstructionMemory(64)
		dmem := emu.NewDataMemory(64)
		Expect(imem.Load(words)).To(Succeed())
		Expect(dmem.Load([]emu.DataEntry{{Addr: 0, Value: 3}, {Addr: 4, Value: 1}})).To(Succeed())

		e := emu.NewEmulator(imem, dmem, emu.WithSignExtendedBranches(true))
		Expect(e.Run()).To(Succeed())

		Expect(dmem.Words()[3]).To(Equal(int64(3)))
	})

	DescribeTable("should reject bad source",
		func(src string, line int, sentinel error) {
			_, err := asm.AssembleString(src)

			var lineErr *asm.LineError
			Expect(errors.As(err, &lineErr)).To(BeTrue())
			Expect(lineErr.Line).To(Equal(line))
			Expect(err).To(MatchError(sentinel))
		},
		Entry("unknown mnemonic", "nop\naddi $1, $1, 1", 2, asm.ErrUnknownMnemonic),
		Entry("missing operand", "add $1, $2", 1, asm.ErrOperandCount),
		Entry("bad register name", "add $1, $2, $xx", 1, asm.ErrBadRegister),
		Entry("register out of range", "jr $32", 1, asm.ErrBadRegister),
		Entry("immediate too wide", "lui $1, 70000", 1, asm.ErrBadImmediate),
		Entry("shift too wide", "sll $1, $2, 32", 1, asm.ErrBadImmediate),
		Entry("malformed address", "lw $1, 8$2", 1, asm.ErrBadAddress),
		Entry("unknown label", "\nj nowhere", 2, asm.ErrUnknownLabel),
		Entry("duplicate label", "a: nop\na: nop", 2, asm.ErrDuplicateLabel),
	)

	Describe("Register", func() {
		It("should map names and numbers", func() {
			for text, want := range map[string]uint8{
				"$zero": 0, "$at": 1, "$t0": 8, "$s7": 23, "$t9": 25,
				"$gp": 28, "$sp": 29, "$fp": 30, "$ra": 31, "$17": 17,
			} {
				got, err := asm.Register(text)
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(want), text)
			}
		})

		It("should require the dollar sign", func() {
			_, err := asm.Register("t0")
			Expect(err).To(MatchError(asm.ErrBadRegister))
		})
	})
})
