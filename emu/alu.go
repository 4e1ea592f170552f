package emu

import "github.com/sarchlab/mipsim/insts"

// ALU implements the arithmetic and logic operations of the modeled ISA.
type ALU struct{}

// NewALU creates a new ALU.
func NewALU() *ALU {
	return &ALU{}
}

// Compute evaluates op. r1 is the rs operand and r2 the rt operand; shifts
// operate on r2. For LUI, r2 carries the raw immediate.
func (a *ALU) Compute(op insts.Op, r1, r2 int64, shamt uint8) int64 {
	switch op {
	case insts.OpADD:
		return r1 + r2
	case insts.OpSUB:
		return r1 - r2
	case insts.OpAND:
		return r1 & r2
	case insts.OpOR:
		return r1 | r2
	case insts.OpSLT:
		if r1 < r2 {
			return 1
		}
		return 0
	case insts.OpSLL:
		return r2 << shamt
	case insts.OpSRL:
		// Arithmetic: the operand is the signed register value.
		return r2 >> shamt
	case insts.OpLUI:
		return r2 << 16
	default:
		return 0
	}
}

// Execute evaluates an ALU or LUI instruction on its resolved operands.
func (a *ALU) Execute(inst *insts.Instruction, r1, r2 int64) int64 {
	if inst.IsLUI() {
		return a.Compute(inst.Op, 0, int64(inst.Imm), 0)
	}
	return a.Compute(inst.Op, r1, r2, inst.Shamt)
}

// EffectiveAddress computes base + unsigned offset for loads and stores.
func EffectiveAddress(inst *insts.Instruction, base int64) int64 {
	return base + inst.Offset()
}

// BranchTaken evaluates a branch condition on its two operands.
func BranchTaken(inst *insts.Instruction, r1, r2 int64) bool {
	switch inst.Class {
	case insts.ClassBranchEqual:
		return r1 == r2
	case insts.ClassBranchNotEqual:
		return r1 != r2
	default:
		return false
	}
}

// BranchTarget returns pc + 4 + 4*offset for a branch at pc.
func BranchTarget(inst *insts.Instruction, pc uint64, signExtend bool) uint64 {
	return uint64(int64(pc) + 4 + 4*inst.BranchOffset(signExtend))
}
