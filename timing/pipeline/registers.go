// Package pipeline provides the 5-stage pipeline implementation for timing simulation.
package pipeline

import "github.com/sarchlab/mipsim/insts"

// Each latch's zero value holds a NOOP, which means nothing is in flight.

// IFIDRegister holds state between Fetch and Decode stages.
type IFIDRegister struct {
	// PC is the program counter of the fetched instruction.
	PC uint64

	// Inst is the decoded instruction.
	Inst insts.Instruction
}

// Empty reports whether the latch holds a NOOP.
func (r *IFIDRegister) Empty() bool { return r.Inst.IsNoop() }

// Clear resets the IF/ID register to empty state.
func (r *IFIDRegister) Clear() { *r = IFIDRegister{} }

// IDEXRegister holds state between Decode and Execute stages.
type IDEXRegister struct {
	// PC is the program counter of the instruction.
	PC uint64

	// Inst is the decoded instruction.
	Inst insts.Instruction

	// R1 and R2 are the resolved rs and rt operand values.
	R1 int64
	R2 int64
}

// Empty reports whether the latch holds a NOOP.
func (r *IDEXRegister) Empty() bool { return r.Inst.IsNoop() }

// Clear resets the ID/EX register to empty state.
func (r *IDEXRegister) Clear() { *r = IDEXRegister{} }

// EXMEMRegister holds state between Execute and Memory stages.
type EXMEMRegister struct {
	// PC is the program counter of the instruction.
	PC uint64

	// Inst is the decoded instruction.
	Inst insts.Instruction

	// ALUResult is the value an ALU or LUI instruction will write.
	ALUResult int64

	// LoadAddr is the effective address of a load.
	LoadAddr int64

	// StoreAddr and StoreValue describe a pending store.
	StoreAddr  int64
	StoreValue int64

	// BranchTaken and BranchTarget hold a resolved branch outcome.
	BranchTaken  bool
	BranchTarget uint64
}

// Empty reports whether the latch holds a NOOP.
func (r *EXMEMRegister) Empty() bool { return r.Inst.IsNoop() }

// Clear resets the EX/MEM register to empty state.
func (r *EXMEMRegister) Clear() { *r = EXMEMRegister{} }

// MEMWBRegister holds state between Memory and Writeback stages.
type MEMWBRegister struct {
	// PC is the program counter of the instruction.
	PC uint64

	// Inst is the decoded instruction.
	Inst insts.Instruction

	// WriteValue is the value committed to WriteReg.
	WriteValue int64

	// WriteReg is the destination register, or insts.NoReg.
	WriteReg int
}

// Empty reports whether the latch holds a NOOP.
func (r *MEMWBRegister) Empty() bool { return r.Inst.IsNoop() }

// Clear resets the MEM/WB register to empty state.
func (r *MEMWBRegister) Clear() { *r = MEMWBRegister{} }

// Writes reports whether the latch commits a register write.
func (r *MEMWBRegister) Writes() bool {
	return !r.Empty() && r.WriteReg != insts.NoReg
}
