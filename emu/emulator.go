package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/mipsim/insts"
)

// ErrInstructionLimit is returned when the emulator executes its configured
// maximum number of instructions without reaching a NOOP.
var ErrInstructionLimit = errors.New("instruction limit reached")

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true if the fetched instruction was a NOOP.
	Halted bool

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator executes instructions one at a time with no pipelining. It serves
// as the functional reference for the timing model: for any program that
// ends in a NOOP, both must reach the same architectural state.
type Emulator struct {
	regFile *RegFile
	imem    *InstructionMemory
	dmem    *DataMemory
	decoder *insts.Decoder
	alu     *ALU

	signExtend bool

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithSignExtendedBranches makes branch offsets signed.
func WithSignExtendedBranches(enabled bool) EmulatorOption {
	return func(e *Emulator) {
		e.signExtend = enabled
	}
}

// NewEmulator creates an emulator over the given stores.
func NewEmulator(
	imem *InstructionMemory,
	dmem *DataMemory,
	opts ...EmulatorOption,
) *Emulator {
	e := &Emulator{
		regFile: &RegFile{},
		imem:    imem,
		dmem:    dmem,
		decoder: insts.NewDecoder(),
		alu:     NewALU(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// DataMemory returns the emulator's data store.
func (e *Emulator) DataMemory() *DataMemory {
	return e.dmem
}

// InstructionCount returns the number of non-NOOP instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Step executes a single instruction.
func (e *Emulator) Step() StepResult {
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: ErrInstructionLimit}
	}

	pc := e.regFile.PC

	word, err := e.imem.Read(pc)
	if err != nil {
		return StepResult{Err: err}
	}

	inst, err := e.decoder.Decode(word)
	if err != nil {
		return StepResult{Err: fmt.Errorf("pc %d: %w", pc, err)}
	}

	if inst.IsNoop() {
		return StepResult{Halted: true}
	}

	if err := e.execute(inst, pc); err != nil {
		return StepResult{Err: fmt.Errorf("pc %d: %w", pc, err)}
	}

	e.instructionCount++

	return StepResult{}
}

// Run executes instructions until a NOOP is fetched or an error occurs.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
		if result.Halted {
			return nil
		}
	}
}

func (e *Emulator) execute(inst *insts.Instruction, pc uint64) error {
	rf := e.regFile
	rs := rf.ReadReg(inst.Rs)
	rt := rf.ReadReg(inst.Rt)
	next := pc + 4

	switch inst.Class {
	case insts.ClassArithmeticReg, insts.ClassShiftReg, insts.ClassLoadUpperImmediate:
		rf.WriteReg(uint8(inst.WriteReg()), e.alu.Execute(inst, rs, rt))
	case insts.ClassLoad:
		value, err := e.dmem.Read(EffectiveAddress(inst, rs))
		if err != nil {
			return err
		}
		rf.WriteReg(inst.Rt, value)
	case insts.ClassStore:
		if err := e.dmem.Write(EffectiveAddress(inst, rs), rt); err != nil {
			return err
		}
	case insts.ClassBranchEqual, insts.ClassBranchNotEqual:
		if BranchTaken(inst, rs, rt) {
			next = BranchTarget(inst, pc, e.signExtend)
		}
	case insts.ClassJump:
		next = inst.JumpTarget()
	case insts.ClassJumpAndLink:
		rf.WriteReg(insts.LinkReg, int64(pc+4))
		next = inst.JumpTarget()
	case insts.ClassJumpRegister:
		next = uint64(rs)
	}

	rf.PC = next

	return nil
}
