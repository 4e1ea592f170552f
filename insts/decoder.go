package insts

import (
	"errors"
	"fmt"
)

// Op represents a decoded operation.
type Op uint8

// Supported operations. OpNOOP is the zero value so that a zero
// Instruction is a no-op.
const (
	OpNOOP Op = iota
	OpADD
	OpSUB
	OpAND
	OpOR
	OpSLT
	OpSLL
	OpSRL
	OpLW
	OpSW
	OpBEQ
	OpBNE
	OpJ
	OpJAL
	OpJR
	OpLUI
)

var opNames = [...]string{
	OpNOOP: "nop",
	OpADD:  "add",
	OpSUB:  "sub",
	OpAND:  "and",
	OpOR:   "or",
	OpSLT:  "slt",
	OpSLL:  "sll",
	OpSRL:  "srl",
	OpLW:   "lw",
	OpSW:   "sw",
	OpBEQ:  "beq",
	OpBNE:  "bne",
	OpJ:    "j",
	OpJAL:  "jal",
	OpJR:   "jr",
	OpLUI:  "lui",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Class is the instruction class an operation belongs to. Classes are
// mutually exclusive.
type Class uint8

// Instruction classes.
const (
	ClassNoop Class = iota
	ClassArithmeticReg
	ClassShiftReg
	ClassLoad
	ClassStore
	ClassBranchEqual
	ClassBranchNotEqual
	ClassJump
	ClassJumpAndLink
	ClassJumpRegister
	ClassLoadUpperImmediate
)

// Primary opcodes (bits [0,6)).
const (
	OpcodeRType uint8 = 0b000000
	OpcodeJ     uint8 = 0b000010
	OpcodeJAL   uint8 = 0b000011
	OpcodeBEQ   uint8 = 0b000100
	OpcodeBNE   uint8 = 0b000101
	OpcodeLUI   uint8 = 0b001111
	OpcodeLW    uint8 = 0b100011
	OpcodeSW    uint8 = 0b101011
)

// Function codes (bits [26,32)) in the register-register opcode space.
const (
	FunctSLL uint8 = 0b000000
	FunctSRL uint8 = 0b000010
	FunctJR  uint8 = 0b001000
	FunctADD uint8 = 0b100000
	FunctSUB uint8 = 0b100010
	FunctAND uint8 = 0b100100
	FunctOR  uint8 = 0b100101
	FunctSLT uint8 = 0b101010
)

// LinkReg is the register JAL writes its return address to.
const LinkReg = 31

// NoReg is the sentinel returned by WriteReg for instructions that do not
// write a register. It never equals a valid register index.
const NoReg = -1

// ErrUnknownOpcode is returned for words whose primary opcode is not modeled.
var ErrUnknownOpcode = errors.New("unknown opcode")

// ErrUnknownFunct is returned for register-register words whose function
// code matches no modeled operation.
var ErrUnknownFunct = errors.New("unknown function code")

// DecodeError reports an undecodable instruction word.
type DecodeError struct {
	Word uint32
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode 0x%08X: %v", e.Word, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Instruction represents a decoded instruction word. The zero value is the
// NOOP instruction.
type Instruction struct {
	Word  uint32
	Op    Op
	Class Class

	Rs    uint8
	Rt    uint8
	Rd    uint8
	Shamt uint8

	// Imm is the raw 16-bit immediate of I-type words.
	Imm uint16

	// Target is the raw 26-bit address field of J-type words.
	Target uint32
}

// Noop is the decoded all-zero word.
var Noop = Instruction{}

// Decoder decodes instruction words into instructions.
type Decoder struct{}

// NewDecoder creates a new instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word.
func (d *Decoder) Decode(word uint32) (*Instruction, error) {
	inst := &Instruction{Word: word}

	// The all-zero word shares the R-type opcode and the SLL function code,
	// so it has to be recognized before anything else.
	if word == 0 {
		return inst, nil
	}

	opcode := Opcode(word)
	switch opcode {
	case OpcodeRType:
		if err := d.decodeRType(word, inst); err != nil {
			return nil, err
		}
	case OpcodeLW:
		d.decodeIType(word, inst, OpLW, ClassLoad)
	case OpcodeSW:
		d.decodeIType(word, inst, OpSW, ClassStore)
	case OpcodeBEQ:
		d.decodeIType(word, inst, OpBEQ, ClassBranchEqual)
	case OpcodeBNE:
		d.decodeIType(word, inst, OpBNE, ClassBranchNotEqual)
	case OpcodeLUI:
		d.decodeIType(word, inst, OpLUI, ClassLoadUpperImmediate)
	case OpcodeJ:
		d.decodeJType(word, inst, OpJ, ClassJump)
	case OpcodeJAL:
		d.decodeJType(word, inst, OpJAL, ClassJumpAndLink)
	default:
		return nil, &DecodeError{Word: word, Err: ErrUnknownOpcode}
	}

	return inst, nil
}

// decodeRType decodes the register-register opcode space.
// Format: opcode | rs | rt | rd | shamt | funct
func (d *Decoder) decodeRType(word uint32, inst *Instruction) error {
	inst.Rs = Rs(word)
	inst.Rt = Rt(word)
	inst.Rd = Rd(word)
	inst.Shamt = Shamt(word)

	// JR is carved out of the R-type space and must be checked before the
	// arithmetic and shift classes.
	switch Funct(word) {
	case FunctJR:
		inst.Op, inst.Class = OpJR, ClassJumpRegister
	case FunctADD:
		inst.Op, inst.Class = OpADD, ClassArithmeticReg
	case FunctSUB:
		inst.Op, inst.Class = OpSUB, ClassArithmeticReg
	case FunctAND:
		inst.Op, inst.Class = OpAND, ClassArithmeticReg
	case FunctOR:
		inst.Op, inst.Class = OpOR, ClassArithmeticReg
	case FunctSLT:
		inst.Op, inst.Class = OpSLT, ClassArithmeticReg
	case FunctSLL:
		inst.Op, inst.Class = OpSLL, ClassShiftReg
	case FunctSRL:
		inst.Op, inst.Class = OpSRL, ClassShiftReg
	default:
		return &DecodeError{Word: word, Err: ErrUnknownFunct}
	}

	return nil
}

// decodeIType decodes register-immediate words.
// Format: opcode | rs | rt | immediate
func (d *Decoder) decodeIType(word uint32, inst *Instruction, op Op, class Class) {
	inst.Op = op
	inst.Class = class
	inst.Rs = Rs(word)
	inst.Rt = Rt(word)
	inst.Imm = Immediate(word)
}

// decodeJType decodes jump words.
// Format: opcode | address
func (d *Decoder) decodeJType(word uint32, inst *Instruction, op Op, class Class) {
	inst.Op = op
	inst.Class = class
	inst.Target = Address(word)
}

// IsNoop reports whether the instruction is the NOOP word.
func (i *Instruction) IsNoop() bool { return i.Class == ClassNoop }

// IsLoad reports whether the instruction is a load.
func (i *Instruction) IsLoad() bool { return i.Class == ClassLoad }

// IsStore reports whether the instruction is a store.
func (i *Instruction) IsStore() bool { return i.Class == ClassStore }

// IsLUI reports whether the instruction is a load-upper-immediate.
func (i *Instruction) IsLUI() bool { return i.Class == ClassLoadUpperImmediate }

// IsBranch reports whether the instruction is a conditional branch.
func (i *Instruction) IsBranch() bool {
	return i.Class == ClassBranchEqual || i.Class == ClassBranchNotEqual
}

// IsJump reports whether the instruction is J or JAL.
func (i *Instruction) IsJump() bool {
	return i.Class == ClassJump || i.Class == ClassJumpAndLink
}

// IsJumpRegister reports whether the instruction is JR.
func (i *Instruction) IsJumpRegister() bool { return i.Class == ClassJumpRegister }

// IsALU reports whether the instruction computes its result in the ALU.
func (i *Instruction) IsALU() bool {
	return i.Class == ClassArithmeticReg || i.Class == ClassShiftReg
}

// ReadRegs returns the registers the instruction reads, in rs, rt order.
//
// Arithmetic, store and branch instructions read rs and rt. Shifts read
// only rt. Loads and JR read only rs. Everything else reads nothing.
func (i *Instruction) ReadRegs() []uint8 {
	switch i.Class {
	case ClassArithmeticReg, ClassStore, ClassBranchEqual, ClassBranchNotEqual:
		return []uint8{i.Rs, i.Rt}
	case ClassShiftReg:
		return []uint8{i.Rt}
	case ClassLoad, ClassJumpRegister:
		return []uint8{i.Rs}
	default:
		return nil
	}
}

// Reads reports whether reg is one of the registers the instruction reads.
func (i *Instruction) Reads(reg int) bool {
	if reg < 0 {
		return false
	}
	for _, r := range i.ReadRegs() {
		if int(r) == reg {
			return true
		}
	}
	return false
}

// WriteReg returns the register the instruction writes, or NoReg.
func (i *Instruction) WriteReg() int {
	switch i.Class {
	case ClassArithmeticReg, ClassShiftReg:
		return int(i.Rd)
	case ClassLoad, ClassLoadUpperImmediate:
		return int(i.Rt)
	default:
		return NoReg
	}
}

// Writes reports whether the instruction writes reg.
func (i *Instruction) Writes(reg int) bool {
	return reg >= 0 && i.WriteReg() == reg
}

// DependsOn reports whether i reads a register that producer writes. NOOPs
// never depend on anything.
func (i *Instruction) DependsOn(producer *Instruction) bool {
	if i.IsNoop() || producer.IsNoop() {
		return false
	}
	return i.Reads(producer.WriteReg())
}

// Offset returns the immediate as an unsigned byte offset for address
// arithmetic.
func (i *Instruction) Offset() int64 {
	return int64(i.Imm)
}

// BranchOffset returns the branch displacement in words. The immediate is
// treated as unsigned unless signExtend is set.
func (i *Instruction) BranchOffset(signExtend bool) int64 {
	if signExtend {
		return int64(int16(i.Imm))
	}
	return int64(i.Imm)
}

// JumpTarget returns the byte address a J or JAL transfers control to.
func (i *Instruction) JumpTarget() uint64 {
	return 4 * uint64(i.Target)
}

// String returns the assembly form of the instruction.
func (i *Instruction) String() string {
	switch i.Class {
	case ClassNoop:
		return "nop"
	case ClassArithmeticReg:
		return fmt.Sprintf("%s $%d, $%d, $%d", i.Op, i.Rd, i.Rs, i.Rt)
	case ClassShiftReg:
		return fmt.Sprintf("%s $%d, $%d, %d", i.Op, i.Rd, i.Rt, i.Shamt)
	case ClassLoad, ClassStore:
		return fmt.Sprintf("%s $%d, %d($%d)", i.Op, i.Rt, i.Imm, i.Rs)
	case ClassBranchEqual, ClassBranchNotEqual:
		return fmt.Sprintf("%s $%d, $%d, %d", i.Op, i.Rs, i.Rt, i.Imm)
	case ClassJump, ClassJumpAndLink:
		return fmt.Sprintf("%s %d", i.Op, i.Target)
	case ClassJumpRegister:
		return fmt.Sprintf("jr $%d", i.Rs)
	case ClassLoadUpperImmediate:
		return fmt.Sprintf("lui $%d, %d", i.Rt, i.Imm)
	default:
		return fmt.Sprintf(".word 0x%08X", i.Word)
	}
}
