// Package asm assembles the textual form of the modeled instruction subset
// into instruction words.
//
// One instruction per line. Operands may be separated by commas or spaces,
// and '#' starts a comment. Registers are written by name ($t0, $ra) or by
// number ($8). Loads and stores take offset(base) operands. A line may
// start with "label:". j and jal accept a label or an absolute word
// address; beq and bne accept a label or a word offset relative to the
// next instruction. Backward branches encode a negative offset, so they
// need sign-extended branch offsets at run time.
package asm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/log"
)

// Assembly errors. Each is reported inside a LineError.
var (
	ErrUnknownMnemonic = errors.New("unknown mnemonic")
	ErrOperandCount    = errors.New("wrong number of operands")
	ErrBadRegister     = errors.New("bad register")
	ErrBadImmediate    = errors.New("bad immediate")
	ErrBadAddress      = errors.New("bad offset(base) operand")
	ErrUnknownLabel    = errors.New("unknown label")
	ErrDuplicateLabel  = errors.New("duplicate label")
)

// LineError reports the source line an assembly error comes from.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

var registerNames = [...]string{
	"zero", "at", "v0", "v1",
	"a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1",
	"gp", "sp", "fp", "ra",
}

var registerIndex = func() map[string]uint8 {
	m := make(map[string]uint8, len(registerNames))
	for i, name := range registerNames {
		m[name] = uint8(i)
	}
	return m
}()

// Register parses a register operand.
func Register(text string) (uint8, error) {
	name, ok := strings.CutPrefix(text, "$")
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrBadRegister, text)
	}
	if idx, ok := registerIndex[name]; ok {
		return idx, nil
	}
	n, err := strconv.ParseUint(name, 10, 8)
	if err != nil || n >= 32 {
		return 0, fmt.Errorf("%w %q", ErrBadRegister, text)
	}
	return uint8(n), nil
}

// source is one instruction line after label stripping.
type source struct {
	line     int
	text     string
	mnemonic string
	operands []string
}

// Assembler turns source lines into instruction words.
type Assembler struct {
	labels map[string]int
	lines  []source
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{labels: make(map[string]int)}
}

// Assemble reads a whole source file.
func Assemble(r io.Reader) ([]uint32, error) {
	return NewAssembler().Assemble(r)
}

// AssembleString assembles source held in a string.
func AssembleString(src string) ([]uint32, error) {
	return Assemble(strings.NewReader(src))
}

// Assemble reads source from r. Labels are collected in a first pass so
// forward references resolve.
func (a *Assembler) Assemble(r io.Reader) ([]uint32, error) {
	a.labels = make(map[string]int)
	a.lines = nil

	if err := a.scan(r); err != nil {
		return nil, err
	}

	words := make([]uint32, 0, len(a.lines))
	for idx, src := range a.lines {
		word, err := a.encode(idx, src)
		if err != nil {
			return nil, &LineError{Line: src.line, Text: src.text, Err: err}
		}
		words = append(words, word)
	}

	log.Debug(log.AsmModule, "assembled", "words", len(words), "labels", len(a.labels))

	return words, nil
}

func (a *Assembler) scan(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Text()
		text := raw
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)

		if label, rest, ok := strings.Cut(text, ":"); ok {
			label = strings.TrimSpace(label)
			if label == "" || strings.ContainsAny(label, " \t$(),") {
				return &LineError{Line: line, Text: raw, Err: fmt.Errorf("bad label %q", label)}
			}
			if _, dup := a.labels[label]; dup {
				return &LineError{Line: line, Text: raw, Err: fmt.Errorf("%w %q", ErrDuplicateLabel, label)}
			}
			a.labels[label] = len(a.lines)
			text = strings.TrimSpace(rest)
		}

		if text == "" {
			continue
		}

		fields := strings.Fields(strings.ReplaceAll(text, ",", " "))
		a.lines = append(a.lines, source{
			line:     line,
			text:     strings.TrimSpace(raw),
			mnemonic: strings.ToLower(fields[0]),
			operands: fields[1:],
		})
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}

	return nil
}

var rTypeOps = map[string]insts.Op{
	"add": insts.OpADD,
	"sub": insts.OpSUB,
	"and": insts.OpAND,
	"or":  insts.OpOR,
	"slt": insts.OpSLT,
}

var shiftOps = map[string]insts.Op{
	"sll": insts.OpSLL,
	"srl": insts.OpSRL,
}

var memoryOps = map[string]insts.Op{
	"lw": insts.OpLW,
	"sw": insts.OpSW,
}

var branchOps = map[string]insts.Op{
	"beq": insts.OpBEQ,
	"bne": insts.OpBNE,
}

var jumpOps = map[string]insts.Op{
	"j":   insts.OpJ,
	"jal": insts.OpJAL,
}

func (a *Assembler) encode(idx int, src source) (uint32, error) {
	ops := src.operands

	if op, ok := rTypeOps[src.mnemonic]; ok {
		regs, err := registers(ops, 3)
		if err != nil {
			return 0, err
		}
		return insts.EncodeR(op, regs[0], regs[1], regs[2]), nil
	}

	if op, ok := shiftOps[src.mnemonic]; ok {
		if len(ops) != 3 {
			return 0, ErrOperandCount
		}
		regs, err := registers(ops[:2], 2)
		if err != nil {
			return 0, err
		}
		shamt, err := strconv.ParseUint(ops[2], 10, 5)
		if err != nil {
			return 0, fmt.Errorf("%w: shift amount %q", ErrBadImmediate, ops[2])
		}
		return insts.EncodeShift(op, regs[0], regs[1], uint8(shamt)), nil
	}

	if op, ok := memoryOps[src.mnemonic]; ok {
		if len(ops) != 2 {
			return 0, ErrOperandCount
		}
		rt, err := Register(ops[0])
		if err != nil {
			return 0, err
		}
		offset, base, err := address(ops[1])
		if err != nil {
			return 0, err
		}
		return insts.EncodeI(op, base, rt, offset), nil
	}

	if op, ok := branchOps[src.mnemonic]; ok {
		if len(ops) != 3 {
			return 0, ErrOperandCount
		}
		regs, err := registers(ops[:2], 2)
		if err != nil {
			return 0, err
		}
		offset, err := a.branchOffset(idx, ops[2])
		if err != nil {
			return 0, err
		}
		return insts.EncodeI(op, regs[0], regs[1], offset), nil
	}

	if op, ok := jumpOps[src.mnemonic]; ok {
		if len(ops) != 1 {
			return 0, ErrOperandCount
		}
		target, err := a.jumpTarget(ops[0])
		if err != nil {
			return 0, err
		}
		return insts.EncodeJ(op, target), nil
	}

	switch src.mnemonic {
	case "jr":
		regs, err := registers(ops, 1)
		if err != nil {
			return 0, err
		}
		return insts.EncodeJR(regs[0]), nil
	case "lui":
		if len(ops) != 2 {
			return 0, ErrOperandCount
		}
		rt, err := Register(ops[0])
		if err != nil {
			return 0, err
		}
		imm, err := immediate(ops[1])
		if err != nil {
			return 0, err
		}
		return insts.EncodeI(insts.OpLUI, 0, rt, imm), nil
	case "nop":
		if len(ops) != 0 {
			return 0, ErrOperandCount
		}
		return 0, nil
	}

	return 0, fmt.Errorf("%w %q", ErrUnknownMnemonic, src.mnemonic)
}

func registers(ops []string, n int) ([]uint8, error) {
	if len(ops) != n {
		return nil, ErrOperandCount
	}
	regs := make([]uint8, n)
	for i, op := range ops {
		r, err := Register(op)
		if err != nil {
			return nil, err
		}
		regs[i] = r
	}
	return regs, nil
}

// immediate parses a 16-bit immediate. Negative values are stored in two's
// complement.
func immediate(text string) (uint16, error) {
	v, err := strconv.ParseInt(text, 0, 32)
	if err != nil || v < -0x8000 || v > 0xFFFF {
		return 0, fmt.Errorf("%w %q", ErrBadImmediate, text)
	}
	return uint16(v), nil
}

// address parses offset(base). The offset may be omitted.
func address(text string) (uint16, uint8, error) {
	open := strings.IndexByte(text, '(')
	if open < 0 || !strings.HasSuffix(text, ")") {
		return 0, 0, fmt.Errorf("%w %q", ErrBadAddress, text)
	}

	base, err := Register(text[open+1 : len(text)-1])
	if err != nil {
		return 0, 0, err
	}

	if open == 0 {
		return 0, base, nil
	}
	offset, err := immediate(text[:open])
	if err != nil {
		return 0, 0, err
	}
	return offset, base, nil
}

func (a *Assembler) branchOffset(idx int, text string) (uint16, error) {
	if target, ok := a.labels[text]; ok {
		off := target - (idx + 1)
		if off < -0x8000 || off > 0x7FFF {
			return 0, fmt.Errorf("%w: branch to %q out of range", ErrBadImmediate, text)
		}
		return uint16(int16(off)), nil
	}
	if isLabel(text) {
		return 0, fmt.Errorf("%w %q", ErrUnknownLabel, text)
	}
	return immediate(text)
}

func (a *Assembler) jumpTarget(text string) (uint32, error) {
	if target, ok := a.labels[text]; ok {
		return uint32(target), nil
	}
	if isLabel(text) {
		return 0, fmt.Errorf("%w %q", ErrUnknownLabel, text)
	}
	v, err := strconv.ParseUint(text, 0, 26)
	if err != nil {
		return 0, fmt.Errorf("%w: jump target %q", ErrBadImmediate, text)
	}
	return uint32(v), nil
}

// isLabel reports whether text looks like a name rather than a number.
func isLabel(text string) bool {
	if text == "" {
		return false
	}
	c := text[0]
	return c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
