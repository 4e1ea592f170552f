// Package insts provides MIPS-subset instruction definitions and decoding.
//
// This package classifies 32-bit instruction words into the instruction
// classes modeled by the pipeline. It supports:
//   - Register arithmetic: ADD, SUB, AND, OR, SLT
//   - Register shifts: SLL, SRL
//   - Memory: LW, SW
//   - Control flow: BEQ, BNE, J, JAL, JR
//   - Immediates: LUI
//
// Bit positions follow the MIPS reference card numbering used by the
// assembler: bit 0 is the most significant bit of the word.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode(0x00221820) // ADD $3, $1, $2
//	fmt.Printf("Op: %v, Rd: %d, Rs: %d, Rt: %d\n", inst.Op, inst.Rd, inst.Rs, inst.Rt)
package insts
