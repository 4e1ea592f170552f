// Package emu provides the architectural state of the simulated machine and a
// functional reference emulator.
package emu

// NumRegs is the number of general-purpose registers.
const NumRegs = 32

// RegFile represents the general-purpose register file and program counter.
//
// Register 0 is an ordinary register: writes to it persist and reads return
// the last value written.
type RegFile struct {
	// R holds registers $0-$31.
	R [NumRegs]int64

	// PC is the byte address of the next instruction to fetch.
	PC uint64
}

// ReadReg reads a register value.
func (r *RegFile) ReadReg(reg uint8) int64 {
	return r.R[reg%NumRegs]
}

// WriteReg writes a value to a register.
func (r *RegFile) WriteReg(reg uint8, value int64) {
	r.R[reg%NumRegs] = value
}

// Snapshot returns a copy of all register values.
func (r *RegFile) Snapshot() [NumRegs]int64 {
	return r.R
}
