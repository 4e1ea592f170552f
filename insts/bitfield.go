package insts

// field extracts bits [start, end) of word, where bit 0 is the most
// significant bit.
func field(word uint32, start, end uint) uint32 {
	width := end - start
	return (word >> (32 - end)) & (1<<width - 1)
}

// Opcode returns bits [0,6).
func Opcode(word uint32) uint8 { return uint8(field(word, 0, 6)) }

// Rs returns bits [6,11).
func Rs(word uint32) uint8 { return uint8(field(word, 6, 11)) }

// Rt returns bits [11,16).
func Rt(word uint32) uint8 { return uint8(field(word, 11, 16)) }

// Rd returns bits [16,21).
func Rd(word uint32) uint8 { return uint8(field(word, 16, 21)) }

// Shamt returns bits [21,26).
func Shamt(word uint32) uint8 { return uint8(field(word, 21, 26)) }

// Funct returns bits [26,32).
func Funct(word uint32) uint8 { return uint8(field(word, 26, 32)) }

// Immediate returns bits [16,32) as an unsigned value.
func Immediate(word uint32) uint16 { return uint16(field(word, 16, 32)) }

// Address returns bits [6,32), the jump target field.
func Address(word uint32) uint32 { return field(word, 6, 32) }
