package insts

// place shifts value into bits [start, end) of a word.
func place(value uint32, start, end uint) uint32 {
	width := end - start
	return (value & (1<<width - 1)) << (32 - end)
}

var rTypeFuncts = map[Op]uint8{
	OpADD: FunctADD,
	OpSUB: FunctSUB,
	OpAND: FunctAND,
	OpOR:  FunctOR,
	OpSLT: FunctSLT,
	OpSLL: FunctSLL,
	OpSRL: FunctSRL,
	OpJR:  FunctJR,
}

var iTypeOpcodes = map[Op]uint8{
	OpLW:  OpcodeLW,
	OpSW:  OpcodeSW,
	OpBEQ: OpcodeBEQ,
	OpBNE: OpcodeBNE,
	OpLUI: OpcodeLUI,
}

var jTypeOpcodes = map[Op]uint8{
	OpJ:   OpcodeJ,
	OpJAL: OpcodeJAL,
}

// EncodeR encodes a register-register arithmetic instruction
// (op rd, rs, rt).
func EncodeR(op Op, rd, rs, rt uint8) uint32 {
	return place(uint32(OpcodeRType), 0, 6) |
		place(uint32(rs), 6, 11) |
		place(uint32(rt), 11, 16) |
		place(uint32(rd), 16, 21) |
		place(uint32(rTypeFuncts[op]), 26, 32)
}

// EncodeShift encodes a shift instruction (op rd, rt, shamt).
func EncodeShift(op Op, rd, rt, shamt uint8) uint32 {
	return place(uint32(OpcodeRType), 0, 6) |
		place(uint32(rt), 11, 16) |
		place(uint32(rd), 16, 21) |
		place(uint32(shamt), 21, 26) |
		place(uint32(rTypeFuncts[op]), 26, 32)
}

// EncodeJR encodes jr rs.
func EncodeJR(rs uint8) uint32 {
	return place(uint32(rs), 6, 11) | place(uint32(FunctJR), 26, 32)
}

// EncodeI encodes a register-immediate instruction. For loads and stores rt
// is the data register and rs the base; for branches rs and rt are the
// compared registers.
func EncodeI(op Op, rs, rt uint8, imm uint16) uint32 {
	return place(uint32(iTypeOpcodes[op]), 0, 6) |
		place(uint32(rs), 6, 11) |
		place(uint32(rt), 11, 16) |
		place(uint32(imm), 16, 32)
}

// EncodeJ encodes j or jal with a word target address.
func EncodeJ(op Op, target uint32) uint32 {
	return place(uint32(jTypeOpcodes[op]), 0, 6) | place(target, 6, 32)
}
