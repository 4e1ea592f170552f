package pipeline

import (
	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
)

// FetchStage handles instruction fetch and decode.
type FetchStage struct {
	imem    *emu.InstructionMemory
	decoder *insts.Decoder
}

// NewFetchStage creates a new fetch stage.
func NewFetchStage(imem *emu.InstructionMemory) *FetchStage {
	return &FetchStage{
		imem:    imem,
		decoder: insts.NewDecoder(),
	}
}

// Fetch reads and decodes the instruction at pc. On a decode failure the
// raw word is returned alongside the error.
func (s *FetchStage) Fetch(pc uint64) (IFIDRegister, uint32, error) {
	word, err := s.imem.Read(pc)
	if err != nil {
		return IFIDRegister{}, 0, err
	}

	inst, err := s.decoder.Decode(word)
	if err != nil {
		return IFIDRegister{}, word, err
	}

	return IFIDRegister{PC: pc, Inst: *inst}, word, nil
}

// ExecuteStage handles ALU operations, address calculation and branch
// resolution.
type ExecuteStage struct {
	alu        *emu.ALU
	signExtend bool
}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage(signExtend bool) *ExecuteStage {
	return &ExecuteStage{
		alu:        emu.NewALU(),
		signExtend: signExtend,
	}
}

// Execute computes the EX/MEM contents for the instruction in ID/EX.
func (s *ExecuteStage) Execute(idex *IDEXRegister) EXMEMRegister {
	inst := &idex.Inst
	result := EXMEMRegister{
		PC:   idex.PC,
		Inst: idex.Inst,
	}

	switch {
	case inst.IsALU(), inst.IsLUI():
		result.ALUResult = s.alu.Execute(inst, idex.R1, idex.R2)
	case inst.IsLoad():
		result.LoadAddr = emu.EffectiveAddress(inst, idex.R1)
	case inst.IsStore():
		result.StoreAddr = emu.EffectiveAddress(inst, idex.R1)
		result.StoreValue = idex.R2
	case inst.IsBranch():
		result.BranchTaken = emu.BranchTaken(inst, idex.R1, idex.R2)
		result.BranchTarget = emu.BranchTarget(inst, idex.PC, s.signExtend)
	}

	return result
}

// MemoryStage handles data memory access.
type MemoryStage struct {
	dmem *emu.DataMemory
}

// NewMemoryStage creates a new memory stage.
func NewMemoryStage(dmem *emu.DataMemory) *MemoryStage {
	return &MemoryStage{dmem: dmem}
}

// Access computes the MEM/WB contents for the instruction in EX/MEM. Loads
// read the data store; ALU and LUI results pass through.
func (s *MemoryStage) Access(exmem *EXMEMRegister) (MEMWBRegister, error) {
	inst := &exmem.Inst
	result := MEMWBRegister{
		PC:       exmem.PC,
		Inst:     exmem.Inst,
		WriteReg: inst.WriteReg(),
	}

	switch {
	case inst.IsLoad():
		value, err := s.dmem.Read(exmem.LoadAddr)
		if err != nil {
			return MEMWBRegister{}, err
		}
		result.WriteValue = value
	case inst.IsALU(), inst.IsLUI():
		result.WriteValue = exmem.ALUResult
	}

	return result, nil
}

// CommitStore writes the pending store in EX/MEM, if any.
func (s *MemoryStage) CommitStore(exmem *EXMEMRegister) error {
	if !exmem.Inst.IsStore() {
		return nil
	}
	return s.dmem.Write(exmem.StoreAddr, exmem.StoreValue)
}

// WritebackStage commits register results.
type WritebackStage struct {
	regFile *emu.RegFile
}

// NewWritebackStage creates a new writeback stage.
func NewWritebackStage(regFile *emu.RegFile) *WritebackStage {
	return &WritebackStage{regFile: regFile}
}

// Writeback commits the MEM/WB result, if any.
func (s *WritebackStage) Writeback(memwb *MEMWBRegister) {
	if !memwb.Writes() {
		return
	}
	s.regFile.WriteReg(uint8(memwb.WriteReg), memwb.WriteValue)
}
