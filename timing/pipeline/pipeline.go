package pipeline

import (
	"errors"
	"fmt"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/log"
	"github.com/sarchlab/mipsim/timing/latency"
)

// ErrCycleLimit is returned by Run when the pipeline does not halt within the
// cycle bound.
var ErrCycleLimit = errors.New("cycle limit reached")

// SimError reports a fatal condition together with where it happened.
type SimError struct {
	Cycle uint64
	PC    uint64
	Word  uint32
	Err   error
}

func (e *SimError) Error() string {
	return fmt.Sprintf("cycle %d, pc %d, word 0x%08X: %v", e.Cycle, e.PC, e.Word, e.Err)
}

func (e *SimError) Unwrap() error { return e.Err }

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired through MEM/WB.
	Instructions uint64
	// HazardStalls is the number of cycles IF/ID was held on a data hazard.
	HazardStalls uint64
	// BranchBubbles is the number of fetch slots lost to pending branches.
	BranchBubbles uint64
	// JumpBubbles is the number of fetch slots lost to jumps.
	JumpBubbles uint64
	// LatencyStalls is the number of cycles frozen by the latency model.
	LatencyStalls uint64
	// LoadMisses is the number of loads classified as misses.
	LoadMisses uint64
	// Forwards is the number of operands taken from the bypass network.
	Forwards uint64
	// BranchesTaken is the number of branches that redirected fetch.
	BranchesTaken uint64
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// CycleRecord is a snapshot of the pipeline at the end of one cycle.
type CycleRecord struct {
	Cycle uint64
	// PC is the fetch address for the next cycle.
	PC uint64

	IFID  IFIDRegister
	IDEX  IDEXRegister
	EXMEM EXMEMRegister
	MEMWB MEMWBRegister

	Hazard        bool
	BranchPending bool
	Frozen        bool
	Retired       bool
	Action        FetchAction
}

// Tracer receives a record for every simulated cycle.
type Tracer interface {
	Record(rec CycleRecord)
}

// TracerFunc adapts a function to the Tracer interface.
type TracerFunc func(rec CycleRecord)

// Record calls f(rec).
func (f TracerFunc) Record(rec CycleRecord) { f(rec) }

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithHazardPolicy selects how data hazards are handled.
func WithHazardPolicy(policy HazardPolicy) PipelineOption {
	return func(p *Pipeline) {
		p.hazardUnit = NewHazardUnit(policy)
	}
}

// WithForwarding selects ForwardWithLoadUseStall when enabled and
// StallOnDependency otherwise.
func WithForwarding(enabled bool) PipelineOption {
	return WithHazardPolicy(PolicyFor(enabled))
}

// WithLatencyModel enables the memory-latency model. A nil model disables
// it.
func WithLatencyModel(model *latency.Model) PipelineOption {
	return func(p *Pipeline) {
		p.latencyModel = model
	}
}

// WithSignExtendedOffsets makes branch offsets signed.
func WithSignExtendedOffsets(enabled bool) PipelineOption {
	return func(p *Pipeline) {
		p.signExtend = enabled
	}
}

// WithTracer adds a per-cycle tracer. Tracers receive each record in the
// order they were added.
func WithTracer(tracer Tracer) PipelineOption {
	return func(p *Pipeline) {
		p.tracers = append(p.tracers, tracer)
	}
}

// Pipeline implements a 5-stage in-order pipeline.
// Stages: Fetch (IF) -> Decode (ID) -> Execute (EX) -> Memory (MEM) -> Writeback (WB)
type Pipeline struct {
	// Pipeline registers
	ifid  IFIDRegister
	idex  IDEXRegister
	exmem EXMEMRegister
	memwb MEMWBRegister

	// Pipeline stages
	fetchStage     *FetchStage
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage

	hazardUnit   *HazardUnit
	controlUnit  *ControlUnit
	latencyModel *latency.Model

	// Shared resources
	regFile *emu.RegFile
	imem    *emu.InstructionMemory
	dmem    *emu.DataMemory

	signExtend bool
	tracers    []Tracer

	// Program counter
	pc uint64

	stats  Statistics
	halted bool
}

// NewPipeline creates a new 5-stage pipeline over the given state. Operands
// are forwarded unless another policy is configured.
func NewPipeline(
	regFile *emu.RegFile,
	imem *emu.InstructionMemory,
	dmem *emu.DataMemory,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		fetchStage:     NewFetchStage(imem),
		memoryStage:    NewMemoryStage(dmem),
		writebackStage: NewWritebackStage(regFile),
		hazardUnit:     NewHazardUnit(ForwardWithLoadUseStall{}),
		controlUnit:    NewControlUnit(),
		regFile:        regFile,
		imem:           imem,
		dmem:           dmem,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.executeStage = NewExecuteStage(p.signExtend)

	return p
}

// PC returns the current program counter.
func (p *Pipeline) PC() uint64 {
	return p.pc
}

// SetPC sets the program counter.
func (p *Pipeline) SetPC(pc uint64) {
	p.pc = pc
	p.regFile.PC = pc
}

// GetIFID returns the IF/ID pipeline register.
func (p *Pipeline) GetIFID() *IFIDRegister {
	return &p.ifid
}

// GetIDEX returns the ID/EX pipeline register.
func (p *Pipeline) GetIDEX() *IDEXRegister {
	return &p.idex
}

// GetEXMEM returns the EX/MEM pipeline register.
func (p *Pipeline) GetEXMEM() *EXMEMRegister {
	return &p.exmem
}

// GetMEMWB returns the MEM/WB pipeline register.
func (p *Pipeline) GetMEMWB() *MEMWBRegister {
	return &p.memwb
}

// RegFile returns the register file.
func (p *Pipeline) RegFile() *emu.RegFile {
	return p.regFile
}

// DataMemory returns the data store.
func (p *Pipeline) DataMemory() *emu.DataMemory {
	return p.dmem
}

// HazardPolicy returns the active hazard policy.
func (p *Pipeline) HazardPolicy() HazardPolicy {
	return p.hazardUnit.Policy()
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	stats := p.stats
	if p.latencyModel != nil {
		stats.LoadMisses = p.latencyModel.Stats().Misses
	}
	return stats
}

// Halted returns true once all four latches hold NOOPs.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// Run ticks until the pipeline halts. A maxCycles of 0 means no bound;
// otherwise ErrCycleLimit is returned once that many cycles have run
// without halting.
func (p *Pipeline) Run(maxCycles uint64) error {
	for !p.halted {
		if maxCycles > 0 && p.stats.Cycles >= maxCycles {
			return p.fail(p.pc, p.ifid.Inst.Word, ErrCycleLimit)
		}
		if err := p.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// RunCycles executes the pipeline for the specified number of cycles.
// Returns true if still running, false if halted.
func (p *Pipeline) RunCycles(cycles uint64) (bool, error) {
	for i := uint64(0); i < cycles && !p.halted; i++ {
		if err := p.Tick(); err != nil {
			return false, err
		}
	}
	return !p.halted, nil
}

func (p *Pipeline) fail(pc uint64, word uint32, err error) error {
	return &SimError{Cycle: p.stats.Cycles + 1, PC: pc, Word: word, Err: err}
}

// Tick executes one pipeline cycle.
//
// Phase A commits the register write held in MEM/WB and the store held in
// EX/MEM. The latency model then decides whether the cycle is frozen. If it
// is not, phase B computes every latch from the values they held at the
// start of the cycle, in WB->MEM->EX->ID->IF order, and updates PC.
//
// The pipeline halts when all four latches hold NOOPs.
func (p *Pipeline) Tick() error {
	if p.halted {
		return nil
	}

	// Phase A
	p.writebackStage.Writeback(&p.memwb)
	if err := p.memoryStage.CommitStore(&p.exmem); err != nil {
		return p.fail(p.exmem.PC, p.exmem.Inst.Word, err)
	}

	frozen := false
	if p.latencyModel != nil {
		frozen = p.latencyModel.Tick(p.exmem.Inst.IsLoad(), p.exmem.LoadAddr)
	}

	rec := CycleRecord{Frozen: frozen}

	if frozen {
		p.stats.LatencyStalls++
		log.Trace(log.PipelineModule, "frozen on load", "cycle", p.stats.Cycles+1, "pc", p.exmem.PC)
	} else if err := p.advance(&rec); err != nil {
		return err
	}

	p.stats.Cycles++

	if !frozen && !p.memwb.Empty() {
		p.stats.Instructions++
		rec.Retired = true
	}

	p.halted = p.ifid.Empty() && p.idex.Empty() && p.exmem.Empty() && p.memwb.Empty()
	if p.halted {
		log.Trace(log.PipelineModule, "halted", "cycle", p.stats.Cycles)
	}

	if len(p.tracers) > 0 {
		rec.Cycle = p.stats.Cycles
		rec.PC = p.pc
		rec.IFID, rec.IDEX, rec.EXMEM, rec.MEMWB = p.ifid, p.idex, p.exmem, p.memwb
		for _, t := range p.tracers {
			t.Record(rec)
		}
	}

	return nil
}

// advance runs phase B.
func (p *Pipeline) advance(rec *CycleRecord) error {
	oldIFID, oldIDEX, oldEXMEM := p.ifid, p.idex, p.exmem

	branchPending := p.controlUnit.BranchPending(&oldIFID, &oldIDEX)
	hazard := p.hazardUnit.DetectStall(&oldIFID, &oldIDEX, &oldEXMEM)
	rec.BranchPending, rec.Hazard = branchPending, hazard

	// MEM -> WB
	memwb, err := p.memoryStage.Access(&oldEXMEM)
	if err != nil {
		return p.fail(oldEXMEM.PC, oldEXMEM.Inst.Word, err)
	}

	// EX -> MEM
	exmem := p.executeStage.Execute(&oldIDEX)

	// ID -> EX
	var idex IDEXRegister
	if hazard {
		p.stats.HazardStalls++
		log.Trace(log.PipelineModule, "hazard stall",
			"cycle", p.stats.Cycles+1, "pc", oldIFID.PC, "inst", oldIFID.Inst.String())
	} else {
		ops := p.hazardUnit.ResolveOperands(&oldIFID.Inst, &exmem, &memwb, p.regFile)
		p.stats.Forwards += uint64(ops.Forwarded())
		idex = IDEXRegister{
			PC:   oldIFID.PC,
			Inst: oldIFID.Inst,
			R1:   ops.R1,
			R2:   ops.R2,
		}
	}

	// IF
	action := p.controlUnit.Decide(&oldIFID, branchPending, hazard)
	rec.Action = action

	ifid := oldIFID
	switch action {
	case FetchSquash:
		ifid.Clear()
		p.stats.BranchBubbles++
	case FetchJump:
		ifid.Clear()
		p.stats.JumpBubbles++
		if oldIFID.Inst.Class == insts.ClassJumpAndLink {
			p.regFile.WriteReg(insts.LinkReg, int64(p.pc))
		}
	case FetchNext:
		fetched, word, err := p.fetchStage.Fetch(p.pc)
		if err != nil {
			return p.fail(p.pc, word, err)
		}
		ifid = fetched
	}

	// PC
	switch {
	case branchPending && exmem.Inst.IsBranch():
		if taken, target := p.controlUnit.Resolve(&exmem); taken {
			p.stats.BranchesTaken++
			log.Trace(log.PipelineModule, "branch taken",
				"cycle", p.stats.Cycles+1, "pc", exmem.PC, "target", target)
			p.SetPC(target)
		}
	case !branchPending && !hazard:
		if action == FetchJump {
			target := p.controlUnit.JumpTarget(&oldIFID.Inst, &idex)
			log.Trace(log.PipelineModule, "jump",
				"cycle", p.stats.Cycles+1, "pc", oldIFID.PC, "target", target)
			p.SetPC(target)
		} else {
			p.SetPC(p.pc + 4)
		}
	}

	p.ifid, p.idex, p.exmem, p.memwb = ifid, idex, exmem, memwb

	return nil
}
