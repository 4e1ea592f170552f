package pipeline

import (
	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
)

// ForwardSource indicates where an operand value came from.
type ForwardSource int

const (
	// ForwardNone means the value was read from the register file.
	ForwardNone ForwardSource = iota
	// ForwardFromEXMEM means the value was bypassed from EX/MEM.
	ForwardFromEXMEM
	// ForwardFromMEMWB means the value was bypassed from MEM/WB.
	ForwardFromMEMWB
)

func (s ForwardSource) String() string {
	switch s {
	case ForwardFromEXMEM:
		return "EX/MEM"
	case ForwardFromMEMWB:
		return "MEM/WB"
	default:
		return "RF"
	}
}

// HazardPolicy decides when the instruction in IF/ID must wait and whether
// operands may bypass the register file.
type HazardPolicy interface {
	// Name identifies the policy in logs and reports.
	Name() string

	// Stall is evaluated on the latches as they were at the start of the
	// cycle.
	Stall(ifid *IFIDRegister, idex *IDEXRegister, exmem *EXMEMRegister) bool

	// Forwards reports whether operands are bypassed from later latches.
	Forwards() bool
}

// StallOnDependency stalls while any in-flight producer in ID/EX or EX/MEM
// writes a register the IF/ID instruction reads. Operands always come from
// the register file.
type StallOnDependency struct{}

// Name returns "stall".
func (StallOnDependency) Name() string { return "stall" }

// Stall implements HazardPolicy.
func (StallOnDependency) Stall(ifid *IFIDRegister, idex *IDEXRegister, exmem *EXMEMRegister) bool {
	return ifid.Inst.DependsOn(&idex.Inst) || ifid.Inst.DependsOn(&exmem.Inst)
}

// Forwards implements HazardPolicy.
func (StallOnDependency) Forwards() bool { return false }

// ForwardWithLoadUseStall bypasses results from EX/MEM and MEM/WB, and only
// stalls when the producer in ID/EX is a load or LUI whose value is not yet
// available to the bypass network.
type ForwardWithLoadUseStall struct{}

// Name returns "forward".
func (ForwardWithLoadUseStall) Name() string { return "forward" }

// Stall implements HazardPolicy.
func (ForwardWithLoadUseStall) Stall(ifid *IFIDRegister, idex *IDEXRegister, _ *EXMEMRegister) bool {
	producer := &idex.Inst
	if !producer.IsLoad() && !producer.IsLUI() {
		return false
	}
	return ifid.Inst.DependsOn(producer)
}

// Forwards implements HazardPolicy.
func (ForwardWithLoadUseStall) Forwards() bool { return true }

// PolicyFor returns the policy for the given forwarding setting.
func PolicyFor(forwarding bool) HazardPolicy {
	if forwarding {
		return ForwardWithLoadUseStall{}
	}
	return StallOnDependency{}
}

// Operands holds the resolved rs and rt values of an instruction entering
// ID/EX, and where each came from.
type Operands struct {
	R1, R2           int64
	Source1, Source2 ForwardSource
}

// Forwarded returns the number of operands taken from the bypass network.
func (o Operands) Forwarded() int {
	n := 0
	if o.Source1 != ForwardNone {
		n++
	}
	if o.Source2 != ForwardNone {
		n++
	}
	return n
}

// HazardUnit detects data hazards and resolves operands under a policy.
type HazardUnit struct {
	policy HazardPolicy
}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit(policy HazardPolicy) *HazardUnit {
	return &HazardUnit{policy: policy}
}

// Policy returns the active policy.
func (h *HazardUnit) Policy() HazardPolicy {
	return h.policy
}

// DetectStall reports whether the IF/ID instruction must be held this cycle.
func (h *HazardUnit) DetectStall(
	ifid *IFIDRegister,
	idex *IDEXRegister,
	exmem *EXMEMRegister,
) bool {
	return h.policy.Stall(ifid, idex, exmem)
}

// ResolveOperands reads the rs and rt operands of inst. exmem and memwb are
// the latches as they will be at the end of this cycle.
func (h *HazardUnit) ResolveOperands(
	inst *insts.Instruction,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
	regFile *emu.RegFile,
) Operands {
	var ops Operands
	ops.R1, ops.Source1 = h.resolve(inst.Rs, inst, exmem, memwb, regFile)
	ops.R2, ops.Source2 = h.resolve(inst.Rt, inst, exmem, memwb, regFile)
	return ops
}

// resolve picks the value of one register. EX/MEM has precedence over MEM/WB
// as it holds the more recent value, and a bypass only applies when the
// consumer actually reads the register.
func (h *HazardUnit) resolve(
	reg uint8,
	inst *insts.Instruction,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
	regFile *emu.RegFile,
) (int64, ForwardSource) {
	if h.policy.Forwards() && inst.Reads(int(reg)) {
		if exmem.Inst.Writes(int(reg)) {
			return exmem.ALUResult, ForwardFromEXMEM
		}
		if memwb.Writes() && memwb.WriteReg == int(reg) {
			return memwb.WriteValue, ForwardFromMEMWB
		}
	}

	return regFile.ReadReg(reg), ForwardNone
}
