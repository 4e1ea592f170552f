package pipeline

import "github.com/sarchlab/mipsim/insts"

// FetchAction is the control unit's decision for the IF/ID latch.
type FetchAction int

const (
	// FetchNext fetches the instruction at PC.
	FetchNext FetchAction = iota
	// FetchHold keeps IF/ID unchanged because of a data hazard.
	FetchHold
	// FetchSquash clears IF/ID while a branch is unresolved.
	FetchSquash
	// FetchJump clears IF/ID and redirects PC to a jump target.
	FetchJump
)

func (a FetchAction) String() string {
	switch a {
	case FetchHold:
		return "hold"
	case FetchSquash:
		return "squash"
	case FetchJump:
		return "jump"
	default:
		return "fetch"
	}
}

// ControlUnit resolves branches and jumps. Branches suspend fetch until they
// reach EX/MEM, which costs two bubbles; jumps are taken from IF/ID, which
// costs one.
type ControlUnit struct{}

// NewControlUnit creates a new control-flow unit.
func NewControlUnit() *ControlUnit {
	return &ControlUnit{}
}

// BranchPending reports whether a branch sits in IF/ID or ID/EX.
func (c *ControlUnit) BranchPending(ifid *IFIDRegister, idex *IDEXRegister) bool {
	return ifid.Inst.IsBranch() || idex.Inst.IsBranch()
}

// Decide picks the fetch action. A hazard holds IF/ID; otherwise a pending
// branch squashes it; otherwise a jump in IF/ID is taken.
func (c *ControlUnit) Decide(ifid *IFIDRegister, branchPending, hazard bool) FetchAction {
	switch {
	case hazard:
		return FetchHold
	case branchPending:
		return FetchSquash
	case ifid.Inst.IsJump() || ifid.Inst.IsJumpRegister():
		return FetchJump
	default:
		return FetchNext
	}
}

// JumpTarget returns where the jump in IF/ID goes. JR uses its resolved rs
// operand from the new ID/EX latch.
func (c *ControlUnit) JumpTarget(jump *insts.Instruction, idex *IDEXRegister) uint64 {
	if jump.IsJumpRegister() {
		return uint64(idex.R1)
	}
	return jump.JumpTarget()
}

// Resolve reports whether the branch in EX/MEM redirects fetch, and where.
func (c *ControlUnit) Resolve(exmem *EXMEMRegister) (bool, uint64) {
	if !exmem.Inst.IsBranch() || !exmem.BranchTaken {
		return false, 0
	}
	return true, exmem.BranchTarget
}
