package trace

import (
	"fmt"

	"github.com/xlab/treeprint"

	"github.com/sarchlab/mipsim/timing/pipeline"
)

// Tree renders one cycle record as a tree with a branch per latch.
func Tree(rec pipeline.CycleRecord) treeprint.Tree {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("cycle %d, next pc %d%s", rec.Cycle, rec.PC, flags(rec)))

	ifid := tree.AddMetaBranch("IF/ID", rec.IFID.Inst.String())
	if !rec.IFID.Empty() {
		ifid.AddMetaNode("pc", rec.IFID.PC)
	}

	idex := tree.AddMetaBranch("ID/EX", rec.IDEX.Inst.String())
	if !rec.IDEX.Empty() {
		idex.AddMetaNode("pc", rec.IDEX.PC)
		idex.AddMetaNode("r1", rec.IDEX.R1)
		idex.AddMetaNode("r2", rec.IDEX.R2)
	}

	exmem := tree.AddMetaBranch("EX/MEM", rec.EXMEM.Inst.String())
	if !rec.EXMEM.Empty() {
		exmem.AddMetaNode("pc", rec.EXMEM.PC)
		switch {
		case rec.EXMEM.Inst.IsLoad():
			exmem.AddMetaNode("load", rec.EXMEM.LoadAddr)
		case rec.EXMEM.Inst.IsStore():
			exmem.AddMetaNode("store", fmt.Sprintf("%d <- %d", rec.EXMEM.StoreAddr, rec.EXMEM.StoreValue))
		case rec.EXMEM.Inst.IsBranch():
			exmem.AddMetaNode("taken", rec.EXMEM.BranchTaken)
			exmem.AddMetaNode("target", rec.EXMEM.BranchTarget)
		default:
			exmem.AddMetaNode("alu", rec.EXMEM.ALUResult)
		}
	}

	memwb := tree.AddMetaBranch("MEM/WB", rec.MEMWB.Inst.String())
	if !rec.MEMWB.Empty() {
		memwb.AddMetaNode("pc", rec.MEMWB.PC)
		if rec.MEMWB.Writes() {
			memwb.AddMetaNode(fmt.Sprintf("$%d", rec.MEMWB.WriteReg), rec.MEMWB.WriteValue)
		}
	}

	return tree
}

func flags(rec pipeline.CycleRecord) string {
	switch {
	case rec.Frozen:
		return " [frozen]"
	case rec.Hazard:
		return " [stall]"
	case rec.Action == pipeline.FetchSquash || rec.Action == pipeline.FetchJump:
		return " [" + rec.Action.String() + "]"
	default:
		return ""
	}
}
