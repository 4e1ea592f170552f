package core

import (
	"errors"
	"fmt"

	"github.com/sarchlab/mipsim/emu"
)

// ErrMismatch is returned when the pipeline and the functional emulator
// disagree on the final state.
var ErrMismatch = errors.New("pipeline and emulator disagree")

// Verify replays the program on the functional emulator and compares the
// retired instruction count, register file and data store with the core's
// current state. It is meaningful once the core has halted.
func (c *Core) Verify() error {
	imem := emu.NewInstructionMemory(c.config.InstructionWords)
	if err := imem.Load(c.program); err != nil {
		return err
	}
	dmem := emu.NewDataMemory(c.config.DataWords)
	if err := dmem.Load(c.data); err != nil {
		return err
	}

	ref := emu.NewEmulator(imem, dmem,
		emu.WithSignExtendedBranches(c.config.SignExtendOffsets),
		emu.WithMaxInstructions(c.config.MaxCycles),
	)
	if err := ref.Run(); err != nil {
		return fmt.Errorf("emulator: %w", err)
	}

	if want, got := ref.InstructionCount(), c.Instructions(); want != got {
		return fmt.Errorf("%w: emulator retired %d instructions, pipeline %d",
			ErrMismatch, want, got)
	}

	want, got := ref.RegFile().Snapshot(), c.Registers()
	for i := range want {
		if want[i] != got[i] {
			return fmt.Errorf("%w: $%d is %d in the emulator, %d in the pipeline",
				ErrMismatch, i, want[i], got[i])
		}
	}

	mem := c.Memory()
	for i, v := range dmem.Words() {
		if v != mem[i] {
			return fmt.Errorf("%w: memory word %d is %d in the emulator, %d in the pipeline",
				ErrMismatch, i, v, mem[i])
		}
	}

	return nil
}
