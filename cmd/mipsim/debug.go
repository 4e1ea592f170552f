package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/timing/core"
	"github.com/sarchlab/mipsim/timing/trace"
)

const debugHelp = `commands:
  step [n]          advance n cycles (default 1) and show the latches
  run               run until the pipeline drains
  regs              show the register file
  mem <addr> [n]    show n data words from byte address addr (default 1)
  latches           show the latches after the last cycle
  stats             show the counters
  pc                show the fetch address
  help              show this text
  quit              leave the debugger`

func newDebugCmd() *cobra.Command {
	var sim simFlags

	cmd := &cobra.Command{
		Use:   "debug <program> [data]",
		Short: "Step a program cycle by cycle",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sim.config(cmd)
			if err != nil {
				return err
			}

			img, err := sim.image(args)
			if err != nil {
				return err
			}

			d, err := newDebugger(cfg, img.Program, img.Data, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt: "(mipsim) ",
				Stdin:  io.NopCloser(cmd.InOrStdin()),
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("failed to start readline: %w", err)
			}
			defer func() { _ = rl.Close() }()

			fmt.Fprintln(cmd.OutOrStdout(), "type 'help' for commands")
			for {
				line, err := rl.Readline()
				if err != nil {
					if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
						return nil
					}
					return err
				}

				quit, err := d.exec(line)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				}
				if quit {
					return nil
				}
			}
		},
	}

	sim.register(cmd)

	return cmd
}

// debugger executes console commands against a core.
type debugger struct {
	core *core.Core
	last *trace.Recorder
	out  io.Writer
}

func newDebugger(
	cfg *core.Config,
	program []uint32,
	data []emu.DataEntry,
	out io.Writer,
) (*debugger, error) {
	last := trace.NewRecorder(1)

	c, err := core.New(cfg, program, data, core.WithTracer(last))
	if err != nil {
		return nil, err
	}

	return &debugger{core: c, last: last, out: out}, nil
}

// exec runs one command line and reports whether the session should end.
func (d *debugger) exec(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch cmd, args := fields[0], fields[1:]; cmd {
	case "step", "s":
		return false, d.step(args)
	case "run", "r":
		return false, d.run()
	case "regs":
		d.regs()
	case "mem", "m":
		return false, d.mem(args)
	case "latches", "l":
		d.latches()
	case "stats":
		d.stats()
	case "pc":
		fmt.Fprintf(d.out, "pc %d\n", d.core.Pipeline.PC())
	case "help", "h", "?":
		fmt.Fprintln(d.out, debugHelp)
	case "quit", "q", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q (try 'help')", cmd)
	}

	return false, nil
}

func (d *debugger) step(args []string) error {
	n := uint64(1)
	if len(args) > 0 {
		v, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || v == 0 {
			return fmt.Errorf("bad cycle count %q", args[0])
		}
		n = v
	}

	if d.core.Halted() {
		fmt.Fprintln(d.out, "halted")
		return nil
	}

	running, err := d.core.Pipeline.RunCycles(n)
	if err != nil {
		return err
	}

	d.latches()
	if !running {
		fmt.Fprintln(d.out, "halted")
	}
	return nil
}

func (d *debugger) run() error {
	if err := d.core.Pipeline.Run(d.core.Config().MaxCycles); err != nil {
		return err
	}
	fmt.Fprintln(d.out, "halted")
	d.stats()
	return nil
}

func (d *debugger) regs() {
	regs := d.core.Registers()
	for row := 0; row < len(regs); row += registersPerRow {
		for i := row; i < row+registersPerRow; i++ {
			fmt.Fprintf(d.out, "$%-2d %-12d", i, regs[i])
		}
		fmt.Fprintln(d.out)
	}
}

func (d *debugger) mem(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: mem <addr> [n]")
	}

	addr, err := strconv.ParseInt(args[0], 0, 64)
	if err != nil {
		return fmt.Errorf("bad address %q", args[0])
	}

	n := 1
	if len(args) > 1 {
		n, err = strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return fmt.Errorf("bad word count %q", args[1])
		}
	}

	dmem := d.core.Pipeline.DataMemory()
	for i := 0; i < n; i++ {
		a := addr + int64(4*i)
		v, err := dmem.Read(a)
		if err != nil {
			return err
		}
		fmt.Fprintf(d.out, "[%d] %d\n", a, v)
	}
	return nil
}

func (d *debugger) latches() {
	records := d.last.Records()
	if len(records) == 0 {
		fmt.Fprintln(d.out, "no cycle simulated yet")
		return
	}
	fmt.Fprint(d.out, trace.Tree(records[len(records)-1]).String())
}

func (d *debugger) stats() {
	s := d.core.Stats()
	fmt.Fprintf(d.out, "cycles %d, instructions %d, cpi %.3f\n", s.Cycles, s.Instructions, s.CPI())
	fmt.Fprintf(d.out, "hazard stalls %d, forwards %d\n", s.HazardStalls, s.Forwards)
	fmt.Fprintf(d.out, "branch bubbles %d, jump bubbles %d, branches taken %d\n",
		s.BranchBubbles, s.JumpBubbles, s.BranchesTaken)
	fmt.Fprintf(d.out, "latency stalls %d, load misses %d\n", s.LatencyStalls, s.LoadMisses)
}
