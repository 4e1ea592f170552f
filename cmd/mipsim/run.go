package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/mipsim/asm"
	"github.com/sarchlab/mipsim/loader"
	"github.com/sarchlab/mipsim/timing/core"
	"github.com/sarchlab/mipsim/timing/latency"
	"github.com/sarchlab/mipsim/timing/trace"
)

// plotPoints bounds the samples kept for --plot.
const plotPoints = 4096

// simFlags are the core settings shared by run and debug.
type simFlags struct {
	configPath  string
	forwarding  bool
	latency     bool
	latencyMode string
	hitProb     float64
	missPenalty int
	seed        uint64
	maxCycles   uint64
	signExtend  bool
	asm         bool
}

func (f *simFlags) register(cmd *cobra.Command) {
	defaults := core.DefaultConfig()

	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", "", "Path to core configuration JSON file")
	flags.BoolVar(&f.forwarding, "forwarding", defaults.Forwarding,
		"Forward results to dependent instructions (false stalls on every dependency)")
	flags.BoolVar(&f.latency, "latency", defaults.Latency.Enabled, "Enable the load-latency model")
	flags.StringVar(&f.latencyMode, "latency-mode", defaults.Latency.Mode,
		"Miss classifier: stochastic or tags")
	flags.Float64Var(&f.hitProb, "hit-prob", defaults.Latency.HitProbability,
		"Load hit probability in stochastic mode")
	flags.IntVar(&f.missPenalty, "miss-penalty", defaults.Latency.MissPenalty, "Miss penalty N in cycles")
	flags.Uint64Var(&f.seed, "seed", defaults.Latency.Seed, "Seed for the stochastic classifier")
	flags.Uint64Var(&f.maxCycles, "max-cycles", defaults.MaxCycles, "Cycle bound, must be positive")
	flags.BoolVar(&f.signExtend, "sign-extend", defaults.SignExtendOffsets,
		"Treat branch offsets as signed")
	flags.BoolVar(&f.asm, "asm", false, "Treat the program argument as assembly source")
}

// config loads the config file, if any, and applies the flags the user
// set on top of it.
func (f *simFlags) config(cmd *cobra.Command) (*core.Config, error) {
	cfg := core.DefaultConfig()
	if f.configPath != "" {
		var err error
		cfg, err = core.LoadConfig(f.configPath)
		if err != nil {
			return nil, err
		}
	}
	if cfg.Latency == nil {
		cfg.Latency = latency.DefaultConfig()
	}

	changed := cmd.Flags().Changed
	if changed("forwarding") {
		cfg.Forwarding = f.forwarding
	}
	if changed("max-cycles") {
		cfg.MaxCycles = f.maxCycles
	}
	if changed("sign-extend") {
		cfg.SignExtendOffsets = f.signExtend
	}
	if changed("latency") {
		cfg.Latency.Enabled = f.latency
	}
	if changed("latency-mode") {
		cfg.Latency.Mode = f.latencyMode
	}
	if changed("hit-prob") {
		cfg.Latency.HitProbability = f.hitProb
	}
	if changed("miss-penalty") {
		cfg.Latency.MissPenalty = f.missPenalty
	}
	if changed("seed") {
		cfg.Latency.Seed = f.seed
	}

	return cfg, nil
}

// image reads the program (image or source) and the optional data image.
func (f *simFlags) image(args []string) (*loader.Image, error) {
	dataPath := ""
	if len(args) > 1 {
		dataPath = args[1]
	}

	if !f.asm {
		return loader.Load(args[0], dataPath)
	}

	src, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() { _ = src.Close() }()

	program, err := asm.Assemble(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", args[0], err)
	}

	img := &loader.Image{Program: program}
	if dataPath != "" {
		img.Data, err = loader.LoadDataFile(dataPath)
		if err != nil {
			return nil, err
		}
	}

	return img, nil
}

func newRunCmd() *cobra.Command {
	var (
		sim      simFlags
		plotPath string
		traceOut bool
		check    bool
		prof     profiler
	)

	cmd := &cobra.Command{
		Use:   "run <program> [data]",
		Short: "Run a program to completion and print the report",
		Long: `Run loads a program image (one decimal word per line) and an optional
data image ("address-value" per line), runs the pipeline until it drains and
prints cycles, retired instructions, the register file and memory.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sim.config(cmd)
			if err != nil {
				return err
			}

			img, err := sim.image(args)
			if err != nil {
				return err
			}

			var opts []core.Option
			var counter *trace.Counter
			if plotPath != "" {
				counter = trace.NewCounter(plotPoints)
				opts = append(opts, core.WithTracer(counter))
			}
			var printer *trace.Printer
			if traceOut {
				printer = trace.NewPrinter(cmd.OutOrStdout())
				opts = append(opts, core.WithTracer(printer))
			}

			c, err := core.New(cfg, img.Program, img.Data, opts...)
			if err != nil {
				return err
			}

			if err := prof.start(); err != nil {
				return err
			}
			result, err := c.Run()
			if perr := prof.stop(); err == nil && perr != nil {
				err = perr
			}
			if err != nil {
				return err
			}

			if printer != nil && printer.Err() != nil {
				return fmt.Errorf("failed to write trace: %w", printer.Err())
			}

			if check {
				if err := c.Verify(); err != nil {
					return err
				}
			}

			if counter != nil {
				if err := trace.WritePlot(counter.Points(), nil, plotPath); err != nil {
					return err
				}
			}

			return writeReport(cmd.OutOrStdout(), result)
		},
	}

	sim.register(cmd)
	cmd.Flags().StringVar(&plotPath, "plot", "", "Write a cycle chart to this file (.png, .svg, .pdf)")
	cmd.Flags().BoolVar(&traceOut, "trace", false, "Print the pipeline latches after every cycle")
	cmd.Flags().BoolVar(&check, "check", false,
		"Verify the final state against the functional emulator")
	cmd.Flags().StringVar(&prof.cpuPath, "cpuprofile", "", "Write a CPU profile to this file")
	cmd.Flags().StringVar(&prof.memPath, "memprofile", "", "Write a heap profile to this file")

	return cmd
}
