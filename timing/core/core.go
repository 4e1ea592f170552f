// Package core provides the cycle-level CPU core model.
// It wires the stores, the latency model and the pipeline from a Config and
// runs a program to completion.
package core

import (
	"fmt"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/log"
	"github.com/sarchlab/mipsim/timing/latency"
	"github.com/sarchlab/mipsim/timing/pipeline"
)

// Result is the outcome of a completed run.
type Result struct {
	Stats pipeline.Statistics

	// Registers holds the final register file.
	Registers [emu.NumRegs]int64

	// Memory holds the final data store.
	Memory []int64

	// SimulatedSeconds is Cycles at the configured clock.
	SimulatedSeconds float64
}

// Option configures a Core beyond its Config.
type Option func(*options)

type options struct {
	pipelineOpts []pipeline.PipelineOption
}

// WithTracer installs a per-cycle tracer on the pipeline.
func WithTracer(tracer pipeline.Tracer) Option {
	return func(o *options) {
		o.pipelineOpts = append(o.pipelineOpts, pipeline.WithTracer(tracer))
	}
}

// WithLatencyModel overrides the model built from the Config.
func WithLatencyModel(model *latency.Model) Option {
	return func(o *options) {
		o.pipelineOpts = append(o.pipelineOpts, pipeline.WithLatencyModel(model))
	}
}

// Core represents a cycle-level CPU core model.
// It wraps a 5-stage pipeline and provides a simple interface for simulation.
type Core struct {
	// Pipeline is the underlying 5-stage pipeline.
	Pipeline *pipeline.Pipeline

	config *Config

	program []uint32
	data    []emu.DataEntry

	// Shared resources
	regFile *emu.RegFile
	imem    *emu.InstructionMemory
	dmem    *emu.DataMemory
}

// New builds a core from config and loads the program and data images.
func New(
	config *Config,
	program []uint32,
	data []emu.DataEntry,
	opts ...Option,
) (*Core, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid core config: %w", err)
	}

	imem := emu.NewInstructionMemory(config.InstructionWords)
	if err := imem.Load(program); err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}

	dmem := emu.NewDataMemory(config.DataWords)
	if err := dmem.Load(data); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	pipeOpts := []pipeline.PipelineOption{
		pipeline.WithForwarding(config.Forwarding),
		pipeline.WithSignExtendedOffsets(config.SignExtendOffsets),
	}

	if config.Latency != nil {
		model, err := latency.New(config.Latency)
		if err != nil {
			return nil, fmt.Errorf("invalid latency config: %w", err)
		}
		pipeOpts = append(pipeOpts, pipeline.WithLatencyModel(model))
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	pipeOpts = append(pipeOpts, o.pipelineOpts...)

	regFile := &emu.RegFile{}

	return &Core{
		Pipeline: pipeline.NewPipeline(regFile, imem, dmem, pipeOpts...),
		config:   config,
		program:  program,
		data:     data,
		regFile:  regFile,
		imem:     imem,
		dmem:     dmem,
	}, nil
}

// Config returns the core configuration.
func (c *Core) Config() *Config {
	return c.config
}

// Tick executes one pipeline cycle.
func (c *Core) Tick() error {
	return c.Pipeline.Tick()
}

// Halted returns true once the pipeline has drained.
func (c *Core) Halted() bool {
	return c.Pipeline.Halted()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() pipeline.Statistics {
	return c.Pipeline.Stats()
}

// Cycles returns the number of cycles simulated so far.
func (c *Core) Cycles() uint64 {
	return c.Pipeline.Stats().Cycles
}

// Instructions returns the number of instructions retired so far.
func (c *Core) Instructions() uint64 {
	return c.Pipeline.Stats().Instructions
}

// Registers returns a copy of the register file.
func (c *Core) Registers() [emu.NumRegs]int64 {
	return c.regFile.Snapshot()
}

// Memory returns a copy of the data store.
func (c *Core) Memory() []int64 {
	return c.dmem.Words()
}

// SimulatedSeconds converts the current cycle count to time at the
// configured clock.
func (c *Core) SimulatedSeconds() float64 {
	return float64(c.Cycles()) / float64(c.config.Freq())
}

// Run executes the core until it halts or the cycle bound is reached.
func (c *Core) Run() (*Result, error) {
	log.Info(log.CoreModule, "run started",
		"policy", c.Pipeline.HazardPolicy().Name(),
		"latency", c.config.Latency != nil && c.config.Latency.Enabled,
		"max_cycles", c.config.MaxCycles)

	if err := c.Pipeline.Run(c.config.MaxCycles); err != nil {
		log.Error(log.CoreModule, "run failed", "err", err)
		return nil, err
	}

	result := c.Result()
	log.Info(log.CoreModule, "run finished",
		"cycles", result.Stats.Cycles,
		"instructions", result.Stats.Instructions,
		"cpi", result.Stats.CPI())

	return result, nil
}

// Result snapshots the current state.
func (c *Core) Result() *Result {
	return &Result{
		Stats:            c.Stats(),
		Registers:        c.Registers(),
		Memory:           c.Memory(),
		SimulatedSeconds: c.SimulatedSeconds(),
	}
}
