// Package benchmarks provides a microbenchmark harness that runs small
// programs under each pipeline variant and compares their timing.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/mipsim/asm"
	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/timing/core"
)

// BenchmarkResult holds the timing results for one benchmark under one
// variant.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Variant names the core configuration
	Variant string `json:"variant"`

	// SimulatedCycles is the total cycle count from the timing simulator
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	HazardStalls   uint64 `json:"hazard_stalls"`
	ControlBubbles uint64 `json:"control_bubbles"`
	LatencyStalls  uint64 `json:"latency_stalls"`
	LoadMisses     uint64 `json:"load_misses"`
	Forwards       uint64 `json:"forwards"`

	// Verified is true when the final state matched the functional emulator
	Verified bool `json:"verified"`

	// Err holds the failure, if the run did not complete
	Err string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Source is the assembly text of the program
	Source string

	// Data is the initial data image
	Data []emu.DataEntry

	// SignExtend is set for programs with backward branches
	SignExtend bool
}

// Variant is a named core configuration.
type Variant struct {
	Name   string
	Config func() *core.Config
}

// DefaultVariants returns the three pipeline variants: stall on every
// dependency, forwarding with a load-use stall, and forwarding with the
// stochastic load-latency model.
func DefaultVariants() []Variant {
	return []Variant{
		{
			Name: "stall",
			Config: func() *core.Config {
				cfg := core.DefaultConfig()
				cfg.Forwarding = false
				return cfg
			},
		},
		{
			Name:   "forward",
			Config: core.DefaultConfig,
		},
		{
			Name: "forward+latency",
			Config: func() *core.Config {
				cfg := core.DefaultConfig()
				cfg.Latency.Enabled = true
				return cfg
			},
		},
	}
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Variants are the configurations every benchmark runs under
	Variants []Variant

	// Output is where to write results (default: os.Stdout)
	Output io.Writer
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Variants: DefaultVariants(),
		Output:   os.Stdout,
	}
}

// Harness runs benchmarks and collects timing results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if len(config.Variants) == 0 {
		config.Variants = DefaultVariants()
	}
	return &Harness{config: config}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll runs every benchmark under every variant, benchmark-major.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks)*len(h.config.Variants))

	for _, bench := range h.benchmarks {
		for _, variant := range h.config.Variants {
			results = append(results, h.runBenchmark(bench, variant))
		}
	}

	return results
}

func (h *Harness) runBenchmark(bench Benchmark, variant Variant) BenchmarkResult {
	result := BenchmarkResult{Name: bench.Name, Variant: variant.Name}

	program, err := asm.AssembleString(bench.Source)
	if err != nil {
		result.Err = err.Error()
		return result
	}

	cfg := variant.Config()
	cfg.SignExtendOffsets = bench.SignExtend

	c, err := core.New(cfg, program, bench.Data)
	if err != nil {
		result.Err = err.Error()
		return result
	}

	start := time.Now()
	_, err = c.Run()
	result.WallTime = time.Since(start)

	stats := c.Stats()
	result.SimulatedCycles = stats.Cycles
	result.InstructionsRetired = stats.Instructions
	result.CPI = stats.CPI()
	result.HazardStalls = stats.HazardStalls
	result.ControlBubbles = stats.BranchBubbles + stats.JumpBubbles
	result.LatencyStalls = stats.LatencyStalls
	result.LoadMisses = stats.LoadMisses
	result.Forwards = stats.Forwards

	if err != nil {
		result.Err = err.Error()
		return result
	}

	if err := c.Verify(); err != nil {
		result.Err = err.Error()
		return result
	}
	result.Verified = true

	return result
}

// PrintResults writes results as a table.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	w := h.config.Output

	_, _ = fmt.Fprintf(w, "%-24s %-16s %8s %8s %7s %7s %7s %7s %8s\n",
		"benchmark", "variant", "cycles", "insts", "cpi", "hazard", "control", "latency", "verified")
	for _, r := range results {
		_, _ = fmt.Fprintf(w, "%-24s %-16s %8d %8d %7.3f %7d %7d %7d %8t\n",
			r.Name, r.Variant, r.SimulatedCycles, r.InstructionsRetired, r.CPI,
			r.HazardStalls, r.ControlBubbles, r.LatencyStalls, r.Verified)
		if r.Err != "" {
			_, _ = fmt.Fprintf(w, "  error: %s\n", r.Err)
		}
	}
}

// PrintCSV writes results in CSV format.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,variant,cycles,instructions,cpi,hazard_stalls,control_bubbles,latency_stalls,load_misses,forwards,verified")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%t\n",
			r.Name,
			r.Variant,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.HazardStalls,
			r.ControlBubbles,
			r.LatencyStalls,
			r.LoadMisses,
			r.Forwards,
			r.Verified,
		)
	}
}

// PrintJSON writes results as JSON.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	enc := json.NewEncoder(h.config.Output)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
