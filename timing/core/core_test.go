package core_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/timing/core"
	"github.com/sarchlab/mipsim/timing/latency"
	"github.com/sarchlab/mipsim/timing/pipeline"
)

var _ = Describe("Core", func() {
	var (
		cfg     *core.Config
		program []uint32
		data    []emu.DataEntry
	)

	BeforeEach(func() {
		cfg = core.DefaultConfig()
		data = []emu.DataEntry{{Addr: 0, Value: 5}, {Addr: 4, Value: 7}}
		program = []uint32{
			insts.EncodeI(insts.OpLW, 0, 1, 0),
			insts.EncodeI(insts.OpLW, 0, 2, 4),
			insts.EncodeR(insts.OpADD, 3, 1, 2),
			insts.EncodeI(insts.OpSW, 0, 3, 8),
			insts.EncodeI(insts.OpLW, 0, 4, 8),
		}
	})

	build := func(opts ...core.Option) *core.Core {
		c, err := core.New(cfg, program, data, opts...)
		Expect(err).NotTo(HaveOccurred())
		return c
	}

	It("should run the add, store, load sequence to completion", func() {
		c := build()

		result, err := c.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Halted()).To(BeTrue())
		Expect(result.Stats.Cycles).To(Equal(uint64(10)))
		Expect(result.Stats.Instructions).To(Equal(uint64(5)))
		Expect(result.Registers[3]).To(Equal(int64(12)))
		Expect(result.Registers[4]).To(Equal(int64(12)))
		Expect(result.Memory).To(HaveLen(emu.DefaultDataWords))
		Expect(result.Memory[2]).To(Equal(int64(12)))
		Expect(c.Cycles()).To(Equal(uint64(10)))
		Expect(c.Instructions()).To(Equal(uint64(5)))
	})

	It("should report simulated time at the configured clock", func() {
		cfg.ClockGHz = 2
		c := build()

		result, err := c.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(result.SimulatedSeconds).To(BeNumerically("~", 10/2e9, 1e-15))
	})

	It("should stall on every dependency without forwarding", func() {
		cfg.Forwarding = false
		c := build()

		result, err := c.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Pipeline.HazardPolicy().Forwards()).To(BeFalse())
		Expect(result.Stats.Forwards).To(BeZero())
		Expect(result.Stats.Cycles).To(BeNumerically(">", 10))
		Expect(result.Registers[4]).To(Equal(int64(12)))
	})

	It("should freeze on every load when nothing hits", func() {
		cfg.Latency.Enabled = true
		cfg.Latency.HitProbability = 0
		cfg.Latency.MissPenalty = 3
		c := build()

		result, err := c.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Stats.LoadMisses).To(Equal(uint64(3)))
		Expect(result.Stats.LatencyStalls).To(Equal(uint64(6)))
		Expect(result.Stats.Cycles).To(Equal(10 + result.Stats.LatencyStalls))
		Expect(result.Registers[4]).To(Equal(int64(12)))
	})

	It("should reproduce a stochastic run under the same seed", func() {
		cfg.Latency.Enabled = true
		cfg.Latency.Seed = 42

		first, err := build().Run()
		Expect(err).NotTo(HaveOccurred())
		second, err := build().Run()
		Expect(err).NotTo(HaveOccurred())

		Expect(second.Stats).To(Equal(first.Stats))
	})

	It("should let an explicit latency model override the config", func() {
		cfg.Latency.Enabled = true
		cfg.Latency.HitProbability = 0
		c := build(core.WithLatencyModel(nil))

		result, err := c.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Stats.LatencyStalls).To(BeZero())
	})

	It("should feed the tracer one record per cycle", func() {
		var records []pipeline.CycleRecord
		c := build(core.WithTracer(pipeline.TracerFunc(func(rec pipeline.CycleRecord) {
			records = append(records, rec)
		})))

		result, err := c.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(int(result.Stats.Cycles)))
	})

	It("should stop at the cycle bound", func() {
		cfg.MaxCycles = 20
		program = []uint32{insts.EncodeJ(insts.OpJ, 0)}
		c := build()

		_, err := c.Run()

		Expect(errors.Is(err, pipeline.ErrCycleLimit)).To(BeTrue())
		Expect(c.Cycles()).To(Equal(uint64(20)))
	})

	It("should reject a program that does not fit", func() {
		cfg.InstructionWords = 2

		_, err := core.New(cfg, program, data)

		Expect(err).To(MatchError(ContainSubstring("failed to load program")))
		Expect(errors.Is(err, emu.ErrAddressOutOfRange)).To(BeTrue())
	})

	It("should reject data outside the store", func() {
		cfg.DataWords = 1

		_, err := core.New(cfg, program, data)

		Expect(err).To(MatchError(ContainSubstring("failed to load data")))
	})

	It("should reject an invalid config", func() {
		cfg.Latency.Enabled = true
		cfg.Latency.MissPenalty = 0

		_, err := core.New(cfg, program, data)

		Expect(err).To(MatchError(ContainSubstring("invalid core config")))
	})

	It("should run in tags mode", func() {
		cfg.Latency = &latency.Config{
			Enabled:     true,
			Mode:        latency.ModeTags,
			MissPenalty: 2,
			TagSets:     4,
			TagWays:     2,
			BlockSize:   16,
		}
		c := build()

		result, err := c.Run()

		Expect(err).NotTo(HaveOccurred())
		// addresses 0, 4 and 8 share one block: only the first load misses
		Expect(result.Stats.LoadMisses).To(Equal(uint64(1)))
		Expect(result.Stats.LatencyStalls).To(Equal(uint64(1)))
	})

	Describe("Verify", func() {
		It("should agree with the emulator", func() {
			c := build()
			_, err := c.Run()
			Expect(err).NotTo(HaveOccurred())

			Expect(c.Verify()).To(Succeed())
		})

		It("should agree without forwarding and under load misses", func() {
			cfg.Forwarding = false
			cfg.Latency.Enabled = true
			c := build()
			_, err := c.Run()
			Expect(err).NotTo(HaveOccurred())

			Expect(c.Verify()).To(Succeed())
		})

		It("should flag a program that runs past an embedded NOOP", func() {
			// The emulator halts at the NOOP; the pipeline keeps fetching
			// while older instructions are in flight.
			program = []uint32{
				insts.EncodeI(insts.OpLUI, 0, 1, 1),
				0,
				insts.EncodeI(insts.OpLUI, 0, 2, 1),
			}
			c := build()
			_, err := c.Run()
			Expect(err).NotTo(HaveOccurred())

			Expect(c.Verify()).To(MatchError(core.ErrMismatch))
		})
	})
})
