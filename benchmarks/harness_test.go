package benchmarks_test

import (
	"bytes"
	"encoding/json"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/benchmarks"
)

var _ = Describe("Harness", func() {
	var (
		out     *bytes.Buffer
		harness *benchmarks.Harness
		results []benchmarks.BenchmarkResult
	)

	byKey := func(name, variant string) benchmarks.BenchmarkResult {
		for _, r := range results {
			if r.Name == name && r.Variant == variant {
				return r
			}
		}
		Fail("no result for " + name + "/" + variant)
		return benchmarks.BenchmarkResult{}
	}

	BeforeEach(func() {
		out = &bytes.Buffer{}
		config := benchmarks.DefaultConfig()
		config.Output = out
		harness = benchmarks.NewHarness(config)
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
		results = harness.RunAll()
	})

	It("should run every benchmark under every variant", func() {
		Expect(results).To(HaveLen(len(benchmarks.GetMicrobenchmarks()) * len(benchmarks.DefaultVariants())))
	})

	It("should match the functional emulator everywhere", func() {
		for _, r := range results {
			Expect(r.Err).To(BeEmpty(), r.Name+"/"+r.Variant)
			Expect(r.Verified).To(BeTrue(), r.Name+"/"+r.Variant)
		}
	})

	It("should never be faster without forwarding or with load misses", func() {
		for _, b := range benchmarks.GetMicrobenchmarks() {
			forward := byKey(b.Name, "forward")
			Expect(byKey(b.Name, "stall").SimulatedCycles).To(BeNumerically(">=", forward.SimulatedCycles), b.Name)
			Expect(byKey(b.Name, "forward+latency").SimulatedCycles).To(BeNumerically(">=", forward.SimulatedCycles), b.Name)
		}
	})

	It("should remove every dependency stall in the chain with forwarding", func() {
		Expect(byKey("dependency_chain", "forward").HazardStalls).To(BeZero())
		Expect(byKey("dependency_chain", "stall").HazardStalls).To(Equal(uint64(42)))
	})

	It("should keep one stall per load-use pair", func() {
		Expect(byKey("load_use", "forward").HazardStalls).To(Equal(uint64(10)))
	})

	It("should count control bubbles", func() {
		Expect(byKey("branch_taken", "forward").ControlBubbles).To(Equal(uint64(10)))
		Expect(byKey("function_calls", "forward").ControlBubbles).To(Equal(uint64(7)))
	})

	It("should print a table", func() {
		harness.PrintResults(results)
		Expect(out.String()).To(ContainSubstring("dependency_chain"))
		Expect(out.String()).To(ContainSubstring("forward+latency"))
	})

	It("should print CSV", func() {
		harness.PrintCSV(results)

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		Expect(lines).To(HaveLen(len(results) + 1))
		Expect(lines[0]).To(HavePrefix("name,variant,cycles"))
	})

	It("should print JSON", func() {
		Expect(harness.PrintJSON(results)).To(Succeed())

		var decoded []benchmarks.BenchmarkResult
		Expect(json.Unmarshal(out.Bytes(), &decoded)).To(Succeed())
		Expect(decoded).To(HaveLen(len(results)))
	})

	It("should record assembly errors", func() {
		h := benchmarks.NewHarness(benchmarks.HarnessConfig{Output: out})
		h.AddBenchmark(benchmarks.Benchmark{Name: "broken", Source: "frob $1"})

		res := h.RunAll()

		Expect(res).To(HaveLen(3))
		Expect(res[0].Err).To(ContainSubstring("unknown mnemonic"))
		Expect(res[0].Verified).To(BeFalse())
	})
})
