package log_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/log"
)

var _ = Describe("Logger", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		log.SetOutput(buf, log.LevelTrace)
	})

	AfterEach(func() {
		log.DisableModule(log.PipelineModule)
		log.DisableModule(log.LatencyModule)
	})

	It("should parse level names", func() {
		lvl, err := log.ParseLevel("warning")
		Expect(err).NotTo(HaveOccurred())
		Expect(lvl).To(Equal(log.LevelWarn))

		_, err = log.ParseLevel("loud")
		Expect(err).To(HaveOccurred())
	})

	It("should drop trace output for disabled modules", func() {
		log.Trace(log.PipelineModule, "stall")
		Expect(buf.String()).To(BeEmpty())
	})

	It("should emit trace output for enabled modules", func() {
		log.EnableModules("pipeline, latency")

		log.Trace(log.PipelineModule, "stall", "cycle", 3)
		log.Debug(log.LatencyModule, "miss")

		Expect(buf.String()).To(ContainSubstring("level=TRACE"))
		Expect(buf.String()).To(ContainSubstring("module=pipeline"))
		Expect(buf.String()).To(ContainSubstring("cycle=3"))
		Expect(buf.String()).To(ContainSubstring("msg=miss"))
	})

	It("should not filter info by module", func() {
		log.Info(log.CoreModule, "run finished")
		Expect(buf.String()).To(ContainSubstring("run finished"))
	})

	It("should respect the handler level", func() {
		log.SetOutput(buf, log.LevelWarn)
		log.Info(log.CoreModule, "hidden")
		Expect(buf.String()).To(BeEmpty())
	})
})
