package loader_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/loader"
)

var _ = Describe("Loader", func() {
	Describe("LoadProgram", func() {
		It("should read one decimal word per line", func() {
			words, err := loader.LoadProgram(strings.NewReader("35913728\n\n  2359296 \n0\n"))

			Expect(err).NotTo(HaveOccurred())
			Expect(words).To(Equal([]uint32{35913728, 2359296, 0}))
		})

		It("should accept the full word range", func() {
			words, err := loader.LoadProgram(strings.NewReader("4294967295\n"))

			Expect(err).NotTo(HaveOccurred())
			Expect(words).To(Equal([]uint32{0xFFFFFFFF}))
		})

		It("should return nothing for an empty image", func() {
			words, err := loader.LoadProgram(strings.NewReader(""))

			Expect(err).NotTo(HaveOccurred())
			Expect(words).To(BeEmpty())
		})

		DescribeTable("should reject malformed lines",
			func(text string, line int) {
				_, err := loader.LoadProgram(strings.NewReader(text))

				var lineErr *loader.LineError
				Expect(errors.As(err, &lineErr)).To(BeTrue())
				Expect(lineErr.Line).To(Equal(line))
				Expect(errors.Is(err, strconv.ErrSyntax) || errors.Is(err, strconv.ErrRange)).To(BeTrue())
			},
			Entry("not a number", "1\nadd\n", 2),
			Entry("negative", "-4\n", 1),
			Entry("wider than a word", "\n\n4294967296\n", 3),
		)
	})

	Describe("LoadData", func() {
		It("should read address-value pairs", func() {
			entries, err := loader.LoadData(strings.NewReader("0-5\n4-7\n\n400--12\n"))

			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(Equal([]emu.DataEntry{
				{Addr: 0, Value: 5},
				{Addr: 4, Value: 7},
				{Addr: 400, Value: -12},
			}))
		})

		It("should reject a line without a separator", func() {
			_, err := loader.LoadData(strings.NewReader("12\n"))

			Expect(err).To(MatchError(loader.ErrMissingSeparator))
			Expect(err.Error()).To(ContainSubstring(`line 1 "12"`))
		})

		It("should reject a bad address", func() {
			_, err := loader.LoadData(strings.NewReader("x-1\n"))
			Expect(err).To(MatchError(ContainSubstring("address")))
		})

		It("should reject a bad value", func() {
			_, err := loader.LoadData(strings.NewReader("4-y\n"))
			Expect(err).To(MatchError(ContainSubstring("value")))
		})
	})

	Describe("WriteProgram", func() {
		It("should write a program image LoadProgram reads back", func() {
			var buf bytes.Buffer
			words := []uint32{0x00221820, 0, 0xAC230000}

			Expect(loader.WriteProgram(&buf, words)).To(Succeed())
			Expect(buf.String()).To(Equal("2234400\n0\n2887974912\n"))
		})
	})

	Describe("Load", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		write := func(name, content string) string {
			path := filepath.Join(dir, name)
			Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
			return path
		}

		It("should read both images", func() {
			prog := write("prog.txt", "2234400\n")
			data := write("data.txt", "8-3\n")

			img, err := loader.Load(prog, data)

			Expect(err).NotTo(HaveOccurred())
			Expect(img.Program).To(Equal([]uint32{2234400}))
			Expect(img.Data).To(Equal([]emu.DataEntry{{Addr: 8, Value: 3}}))
		})

		It("should allow a missing data image", func() {
			img, err := loader.Load(write("prog.txt", "0\n"), "")

			Expect(err).NotTo(HaveOccurred())
			Expect(img.Data).To(BeEmpty())
		})

		It("should report a missing file", func() {
			_, err := loader.Load(filepath.Join(dir, "nope.txt"), "")

			Expect(err).To(MatchError(ContainSubstring("failed to open image file")))
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		})

		It("should name the file of a malformed line", func() {
			prog := write("prog.txt", "0\n")
			data := write("data.txt", "oops\n")

			_, err := loader.Load(prog, data)

			Expect(err).To(MatchError(ContainSubstring("data.txt")))
			var lineErr *loader.LineError
			Expect(errors.As(err, &lineErr)).To(BeTrue())
		})
	})
})
