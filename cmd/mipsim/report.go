package main

import (
	"bufio"
	"io"
	"strconv"

	"github.com/sarchlab/mipsim/timing/core"
)

const (
	registersPerRow = 8
	wordsPerRow     = 5000
)

// writeReport prints the run summary in the reference layout: counters,
// the register file in rows of 8 and memory in rows of 5000, each value
// followed by a space.
func writeReport(w io.Writer, result *core.Result) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("Cycles: " + strconv.FormatUint(result.Stats.Cycles, 10) + "\n")
	bw.WriteString("Instructions: " + strconv.FormatUint(result.Stats.Instructions, 10) + "\n")

	bw.WriteString("\nRegister file: \n")
	writeRows(bw, result.Registers[:], registersPerRow)

	bw.WriteString("\nMemory: \n")
	writeRows(bw, result.Memory, wordsPerRow)
	bw.WriteString("\n")

	return bw.Flush()
}

func writeRows(bw *bufio.Writer, values []int64, perRow int) {
	var buf []byte
	for i, v := range values {
		buf = strconv.AppendInt(buf[:0], v, 10)
		buf = append(buf, ' ')
		bw.Write(buf)
		if (i+1)%perRow == 0 || i == len(values)-1 {
			bw.WriteByte('\n')
		}
	}
}
