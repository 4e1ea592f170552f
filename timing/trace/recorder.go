// Package trace records per-cycle pipeline snapshots and renders them as
// latch trees and cycle charts.
package trace

import (
	"fmt"
	"io"

	"github.com/sarchlab/mipsim/timing/pipeline"
)

// Recorder keeps every cycle record it receives.
type Recorder struct {
	records []pipeline.CycleRecord
	limit   int
}

// NewRecorder creates a recorder. A positive limit keeps only the most
// recent records.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// Record implements pipeline.Tracer.
func (r *Recorder) Record(rec pipeline.CycleRecord) {
	r.records = append(r.records, rec)
	if r.limit > 0 && len(r.records) > r.limit {
		r.records = r.records[len(r.records)-r.limit:]
	}
}

// Records returns the recorded cycles, oldest first.
func (r *Recorder) Records() []pipeline.CycleRecord {
	return r.records
}

// Len returns the number of recorded cycles.
func (r *Recorder) Len() int {
	return len(r.records)
}

// Reset drops all records.
func (r *Recorder) Reset() {
	r.records = r.records[:0]
}

// Printer writes the latch tree of every cycle to w.
type Printer struct {
	w   io.Writer
	err error
}

// NewPrinter creates a tracer that prints to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Record implements pipeline.Tracer. The first write error stops output
// and is kept for Err.
func (p *Printer) Record(rec pipeline.CycleRecord) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprint(p.w, Tree(rec).String())
}

// Err returns the first write error, if any.
func (p *Printer) Err() error {
	return p.err
}
