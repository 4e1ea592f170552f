package trace

import "github.com/sarchlab/mipsim/timing/pipeline"

// Point is the cumulative state of a run after one cycle.
type Point struct {
	Cycle         uint64
	Retired       uint64
	HazardStalls  uint64
	ControlStalls uint64
	LatencyStalls uint64
}

func (p *Point) add(rec pipeline.CycleRecord) {
	p.Cycle = rec.Cycle
	switch {
	case rec.Frozen:
		p.LatencyStalls++
	case rec.Hazard:
		p.HazardStalls++
	}
	if !rec.Frozen && (rec.Action == pipeline.FetchSquash || rec.Action == pipeline.FetchJump) {
		p.ControlStalls++
	}
	if rec.Retired {
		p.Retired++
	}
}

// Counter folds cycle records into cumulative points as they arrive.
//
// With a positive limit the counter keeps at most limit sampled points:
// whenever the limit is exceeded every other point is dropped and the
// sampling stride doubles. The final state is always reported by Points.
type Counter struct {
	acc    Point
	points []Point
	limit  int
	stride uint64
	seen   uint64
}

// NewCounter creates a counter. A limit of 0 keeps a point per cycle.
func NewCounter(limit int) *Counter {
	return &Counter{limit: limit, stride: 1}
}

// Record implements pipeline.Tracer.
func (c *Counter) Record(rec pipeline.CycleRecord) {
	c.acc.add(rec)
	c.seen++
	if c.seen%c.stride != 0 {
		return
	}

	c.points = append(c.points, c.acc)
	if c.limit > 0 && len(c.points) > c.limit {
		// points[i] was taken at sample (i+1)*stride; keep the even multiples.
		kept := c.points[:0]
		for i := 1; i < len(c.points); i += 2 {
			kept = append(kept, c.points[i])
		}
		c.points = kept
		c.stride *= 2
	}
}

// Total returns the cumulative state after the last recorded cycle.
func (c *Counter) Total() Point {
	return c.acc
}

// Points returns the sampled points, oldest first, ending with the last
// recorded cycle.
func (c *Counter) Points() []Point {
	points := append([]Point(nil), c.points...)
	if c.seen > 0 && (len(points) == 0 || points[len(points)-1] != c.acc) {
		points = append(points, c.acc)
	}
	return points
}

// Series folds records into cumulative counts per cycle.
func Series(records []pipeline.CycleRecord) []Point {
	c := NewCounter(0)
	for _, rec := range records {
		c.Record(rec)
	}
	return c.Points()
}
