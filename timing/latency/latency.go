// Package latency models variable memory latency for loads.
package latency

import (
	"math/rand/v2"

	"github.com/sarchlab/mipsim/log"
	"github.com/sarchlab/mipsim/timing/cache"
)

// Sampler produces uniform values in [0, 1).
type Sampler interface {
	Float64() float64
}

// Classifier decides whether a load to addr misses.
type Classifier interface {
	Miss(addr int64) bool
}

// StochasticClassifier misses with probability 1 - p.
type StochasticClassifier struct {
	hitProbability float64
	sampler        Sampler
}

// NewStochasticClassifier creates a classifier that draws from sampler.
func NewStochasticClassifier(hitProbability float64, sampler Sampler) *StochasticClassifier {
	return &StochasticClassifier{
		hitProbability: hitProbability,
		sampler:        sampler,
	}
}

// Miss draws one sample; a value at or above the hit probability is a miss.
func (c *StochasticClassifier) Miss(_ int64) bool {
	return c.sampler.Float64() >= c.hitProbability
}

// TagClassifier misses when the load's block is not in the tag directory.
type TagClassifier struct {
	directory *cache.Directory
}

// NewTagClassifier creates a classifier over a tag directory.
func NewTagClassifier(directory *cache.Directory) *TagClassifier {
	return &TagClassifier{directory: directory}
}

// Miss touches the directory and reports a miss if the block was absent.
func (c *TagClassifier) Miss(addr int64) bool {
	return !c.directory.Access(uint64(addr))
}

// Directory returns the underlying tag directory.
func (c *TagClassifier) Directory() *cache.Directory {
	return c.directory
}

// Stats holds latency model statistics.
type Stats struct {
	// Misses is the number of loads classified as misses.
	Misses uint64
	// FrozenCycles is the number of cycles the pipeline was held.
	FrozenCycles uint64
}

// Model holds the pipeline while a missing load waits on memory.
//
// On the first cycle a load sits in EX/MEM the classifier is consulted. A
// miss freezes the pipeline and starts a counter at 1; each further cycle
// increments it, and the freeze lifts on the cycle it exceeds N-1.
type Model struct {
	classifier Classifier
	penalty    int

	stalled bool
	delay   int

	stats Stats
}

// NewModel creates a latency model with miss penalty n.
func NewModel(classifier Classifier, n int) *Model {
	return &Model{
		classifier: classifier,
		penalty:    n,
	}
}

// New builds the model described by config, or nil if it is disabled.
func New(config *Config) (*Model, error) {
	if !config.Enabled {
		return nil, nil
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var classifier Classifier
	switch config.Mode {
	case ModeTags:
		classifier = NewTagClassifier(cache.NewDirectory(config.TagConfig()))
	default:
		sampler := rand.New(rand.NewPCG(config.Seed, config.Seed))
		classifier = NewStochasticClassifier(config.HitProbability, sampler)
	}

	return NewModel(classifier, config.MissPenalty), nil
}

// Tick advances the model by one cycle and reports whether the rest of the
// cycle is frozen. loadAtMem is true when EX/MEM holds a load to addr.
func (m *Model) Tick(loadAtMem bool, addr int64) bool {
	if loadAtMem {
		if !m.stalled {
			if m.classifier.Miss(addr) {
				m.stalled = true
				m.delay = 1
				m.stats.Misses++
				log.Trace(log.LatencyModule, "load miss", "addr", addr, "penalty", m.penalty)
			}
		} else {
			m.delay++
			if m.delay > m.penalty-1 {
				m.stalled = false
				m.delay = 0
			}
		}
	}

	if m.stalled {
		m.stats.FrozenCycles++
	}

	return m.stalled
}

// Stalled reports whether a miss is outstanding.
func (m *Model) Stalled() bool {
	return m.stalled
}

// Stats returns the model statistics.
func (m *Model) Stats() Stats {
	return m.stats
}

// Classifier returns the miss classifier.
func (m *Model) Classifier() Classifier {
	return m.classifier
}
