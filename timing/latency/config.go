package latency

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/mipsim/timing/cache"
)

// Classifier modes.
const (
	ModeStochastic = "stochastic"
	ModeTags       = "tags"
)

// Config holds the memory-latency model parameters.
type Config struct {
	// Enabled turns the model on. A disabled model never freezes the
	// pipeline.
	Enabled bool `json:"enabled"`

	// Mode selects the miss classifier: "stochastic" or "tags".
	Mode string `json:"mode"`

	// HitProbability is the chance a load hits in stochastic mode.
	// Default: 0.4.
	HitProbability float64 `json:"hit_probability"`

	// MissPenalty is N, the miss latency in cycles. Default: 3.
	MissPenalty int `json:"miss_penalty"`

	// Seed seeds the stochastic sampler.
	Seed uint64 `json:"seed"`

	// TagSets, TagWays and BlockSize describe the tag directory used in
	// "tags" mode.
	TagSets   int `json:"tag_sets"`
	TagWays   int `json:"tag_ways"`
	BlockSize int `json:"block_size"`
}

// DefaultConfig returns a disabled stochastic model with the usual
// parameters.
func DefaultConfig() *Config {
	dir := cache.DefaultConfig()
	return &Config{
		Enabled:        false,
		Mode:           ModeStochastic,
		HitProbability: 0.4,
		MissPenalty:    3,
		Seed:           1,
		TagSets:        dir.Sets,
		TagWays:        dir.Ways,
		BlockSize:      dir.BlockSize,
	}
}

// LoadConfig loads a Config from a JSON file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read latency config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse latency config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize latency config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write latency config file: %w", err)
	}

	return nil
}

// TagConfig returns the tag directory geometry.
func (c *Config) TagConfig() cache.Config {
	return cache.Config{
		Sets:      c.TagSets,
		Ways:      c.TagWays,
		BlockSize: c.BlockSize,
	}
}

// Validate checks the parameters of the selected mode.
func (c *Config) Validate() error {
	if c.MissPenalty < 1 {
		return fmt.Errorf("miss_penalty must be >= 1")
	}

	switch c.Mode {
	case ModeStochastic:
		if c.HitProbability < 0 || c.HitProbability > 1 {
			return fmt.Errorf("hit_probability must be within [0, 1]")
		}
	case ModeTags:
		if err := c.TagConfig().Validate(); err != nil {
			return fmt.Errorf("tag directory: %w", err)
		}
	default:
		return fmt.Errorf("unknown latency mode %q", c.Mode)
	}

	return nil
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
