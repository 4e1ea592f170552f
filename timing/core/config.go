package core

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/timing/latency"
)

// DefaultMaxCycles bounds a run that never drains.
const DefaultMaxCycles = 1_000_000

// Config selects the capabilities of a core.
type Config struct {
	// Forwarding enables the bypass network with load-use stalls. When
	// false every dependency stalls until the producer commits.
	Forwarding bool `json:"forwarding"`

	// MaxCycles bounds the run and must be positive. Default: 1,000,000.
	MaxCycles uint64 `json:"max_cycles"`

	// SignExtendOffsets treats branch offsets as signed.
	SignExtendOffsets bool `json:"sign_extend_offsets"`

	// InstructionWords and DataWords size the two stores.
	InstructionWords int `json:"instruction_words"`
	DataWords        int `json:"data_words"`

	// ClockGHz converts cycles into simulated time.
	ClockGHz float64 `json:"clock_ghz"`

	// Latency configures the memory-latency model.
	Latency *latency.Config `json:"latency"`
}

// DefaultConfig returns a forwarding core with no latency model.
func DefaultConfig() *Config {
	return &Config{
		Forwarding:       true,
		MaxCycles:        DefaultMaxCycles,
		InstructionWords: emu.DefaultInstructionWords,
		DataWords:        emu.DefaultDataWords,
		ClockGHz:         1,
		Latency:          latency.DefaultConfig(),
	}
}

// LoadConfig loads a Config from a JSON file. Missing keys keep their
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read core config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse core config: %w", err)
	}
	if config.Latency == nil {
		config.Latency = latency.DefaultConfig()
	}

	return config, nil
}

// Save writes the Config to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize core config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write core config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.MaxCycles == 0 {
		return fmt.Errorf("max_cycles must be > 0")
	}
	if c.InstructionWords <= 0 {
		return fmt.Errorf("instruction_words must be > 0")
	}
	if c.DataWords <= 0 {
		return fmt.Errorf("data_words must be > 0")
	}
	if c.ClockGHz <= 0 {
		return fmt.Errorf("clock_ghz must be > 0")
	}
	if c.Latency != nil && c.Latency.Enabled {
		if err := c.Latency.Validate(); err != nil {
			return fmt.Errorf("latency: %w", err)
		}
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Latency != nil {
		clone.Latency = c.Latency.Clone()
	}
	return &clone
}

// Freq returns the core clock frequency.
func (c *Config) Freq() sim.Freq {
	return sim.Freq(c.ClockGHz) * sim.GHz
}
