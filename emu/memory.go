package emu

import (
	"errors"
	"fmt"
)

// Default store capacities, in words.
const (
	DefaultInstructionWords = 4096
	DefaultDataWords        = 100000
)

// ErrAddressOutOfRange is returned when an address maps outside a store.
var ErrAddressOutOfRange = errors.New("address out of range")

// AddressError reports an out-of-bounds access.
type AddressError struct {
	// Space names the store, "instruction" or "data".
	Space string
	Addr  int64
	Words int
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("%s address %d (word %d) outside %d-word store: %v",
		e.Space, e.Addr, e.Addr/4, e.Words, ErrAddressOutOfRange)
}

func (e *AddressError) Unwrap() error { return ErrAddressOutOfRange }

// InstructionMemory is a word-indexed, read-only instruction store.
type InstructionMemory struct {
	words []uint32
}

// NewInstructionMemory creates a zero-filled instruction store holding the
// given number of words.
func NewInstructionMemory(words int) *InstructionMemory {
	return &InstructionMemory{words: make([]uint32, words)}
}

// Load copies a program image into the store starting at address 0.
func (m *InstructionMemory) Load(program []uint32) error {
	if len(program) > len(m.words) {
		return &AddressError{
			Space: "instruction",
			Addr:  int64(len(program)) * 4,
			Words: len(m.words),
		}
	}
	copy(m.words, program)
	return nil
}

// Read returns the instruction word at the given byte address.
func (m *InstructionMemory) Read(pc uint64) (uint32, error) {
	idx := pc / 4
	if idx >= uint64(len(m.words)) {
		return 0, &AddressError{Space: "instruction", Addr: int64(pc), Words: len(m.words)}
	}
	return m.words[idx], nil
}

// Size returns the capacity in words.
func (m *InstructionMemory) Size() int {
	return len(m.words)
}

// DataEntry is one address-value pair of a data image.
type DataEntry struct {
	Addr  int64
	Value int64
}

// DataMemory is a byte-addressed, word-indexed data store holding 64-bit
// values. Address a maps to word a/4.
type DataMemory struct {
	words []int64
}

// NewDataMemory creates a zero-filled data store holding the given number of
// words.
func NewDataMemory(words int) *DataMemory {
	return &DataMemory{words: make([]int64, words)}
}

// Load writes a sparse data image into the store.
func (m *DataMemory) Load(entries []DataEntry) error {
	for _, e := range entries {
		if err := m.Write(e.Addr, e.Value); err != nil {
			return err
		}
	}
	return nil
}

func (m *DataMemory) index(addr int64) (int, error) {
	if addr < 0 || addr/4 >= int64(len(m.words)) {
		return 0, &AddressError{Space: "data", Addr: addr, Words: len(m.words)}
	}
	return int(addr / 4), nil
}

// Read returns the word at the given byte address.
func (m *DataMemory) Read(addr int64) (int64, error) {
	idx, err := m.index(addr)
	if err != nil {
		return 0, err
	}
	return m.words[idx], nil
}

// Write stores a word at the given byte address.
func (m *DataMemory) Write(addr int64, value int64) error {
	idx, err := m.index(addr)
	if err != nil {
		return err
	}
	m.words[idx] = value
	return nil
}

// Words returns a copy of the store contents.
func (m *DataMemory) Words() []int64 {
	out := make([]int64, len(m.words))
	copy(out, m.words)
	return out
}

// Size returns the capacity in words.
func (m *DataMemory) Size() int {
	return len(m.words)
}
