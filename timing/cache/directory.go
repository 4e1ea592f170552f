// Package cache provides a tag-only block directory built on Akita cache
// components. It tracks which blocks would be resident and never holds data.
package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds directory geometry.
type Config struct {
	// Sets is the number of sets.
	Sets int
	// Ways is the associativity.
	Ways int
	// BlockSize in bytes.
	BlockSize int
}

// DefaultConfig returns a small direct-mapped-per-way geometry: 16 sets,
// 2 ways, 16-byte blocks.
func DefaultConfig() Config {
	return Config{
		Sets:      16,
		Ways:      2,
		BlockSize: 16,
	}
}

// Validate checks that the geometry is usable.
func (c Config) Validate() error {
	if c.Sets <= 0 {
		return fmt.Errorf("sets must be > 0")
	}
	if c.Ways <= 0 {
		return fmt.Errorf("ways must be > 0")
	}
	if c.BlockSize <= 0 || c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("block size must be a positive power of two")
	}
	return nil
}

// Statistics holds directory access statistics.
type Statistics struct {
	Accesses  uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Directory classifies accesses as hits or misses by tracking block tags with
// LRU replacement.
type Directory struct {
	config    Config
	directory *akitacache.DirectoryImpl
	stats     Statistics
}

// NewDirectory creates a directory with the given geometry.
func NewDirectory(config Config) *Directory {
	return &Directory{
		config: config,
		directory: akitacache.NewDirectory(
			config.Sets,
			config.Ways,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Config returns the directory geometry.
func (d *Directory) Config() Config {
	return d.config
}

// Stats returns access statistics.
func (d *Directory) Stats() Statistics {
	return d.stats
}

func (d *Directory) blockAddr(addr uint64) uint64 {
	return (addr / uint64(d.config.BlockSize)) * uint64(d.config.BlockSize)
}

// Access touches the block holding addr and reports whether it was already
// resident. A miss installs the block, evicting the LRU way if needed.
func (d *Directory) Access(addr uint64) bool {
	d.stats.Accesses++

	blockAddr := d.blockAddr(addr)

	block := d.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		d.stats.Hits++
		d.directory.Visit(block)
		return true
	}

	d.stats.Misses++

	victim := d.directory.FindVictim(blockAddr)
	if victim == nil {
		return false
	}
	if victim.IsValid {
		d.stats.Evictions++
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	d.directory.Visit(victim)

	return false
}

// Contains reports whether the block holding addr is resident without
// updating replacement state.
func (d *Directory) Contains(addr uint64) bool {
	block := d.directory.Lookup(0, d.blockAddr(addr))
	return block != nil && block.IsValid
}

// Invalidate drops the block holding addr.
func (d *Directory) Invalidate(addr uint64) {
	block := d.directory.Lookup(0, d.blockAddr(addr))
	if block != nil && block.IsValid {
		block.IsValid = false
	}
}

// Reset invalidates every block and clears statistics.
func (d *Directory) Reset() {
	d.directory.Reset()
	d.stats = Statistics{}
}
