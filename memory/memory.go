// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package memory implements the sparse, byte addressable address space of
// the μMIPS simulator.
//
// Storage is allocated in pages on first write. Bytes that were never
// written read as zero, and there is no upper bound on the address range.
package memory

import (
	"iter"
	"maps"
	"slices"
	"strings"
)

const (
	PAGE_SHIFT = 12                    // log2 of the page size.
	PAGE_SIZE  = 1 << PAGE_SHIFT       // Bytes per page.
	PAGE_MASK  = uint32(PAGE_SIZE - 1) // Offset within a page.
)

type page [PAGE_SIZE]byte

// Memory is a sparse little-endian byte store. The zero value is ready to use.
type Memory struct {
	pages map[uint32]*page
}

// Reset drops all stored data.
func (mem *Memory) Reset() {
	clear(mem.pages)
}

// Len returns the number of allocated pages.
func (mem *Memory) Len() int {
	return len(mem.pages)
}

// Pages returns the base address of every allocated page, in ascending order.
func (mem *Memory) Pages() iter.Seq[uint32] {
	return slices.Values(slices.Sorted(maps.Keys(mem.pages)))
}

// LoadByte reads a single byte. Unwritten addresses read as zero.
func (mem *Memory) LoadByte(addr uint32) byte {
	pg, ok := mem.pages[addr&^PAGE_MASK]
	if !ok {
		return 0
	}

	return pg[addr&PAGE_MASK]
}

// StoreByte writes a single byte.
func (mem *Memory) StoreByte(addr uint32, value byte) {
	base := addr &^ PAGE_MASK

	pg, ok := mem.pages[base]
	if !ok {
		if value == 0 {
			// Unallocated pages already read as zero.
			return
		}
		if mem.pages == nil {
			mem.pages = make(map[uint32]*page, 4)
		}
		pg = &page{}
		mem.pages[base] = pg
	}

	pg[addr&PAGE_MASK] = value
}

// LoadWord reads the 32-bit little-endian word at addr.
// No alignment is enforced; the address wraps at 2^32.
func (mem *Memory) LoadWord(addr uint32) (value uint32) {
	for n := range 4 {
		value |= uint32(mem.LoadByte(addr+uint32(n))) << (8 * n)
	}

	return
}

// StoreWord writes value as a 32-bit little-endian word at addr.
func (mem *Memory) StoreWord(addr uint32, value uint32) {
	for n := range 4 {
		mem.StoreByte(addr+uint32(n), byte(value>>(8*n)))
	}
}

// LoadString reads a zero terminated string starting at addr.
// Each byte is one character (ISO-8859-1). The scan has no length limit,
// but as unwritten memory reads as zero it always ends past the last
// allocated page.
func (mem *Memory) LoadString(addr uint32) string {
	var text strings.Builder

	for {
		ch := mem.LoadByte(addr)
		if ch == 0 {
			break
		}
		text.WriteRune(rune(ch))
		addr++
	}

	return text.String()
}
