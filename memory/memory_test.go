// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package memory

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemory_Empty(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	assert.Equal(0, mem.Len())
	assert.Equal(byte(0), mem.LoadByte(0x10010000))
	assert.Equal(uint32(0), mem.LoadWord(0x10010000))
	assert.Equal(uint32(0), mem.LoadWord(0xfffffffc))
	assert.Equal("", mem.LoadString(0x10010000))

	// Reads never allocate.
	assert.Equal(0, mem.Len())
}

func TestMemory_Endian(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	mem.StoreWord(0x10010000, 0x12345678)

	assert.Equal(byte(0x78), mem.LoadByte(0x10010000))
	assert.Equal(byte(0x56), mem.LoadByte(0x10010001))
	assert.Equal(byte(0x34), mem.LoadByte(0x10010002))
	assert.Equal(byte(0x12), mem.LoadByte(0x10010003))
	assert.Equal(uint32(0x12345678), mem.LoadWord(0x10010000))

	// Unaligned reads see the same bytes.
	assert.Equal(uint32(0x00123456), mem.LoadWord(0x10010001))
}

func TestMemory_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	table := map[uint32]uint32{}
	for range 256 {
		addr := rand.Uint32() &^ 3
		value := rand.Uint32()
		table[addr] = value
		mem.StoreWord(addr, value)
	}

	for addr, value := range table {
		assert.Equal(value, mem.LoadWord(addr), "addr %#x", addr)
	}
}

func TestMemory_NoInterference(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	mem.StoreWord(0x1000, 0xffffffff)
	mem.StoreWord(0x1004, 0xaabbccdd)
	mem.StoreWord(0x0ffc, 0x01020304)

	assert.Equal(uint32(0xffffffff), mem.LoadWord(0x1000))
	assert.Equal(uint32(0xaabbccdd), mem.LoadWord(0x1004))
	assert.Equal(uint32(0x01020304), mem.LoadWord(0x0ffc))
	assert.Equal(uint32(0), mem.LoadWord(0x1008))
}

func TestMemory_PageBoundary(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	addr := uint32(PAGE_SIZE - 2)
	mem.StoreWord(addr, 0xcafef00d)

	assert.Equal(uint32(0xcafef00d), mem.LoadWord(addr))
	assert.Equal(2, mem.Len())
	assert.Equal([]uint32{0, PAGE_SIZE}, slices.Collect(mem.Pages()))
}

func TestMemory_Wrap(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	mem.StoreWord(0xfffffffe, 0x44332211)

	assert.Equal(byte(0x11), mem.LoadByte(0xfffffffe))
	assert.Equal(byte(0x22), mem.LoadByte(0xffffffff))
	assert.Equal(byte(0x33), mem.LoadByte(0x00000000))
	assert.Equal(byte(0x44), mem.LoadByte(0x00000001))
	assert.Equal(uint32(0x44332211), mem.LoadWord(0xfffffffe))
}

func TestMemory_String(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	// "Hi!\n" then terminator, then more text that must not be read.
	mem.StoreWord(0x10010000, 0x0a216948)
	mem.StoreWord(0x10010004, 0x00000000)
	mem.StoreWord(0x10010008, 0x00636261)

	assert.Equal("Hi!\n", mem.LoadString(0x10010000))
	assert.Equal("i!\n", mem.LoadString(0x10010001))
	assert.Equal("abc", mem.LoadString(0x10010008))

	// High bytes are single characters.
	mem.StoreByte(0x2000, 0xe9)
	assert.Equal("é", mem.LoadString(0x2000))
}

func TestMemory_Reset(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	mem.StoreWord(0x00400000, 0x20080005)
	assert.Equal(1, mem.Len())

	mem.Reset()
	assert.Equal(0, mem.Len())
	assert.Equal(uint32(0), mem.LoadWord(0x00400000))
}

func TestMemory_StoreZero(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	mem.StoreWord(0x3000, 0)
	assert.Equal(0, mem.Len())

	mem.StoreWord(0x3000, 0x1234)
	mem.StoreWord(0x3000, 0)
	assert.Equal(uint32(0), mem.LoadWord(0x3000))
}
