package cpu

import (
	"fmt"
	"strings"
)

// Register indexes with a fixed role in the simulator.
const (
	REG_ZERO = 0  // $zero, always reads as 0.
	REG_V0   = 2  // $v0, syscall service code.
	REG_A0   = 4  // $a0, syscall argument.
	REG_SP   = 29 // $sp
	REG_RA   = 31 // $ra

	REGISTER_COUNT = 32
)

// RegisterName is the conventional ABI name of each register.
var RegisterName = [REGISTER_COUNT]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

// RegisterFile is the bank of general-purpose registers.
// Register 0 is hardwired to zero.
type RegisterFile struct {
	reg [REGISTER_COUNT]uint32
}

// Read returns the value of a register.
// An index outside of [0,31] panics.
func (rf *RegisterFile) Read(index int) uint32 {
	return rf.reg[index]
}

// Write sets the value of a register. Writes to register 0 are discarded.
func (rf *RegisterFile) Write(index int, value uint32) {
	if index == REG_ZERO {
		return
	}
	rf.reg[index] = value
}

// Snapshot returns a copy of all registers.
func (rf *RegisterFile) Snapshot() [REGISTER_COUNT]uint32 {
	return rf.reg
}

// Reset zeros all registers.
func (rf *RegisterFile) Reset() {
	clear(rf.reg[:])
}

// String returns the register dump, four registers per line.
func (rf *RegisterFile) String() string {
	var text strings.Builder

	for n := 0; n < REGISTER_COUNT; n += 4 {
		fmt.Fprintf(&text, "R%02d-R%02d: %v\n", n, n+3, rf.reg[n:n+4])
	}

	return text.String()
}
