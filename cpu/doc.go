// Package cpu implements the processor and assembler for the μMIPS system.
//
// The processor models a reduced 32-bit MIPS instruction set: a program
// counter (PC), thirty-two 32-bit general-purpose registers with $zero
// hardwired to 0, an ALU, and a handle to a byte addressable memory. Each
// Tick runs one complete fetch, decode, execute, memory and write-back
// cycle. A small set of system calls print to a console and stop the
// program.
//
// The assembler accepts a compact MIPS assembly dialect for the same
// instruction subset, with labels, equates, macros, and compile-time
// expression evaluation.
package cpu
