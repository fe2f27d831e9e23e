package cpu

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
)

// Segment base addresses. Programs may embed absolute addresses computed
// against these, so they must never change.
const (
	TEXT_BASE = uint32(0x0040_0000) // First instruction.
	DATA_BASE = uint32(0x1001_0000) // Start of the data segment.

	JUMP_REGION_MASK = uint32(0xf000_0000) // PC bits kept by a jump.
)

var _cpu_defines = map[string]string{
	"TEXT_BASE":            fmt.Sprintf("%#x", TEXT_BASE),
	"DATA_BASE":            fmt.Sprintf("%#x", DATA_BASE),
	"SYSCALL_PRINT_INT":    fmt.Sprintf("%d", SYSCALL_PRINT_INT),
	"SYSCALL_PRINT_STRING": fmt.Sprintf("%d", SYSCALL_PRINT_STRING),
	"SYSCALL_EXIT":         fmt.Sprintf("%d", SYSCALL_EXIT),
	"SYSCALL_PRINT_CHAR":   fmt.Sprintf("%d", SYSCALL_PRINT_CHAR),
}

// Memory is the address space seen by the processor.
type Memory interface {
	LoadWord(addr uint32) uint32
	StoreWord(addr uint32, value uint32)
	LoadString(addr uint32) string
}

// Cpu is the simulation context for the processor.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.
	Strict  bool // Report unimplemented instructions and syscalls as errors.

	Memory   Memory          // Reference to the address space.
	Console  io.StringWriter // Syscall output.
	Observer Observer        // Optional per-stage observer.

	Pc       uint32       // Current program counter.
	Register RegisterFile // Register bank.
	Alu      Alu          // Arithmetic and logic unit.

	Ticks int // Completed cycles counter.
}

// NewCpu creates a new CPU attached to a memory and console.
func NewCpu(memory Memory, console io.StringWriter) (cpu *Cpu) {
	cpu = &Cpu{
		Memory:  memory,
		Console: console,
		Pc:      TEXT_BASE,
	}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text = fmt.Sprintf("   pc: %04X_%04X\nticks: %v\n", cpu.Pc>>16, cpu.Pc&0xffff, cpu.Ticks)
	for n, value := range cpu.Register.Snapshot() {
		text += fmt.Sprintf("% 5s: %04X_%04X\n", RegisterName[n], value>>16, value&0xffff)
	}

	return
}

// Reset the CPU state.
// - Clears the registers.
// - Zeros the tick counter.
// - Sets the PC to the start of the text segment.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Register.Reset()
	cpu.Pc = TEXT_BASE
	cpu.Ticks = 0
}

func (cpu *Cpu) observe(ev Event) {
	if cpu.Observer != nil {
		cpu.Observer.Observe(ev)
	}
}

// Tick runs one instruction cycle, and returns its control signals.
//
// A zero instruction word ends the program with ErrEndOfProgram, and the
// exit syscall completes its cycle and then returns ErrExit. In Strict
// mode an unimplemented instruction returns an ErrOpcode before any state
// changes; otherwise it is a no-op that decodes as CLASS_UNIMPLEMENTED.
func (cpu *Cpu) Tick() (ctl Control, err error) {
	if cpu.Memory == nil {
		err = ErrMemoryMissing
		return
	}

	ev := Event{
		Stage: STAGE_FETCH,
		Tick:  cpu.Ticks,
		Pc:    cpu.Pc,
		Code:  Code(cpu.Memory.LoadWord(cpu.Pc)),
	}
	code := ev.Code
	next_pc := cpu.Pc + 4

	cpu.observe(ev)

	if code == 0 {
		err = ErrEndOfProgram
		return
	}

	// Decode
	ctl = Decode(code)
	ev.Stage = STAGE_DECODE
	ev.Control = ctl
	cpu.observe(ev)

	if ctl.Class == CLASS_UNIMPLEMENTED {
		if cpu.Verbose {
			log.Printf("cpu: %08x: unimplemented 0x%08x", cpu.Pc, uint32(code))
		}
		if cpu.Strict {
			err = errors.Join(ErrOpcodeDecode, ErrOpcode(code))
			return
		}
	}

	var exit bool
	if ctl.Class == CLASS_SYSCALL {
		ev.Service, exit, err = cpu.syscall()
		if err != nil {
			return
		}
		ev.Stage = STAGE_SYSCALL
		cpu.observe(ev)
	}

	// Execute
	rs := cpu.Register.Read(code.Rs())
	rt := cpu.Register.Read(code.Rt())

	operand := code.ImmSigned()
	switch code.Opcode() {
	case OP_SPECIAL, OP_BEQ, OP_BNE:
		operand = rt
	}

	var result uint32
	if ctl.UsesAlu() {
		result = cpu.Alu.Execute(ctl.AluOp, rs, operand, code.Shamt())
	}

	switch {
	case ctl.Jump:
		next_pc = (next_pc & JUMP_REGION_MASK) | (code.Target() << 2)
		ev.Taken = true
	case ctl.Branch:
		switch code.Opcode() {
		case OP_BEQ:
			ev.Taken = rs == rt
		case OP_BNE:
			ev.Taken = rs != rt
		}
		if ev.Taken {
			next_pc += code.ImmSigned() << 2
		}
	}

	ev.Stage = STAGE_EXECUTE
	ev.Result = result
	ev.NextPc = next_pc
	cpu.observe(ev)

	// Memory access
	var data uint32
	switch {
	case ctl.MemRead:
		data = cpu.Memory.LoadWord(result)
		ev.Value = data
	case ctl.MemWrite:
		cpu.Memory.StoreWord(result, rt)
		ev.Value = rt
	}
	ev.Stage = STAGE_MEMORY
	cpu.observe(ev)

	// Write back
	if ctl.RegWrite {
		value := result
		if ctl.MemRead {
			value = data
		}
		cpu.Register.Write(ctl.Dest, value)
		ev.Value = value
	}
	ev.Stage = STAGE_WRITEBACK
	cpu.observe(ev)

	cpu.Pc = next_pc
	cpu.Ticks += 1

	if exit {
		if cpu.Verbose {
			log.Printf("cpu: exit after %v ticks", cpu.Ticks)
		}
		err = ErrExit
	}

	return
}
