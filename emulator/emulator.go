// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"os"

	"github.com/ezrec/umips/cpu"
	"github.com/ezrec/umips/internal"
	umio "github.com/ezrec/umips/io"
	"github.com/ezrec/umips/memory"
	"github.com/ezrec/umips/translate"
)

const (
	DEFAULT_MAX_TICKS = 1_000_000 // Default tick ceiling for the command line.
)

var _emulator_defines = map[string]string{
	"REGISTER_COUNT": fmt.Sprintf("%v", cpu.REGISTER_COUNT),
}

// HaltReason is why a program stopped.
type HaltReason int

//go:generate go tool stringer -linecomment -type=HaltReason
const (
	HALT_NONE           = HaltReason(0) // running
	HALT_END_OF_PROGRAM = HaltReason(1) // end of instructions
	HALT_EXIT           = HaltReason(2) // exit syscall
)

// Emulator state. CPU + memory + console.
type Emulator struct {
	Verbose  bool          // If set, enables verbose logging and stage tracing.
	*cpu.Cpu               // Reference to the CPU simulation.
	Program  *cpu.Program  // Reference to the currently running program listing.
	Memory   memory.Memory // Address space.
	Console  umio.Console  // Syscall output.

	MaxTicks int        // If non-zero, the tick ceiling for a run.
	Halt     HaltReason // Set once the program has stopped.
	Trace    io.Writer  // Destination of the stage trace when Verbose, stderr if nil.

	Observer cpu.Observer // If set, observes each stage, alongside any trace.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Program: &cpu.Program{},
	}

	emu.Cpu = cpu.NewCpu(&emu.Memory, &emu.Console)

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.ConcatSeq2(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// LoadSegments builds the program from the text and data segment files.
// A missing (nil) text segment is fatal; a missing data segment leaves the
// data segment empty.
func (emu *Emulator) LoadSegments(text io.Reader, data io.Reader) (err error) {
	if text == nil {
		err = ErrTextMissing
		return
	}

	text_words, err := umio.ReadSegment(text)
	if err != nil {
		err = errors.Join(ErrTextSegment, err)
		return
	}

	var data_words []uint32
	if data == nil {
		log.Printf("emulator: %v", f("data segment missing, data segment empty"))
	} else {
		data_words, err = umio.ReadSegment(data)
		if err != nil {
			err = errors.Join(ErrDataSegment, err)
			return
		}
	}

	emu.Program = cpu.NewProgram(text_words, data_words)

	if emu.Verbose {
		log.Printf("emulator: loaded %v text words, %v data words", len(text_words), len(data_words))
	}

	return
}

// Reset the emulator state, and load the program into memory.
func (emu *Emulator) Reset() (err error) {
	if emu.Program == nil {
		err = ErrProgramMissing
		return
	}

	emu.Memory.Reset()
	emu.Console.Rewind()
	emu.Halt = HALT_NONE

	segments := []umio.Segment{
		{Base: cpu.TEXT_BASE, Data: emu.Program.Binary()},
		{Base: cpu.DATA_BASE, Data: emu.Program.Data},
	}
	for _, seg := range segments {
		for addr, word := range seg.Words() {
			emu.Memory.StoreWord(addr, word)
		}
	}

	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Observer = emu.Observer
	if emu.Verbose {
		trace := emu.Trace
		if trace == nil {
			trace = os.Stderr
		}
		tracer := NewTracer(trace)
		if user := emu.Observer; user != nil {
			emu.Cpu.Observer = cpu.ObserverFunc(func(ev cpu.Event) {
				tracer.Observe(ev)
				user.Observe(ev)
			})
		} else {
			emu.Cpu.Observer = tracer
		}
	}

	emu.Cpu.Reset()

	return
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Pc returns current program counter.
func (emu *Emulator) Pc() uint32 {
	return emu.Cpu.Pc
}

// Code returns the current instruction code.
func (emu *Emulator) Code() cpu.Code {
	return cpu.Code(emu.Memory.LoadWord(emu.Cpu.Pc))
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Registers returns the final register state.
func (emu *Emulator) Registers() [cpu.REGISTER_COUNT]uint32 {
	return emu.Cpu.Register.Snapshot()
}

// Output returns the console output of the program.
func (emu *Emulator) Output() string {
	return emu.Console.String()
}

// Tick performs a single tick of the emulator.
// Returns done once the program has halted.
func (emu *Emulator) Tick() (done bool, err error) {
	if emu.Halt != HALT_NONE {
		done = true
		return
	}

	lineno := emu.LineNo()
	pc := emu.Cpu.Pc
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Pc: pc, Err: err}
		}
	}()

	if emu.MaxTicks > 0 && emu.Cpu.Ticks >= emu.MaxTicks {
		err = ErrTickLimit
		return
	}

	_, err = emu.Cpu.Tick()
	switch {
	case errors.Is(err, cpu.ErrEndOfProgram):
		emu.Halt = HALT_END_OF_PROGRAM
	case errors.Is(err, cpu.ErrExit):
		emu.Halt = HALT_EXIT
	default:
		return
	}

	if emu.Verbose {
		log.Printf("emulator: halt: %v", emu.Halt)
	}

	err = nil
	done = true

	return
}

// Run ticks the emulator until the program halts.
func (emu *Emulator) Run() (err error) {
	for done := false; !done; {
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}

	return
}

// Report writes the final program output, and optionally the register dump.
func (emu *Emulator) Report(w io.Writer, registers bool) (err error) {
	p := translate.Printer()

	_, err = p.Fprintf(w, "\n[FINAL PROGRAM OUTPUT]\n")
	if err != nil {
		return
	}

	if emu.Console.Len() == 0 {
		_, err = p.Fprintf(w, ">>> (No output generated by program)\n")
	} else {
		_, err = fmt.Fprintf(w, ">>> %v\n", emu.Console.String())
	}
	if err != nil || !registers {
		return
	}

	_, err = p.Fprintf(w, "\n[Register Dump]\n")
	if err != nil {
		return
	}

	_, err = io.WriteString(w, emu.Cpu.Register.String())

	return
}
