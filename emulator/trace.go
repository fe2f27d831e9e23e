package emulator

import (
	"io"
	"log"
	"strconv"

	"github.com/ezrec/umips/cpu"
)

// Tracer prints each stage of the instruction cycle.
type Tracer struct {
	logger *log.Logger
}

var _ cpu.Observer = (*Tracer)(nil)

// NewTracer creates a stage tracer writing to w.
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{
		logger: log.New(w, "", 0),
	}
}

// dec formats a value in plain decimal, without locale grouping.
func dec[T ~int | ~int32 | ~uint32](value T) string {
	if value < 0 {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatUint(uint64(value), 10)
}

// Observe prints the event of one stage.
func (tr *Tracer) Observe(ev cpu.Event) {
	lg := tr.logger
	ctl := ev.Control

	switch ev.Stage {
	case cpu.STAGE_FETCH:
		lg.Print(f("\n--- Cycle %s | PC: %#x ---", dec(ev.Tick+1), ev.Pc))
		if ev.Code == 0 {
			lg.Print(f("[End of instructions reached]"))
			return
		}
		lg.Print(f("[IF]  Fetched Inst: %#08x", uint32(ev.Code)))
	case cpu.STAGE_DECODE:
		code := ev.Code
		lg.Print(f("[ID]  Opcode: %d, rs: %d, rt: %d, rd: %d, imm: %s (%v)",
			int(code.Opcode()), code.Rs(), code.Rt(), code.Rd(), dec(int32(code.ImmSigned())), code))
		if ctl.Class == cpu.CLASS_UNIMPLEMENTED {
			lg.Print(f("[ID]  Unimplemented instruction, no-op"))
		}
	case cpu.STAGE_SYSCALL:
		lg.Print(f("[SYSCALL] Code %s (%v) triggered", dec(uint32(ev.Service)), ev.Service))
	case cpu.STAGE_EXECUTE:
		if ctl.UsesAlu() {
			lg.Print(f("[EX]  ALU Op: %v, Result: %s", ctl.AluOp, dec(ev.Result)))
		}
		switch {
		case ctl.Jump:
			lg.Print(f("[EX]  Jump taken to %#x", ev.NextPc))
		case ctl.Branch && ev.Taken:
			lg.Print(f("[EX]  Branch taken to %#x", ev.NextPc))
		case ctl.Branch:
			lg.Print(f("[EX]  Branch not taken"))
		}
	case cpu.STAGE_MEMORY:
		switch {
		case ctl.MemRead:
			lg.Print(f("[MEM] Read value %s from addr %#x", dec(ev.Value), ev.Result))
		case ctl.MemWrite:
			lg.Print(f("[MEM] Wrote value %s to addr %#x", dec(ev.Value), ev.Result))
		default:
			lg.Print(f("[MEM] No memory access"))
		}
	case cpu.STAGE_WRITEBACK:
		if ctl.RegWrite {
			lg.Print(f("[WB]  Wrote value %s to R%d", dec(ev.Value), ctl.Dest))
		} else {
			lg.Print(f("[WB]  No write back"))
		}
	}
}
