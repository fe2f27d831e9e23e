package cpu

import (
	"iter"
)

// Opcode represents a line of assembled code with its source location and generated instructions.
type Opcode struct {
	LineNo    int      // Source line, or segment line for loaded binaries.
	Pc        uint32   // Address of the first instruction.
	Words     []string // Source words, nil for loaded binaries.
	Codes     []Code   // Generated instructions.
	LinkLabel string   // Label resolved after assembly.
}

// Program is a text segment listing and its initial data segment.
type Program struct {
	Opcodes []Opcode
	Data    []uint32
}

// Debug locates the opcode that generated the instruction at a PC.
type Debug struct {
	*Opcode
	Index int
}

// NewProgram creates a program from raw segment words. Each text word is
// its own opcode, with the segment line number as its LineNo.
func NewProgram(text []uint32, data []uint32) (prog *Program) {
	prog = &Program{
		Opcodes: make([]Opcode, 0, len(text)),
		Data:    data,
	}

	for n, word := range text {
		prog.Opcodes = append(prog.Opcodes, Opcode{
			LineNo: n + 1,
			Pc:     TEXT_BASE + uint32(4*n),
			Codes:  []Code{Code(word)},
		})
	}

	return
}

func (prog *Program) Debug(pc uint32) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if pc >= op.Pc && pc < op.Pc+uint32(4*len(op.Codes)) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(pc-op.Pc) / 4,
			}
			break
		}
	}

	return
}

// Binary returns the text segment words.
func (prog *Program) Binary() (bins []uint32) {
	for _, code := range prog.Codes() {
		bins = append(bins, uint32(code))
	}

	return
}

// Codes iterates over every instruction, with its address.
func (prog *Program) Codes() iter.Seq2[uint32, Code] {
	return func(yield func(pc uint32, code Code) bool) {
		for _, op := range prog.Opcodes {
			for n, code := range op.Codes {
				if !yield(op.Pc+uint32(4*n), code) {
					return
				}
			}
		}
	}
}
