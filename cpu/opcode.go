package cpu

import (
	"fmt"
)

// CodeOp is the primary opcode field, bits 31-26.
type CodeOp int

const (
	OP_SPECIAL = CodeOp(0)  // R-type, selected by funct.
	OP_J       = CodeOp(2)  // j
	OP_BEQ     = CodeOp(4)  // beq
	OP_BNE     = CodeOp(5)  // bne
	OP_ADDI    = CodeOp(8)  // addi
	OP_ADDIU   = CodeOp(9)  // addiu
	OP_ANDI    = CodeOp(12) // andi
	OP_ORI     = CodeOp(13) // ori
	OP_LUI     = CodeOp(15) // lui
	OP_LW      = CodeOp(35) // lw
	OP_SW      = CodeOp(43) // sw
)

var _opName = map[CodeOp]string{
	OP_SPECIAL: "special",
	OP_J:       "j",
	OP_BEQ:     "beq",
	OP_BNE:     "bne",
	OP_ADDI:    "addi",
	OP_ADDIU:   "addiu",
	OP_ANDI:    "andi",
	OP_ORI:     "ori",
	OP_LUI:     "lui",
	OP_LW:      "lw",
	OP_SW:      "sw",
}

func (op CodeOp) String() string {
	name, ok := _opName[op]
	if !ok {
		return fmt.Sprintf("op%d", int(op))
	}
	return name
}

// CodeFunct is the R-type function field, bits 5-0.
type CodeFunct int

const (
	FUNCT_SLL     = CodeFunct(0)  // sll
	FUNCT_SRL     = CodeFunct(2)  // srl
	FUNCT_SYSCALL = CodeFunct(12) // syscall
	FUNCT_ADD     = CodeFunct(32) // add
	FUNCT_ADDU    = CodeFunct(33) // addu
	FUNCT_SUB     = CodeFunct(34) // sub
	FUNCT_AND     = CodeFunct(36) // and
	FUNCT_OR      = CodeFunct(37) // or
	FUNCT_SLT     = CodeFunct(42) // slt
)

var _functName = map[CodeFunct]string{
	FUNCT_SLL:     "sll",
	FUNCT_SRL:     "srl",
	FUNCT_SYSCALL: "syscall",
	FUNCT_ADD:     "add",
	FUNCT_ADDU:    "addu",
	FUNCT_SUB:     "sub",
	FUNCT_AND:     "and",
	FUNCT_OR:      "or",
	FUNCT_SLT:     "slt",
}

func (fn CodeFunct) String() string {
	name, ok := _functName[fn]
	if !ok {
		return fmt.Sprintf("funct%d", int(fn))
	}
	return name
}

// Code is a single 32-bit instruction word.
type Code uint32

// MakeCodeR creates an R-type instruction.
func MakeCodeR(funct CodeFunct, rd, rs, rt int, shamt uint32) Code {
	return Code((uint32(OP_SPECIAL) << 26) |
		(uint32(rs&0x1f) << 21) |
		(uint32(rt&0x1f) << 16) |
		(uint32(rd&0x1f) << 11) |
		((shamt & 0x1f) << 6) |
		uint32(funct&0x3f))
}

// MakeCodeI creates an I-type instruction.
func MakeCodeI(op CodeOp, rt, rs int, imm uint16) Code {
	return Code((uint32(op&0x3f) << 26) |
		(uint32(rs&0x1f) << 21) |
		(uint32(rt&0x1f) << 16) |
		uint32(imm))
}

// MakeCodeJ creates a J-type instruction. Only the low 26 bits of the
// word target are kept.
func MakeCodeJ(op CodeOp, target uint32) Code {
	return Code((uint32(op&0x3f) << 26) | (target & 0x03ff_ffff))
}

// MakeCodeSyscall creates a syscall instruction.
func MakeCodeSyscall() Code {
	return MakeCodeR(FUNCT_SYSCALL, 0, 0, 0, 0)
}

// Opcode returns bits 31-26.
func (code Code) Opcode() CodeOp {
	return CodeOp((code >> 26) & 0x3f)
}

// Rs returns the first source register index, bits 25-21.
func (code Code) Rs() int {
	return int((code >> 21) & 0x1f)
}

// Rt returns the second source (or I-type destination) register index, bits 20-16.
func (code Code) Rt() int {
	return int((code >> 16) & 0x1f)
}

// Rd returns the R-type destination register index, bits 15-11.
func (code Code) Rd() int {
	return int((code >> 11) & 0x1f)
}

// Shamt returns the shift amount, bits 10-6.
func (code Code) Shamt() uint32 {
	return uint32((code >> 6) & 0x1f)
}

// Funct returns the R-type function, bits 5-0.
func (code Code) Funct() CodeFunct {
	return CodeFunct(code & 0x3f)
}

// Imm returns the zero-extended 16-bit immediate.
func (code Code) Imm() uint32 {
	return uint32(code & 0xffff)
}

// ImmSigned returns the sign-extended 16-bit immediate.
func (code Code) ImmSigned() uint32 {
	return uint32(int32(int16(code & 0xffff)))
}

// Target returns the 26-bit jump target.
func (code Code) Target() uint32 {
	return uint32(code & 0x03ff_ffff)
}

func regName(index int) string {
	return "$" + RegisterName[index]
}

// String returns the assembly language representation of this instruction.
func (code Code) String() (out string) {
	op := code.Opcode()
	rs := regName(code.Rs())
	rt := regName(code.Rt())
	simm := int16(code.Imm())

	switch op {
	case OP_SPECIAL:
		fn := code.Funct()
		rd := regName(code.Rd())
		switch fn {
		case FUNCT_SYSCALL:
			out = fn.String()
		case FUNCT_SLL, FUNCT_SRL:
			out = fmt.Sprintf("%v %v, %v, %d", fn, rd, rt, code.Shamt())
		default:
			out = fmt.Sprintf("%v %v, %v, %v", fn, rd, rs, rt)
		}
	case OP_J:
		out = fmt.Sprintf("%v 0x%07x", op, code.Target()<<2)
	case OP_BEQ, OP_BNE:
		out = fmt.Sprintf("%v %v, %v, %d", op, rs, rt, simm)
	case OP_LUI:
		out = fmt.Sprintf("%v %v, 0x%04x", op, rt, code.Imm())
	case OP_ANDI, OP_ORI:
		out = fmt.Sprintf("%v %v, %v, 0x%04x", op, rt, rs, code.Imm())
	case OP_LW, OP_SW:
		out = fmt.Sprintf("%v %v, %d(%v)", op, rt, simm, rs)
	default:
		out = fmt.Sprintf("%v %v, %v, %d", op, rt, rs, simm)
	}

	return
}
