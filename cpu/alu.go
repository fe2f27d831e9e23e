package cpu

import (
	"fmt"
)

// AluOp is an ALU operation type.
type AluOp int

//go:generate go tool stringer -linecomment -type=AluOp
const (
	ALU_OP_ADD = AluOp(0) // add
	ALU_OP_SUB = AluOp(1) // sub
	ALU_OP_AND = AluOp(2) // and
	ALU_OP_OR  = AluOp(3) // or
	ALU_OP_SLT = AluOp(4) // slt
	ALU_OP_SLL = AluOp(5) // sll
	ALU_OP_SRL = AluOp(6) // srl
	ALU_OP_LUI = AluOp(7) // lui
)

// Alu is the stateless arithmetic and logic unit.
type Alu struct{}

// Execute performs the requested ALU action, and returns the output value.
// Shifts move b by the low 5 bits of shamt. Results wrap at 32 bits.
func (Alu) Execute(op AluOp, a uint32, b uint32, shamt uint32) (output uint32) {
	switch op {
	case ALU_OP_ADD:
		output = a + b
	case ALU_OP_SUB:
		output = a - b
	case ALU_OP_AND:
		output = a & b
	case ALU_OP_OR:
		output = a | b
	case ALU_OP_SLT:
		// Registers hold unsigned values, so compare unsigned.
		if a < b {
			output = 1
		}
	case ALU_OP_SLL:
		output = b << (shamt & 0x1f)
	case ALU_OP_SRL:
		output = b >> (shamt & 0x1f)
	case ALU_OP_LUI:
		output = b << 16
	default:
		panic(fmt.Sprintf("alu: unknown operation %v", op))
	}

	return
}
