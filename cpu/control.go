package cpu

// ControlClass is the kind of work an instruction performs.
type ControlClass int

//go:generate go tool stringer -linecomment -type=ControlClass
const (
	CLASS_UNIMPLEMENTED = ControlClass(0) // unimplemented
	CLASS_REGISTER      = ControlClass(1) // register
	CLASS_IMMEDIATE     = ControlClass(2) // immediate
	CLASS_LOAD          = ControlClass(3) // load
	CLASS_STORE         = ControlClass(4) // store
	CLASS_BRANCH        = ControlClass(5) // branch
	CLASS_JUMP          = ControlClass(6) // jump
	CLASS_SYSCALL       = ControlClass(7) // syscall
)

// Control is the set of control signals derived from one instruction.
type Control struct {
	Class    ControlClass // Instruction class.
	AluOp    AluOp        // ALU operation, when UsesAlu() is true.
	MemRead  bool         // Load a word from the ALU result address.
	MemWrite bool         // Store rt to the ALU result address.
	RegWrite bool         // Write back to Dest.
	Branch   bool         // Conditional PC relative branch.
	Jump     bool         // Unconditional absolute jump.
	Dest     int          // Destination register index.
}

// UsesAlu returns true if the instruction produces an ALU result.
func (ctl Control) UsesAlu() bool {
	switch ctl.Class {
	case CLASS_REGISTER, CLASS_IMMEDIATE, CLASS_LOAD, CLASS_STORE:
		return true
	}
	return false
}

var functAlu = map[CodeFunct]AluOp{
	FUNCT_ADD:  ALU_OP_ADD,
	FUNCT_ADDU: ALU_OP_ADD,
	FUNCT_SUB:  ALU_OP_SUB,
	FUNCT_AND:  ALU_OP_AND,
	FUNCT_OR:   ALU_OP_OR,
	FUNCT_SLT:  ALU_OP_SLT,
	FUNCT_SLL:  ALU_OP_SLL,
	FUNCT_SRL:  ALU_OP_SRL,
}

var immediateAlu = map[CodeOp]AluOp{
	OP_ADDI:  ALU_OP_ADD,
	OP_ADDIU: ALU_OP_ADD,
	OP_ANDI:  ALU_OP_AND,
	OP_ORI:   ALU_OP_OR,
	OP_LUI:   ALU_OP_LUI,
}

// Decode derives the control signals of an instruction word.
// Instructions outside of the implemented subset decode to
// CLASS_UNIMPLEMENTED, with no signals set.
func Decode(code Code) (ctl Control) {
	op := code.Opcode()

	switch op {
	case OP_SPECIAL:
		fn := code.Funct()
		if fn == FUNCT_SYSCALL {
			ctl.Class = CLASS_SYSCALL
			return
		}
		alu, ok := functAlu[fn]
		if !ok {
			return
		}
		ctl.Class = CLASS_REGISTER
		ctl.AluOp = alu
		ctl.RegWrite = true
		ctl.Dest = code.Rd()
	case OP_ADDI, OP_ADDIU, OP_ANDI, OP_ORI, OP_LUI:
		ctl.Class = CLASS_IMMEDIATE
		ctl.AluOp = immediateAlu[op]
		ctl.RegWrite = true
		ctl.Dest = code.Rt()
	case OP_LW:
		ctl.Class = CLASS_LOAD
		ctl.AluOp = ALU_OP_ADD
		ctl.MemRead = true
		ctl.RegWrite = true
		ctl.Dest = code.Rt()
	case OP_SW:
		ctl.Class = CLASS_STORE
		ctl.AluOp = ALU_OP_ADD
		ctl.MemWrite = true
	case OP_BEQ, OP_BNE:
		ctl.Class = CLASS_BRANCH
		ctl.Branch = true
	case OP_J:
		ctl.Class = CLASS_JUMP
		ctl.Jump = true
	}

	return
}
