package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func doAssemble(t *testing.T, asm *Assembler, program []string) (prog *Program) {
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}
	return
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))
	assert.Equal(0, len(prog.Data))

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal("0x400000", asm.Equate["TEXT_BASE"])
	assert.Equal("0x10010000", asm.Equate["DATA_BASE"])
	assert.Equal("4", asm.Equate["SYSCALL_PRINT_STRING"])
}

func opEqual(t *testing.T, expected, opcodes []Opcode) {
	assert := assert.New(t)

	assert.Equal(len(expected), len(opcodes))
	if len(expected) == len(opcodes) {
		for n := range len(expected) {
			assert.Equal(expected[n], opcodes[n])
		}
	}
}

func TestAssemblerOpcodes(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"main:",
		"  addi $t0, $zero, 5  # comment",
		"  move $a0, $t0       ; other comment",
		"",
		"  syscall",
	}

	prog := doAssemble(t, &Assembler{}, program)

	expected := []Opcode{
		{2, TEXT_BASE, []string{"addi", "$t0", "$zero", "5"}, []Code{0x20080005}, ""},
		{3, TEXT_BASE + 4, []string{"move", "$a0", "$t0"}, []Code{0x01002021}, ""},
		{5, TEXT_BASE + 8, []string{"syscall"}, []Code{0x0000000c}, ""},
	}

	opEqual(t, expected, prog.Opcodes)
	assert.Equal([]uint32{0x20080005, 0x01002021, 0x0000000c}, prog.Binary())
}

func TestAssemblerEncoding(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	table := [](struct {
		line  string
		codes []Code
	}){
		{"add $t2, $t0, $t1", []Code{MakeCodeR(FUNCT_ADD, 10, 8, 9, 0)}},
		{"addu $v0, $a0, $zero", []Code{MakeCodeR(FUNCT_ADDU, 2, 4, 0, 0)}},
		{"sub $3, $4, $5", []Code{MakeCodeR(FUNCT_SUB, 3, 4, 5, 0)}},
		{"and $s0, $s1, $s2", []Code{MakeCodeR(FUNCT_AND, 16, 17, 18, 0)}},
		{"or $s8, $fp, $ra", []Code{MakeCodeR(FUNCT_OR, 30, 30, 31, 0)}},
		{"slt $t3,$t4,$t5", []Code{MakeCodeR(FUNCT_SLT, 11, 12, 13, 0)}},
		{"sll $t1, $t0, 4", []Code{MakeCodeR(FUNCT_SLL, 9, 0, 8, 4)}},
		{"srl $t1, $t0, 31", []Code{MakeCodeR(FUNCT_SRL, 9, 0, 8, 31)}},
		{"addi $t0, $zero, 5", []Code{0x20080005}},
		{"addi $t0, $t0, -1", []Code{MakeCodeI(OP_ADDI, 8, 8, 0xffff)}},
		{"addiu $sp, $sp, -8", []Code{MakeCodeI(OP_ADDIU, 29, 29, 0xfff8)}},
		{"andi $t0, $t1, 0xff", []Code{MakeCodeI(OP_ANDI, 8, 9, 0xff)}},
		{"ori $t0, $t1, 0x8000", []Code{MakeCodeI(OP_ORI, 8, 9, 0x8000)}},
		{"lui $t1, 0x1001", []Code{MakeCodeI(OP_LUI, 9, 0, 0x1001)}},
		{"lw $t0, 4($sp)", []Code{MakeCodeI(OP_LW, 8, 29, 4)}},
		{"sw $t0, -4($sp)", []Code{MakeCodeI(OP_SW, 8, 29, 0xfffc)}},
		{"lw $t0, ($t1)", []Code{MakeCodeI(OP_LW, 8, 9, 0)}},
		{"beq $t0, $t1, 3", []Code{MakeCodeI(OP_BEQ, 9, 8, 3)}},
		{"bne $t0, $zero, -2", []Code{MakeCodeI(OP_BNE, 0, 8, 0xfffe)}},
		{"j 0x400000", []Code{MakeCodeJ(OP_J, 0x100000)}},
		{"syscall", []Code{0x0000000c}},
		{"move $a0, $t0", []Code{0x01002021}},
		{"li $t0, 5", []Code{MakeCodeI(OP_ADDIU, 8, 0, 5)}},
		{"li $t0, -1", []Code{MakeCodeI(OP_ADDIU, 8, 0, 0xffff)}},
		{"li $t0, 0x10000", []Code{MakeCodeI(OP_LUI, 8, 0, 1)}},
		{"li $t0, 0x12345678", []Code{
			MakeCodeI(OP_LUI, 8, 0, 0x1234),
			MakeCodeI(OP_ADDIU, 8, 8, 0x5678),
		}},
		{"li $t0, 0x1234abcd", []Code{
			MakeCodeI(OP_LUI, 8, 0, 0x1235),
			MakeCodeI(OP_ADDIU, 8, 8, 0xabcd),
		}},
		{"li $t0, 0xffff8000", []Code{MakeCodeI(OP_ADDIU, 8, 0, 0x8000)}},
		{"li $v0, SYSCALL_EXIT", []Code{MakeCodeI(OP_ADDIU, 2, 0, 10)}},
		{"li $a0, 'A'", []Code{MakeCodeI(OP_ADDIU, 4, 0, 65)}},
		{"li $a0, '\\n'", []Code{MakeCodeI(OP_ADDIU, 4, 0, 10)}},
		{"li $a0, '#'", []Code{MakeCodeI(OP_ADDIU, 4, 0, '#')}},
		{"li $a0, ';'   # semicolon", []Code{MakeCodeI(OP_ADDIU, 4, 0, ';')}},
		{"li $t0, $(3*4+1)", []Code{MakeCodeI(OP_ADDIU, 8, 0, 13)}},
		{"la $a0, 0x10010004", []Code{
			MakeCodeI(OP_LUI, 4, 0, 0x1001),
			MakeCodeI(OP_ADDIU, 4, 4, 4),
		}},
		{"exit", []Code{
			MakeCodeI(OP_ADDIU, 2, 0, 10),
			MakeCodeSyscall(),
		}},
	}

	for _, entry := range table {
		prog, err := asm.Parse(strings.NewReader(entry.line))
		assert.NoError(err, entry.line)
		if err != nil {
			continue
		}

		var codes []Code
		for _, code := range prog.Codes() {
			codes = append(codes, code)
		}
		assert.Equal(entry.codes, codes, entry.line)
	}
}

func TestAssemblerLabel(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"start:",
		"  addi $t0, $zero, 3",
		"loop: addi $t0, $t0, -1",
		"  bne $t0, $zero, loop",
		"  beq $zero, $zero, done",
		"  b start",
		"  j start",
		"done:",
		"  la $a0, msg",
		".data",
		"pad: .ascii \"ab\"",
		"msg: .word 7",
	}

	prog := doAssemble(t, asm, program)

	assert.Equal(TEXT_BASE, asm.Label["start"])
	assert.Equal(TEXT_BASE+4, asm.Label["loop"])
	assert.Equal(TEXT_BASE+24, asm.Label["done"])
	assert.Equal(DATA_BASE, asm.Label["pad"])
	assert.Equal(DATA_BASE+4, asm.Label["msg"])

	assert.Equal([]uint32{
		uint32(MakeCodeI(OP_ADDI, 8, 0, 3)),
		uint32(MakeCodeI(OP_ADDI, 8, 8, 0xffff)),
		uint32(MakeCodeI(OP_BNE, 0, 8, 0xfffe)),
		uint32(MakeCodeI(OP_BEQ, 0, 0, 2)),
		uint32(MakeCodeI(OP_BEQ, 0, 0, 0xfffb)),
		uint32(MakeCodeJ(OP_J, TEXT_BASE>>2)),
		uint32(MakeCodeI(OP_LUI, 4, 0, 0x1001)),
		uint32(MakeCodeI(OP_ADDIU, 4, 4, 4)),
	}, prog.Binary())

	assert.Equal([]uint32{0x00006261, 7}, prog.Data)

	dbg := prog.Debug(TEXT_BASE + 28)
	assert.Equal(9, dbg.LineNo)
	assert.Equal(1, dbg.Index)
	assert.Equal("msg", dbg.LinkLabel)
}

func TestAssemblerData(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		".data",
		"str: .asciiz \"a#b;\"",
		"gap: .space 3",
		"nums: .word 1, -1, 0x10",
		"tail: .ascii \"\\tx\"",
		".text",
		"la $a0, tail",
	}

	prog := doAssemble(t, asm, program)

	assert.Equal(DATA_BASE, asm.Label["str"])
	assert.Equal(DATA_BASE+5, asm.Label["gap"])
	assert.Equal(DATA_BASE+8, asm.Label["nums"])
	assert.Equal(DATA_BASE+20, asm.Label["tail"])

	assert.Equal([]uint32{
		0x3b622361, // "a#b;"
		0x00000000, // NUL, .space 3
		0x00000001,
		0xffffffff,
		0x00000010,
		0x00007809, // "\tx", padded
	}, prog.Data)

	assert.Equal(2, len(prog.Binary()))
}

func TestAssemblerEqu(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("BASE", "100")

	program := []string{
		".equ COUNT 5",
		".equ COUNTER $t3",
		"li COUNTER, COUNT",
		"li $t0, $(COUNT*2+BASE)",
		"addi $t1, $zero, LINENO",
	}

	prog := doAssemble(t, asm, program)

	assert.Equal([]uint32{
		uint32(MakeCodeI(OP_ADDIU, 11, 0, 5)),
		uint32(MakeCodeI(OP_ADDIU, 8, 0, 110)),
		uint32(MakeCodeI(OP_ADDI, 9, 0, 5)),
	}, prog.Binary())
	assert.Equal("5", asm.Equate["COUNT"])

	// Predefines survive between runs, equates do not.
	prog = doAssemble(t, asm, []string{"li $t0, BASE"})
	assert.Equal([]uint32{uint32(MakeCodeI(OP_ADDIU, 8, 0, 100))}, prog.Binary())
	_, ok := asm.Equate["COUNT"]
	assert.False(ok)
}

func TestAssemblerMacro(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		".macro print_int reg",
		"  move $a0, reg",
		"  li $v0, SYSCALL_PRINT_INT",
		"  syscall",
		".endm",
		".macro countdown reg",
		"@loop:",
		"  addi reg, reg, -1",
		"  bne reg, $zero, @loop",
		".endm",
		"  li $t0, 42",
		"  print_int $t0",
		"  countdown $t0",
		"  countdown $t0",
	}

	prog := doAssemble(t, asm, program)

	assert.Equal([]uint32{
		uint32(MakeCodeI(OP_ADDIU, 8, 0, 42)),
		uint32(MakeCodeR(FUNCT_ADDU, 4, 8, 0, 0)),
		uint32(MakeCodeI(OP_ADDIU, 2, 0, 1)),
		uint32(MakeCodeSyscall()),
		uint32(MakeCodeI(OP_ADDI, 8, 8, 0xffff)),
		uint32(MakeCodeI(OP_BNE, 0, 8, 0xfffe)),
		uint32(MakeCodeI(OP_ADDI, 8, 8, 0xffff)),
		uint32(MakeCodeI(OP_BNE, 0, 8, 0xfffe)),
	}, prog.Binary())

	// print_int was the first expansion.
	assert.Equal(TEXT_BASE+16, asm.Label["countdown_2_loop"])
	assert.Equal(TEXT_BASE+24, asm.Label["countdown_3_loop"])

	// Macro arguments do not leak.
	_, ok := asm.Equate["reg"]
	assert.False(ok)
}

func TestAssemblerErrors(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	table := [](struct {
		prog string
		err  error
	}){
		{"frob $t0", ErrInstructionInvalid},
		{"add $t0, $t1", ErrOpcodeValueMissing},
		{"add $t0, $t1, $t2, $t3", ErrOpcodeExtraArgs},
		{"add $t0, $t1, $x9", ErrRegisterInvalid},
		{"add $t0, $t1, 5", ErrRegisterInvalid},
		{"addi $t0, $t1, 0x10000", ErrRange{Value: 0x10000, Bits: 16}},
		{"addi $t0, $t1, -0x8001", ErrRange{Value: -0x8001, Bits: 16}},
		{"sll $t0, $t1, 32", ErrRange{Value: 32, Bits: 5}},
		{"li $t0, 0x100000000", ErrRange{Value: 0x100000000, Bits: 32}},
		{"li $t0, bogus", ErrParseNumber("bogus")},
		{"lw $t0, $t1", ErrAddressInvalid},
		{"lw $t0, 4($x1)", ErrRegisterInvalid},
		{"j nowhere", ErrLabelMissing("nowhere")},
		{"beq $t0, $t1, nowhere", ErrLabelMissing("nowhere")},
		{"j 0x10000000", ErrTargetInvalid},
		{"DUP:\nDUP:", ErrLabelDuplicate},
		{".word 1", ErrSectionInvalid},
		{".data\naddi $t0, $zero, 1", ErrSectionInvalid},
		{".data\n.word", ErrOpcodeValueMissing},
		{".data\n.asciiz hello", ErrParseString("hello")},
		{".data\n.asciiz \"bad\\q\"", ErrParseString("\"bad\\q\"")},
		{".bogus", ErrDirectiveInvalid},
		{".equ X", ErrEquateSyntax},
		{".equ X 1\n.equ X 2", ErrEquateDuplicate},
		{".macro m", ErrMacroLonely},
		{".endm", ErrMacroLonelyEndm},
		{".macro", ErrMacroSyntax},
		{".macro a\n.macro b", ErrMacroNesting},
		{".macro a\n.endm\n.macro a\n.endm", ErrMacroDuplicate},
		{".macro a x\n.endm\na", ErrMacroSyntax},
		{".macro a x\nfrob x\n.endm\na 1", ErrInstructionInvalid},
		{"syscall 1", ErrOpcodeExtraArgs},
	}

	for _, entry := range table {
		_, err := asm.Parse(strings.NewReader(entry.prog))
		assert.ErrorIs(err, entry.err, entry.prog)
	}
}

func TestAssemblerLinkInvalid(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{
		Label: map[string]uint32{"here": TEXT_BASE},
	}

	op := &Opcode{
		LineNo:    1,
		Pc:        TEXT_BASE,
		Words:     []string{"add", "$t0", "$t1", "here"},
		Codes:     []Code{MakeCodeR(FUNCT_ADD, 8, 9, 0, 0)},
		LinkLabel: "here",
	}

	err := asm.link(op)
	assert.ErrorIs(err, ErrInstructionInvalid)
	assert.Equal(MakeCodeR(FUNCT_ADD, 8, 9, 0, 0), op.Codes[0])
}

func TestAssemblerErrSyntax(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	// Various syntax errors
	table := [](struct {
		prog string
		line int
	}){
		{"DUP:\nDUP:\n", 2},
		{"li $t0, nothing", 1},
		{"li $t0, $(\"aaa\")", 1},
		{"li $t0, $(more(\"aaa\"))", 1},
		{"li $t0, $(0x10000000000000000)", 1},
		{".equ", 1},
		{".equ A", 1},
		{".equ A 1\n.equ A 2\n", 2},
		{".macro A B C\n.endm\nA 1\n", 3},
		{".macro A B C\nB C\n.endm\nA j 0x400000\nA invalid word\n", 5},
		{".macro A B\n.macro C\n.endm\n.endm", 2},
		{".macro A B\n.endm\n.macro A\n.endm\n", 3},
		{".macro A B\n.endm\n.endm\n", 3},
		{".macro A\naddi $t0, $zero, 1\n", 2},
		{"addi $t0, $zero, 1\n\n  j far\n", 3},
		{"add\n", 1},
		{"add $t0\n", 1},
		{"lw\n", 1},
		{"lw $t0, 4\n", 1},
		{"sw $t0, 4($t1) extra\n", 1},
		{"lui $t0\n", 1},
		{"lui $t0, 0x10000\n", 1},
		{"li\n", 1},
		{"la $t0\n", 1},
		{"j\n", 1},
		{"beq $t0, $t1\n", 1},
		{"move $t0\n", 1},
		{"b\n", 1},
		{"exit 1\n", 1},
		{".data\n.space -1\n", 2},
		{".data\n.space\n", 2},
		{".data\n.word 0x100000000\n", 2},
	}

	for _, entry := range table {
		_, err := asm.Parse(strings.NewReader(entry.prog))
		var se *ErrSyntax
		assert.NotNil(err, entry.prog)
		if err != nil {
			assert.True(errors.As(err, &se), entry.prog)
			assert.Equal(entry.line, se.LineNo, entry.prog)
		}
	}
}

func TestAssemblerMacroError(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		".macro bad",
		"  addi $t0, $zero, 1",
		"  frob",
		".endm",
		"bad",
	}

	_, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))

	var se *ErrSyntax
	if assert.True(errors.As(err, &se)) {
		assert.Equal(5, se.LineNo)
	}

	var me *ErrMacro
	if assert.True(errors.As(err, &me)) {
		assert.Equal("bad", me.Macro)
		assert.Equal(3, me.Line)
	}
	assert.ErrorIs(err, ErrInstructionInvalid)
}
