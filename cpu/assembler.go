// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Section is the segment the assembler is emitting into.
type Section int

const (
	SECTION_TEXT = Section(0)
	SECTION_DATA = Section(1)
)

// Assembler is a single pass macro assembler for the μMIPS system.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.
	Data    []byte   // Data segment contents.

	predefine map[string]string   // Predefines
	Label     map[string]uint32   // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	section   Section
	expansion int // Macro expansion counter, for '@' local labels.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// regMap maps register names, both numeric and ABI, to indexes.
var regMap = func() map[string]int {
	regs := make(map[string]int, 2*REGISTER_COUNT+1)
	for n, name := range RegisterName {
		regs[fmt.Sprintf("$%d", n)] = n
		regs["$"+name] = n
	}
	regs["$s8"] = 30
	return regs
}()

// register returns the index of a register name.
func (asm *Assembler) register(word string) (index int, err error) {
	index, ok := regMap[word]
	if !ok {
		err = ErrRegisterInvalid
	}
	return
}

// valueOf returns the value of a simple word.
// Values are accepted in the range of either a signed or an unsigned 32-bit word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	if len(word) == 0 {
		err = ErrOpcodeValueMissing
		return
	}
	if word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(word)
		return
	}
	value, err = strconv.ParseInt(word, 0, 64)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if value > 0xffffffff || value < -0x80000000 {
		err = ErrRange{Value: value, Bits: 32}
		return
	}

	return
}

// immediate16 returns the 16-bit field encoding of a value.
func (asm *Assembler) immediate16(word string) (imm uint16, err error) {
	value, err := asm.valueOf(word)
	if err != nil {
		return
	}

	if value > 0xffff || value < -0x8000 {
		err = ErrRange{Value: value, Bits: 16}
		return
	}

	imm = uint16(value)
	return
}

// memoryOperand splits an 'offset(base)' operand.
func (asm *Assembler) memoryOperand(word string) (offset uint16, base int, err error) {
	open := strings.IndexByte(word, '(')
	if open < 0 || !strings.HasSuffix(word, ")") {
		err = ErrAddressInvalid
		return
	}

	base, err = asm.register(word[open+1 : len(word)-1])
	if err != nil {
		return
	}

	if open > 0 {
		offset, err = asm.immediate16(word[:open])
	}

	return
}

// splitAddress splits an address into the lui and addiu immediates that
// rebuild it. The upper half is adjusted for the sign extension of the
// lower half.
func splitAddress(value uint32) (hi uint16, lo uint16) {
	hi = uint16((value + 0x8000) >> 16)
	lo = uint16(value)
	return
}

// parenEval evaluates a $(...) expression with starlark, over the integer
// equates and the labels defined so far.
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v64 int64
		v64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeUint64(uint64(addr))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

var (
	reCharacter = regexp.MustCompile(`'\\?[^']'`)
	reParen     = regexp.MustCompile(`\$\([^\$]*\)`)
	reLabel     = regexp.MustCompile(`^([A-Za-z_.][A-Za-z0-9_.]*):\s*`)
	reString    = regexp.MustCompile(`^(\.asciiz|\.ascii)\s+(".*")$`)
)

// stripComment removes a '#' or ';' comment, ignoring those in string
// or character quotes.
func stripComment(text string) string {
	var quote rune
	escaped := false
	for n, ch := range text {
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && quote != 0:
			escaped = true
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '#' || ch == ';':
			return text[:n]
		}
	}

	return text
}

// currentPc gets the address of the next text instruction.
func (asm *Assembler) currentPc() uint32 {
	if len(asm.Opcode) == 0 {
		return TEXT_BASE
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Pc + uint32(4*len(last.Codes))
}

// currentData gets the address of the next data byte.
func (asm *Assembler) currentData() uint32 {
	return DATA_BASE + uint32(len(asm.Data))
}

// alignData pads the data segment to a word boundary.
func (asm *Assembler) alignData() {
	for len(asm.Data)%4 != 0 {
		asm.Data = append(asm.Data, 0)
	}
}

// defineLabels binds labels to the current address of the active section.
func (asm *Assembler) defineLabels(labels []string) (err error) {
	for _, label := range labels {
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]uint32, 16)
		}
		addr := asm.currentPc()
		if asm.section == SECTION_DATA {
			addr = asm.currentData()
		}
		asm.Label[label] = addr
		if asm.Verbose {
			log.Printf("asm: label %v = %#08x", label, addr)
		}
	}

	return
}

// parseLine parses a single line into words, defining its labels.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	var labels []string
	for {
		match := reLabel.FindStringSubmatch(line)
		if match == nil {
			break
		}
		labels = append(labels, match[1])
		line = line[len(match[0]):]
	}

	// String directives are taken verbatim.
	if match := reString.FindStringSubmatch(line); match != nil {
		err = asm.defineLabels(labels)
		if err != nil {
			return
		}
		var text string
		text, err = strconv.Unquote(match[2])
		if err != nil {
			err = ErrParseString(match[2])
			return
		}
		words = []string{match[1], text}
		return
	}

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\x00"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return strconv.FormatInt(value, 10)
	})
	if err != nil {
		return
	}

	words = strings.FieldsFunc(line, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})

	// Quoted strings were handled above.
	if len(words) > 0 && (words[0] == ".ascii" || words[0] == ".asciiz") {
		err = ErrParseString(strings.Join(words[1:], " "))
		return
	}

	if len(words) > 0 && asm.section == SECTION_DATA && words[0] == ".word" {
		asm.alignData()
	}

	err = asm.defineLabels(labels)
	if err != nil {
		return
	}

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		macro_args := words[1:]
		if len(macro_args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		asm.expansion++
		local := fmt.Sprintf("%v_%v_", name, asm.expansion)
		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	asm.Data = asm.Data[:0]
	asm.section = SECTION_TEXT
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(_cpu_defines)
	asm.Equate["LINENO"] = "0"
	maps.Copy(asm.Equate, asm.predefine)

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("asm: %v: %v", lineno, text)
		}

		line = strings.TrimSpace(stripComment(text))
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		lineno = op.LineNo
		line = strings.Join(op.Words, " ")
		err = asm.link(op)
		if err != nil {
			return
		}
	}

	asm.alignData()
	data := make([]uint32, len(asm.Data)/4)
	for n := range data {
		data[n] = binary.LittleEndian.Uint32(asm.Data[4*n:])
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
		Data:    data,
	}

	return
}

// link resolves the label of an opcode into its last instruction(s).
func (asm *Assembler) link(op *Opcode) (err error) {
	label := op.LinkLabel
	addr, ok := asm.Label[label]
	if !ok {
		err = ErrLabelMissing(label)
		return
	}

	last := len(op.Codes) - 1
	pc := op.Pc + uint32(4*last)
	linked := &op.Codes[last]

	switch linked.Opcode() {
	case OP_BEQ, OP_BNE:
		offset := (int64(addr) - int64(pc+4)) / 4
		if offset > 0x7fff || offset < -0x8000 {
			err = ErrRange{Value: offset, Bits: 16}
			return
		}
		*linked |= Code(uint16(offset))
	case OP_J:
		if (addr & JUMP_REGION_MASK) != ((pc + 4) & JUMP_REGION_MASK) {
			err = ErrTargetInvalid
			return
		}
		*linked |= Code((addr >> 2) & 0x03ff_ffff)
	case OP_ADDIU:
		// la: lui + addiu
		hi, lo := splitAddress(addr)
		op.Codes[last-1] |= Code(hi)
		*linked |= Code(lo)
	default:
		err = ErrInstructionInvalid
	}

	return
}

// argCount checks the operand count of an instruction.
func argCount(words []string, count int) (err error) {
	switch {
	case len(words)-1 < count:
		err = ErrOpcodeValueMissing
	case len(words)-1 > count:
		err = ErrOpcodeExtraArgs
	}
	return
}

// registers parses a list of register operands.
func (asm *Assembler) registers(words ...string) (regs []int, err error) {
	regs = make([]int, len(words))
	for n, word := range words {
		regs[n], err = asm.register(word)
		if err != nil {
			return
		}
	}
	return
}

// loadImmediate generates the shortest sequence that sets rt to value.
func loadImmediate(rt int, value uint32) (codes []Code) {
	switch {
	case int32(value) >= -0x8000 && int32(value) <= 0x7fff:
		codes = append(codes, MakeCodeI(OP_ADDIU, rt, REG_ZERO, uint16(value)))
	case value&0xffff == 0:
		codes = append(codes, MakeCodeI(OP_LUI, rt, REG_ZERO, uint16(value>>16)))
	default:
		hi, lo := splitAddress(value)
		codes = append(codes,
			MakeCodeI(OP_LUI, rt, REG_ZERO, hi),
			MakeCodeI(OP_ADDIU, rt, rt, lo),
		)
	}
	return
}

// functMap maps R-type three register mnemonics.
var functMap = map[string]CodeFunct{
	"add":  FUNCT_ADD,
	"addu": FUNCT_ADDU,
	"sub":  FUNCT_SUB,
	"and":  FUNCT_AND,
	"or":   FUNCT_OR,
	"slt":  FUNCT_SLT,
}

// shiftMap maps R-type shift mnemonics.
var shiftMap = map[string]CodeFunct{
	"sll": FUNCT_SLL,
	"srl": FUNCT_SRL,
}

// immediateMap maps I-type arithmetic mnemonics.
var immediateMap = map[string]CodeOp{
	"addi":  OP_ADDI,
	"addiu": OP_ADDIU,
	"andi":  OP_ANDI,
	"ori":   OP_ORI,
}

// branchMap maps branch mnemonics.
var branchMap = map[string]CodeOp{
	"beq": OP_BEQ,
	"bne": OP_BNE,
}

// parseDirective evaluates an assembler directive.
func (asm *Assembler) parseDirective(words []string) (err error) {
	switch words[0] {
	case ".text":
		asm.section = SECTION_TEXT
	case ".data":
		asm.section = SECTION_DATA
	case ".globl", ".global":
		// Single module - nothing to export.
	case ".word":
		if asm.section != SECTION_DATA {
			err = ErrSectionInvalid
			return
		}
		if len(words) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		asm.alignData()
		for _, word := range words[1:] {
			var value int64
			value, err = asm.valueOf(word)
			if err != nil {
				return
			}
			asm.Data = binary.LittleEndian.AppendUint32(asm.Data, uint32(value))
		}
	case ".ascii", ".asciiz":
		if asm.section != SECTION_DATA {
			err = ErrSectionInvalid
			return
		}
		if len(words) != 2 {
			err = ErrParseString(strings.Join(words[1:], " "))
			return
		}
		asm.Data = append(asm.Data, words[1]...)
		if words[0] == ".asciiz" {
			asm.Data = append(asm.Data, 0)
		}
	case ".space":
		if asm.section != SECTION_DATA {
			err = ErrSectionInvalid
			return
		}
		err = argCount(words, 1)
		if err != nil {
			return
		}
		var size int64
		size, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		if size < 0 {
			err = ErrRange{Value: size, Bits: 31}
			return
		}
		asm.Data = append(asm.Data, make([]byte, size)...)
	default:
		err = ErrDirectiveInvalid
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []Code
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	if strings.HasPrefix(words[0], ".") {
		return asm.parseDirective(words)
	}

	if asm.section != SECTION_TEXT {
		err = ErrSectionInvalid
		return
	}

	initial_words := words

	defer func() {
		if len(codes) == 0 {
			return
		}
		opcode := Opcode{LineNo: lineno, Pc: asm.currentPc(), Words: initial_words, Codes: codes, LinkLabel: label}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	// Pseudo instruction substitutions
	switch {
	case len(words) == 3 && words[0] == "move":
		// move rd rs => addu rd rs $zero
		words = []string{"addu", words[1], words[2], "$zero"}
	case len(words) == 2 && words[0] == "b":
		// b label => beq $zero $zero label
		words = []string{"beq", "$zero", "$zero", words[1]}
	default:
		// unchanged
	}

	var regs []int

	op := words[0]
	funct, is_funct := functMap[op]
	shift, is_shift := shiftMap[op]
	imm_op, is_imm := immediateMap[op]
	branch, is_branch := branchMap[op]

	switch {
	case op == "syscall":
		err = argCount(words, 0)
		if err != nil {
			return
		}
		codes = append(codes, MakeCodeSyscall())
	case op == "exit":
		err = argCount(words, 0)
		if err != nil {
			return
		}
		codes = append(codes,
			MakeCodeI(OP_ADDIU, REG_V0, REG_ZERO, uint16(SYSCALL_EXIT)),
			MakeCodeSyscall(),
		)
	case is_funct:
		err = argCount(words, 3)
		if err != nil {
			return
		}
		regs, err = asm.registers(words[1:]...)
		if err != nil {
			return
		}
		codes = append(codes, MakeCodeR(funct, regs[0], regs[1], regs[2], 0))
	case is_shift:
		err = argCount(words, 3)
		if err != nil {
			return
		}
		regs, err = asm.registers(words[1:3]...)
		if err != nil {
			return
		}
		var shamt int64
		shamt, err = asm.valueOf(words[3])
		if err != nil {
			return
		}
		if shamt < 0 || shamt > 31 {
			err = ErrRange{Value: shamt, Bits: 5}
			return
		}
		codes = append(codes, MakeCodeR(shift, regs[0], REG_ZERO, regs[1], uint32(shamt)))
	case is_imm:
		err = argCount(words, 3)
		if err != nil {
			return
		}
		regs, err = asm.registers(words[1:3]...)
		if err != nil {
			return
		}
		var imm uint16
		imm, err = asm.immediate16(words[3])
		if err != nil {
			return
		}
		codes = append(codes, MakeCodeI(imm_op, regs[0], regs[1], imm))
	case op == "lui":
		err = argCount(words, 2)
		if err != nil {
			return
		}
		regs, err = asm.registers(words[1])
		if err != nil {
			return
		}
		var imm uint16
		imm, err = asm.immediate16(words[2])
		if err != nil {
			return
		}
		codes = append(codes, MakeCodeI(OP_LUI, regs[0], REG_ZERO, imm))
	case op == "lw" || op == "sw":
		err = argCount(words, 2)
		if err != nil {
			return
		}
		regs, err = asm.registers(words[1])
		if err != nil {
			return
		}
		var offset uint16
		var base int
		offset, base, err = asm.memoryOperand(words[2])
		if err != nil {
			return
		}
		code_op := OP_LW
		if op == "sw" {
			code_op = OP_SW
		}
		codes = append(codes, MakeCodeI(code_op, regs[0], base, offset))
	case is_branch:
		err = argCount(words, 3)
		if err != nil {
			return
		}
		regs, err = asm.registers(words[1:3]...)
		if err != nil {
			return
		}
		// Instruction offsets are used as-is, anything else is a label.
		offset, num_err := asm.immediate16(words[3])
		if num_err != nil {
			offset = 0
			label = words[3]
		}
		codes = append(codes, MakeCodeI(branch, regs[1], regs[0], offset))
	case op == "j":
		err = argCount(words, 1)
		if err != nil {
			return
		}
		target, num_err := asm.valueOf(words[1])
		if num_err != nil {
			target = 0
			label = words[1]
		} else if (uint32(target) & JUMP_REGION_MASK) != ((asm.currentPc() + 4) & JUMP_REGION_MASK) {
			err = ErrTargetInvalid
			return
		}
		codes = append(codes, MakeCodeJ(OP_J, uint32(target)>>2))
	case op == "li":
		err = argCount(words, 2)
		if err != nil {
			return
		}
		regs, err = asm.registers(words[1])
		if err != nil {
			return
		}
		var value int64
		value, err = asm.valueOf(words[2])
		if err != nil {
			return
		}
		codes = append(codes, loadImmediate(regs[0], uint32(value))...)
	case op == "la":
		err = argCount(words, 2)
		if err != nil {
			return
		}
		regs, err = asm.registers(words[1])
		if err != nil {
			return
		}
		var hi, lo uint16
		value, num_err := asm.valueOf(words[2])
		if num_err != nil {
			label = words[2]
		} else {
			hi, lo = splitAddress(uint32(value))
		}
		codes = append(codes,
			MakeCodeI(OP_LUI, regs[0], REG_ZERO, hi),
			MakeCodeI(OP_ADDIU, regs[0], regs[0], lo),
		)
	default:
		err = ErrInstructionInvalid
		return
	}

	return
}
