package cpu

import (
	"errors"
	"strconv"
)

// SyscallCode is a syscall service number, passed in $v0.
type SyscallCode uint32

//go:generate go tool stringer -linecomment -type=SyscallCode
const (
	SYSCALL_PRINT_INT    = SyscallCode(1)  // print_int
	SYSCALL_PRINT_STRING = SyscallCode(4)  // print_string
	SYSCALL_EXIT         = SyscallCode(10) // exit
	SYSCALL_PRINT_CHAR   = SyscallCode(11) // print_char
)

// syscall dispatches the service requested in $v0 with the argument in $a0.
// Returns exit set when the program asked to terminate.
func (cpu *Cpu) syscall() (service SyscallCode, exit bool, err error) {
	service = SyscallCode(cpu.Register.Read(REG_V0))
	arg := cpu.Register.Read(REG_A0)

	var text string
	switch service {
	case SYSCALL_PRINT_INT:
		text = strconv.FormatUint(uint64(arg), 10)
	case SYSCALL_PRINT_STRING:
		text = cpu.Memory.LoadString(arg)
	case SYSCALL_PRINT_CHAR:
		text = string(rune(arg))
	case SYSCALL_EXIT:
		exit = true
		return
	default:
		if cpu.Strict {
			err = errors.Join(ErrSyscallUnknown, ErrOpcode(MakeCodeSyscall()))
		}
		return
	}

	if cpu.Console != nil {
		_, err = cpu.Console.WriteString(text)
	}

	return
}
