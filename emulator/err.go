package emulator

import (
	"errors"

	"github.com/ezrec/umips/translate"
)

var f = translate.From

var (
	// Load errors
	ErrTextMissing    = errors.New(f("text segment missing"))
	ErrTextSegment    = errors.New(f("text segment"))
	ErrDataSegment    = errors.New(f("data segment"))
	ErrProgramMissing = errors.New(f("program missing"))

	// Runtime errors
	ErrTickLimit = errors.New(f("tick limit exceeded"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo int
	Pc     uint32
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %d pc %#08x %v", err.LineNo, err.Pc, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
