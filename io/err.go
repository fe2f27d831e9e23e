package io

import (
	"errors"

	"github.com/ezrec/umips/translate"
)

var f = translate.From

var (
	// Segment errors
	ErrSegmentSyntax = errors.New(f("not a 32-bit binary word"))
)

// ErrSegment indicates the location of a malformed segment line.
type ErrSegment struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSegment) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSegment) Unwrap() error {
	return err.Err
}
