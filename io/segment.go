package io

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
)

// Segment is a run of words placed at consecutive addresses.
type Segment struct {
	Base uint32
	Data []uint32
}

// Words iterates over the segment as address and word pairs.
func (seg *Segment) Words() iter.Seq2[uint32, uint32] {
	return func(yield func(addr uint32, word uint32) bool) {
		for n, word := range seg.Data {
			if !yield(seg.Base+uint32(4*n), word) {
				return
			}
		}
	}
}

// ReadSegment reads one base-2 word per line.
// Surrounding whitespace is ignored. Any other line, including a blank
// one, fails with an *ErrSegment.
func ReadSegment(r io.Reader) (data []uint32, err error) {
	scanner := bufio.NewScanner(r)

	var lineno int
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())

		var value uint64
		value, err = strconv.ParseUint(line, 2, 32)
		if err != nil {
			err = &ErrSegment{LineNo: lineno, Line: line, Err: ErrSegmentSyntax}
			return
		}

		data = append(data, uint32(value))
	}

	err = scanner.Err()

	return
}

// WriteSegment writes words as zero padded 32 character base-2 lines.
func WriteSegment(w io.Writer, data []uint32) (err error) {
	out := bufio.NewWriter(w)

	for _, word := range data {
		_, err = fmt.Fprintf(out, "%032b\n", word)
		if err != nil {
			return
		}
	}

	err = out.Flush()

	return
}
