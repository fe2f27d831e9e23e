package io

import (
	"io"
	"strings"
)

// Console is the append-only output stream of a running program.
// Everything written is kept until Rewind, and is optionally copied to
// Echo as it is produced.
type Console struct {
	Echo io.Writer // If set, receives output as it is written.

	output strings.Builder
}

// WriteString appends text to the console.
func (con *Console) WriteString(text string) (n int, err error) {
	n, _ = con.output.WriteString(text)

	if con.Echo != nil {
		_, err = io.WriteString(con.Echo, text)
	}

	return
}

// Write appends bytes to the console.
func (con *Console) Write(data []byte) (n int, err error) {
	return con.WriteString(string(data))
}

// String returns everything written since the last Rewind.
func (con *Console) String() string {
	return con.output.String()
}

// Len returns the number of bytes written since the last Rewind.
func (con *Console) Len() int {
	return con.output.Len()
}

// Rewind discards the collected output.
func (con *Console) Rewind() {
	con.output.Reset()
}
