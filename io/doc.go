// Package io provides the I/O attached to the μMIPS processor: the console
// stream written by system calls, and the plain-text binary segment files
// that hold programs and their data.
package io
