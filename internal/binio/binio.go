// Package binio provides little-endian read helpers for fixed-width fields.
package binio

import (
	"encoding/binary"
	"io"
)

// Bytes reads exactly n bytes from r.
// Short reads surface as io.EOF or io.ErrUnexpectedEOF for callers to wrap.
func Bytes(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Uint32 reads a little-endian uint32 from r.
func Uint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// Int16s reads count little-endian int16 values from r in one read.
func Int16s(r io.Reader, count int) ([]int16, error) {
	buf := make([]byte, 2*count)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	vals := make([]int16, count)
	for i := range vals {
		vals[i] = int16(binary.LittleEndian.Uint16(buf[2*i:])) //nolint:gosec // deliberate reinterpretation of the on-disk bits
	}
	return vals, nil
}
