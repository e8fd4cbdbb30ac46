package binio

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint32(t *testing.T) {
	t.Parallel()

	v, err := Uint32(bytes.NewReader([]byte{0x2A, 0x00, 0x01, 0x00}))
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1002A), v)

	_, err = Uint32(bytes.NewReader([]byte{0x2A, 0x00}))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = Uint32(bytes.NewReader(nil))
	assert.ErrorIs(t, err, io.EOF)
}

func TestBytes(t *testing.T) {
	t.Parallel()

	got, err := Bytes(strings.NewReader("KenSilverman????"), 12)
	require.NoError(t, err)
	assert.Equal(t, []byte("KenSilverman"), got)

	_, err = Bytes(strings.NewReader("short"), 12)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestInt16s(t *testing.T) {
	t.Parallel()

	// 10, -1, 0, -32768
	data := []byte{0x0A, 0x00, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x80}
	vals, err := Int16s(bytes.NewReader(data), 4)
	require.NoError(t, err)
	assert.Equal(t, []int16{10, -1, 0, -32768}, vals)

	_, err = Int16s(bytes.NewReader(data), 5)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	vals, err = Int16s(bytes.NewReader(nil), 0)
	require.NoError(t, err)
	assert.Empty(t, vals)
}
