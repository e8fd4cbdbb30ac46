// Package testutil assembles synthetic archive and catalog images for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// Member is one named payload for BuildArchive.
type Member struct {
	Name string
	Data []byte
}

// BuildArchive assembles an archive image containing the given members in
// order: signature, member count, directory, then concatenated payloads.
func BuildArchive(t *testing.T, members ...Member) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("KenSilverman")
	putUint32(&buf, uint32(len(members))) //nolint:gosec // fixtures stay far below 1<<32 members
	for _, m := range members {
		if len(m.Name) > 12 {
			t.Fatalf("member name %q exceeds the 12-byte field", m.Name)
		}
		var name [12]byte
		copy(name[:], m.Name)
		buf.Write(name[:])
		putUint32(&buf, uint32(len(m.Data))) //nolint:gosec // fixture payloads stay far below 4GB
	}
	for _, m := range members {
		buf.Write(m.Data)
	}
	return buf.Bytes()
}

// BuildCatalog assembles a catalog image: version, a zero reserved field,
// the first/last range header, then the width run followed by the height
// run. The runs are written exactly as given; callers craft mismatched
// lengths or backwards ranges to exercise failure paths.
func BuildCatalog(t *testing.T, version, first, last uint32, widths, heights []int16) []byte {
	t.Helper()

	var buf bytes.Buffer
	putUint32(&buf, version)
	putUint32(&buf, 0)
	putUint32(&buf, first)
	putUint32(&buf, last)
	for _, w := range widths {
		putInt16(&buf, w)
	}
	for _, h := range heights {
		putInt16(&buf, h)
	}
	return buf.Bytes()
}

func putUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putInt16(buf *bytes.Buffer, v int16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(v)) //nolint:gosec // deliberate reinterpretation for the on-disk encoding
	buf.Write(b[:])
}
