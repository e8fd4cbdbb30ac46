package grp

import "strings"

// NameSize is the width of the fixed name field in a directory record.
const NameSize = 12

// Entry describes one archive member.
//
// Entries are produced by Entries and Find and are immutable; reusing an
// Entry across calls is safe because it carries no reference to the source.
type Entry struct {
	// RawName is the name field exactly as stored on disk.
	// The logical name ends at the first zero byte.
	RawName [NameSize]byte

	// Size is the declared payload size in bytes.
	Size uint32

	// Offset is the computed absolute position of the payload.
	Offset uint64
}

// Name decodes the member name from the raw field.
//
// Decoding stops at the first zero byte and maps every remaining byte to
// the code point of the same value, so lookups compare byte-for-byte
// against real archives regardless of the text encoding they were written
// with.
func (e Entry) Name() string {
	var b strings.Builder
	for _, c := range e.RawName {
		if c == 0 {
			break
		}
		b.WriteRune(rune(c))
	}
	return b.String()
}
