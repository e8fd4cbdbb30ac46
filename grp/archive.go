package grp

import (
	"errors"
	"fmt"
	"io"

	"github.com/buildfmt/grpart/internal/binio"
	"github.com/buildfmt/grpart/internal/sizing"
)

// Magic is the signature that opens every archive.
const Magic = "KenSilverman"

const (
	headerSize   = 16
	dirEntrySize = 16
)

// Sentinel errors returned by archive operations.
var (
	// ErrBadMagic is returned when the archive signature does not match.
	ErrBadMagic = errors.New("grp: bad magic")

	// ErrTruncated is returned when the source ends before a complete structure.
	ErrTruncated = errors.New("grp: truncated archive")

	// ErrSizeOverflow is returned when computed offsets exceed supported limits.
	ErrSizeOverflow = errors.New("grp: size overflow")
)

// Archive reads members from an archive byte source.
//
// The archive borrows the source for its lifetime and never closes it.
// Every operation repositions the source's cursor before reading, so a
// single Archive must not be shared across goroutines without external
// serialization; give each goroutine its own Archive over an independent
// cursor instead.
type Archive struct {
	src   io.ReadSeeker
	count uint32
}

// Open validates the archive header read from src.
//
// The source must be positioned at the start of the archive. Open checks
// the signature and reads the member count; the directory itself is read
// lazily per call to Entries.
func Open(src io.ReadSeeker) (*Archive, error) {
	sig, err := binio.Bytes(src, len(Magic))
	if err != nil {
		return nil, fmt.Errorf("%w: header", ErrTruncated)
	}
	if string(sig) != Magic {
		return nil, fmt.Errorf("%w: %q (expected %q)", ErrBadMagic, sig, Magic)
	}
	count, err := binio.Uint32(src)
	if err != nil {
		return nil, fmt.Errorf("%w: header", ErrTruncated)
	}
	return &Archive{src: src, count: count}, nil
}

// Len returns the member count declared in the header.
func (a *Archive) Len() int {
	return int(a.count)
}

// Entries reads the member directory.
//
// The directory is re-read from the source on every call; nothing is
// cached between calls and the returned slice is freshly allocated.
// Entries appear in directory order with computed payload offsets.
// Repeated names are kept as-is, never deduplicated or sorted.
func (a *Archive) Entries() ([]Entry, error) {
	size, err := a.sourceSize()
	if err != nil {
		return nil, err
	}
	dirEnd := headerSize + dirEntrySize*uint64(a.count)
	if size < dirEnd {
		return nil, fmt.Errorf("%w: directory (need %d bytes, have %d)", ErrTruncated, dirEnd, size)
	}
	if _, err := a.src.Seek(headerSize, io.SeekStart); err != nil {
		return nil, fmt.Errorf("grp: seek directory: %w", err)
	}

	entries := make([]Entry, 0, a.count)
	offset := dirEnd
	for i := range a.count {
		var e Entry
		if _, err := io.ReadFull(a.src, e.RawName[:]); err != nil {
			return nil, fmt.Errorf("%w: directory entry %d", ErrTruncated, i)
		}
		declared, err := binio.Uint32(a.src)
		if err != nil {
			return nil, fmt.Errorf("%w: directory entry %d", ErrTruncated, i)
		}
		e.Size = declared
		e.Offset = offset

		next, ok := sizing.AddUint64(offset, uint64(declared))
		if !ok {
			return nil, fmt.Errorf("%w: member %q", ErrSizeOverflow, e.Name())
		}
		offset = next
		entries = append(entries, e)
	}
	return entries, nil
}

// Find returns the first entry in directory order whose decoded name
// equals name exactly. The boolean is false when no member matches;
// absence is not an error.
func (a *Archive) Find(name string) (Entry, bool, error) {
	entries, err := a.Entries()
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range entries {
		if e.Name() == name {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

// ReadEntry reads a member payload fully into memory.
//
// The payload range is checked against the source size before allocating,
// so a corrupt directory cannot trigger an oversized allocation.
func (a *Archive) ReadEntry(e Entry) ([]byte, error) {
	size, err := a.sourceSize()
	if err != nil {
		return nil, err
	}
	end, ok := sizing.AddUint64(e.Offset, uint64(e.Size))
	if !ok {
		return nil, fmt.Errorf("%w: member %q", ErrSizeOverflow, e.Name())
	}
	if size < end {
		return nil, fmt.Errorf("%w: member %q payload (need %d bytes, have %d)", ErrTruncated, e.Name(), end, size)
	}
	off, err := sizing.ToInt64(e.Offset, ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	if _, err := a.src.Seek(off, io.SeekStart); err != nil {
		return nil, fmt.Errorf("grp: seek member %q: %w", e.Name(), err)
	}

	data := make([]byte, e.Size)
	if n, err := io.ReadFull(a.src, data); err != nil {
		return nil, fmt.Errorf("%w: member %q payload: short read (%d of %d bytes)", ErrTruncated, e.Name(), n, e.Size)
	}
	return data, nil
}

// sourceSize reports the current total size of the backing source.
func (a *Archive) sourceSize() (uint64, error) {
	end, err := a.src.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("grp: seek end: %w", err)
	}
	return uint64(end), nil //nolint:gosec // Seek(0, io.SeekEnd) never returns a negative offset
}
