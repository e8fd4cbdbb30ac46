// Package art reads the tile metadata catalog format that accompanies
// Build-engine archives: signed width/height pairs for a contiguous
// numeric range of tile IDs.
package art

import (
	"errors"
	"fmt"
	"io"

	"github.com/buildfmt/grpart/internal/binio"
	"github.com/buildfmt/grpart/internal/sizing"
)

// SupportedVersion is the only catalog format version this package decodes.
const SupportedVersion = 1

const (
	rangeOffset    = 8  // version and reserved count precede the range header
	tileDataOffset = 16 // width run begins after the range header
)

// Sentinel errors returned by catalog operations.
var (
	// ErrVersion is returned when the catalog declares an unsupported version.
	ErrVersion = errors.New("art: unsupported version")

	// ErrInvalidRange is returned when the declared tile range is backwards.
	ErrInvalidRange = errors.New("art: invalid tile range")

	// ErrTruncated is returned when the source ends before a complete structure.
	ErrTruncated = errors.New("art: truncated catalog")

	// ErrSizeOverflow is returned when the tile count exceeds supported limits.
	ErrSizeOverflow = errors.New("art: size overflow")
)

// Tile is one decoded catalog record.
//
// Width and Height carry the stored signed values verbatim; zero and
// negative dimensions are legal and left for the caller to interpret.
type Tile struct {
	ID     uint32
	Width  int16
	Height int16
}

// Catalog reads tile records from a catalog byte source.
//
// The catalog borrows the source for its lifetime and never closes it.
// Each operation repositions a single shared cursor, so a Catalog must
// not be used from multiple goroutines without external serialization.
type Catalog struct {
	src io.ReadSeeker
}

// Open validates the catalog version read from src.
//
// The source must be positioned at the start of the catalog. Only the
// 4-byte version field is read here; the declared tile count following
// it is skipped entirely, the range header alone drives enumeration.
func Open(src io.ReadSeeker) (*Catalog, error) {
	version, err := binio.Uint32(src)
	if err != nil {
		return nil, fmt.Errorf("%w: header", ErrTruncated)
	}
	if version != SupportedVersion {
		return nil, fmt.Errorf("%w %d (expected %d)", ErrVersion, version, SupportedVersion)
	}
	return &Catalog{src: src}, nil
}

// Tiles reads the full tile sequence.
//
// The range header and both dimension runs are re-read from the source on
// every call; nothing is cached. All widths are stored before all heights,
// and records pair the two runs positionally: tile first+k gets the k-th
// width and the k-th height.
func (c *Catalog) Tiles() ([]Tile, error) {
	size, err := c.sourceSize()
	if err != nil {
		return nil, err
	}
	if _, err := c.src.Seek(rangeOffset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("art: seek range header: %w", err)
	}
	first, err := binio.Uint32(c.src)
	if err != nil {
		return nil, fmt.Errorf("%w: range header", ErrTruncated)
	}
	last, err := binio.Uint32(c.src)
	if err != nil {
		return nil, fmt.Errorf("%w: range header", ErrTruncated)
	}
	if last < first {
		return nil, fmt.Errorf("%w: first %d, last %d", ErrInvalidRange, first, last)
	}

	// Bound the declared range against the source before any allocation.
	count := uint64(last-first) + 1
	if need := tileDataOffset + 4*count; size < need {
		return nil, fmt.Errorf("%w: %d tile records (need %d bytes, have %d)", ErrTruncated, count, need, size)
	}
	n, err := sizing.ToInt(count, ErrSizeOverflow)
	if err != nil {
		return nil, err
	}

	widths, err := binio.Int16s(c.src, n)
	if err != nil {
		return nil, fmt.Errorf("%w: tile widths", ErrTruncated)
	}
	heights, err := binio.Int16s(c.src, n)
	if err != nil {
		return nil, fmt.Errorf("%w: tile heights", ErrTruncated)
	}

	tiles := make([]Tile, n)
	for k := range tiles {
		tiles[k] = Tile{
			ID:     first + uint32(k), //nolint:gosec // k < count, so first+k never passes last
			Width:  widths[k],
			Height: heights[k],
		}
	}
	return tiles, nil
}

// sourceSize reports the current total size of the backing source.
func (c *Catalog) sourceSize() (uint64, error) {
	end, err := c.src.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("art: seek end: %w", err)
	}
	return uint64(end), nil //nolint:gosec // Seek(0, io.SeekEnd) never returns a negative offset
}
