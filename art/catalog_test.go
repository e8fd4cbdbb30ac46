package art_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildfmt/grpart/art"
	"github.com/buildfmt/grpart/internal/testutil"
)

func sampleCatalog(t *testing.T) []byte {
	t.Helper()
	return testutil.BuildCatalog(t, 1, 100, 102,
		[]int16{10, 20, 30},
		[]int16{5, 15, 25},
	)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("valid catalog", func(t *testing.T) {
		t.Parallel()

		_, err := art.Open(bytes.NewReader(sampleCatalog(t)))
		require.NoError(t, err)
	})

	t.Run("unsupported version", func(t *testing.T) {
		t.Parallel()

		image := testutil.BuildCatalog(t, 5, 0, 0, []int16{1}, []int16{1})
		_, err := art.Open(bytes.NewReader(image))
		require.ErrorIs(t, err, art.ErrVersion)
		assert.Contains(t, err.Error(), "unsupported version 5 (expected 1)")
	})

	t.Run("truncated header", func(t *testing.T) {
		t.Parallel()

		_, err := art.Open(bytes.NewReader([]byte{1, 0}))
		require.ErrorIs(t, err, art.ErrTruncated)
	})

	t.Run("only reads the version field", func(t *testing.T) {
		t.Parallel()

		image := sampleCatalog(t)[:4]
		_, err := art.Open(bytes.NewReader(image))
		require.NoError(t, err)
	})
}

func TestCatalog_Tiles(t *testing.T) {
	t.Parallel()

	t.Run("positional pairing", func(t *testing.T) {
		t.Parallel()

		c, err := art.Open(bytes.NewReader(sampleCatalog(t)))
		require.NoError(t, err)

		tiles, err := c.Tiles()
		require.NoError(t, err)
		require.Len(t, tiles, 3)

		assert.Equal(t, art.Tile{ID: 100, Width: 10, Height: 5}, tiles[0])
		assert.Equal(t, art.Tile{ID: 101, Width: 20, Height: 15}, tiles[1])
		assert.Equal(t, art.Tile{ID: 102, Width: 30, Height: 25}, tiles[2])
	})

	t.Run("single tile", func(t *testing.T) {
		t.Parallel()

		image := testutil.BuildCatalog(t, 1, 7, 7, []int16{64}, []int16{128})
		c, err := art.Open(bytes.NewReader(image))
		require.NoError(t, err)

		tiles, err := c.Tiles()
		require.NoError(t, err)
		require.Len(t, tiles, 1)
		assert.Equal(t, art.Tile{ID: 7, Width: 64, Height: 128}, tiles[0])
	})

	t.Run("dimensions kept verbatim", func(t *testing.T) {
		t.Parallel()

		image := testutil.BuildCatalog(t, 1, 0, 1,
			[]int16{0, -1},
			[]int16{-32768, 32767},
		)
		c, err := art.Open(bytes.NewReader(image))
		require.NoError(t, err)

		tiles, err := c.Tiles()
		require.NoError(t, err)
		require.Len(t, tiles, 2)
		assert.Equal(t, art.Tile{ID: 0, Width: 0, Height: -32768}, tiles[0])
		assert.Equal(t, art.Tile{ID: 1, Width: -1, Height: 32767}, tiles[1])
	})

	t.Run("backwards range", func(t *testing.T) {
		t.Parallel()

		image := testutil.BuildCatalog(t, 1, 5, 2, nil, nil)
		c, err := art.Open(bytes.NewReader(image))
		require.NoError(t, err)

		_, err = c.Tiles()
		require.ErrorIs(t, err, art.ErrInvalidRange)
		assert.Contains(t, err.Error(), "first 5, last 2")
	})

	t.Run("truncated tile data", func(t *testing.T) {
		t.Parallel()

		image := sampleCatalog(t)[:20]
		c, err := art.Open(bytes.NewReader(image))
		require.NoError(t, err)

		_, err = c.Tiles()
		require.ErrorIs(t, err, art.ErrTruncated)
		assert.Contains(t, err.Error(), "tile records")
	})

	t.Run("huge range fails before allocating", func(t *testing.T) {
		t.Parallel()

		image := testutil.BuildCatalog(t, 1, 0, 0xFFFFFFFF, nil, nil)
		c, err := art.Open(bytes.NewReader(image))
		require.NoError(t, err)

		_, err = c.Tiles()
		require.ErrorIs(t, err, art.ErrTruncated)
	})

	t.Run("truncated range header", func(t *testing.T) {
		t.Parallel()

		image := sampleCatalog(t)[:10]
		c, err := art.Open(bytes.NewReader(image))
		require.NoError(t, err)

		_, err = c.Tiles()
		require.ErrorIs(t, err, art.ErrTruncated)
		assert.Contains(t, err.Error(), "range header")
	})

	t.Run("reserved field ignored", func(t *testing.T) {
		t.Parallel()

		image := sampleCatalog(t)
		copy(image[4:8], []byte{0xDE, 0xAD, 0xBE, 0xEF})

		c, err := art.Open(bytes.NewReader(image))
		require.NoError(t, err)

		tiles, err := c.Tiles()
		require.NoError(t, err)
		assert.Len(t, tiles, 3)
	})

	t.Run("fresh slice per call", func(t *testing.T) {
		t.Parallel()

		c, err := art.Open(bytes.NewReader(sampleCatalog(t)))
		require.NoError(t, err)

		first, err := c.Tiles()
		require.NoError(t, err)
		second, err := c.Tiles()
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.NotSame(t, &first[0], &second[0])
	})
}
