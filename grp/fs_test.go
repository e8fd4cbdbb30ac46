package grp_test

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildfmt/grpart/grp"
	"github.com/buildfmt/grpart/internal/testutil"
)

func openSample(t *testing.T) *grp.Archive {
	t.Helper()
	a, err := grp.Open(bytes.NewReader(sampleArchive(t)))
	require.NoError(t, err)
	return a
}

func TestArchive_FSContract(t *testing.T) {
	t.Parallel()

	a := openSample(t)
	require.NoError(t, fstest.TestFS(a, "A.TXT", "B.TXT"))
}

func TestArchive_OpenFile(t *testing.T) {
	t.Parallel()

	t.Run("file contents", func(t *testing.T) {
		t.Parallel()

		a := openSample(t)
		f, err := a.Open("A.TXT")
		require.NoError(t, err)
		defer f.Close()

		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, []byte("xyz"), data)

		info, err := f.Stat()
		require.NoError(t, err)
		assert.Equal(t, "A.TXT", info.Name())
		assert.Equal(t, int64(3), info.Size())
		assert.False(t, info.IsDir())
	})

	t.Run("root directory", func(t *testing.T) {
		t.Parallel()

		a := openSample(t)
		f, err := a.Open(".")
		require.NoError(t, err)
		defer f.Close()

		info, err := f.Stat()
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("invalid name", func(t *testing.T) {
		t.Parallel()

		a := openSample(t)
		_, err := a.Open("../escape")
		require.ErrorIs(t, err, fs.ErrInvalid)

		var pathErr *fs.PathError
		require.ErrorAs(t, err, &pathErr)
		assert.Equal(t, "open", pathErr.Op)
	})

	t.Run("missing member", func(t *testing.T) {
		t.Parallel()

		a := openSample(t)
		_, err := a.Open("C.TXT")
		require.ErrorIs(t, err, fs.ErrNotExist)
	})
}

func TestArchive_Stat(t *testing.T) {
	t.Parallel()

	t.Run("does not read payload", func(t *testing.T) {
		t.Parallel()

		// Cut the last payload byte; metadata must still be reachable.
		image := sampleArchive(t)
		a, err := grp.Open(bytes.NewReader(image[:len(image)-1]))
		require.NoError(t, err)

		info, err := a.Stat("B.TXT")
		require.NoError(t, err)
		assert.Equal(t, int64(2), info.Size())

		_, err = a.ReadFile("B.TXT")
		require.Error(t, err)
	})

	t.Run("missing member", func(t *testing.T) {
		t.Parallel()

		a := openSample(t)
		_, err := a.Stat("C.TXT")
		require.ErrorIs(t, err, fs.ErrNotExist)
	})
}

func TestArchive_ReadFile(t *testing.T) {
	t.Parallel()

	a := openSample(t)

	data, err := a.ReadFile("B.TXT")
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), data)

	_, err = a.ReadFile("C.TXT")
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestArchive_ReadDir(t *testing.T) {
	t.Parallel()

	t.Run("sorted listing", func(t *testing.T) {
		t.Parallel()

		image := testutil.BuildArchive(t,
			testutil.Member{Name: "Z.TXT", Data: []byte("z")},
			testutil.Member{Name: "A.TXT", Data: []byte("a")},
		)
		a, err := grp.Open(bytes.NewReader(image))
		require.NoError(t, err)

		list, err := a.ReadDir(".")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "A.TXT", list[0].Name())
		assert.Equal(t, "Z.TXT", list[1].Name())
	})

	t.Run("duplicates listed once", func(t *testing.T) {
		t.Parallel()

		image := testutil.BuildArchive(t,
			testutil.Member{Name: "DUP.DAT", Data: []byte("one")},
			testutil.Member{Name: "DUP.DAT", Data: []byte("four")},
		)
		a, err := grp.Open(bytes.NewReader(image))
		require.NoError(t, err)

		list, err := a.ReadDir(".")
		require.NoError(t, err)
		require.Len(t, list, 1)

		info, err := list[0].Info()
		require.NoError(t, err)
		assert.Equal(t, int64(3), info.Size())
	})

	t.Run("slash names hidden but openable", func(t *testing.T) {
		t.Parallel()

		image := testutil.BuildArchive(t,
			testutil.Member{Name: "SUB/X.DAT", Data: []byte("deep")},
			testutil.Member{Name: "TOP.DAT", Data: []byte("top")},
		)
		a, err := grp.Open(bytes.NewReader(image))
		require.NoError(t, err)

		list, err := a.ReadDir(".")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "TOP.DAT", list[0].Name())

		data, err := a.ReadFile("SUB/X.DAT")
		require.NoError(t, err)
		assert.Equal(t, []byte("deep"), data)
	})

	t.Run("not a directory", func(t *testing.T) {
		t.Parallel()

		a := openSample(t)
		_, err := a.ReadDir("A.TXT")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("paged reads", func(t *testing.T) {
		t.Parallel()

		a := openSample(t)
		f, err := a.Open(".")
		require.NoError(t, err)
		defer f.Close()

		dir, ok := f.(fs.ReadDirFile)
		require.True(t, ok)

		page, err := dir.ReadDir(1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "A.TXT", page[0].Name())

		page, err = dir.ReadDir(5)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "B.TXT", page[0].Name())

		_, err = dir.ReadDir(1)
		require.True(t, errors.Is(err, io.EOF))
	})
}
