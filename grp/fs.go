package grp

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"
)

// Interface compliance.
var (
	_ fs.FS         = (*Archive)(nil)
	_ fs.StatFS     = (*Archive)(nil)
	_ fs.ReadFileFS = (*Archive)(nil)
	_ fs.ReadDirFS  = (*Archive)(nil)
)

// Open implements fs.FS.
//
// The member payload is read fully into memory when the file is opened;
// the returned file never touches the source afterwards. When several
// members share a name, the first in directory order wins. Lookups match
// the decoded name exactly, so they are case-sensitive even though real
// archives conventionally carry upper-case names.
func (a *Archive) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return &rootDir{a: a}, nil
	}
	e, ok, err := a.Find(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	data, err := a.ReadEntry(e)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return &memFile{Reader: bytes.NewReader(data), info: newFileInfo(e)}, nil
}

// Stat implements fs.StatFS.
//
// Stat synthesizes file info from the directory record without reading
// the member payload.
func (a *Archive) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return dirInfo{name: "."}, nil
	}
	e, ok, err := a.Find(name)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: err}
	}
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return newFileInfo(e), nil
}

// ReadFile implements fs.ReadFileFS.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	e, ok, err := a.Find(name)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	if !ok {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrNotExist}
	}
	data, err := a.ReadEntry(e)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	return data, nil
}

// ReadDir implements fs.ReadDirFS.
//
// The archive namespace is flat, so only the root directory exists.
// Listings are sorted by name as the interface requires, dropping
// duplicate names and names that cannot appear as path components;
// use Entries for the raw directory order.
func (a *Archive) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	if name != "." {
		_, ok, err := a.Find(name)
		if err != nil {
			return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
		}
		if ok {
			return nil, &fs.PathError{Op: "readdir", Path: name, Err: errors.New("not a directory")}
		}
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	list, err := a.dirList()
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}
	return list, nil
}

// dirList builds the sorted, deduplicated listing of the flat namespace.
func (a *Archive) dirList() ([]fs.DirEntry, error) {
	entries, err := a.Entries()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(entries))
	list := make([]fs.DirEntry, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if name == "." || !fs.ValidPath(name) || strings.Contains(name, "/") {
			continue // not representable as a flat fs name
		}
		if seen[name] {
			continue // first directory-order match wins
		}
		seen[name] = true
		list = append(list, fs.FileInfoToDirEntry(newFileInfo(e)))
	}
	slices.SortFunc(list, func(x, y fs.DirEntry) int {
		return strings.Compare(x.Name(), y.Name())
	})
	return list, nil
}

// memFile serves an already-read member payload.
type memFile struct {
	*bytes.Reader
	info fileInfo
}

func (f *memFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *memFile) Close() error               { return nil }

// rootDir implements fs.ReadDirFile for the archive's flat root.
// The listing is loaded on the first ReadDir call and paged from memory.
type rootDir struct {
	a       *Archive
	entries []fs.DirEntry
	loaded  bool
	pos     int
}

func (d *rootDir) Read(_ []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: ".", Err: fs.ErrInvalid}
}

func (d *rootDir) Stat() (fs.FileInfo, error) { return dirInfo{name: "."}, nil }

func (d *rootDir) Close() error { return nil }

func (d *rootDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if !d.loaded {
		entries, err := d.a.dirList()
		if err != nil {
			return nil, &fs.PathError{Op: "readdir", Path: ".", Err: err}
		}
		d.entries = entries
		d.loaded = true
	}
	rest := d.entries[d.pos:]
	if n <= 0 {
		d.pos = len(d.entries)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	if n > len(rest) {
		n = len(rest)
	}
	d.pos += n
	return rest[:n], nil
}

// fileInfo synthesizes fs.FileInfo for a member without touching its payload.
type fileInfo struct {
	name string
	size int64
}

func newFileInfo(e Entry) fileInfo {
	return fileInfo{name: path.Base(e.Name()), size: int64(e.Size)}
}

func (fi fileInfo) Name() string       { return fi.name }
func (fi fileInfo) Size() int64        { return fi.size }
func (fi fileInfo) Mode() fs.FileMode  { return 0o444 }
func (fi fileInfo) ModTime() time.Time { return time.Time{} }
func (fi fileInfo) IsDir() bool        { return false }
func (fi fileInfo) Sys() any           { return nil }

// dirInfo is the synthetic info for the root directory.
type dirInfo struct {
	name string
}

func (di dirInfo) Name() string       { return di.name }
func (di dirInfo) Size() int64        { return 0 }
func (di dirInfo) Mode() fs.FileMode  { return fs.ModeDir | 0o555 }
func (di dirInfo) ModTime() time.Time { return time.Time{} }
func (di dirInfo) IsDir() bool        { return true }
func (di dirInfo) Sys() any           { return nil }
