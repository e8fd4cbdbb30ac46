package extract

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/buildfmt/grpart/grp"
)

// FileSink writes extracted members into a destination directory.
// Payloads are staged in a temp file and renamed into place, and all
// paths are resolved through os.Root so member names cannot escape
// the destination.
type FileSink struct {
	destDir   string
	overwrite bool
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithOverwrite allows replacing existing files.
// If not set, members whose destination already exists are skipped.
func WithOverwrite(overwrite bool) FileSinkOption {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// NewFileSink creates a sink rooted at destDir.
// The directory must already exist.
func NewFileSink(destDir string, opts ...FileSinkOption) *FileSink {
	s := &FileSink{destDir: destDir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ShouldProcess reports whether the member should be written.
func (s *FileSink) ShouldProcess(e grp.Entry) bool {
	if s.overwrite {
		return true
	}
	destPath := filepath.Join(s.destDir, filepath.FromSlash(e.Name()))
	_, err := os.Stat(destPath)
	return os.IsNotExist(err)
}

// Writer stages a temp file for the member payload.
func (s *FileSink) Writer(e grp.Entry) (Committer, error) {
	name := e.Name()
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "create", Path: name, Err: fs.ErrInvalid}
	}
	destRel := filepath.FromSlash(name)

	root, err := os.OpenRoot(s.destDir)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(destRel)
	if dir != "." {
		if err := root.MkdirAll(dir, 0o750); err != nil {
			_ = root.Close() //nolint:errcheck // best-effort cleanup
			return nil, err
		}
	}
	temp, tempRel, err := createTempFile(root, dir, ".grpart-")
	if err != nil {
		_ = root.Close() //nolint:errcheck // best-effort cleanup
		return nil, err
	}
	return &fileCommitter{temp: temp, tempRel: tempRel, destRel: destRel, root: root}, nil
}

// fileCommitter finalizes one staged payload.
type fileCommitter struct {
	temp    *os.File
	tempRel string
	destRel string
	root    *os.Root
}

func (c *fileCommitter) Write(p []byte) (int, error) {
	return c.temp.Write(p)
}

// Commit closes the temp file and renames it to the final path.
func (c *fileCommitter) Commit() error {
	if err := c.temp.Close(); err != nil {
		_ = c.root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		_ = c.root.Close()           //nolint:errcheck // best-effort cleanup
		return err
	}
	if err := c.root.Rename(c.tempRel, c.destRel); err != nil {
		_ = c.root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		_ = c.root.Close()           //nolint:errcheck // best-effort cleanup
		return err
	}
	return c.root.Close()
}

// Discard removes the staged temp file.
func (c *fileCommitter) Discard() error {
	_ = c.temp.Close()           //nolint:errcheck // best-effort cleanup
	_ = c.root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
	return c.root.Close()
}

// createTempFile creates a uniquely named temp file under dir.
func createTempFile(root *os.Root, dir, prefix string) (*os.File, string, error) {
	for range 10 {
		suffix, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		name := filepath.Join(dir, prefix+suffix)
		f, err := root.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			return f, name, nil
		}
		if !os.IsExist(err) {
			return nil, "", err
		}
	}
	return nil, "", errors.New("extract: failed to create temp file after 10 attempts")
}

// randomSuffix returns a random hex string for temp file names.
func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
