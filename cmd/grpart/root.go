package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/buildfmt/grpart/internal/extract"

	grparthttp "github.com/buildfmt/grpart/http"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "grpart",
	Short: "Tools for Build engine GRP archives and ART catalogs",
	Long: `grpart reads the flat GRP archive format and the ART tile metadata
catalog format used by Build engine games.

Sources can be local files or HTTP(S) URLs; remote sources are read
with range requests, so listing an archive does not download it.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// logger returns a debug logger when --verbose is set, nil otherwise.
func logger() *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// openSource opens path as a seekable byte source for sequential decoding.
func openSource(path string) (io.ReadSeeker, func() error, error) {
	if isURL(path) {
		src, err := grparthttp.NewSource(path)
		if err != nil {
			return nil, nil, err
		}
		return src.Reader(), func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// openRandomSource opens path as a random access source for parallel extraction.
func openRandomSource(path string) (extract.Source, func() error, error) {
	if isURL(path) {
		src, err := grparthttp.NewSource(path)
		if err != nil {
			return nil, nil, err
		}
		return src, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close() //nolint:errcheck // best-effort cleanup
		return nil, nil, err
	}
	return &fileSource{f: f, size: info.Size()}, f.Close, nil
}

// fileSource adapts an os.File to the extract.Source interface.
type fileSource struct {
	f    *os.File
	size int64
}

func (s *fileSource) ReadAt(p []byte, off int64) (int, error) { return s.f.ReadAt(p, off) }
func (s *fileSource) Size() int64                             { return s.size }
