package extract

import (
	"io"

	"github.com/buildfmt/grpart/grp"
)

// Sink receives member payloads during extraction.
//
// Implementations determine where content is written (filesystem, memory,
// etc.) and can filter which members to process.
type Sink interface {
	// ShouldProcess returns false if this member should be skipped.
	// This allows implementations to skip files that already exist.
	ShouldProcess(e grp.Entry) bool

	// Writer returns a writer for the member payload.
	// The returned Committer must have Commit() called after a successful
	// write, or Discard() called on any error.
	Writer(e grp.Entry) (Committer, error)
}

// Committer is a writer that can be committed or discarded.
//
// Implementations should buffer or stage writes until Commit is called.
// For example, a file-based implementation might write to a temp file
// and rename it on Commit, or delete it on Discard.
type Committer interface {
	io.Writer

	// Commit finalizes the write, making content available.
	Commit() error

	// Discard aborts the write and cleans up any temporary resources.
	Discard() error
}
