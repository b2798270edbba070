package vortex

import (
	"io"
	"time"
)

// File is an open, seekable handle to file content.
type File interface {
	io.Reader
	io.Seeker
	io.Closer
}

// FileMeta is the filesystem metadata captured for a regular file.
// Times are UTC; a nil time means the platform does not expose it.
type FileMeta struct {
	Size       int64
	CreatedAt  *time.Time
	ModifiedAt *time.Time
	AccessedAt *time.Time
}

// Filesystem abstracts file access so the pipeline can run against the real
// disk or an in-memory tree in tests.
type Filesystem interface {
	// Exists reports whether path names an existing regular file.
	// Any failure to check is reported as false.
	Exists(path string) bool

	// Stat returns metadata for a regular file.
	Stat(path string) (*FileMeta, error)

	// Open opens a file for reading.
	Open(path string) (File, error)
}
