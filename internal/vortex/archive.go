package vortex

import (
	"errors"
	"io"
)

// ErrArchiveNotFound is returned by Archive.GetReport for unknown keys.
var ErrArchiveNotFound = errors.New("report not found in archive")

// Archive stores exported reports off the case store, e.g. on a share or in
// object storage. Content is streamed.
type Archive interface {
	// Name identifies the archive in logs and CLI output.
	Name() string

	// PutReport stores size bytes read from r under key, replacing any
	// existing report with that key.
	PutReport(key string, r io.Reader, size int64) error

	// GetReport writes the report stored under key to w.
	GetReport(key string, w io.Writer) error

	// ValidateSetup verifies that the archive is reachable and writable.
	ValidateSetup() error
}
