package fs

import (
	"fmt"

	"github.com/spf13/afero"

	"vortex-go/internal/vortex"
)

// Filesystem is the afero-backed implementation of vortex.Filesystem.
// Production code uses the OS filesystem; tests use an in-memory one.
type Filesystem struct {
	fs afero.Fs
}

// NewOSFilesystem returns a Filesystem over the real disk.
func NewOSFilesystem() *Filesystem {
	return &Filesystem{fs: afero.NewOsFs()}
}

// NewFilesystem wraps an arbitrary afero filesystem.
func NewFilesystem(fs afero.Fs) *Filesystem {
	return &Filesystem{fs: fs}
}

// Afero exposes the underlying filesystem to other readers such as the
// artifact parsers.
func (f *Filesystem) Afero() afero.Fs {
	return f.fs
}

// Exists reports whether path is an existing regular file.
func (f *Filesystem) Exists(path string) bool {
	info, err := f.fs.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Stat returns size and timestamps of a regular file.
func (f *Filesystem) Stat(path string) (*vortex.FileMeta, error) {
	info, err := f.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory: %s", path)
	}

	modified := info.ModTime().UTC()
	meta := &vortex.FileMeta{
		Size:       info.Size(),
		ModifiedAt: &modified,
	}
	extractTimes(info, meta)
	return meta, nil
}

// Open opens a file for reading.
func (f *Filesystem) Open(path string) (vortex.File, error) {
	file, err := f.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	return file, nil
}

// Compile-time check that Filesystem implements vortex.Filesystem
var _ vortex.Filesystem = (*Filesystem)(nil)
