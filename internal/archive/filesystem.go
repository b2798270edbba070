package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"vortex-go/internal/vortex"
)

// FileSystemArchive stores reports as files on a local disk or share:
//
//	<root>/
//	  reports/
//	    <run id>.json        (plain reports)
//	    <run id>.json.age    (encrypted reports)
type FileSystemArchive struct {
	name       string
	fs         afero.Fs
	root       string
	reportsDir string
}

// NewFileSystemArchive creates an archive rooted at root on the OS filesystem.
func NewFileSystemArchive(name, root string) (*FileSystemArchive, error) {
	return NewFileSystemArchiveFs(afero.NewOsFs(), name, root)
}

// NewFileSystemArchiveFs creates an archive rooted at root on fs, creating
// the directory structure if needed.
func NewFileSystemArchiveFs(fs afero.Fs, name, root string) (*FileSystemArchive, error) {
	reportsDir := filepath.Join(root, "reports")
	if err := fs.MkdirAll(reportsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory: %w", err)
	}
	return &FileSystemArchive{name: name, fs: fs, root: root, reportsDir: reportsDir}, nil
}

func (a *FileSystemArchive) Name() string {
	return a.name
}

// PutReport writes the report atomically: to a temp file, then renamed.
func (a *FileSystemArchive) PutReport(key string, r io.Reader, size int64) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return a.writeFile(filepath.Join(a.reportsDir, key), r, size)
}

// GetReport writes the report stored under key to w.
func (a *FileSystemArchive) GetReport(key string, w io.Writer) error {
	if err := validateKey(key); err != nil {
		return err
	}
	f, err := a.fs.Open(filepath.Join(a.reportsDir, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", key, vortex.ErrArchiveNotFound)
		}
		return fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}
	return nil
}

// ValidateSetup verifies that the archive directories exist.
func (a *FileSystemArchive) ValidateSetup() error {
	for _, dir := range []string{a.root, a.reportsDir} {
		info, err := a.fs.Stat(dir)
		if err != nil {
			return fmt.Errorf("archive directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("archive path is not a directory: %s", dir)
		}
	}
	return nil
}

func (a *FileSystemArchive) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	tmp, err := afero.TempFile(a.fs, filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			a.fs.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := a.fs.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}

// Compile-time check that FileSystemArchive implements vortex.Archive
var _ vortex.Archive = (*FileSystemArchive)(nil)
