package testutil

import (
	"testing"
	"time"

	"github.com/spf13/afero"

	vfs "vortex-go/internal/fs"
)

// MemFS is an in-memory filesystem for tests. Paths are used verbatim as
// keys, so Windows paths like `C:\Tools\a.exe` work on any host.
type MemFS struct {
	*vfs.Filesystem
	Fs afero.Fs
}

// NewMemFS creates an empty in-memory filesystem.
func NewMemFS() *MemFS {
	mem := afero.NewMemMapFs()
	return &MemFS{Filesystem: vfs.NewFilesystem(mem), Fs: mem}
}

// AddFile writes a file with the given content.
func (m *MemFS) AddFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := afero.WriteFile(m.Fs, path, content, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// AddFileAt writes a file and sets its modification time.
func (m *MemFS) AddFileAt(t *testing.T, path string, content []byte, mtime time.Time) {
	t.Helper()
	m.AddFile(t, path, content)
	if err := m.Fs.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("setting times on %s: %v", path, err)
	}
}

// AddDir creates a directory.
func (m *MemFS) AddDir(t *testing.T, path string) {
	t.Helper()
	if err := m.Fs.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
}
