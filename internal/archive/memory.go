package archive

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"

	"vortex-go/internal/vortex"
)

// MemoryArchive keeps reports in memory. Useful for tests and dry runs.
// This implementation is safe for concurrent use.
type MemoryArchive struct {
	name    string
	reports map[string][]byte
	mu      sync.RWMutex
}

// NewMemoryArchive creates an empty in-memory archive.
func NewMemoryArchive(name string) *MemoryArchive {
	return &MemoryArchive{name: name, reports: make(map[string][]byte)}
}

func (m *MemoryArchive) Name() string {
	return m.name
}

// PutReport stores a report, replacing any previous one under key.
func (m *MemoryArchive) PutReport(key string, r io.Reader, size int64) error {
	if err := validateKey(key); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[key] = data
	return nil
}

// GetReport writes the report stored under key to w.
func (m *MemoryArchive) GetReport(key string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.reports[key]
	if !ok {
		return fmt.Errorf("%s: %w", key, vortex.ErrArchiveNotFound)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Keys lists stored report keys in order.
func (m *MemoryArchive) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.reports))
	for k := range m.reports {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateSetup always succeeds for the in-memory archive.
func (m *MemoryArchive) ValidateSetup() error {
	return nil
}

// Compile-time check that MemoryArchive implements vortex.Archive
var _ vortex.Archive = (*MemoryArchive)(nil)
