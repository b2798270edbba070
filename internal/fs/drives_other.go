//go:build !windows

package fs

import "vortex-go/internal/vortex"

// OSDrives reports no drive letters on hosts without them. Offline analysis
// on such hosts relies on resolved paths and replayed journals.
type OSDrives struct{}

func NewOSDrives() *OSDrives { return &OSDrives{} }

func (d *OSDrives) Drives() ([]vortex.Drive, error) { return nil, nil }

var _ vortex.DriveLister = (*OSDrives)(nil)
