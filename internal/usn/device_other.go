//go:build !windows

package usn

import (
	"fmt"

	"vortex-go/internal/vortex"
)

// DeviceOpener has no raw volumes to open outside Windows. Use a
// ReplayOpener to analyse captured journals instead.
type DeviceOpener struct{}

func NewDeviceOpener() *DeviceOpener { return &DeviceOpener{} }

func (DeviceOpener) Open(drive string) (Channel, error) {
	return nil, fmt.Errorf("volume %s: %w", drive, vortex.ErrJournalUnsupported)
}

var _ Opener = (*DeviceOpener)(nil)
