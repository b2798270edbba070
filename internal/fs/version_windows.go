//go:build windows

package fs

import (
	"fmt"

	"golang.org/x/sys/windows"

	"vortex-go/internal/vortex"
)

// OSVersion reads the real OS version with RtlGetVersion, which is not
// subject to manifest-based version lying.
type OSVersion struct{}

func NewOSVersion() *OSVersion { return &OSVersion{} }

func (OSVersion) HostVersion() (vortex.HostVersion, error) {
	info := windows.RtlGetVersion()
	return vortex.HostVersion{
		Version: fmt.Sprintf("Windows %d.%d.%d", info.MajorVersion, info.MinorVersion, info.BuildNumber),
		Build:   info.BuildNumber,
	}, nil
}

var _ vortex.VersionChecker = (*OSVersion)(nil)
