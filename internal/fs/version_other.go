//go:build !windows

package fs

import (
	"runtime"

	"vortex-go/internal/vortex"
)

// OSVersion reports build 0 on non-Windows hosts, which the analysis gate
// treats as unsupported unless the version check is skipped.
type OSVersion struct{}

func NewOSVersion() *OSVersion { return &OSVersion{} }

func (OSVersion) HostVersion() (vortex.HostVersion, error) {
	return vortex.HostVersion{Version: runtime.GOOS + "/" + runtime.GOARCH}, nil
}

var _ vortex.VersionChecker = (*OSVersion)(nil)
