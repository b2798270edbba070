//go:build !linux && !windows

package fs

import (
	"io/fs"

	"vortex-go/internal/vortex"
)

// extractTimes is a no-op where only the modification time is portable.
func extractTimes(fs.FileInfo, *vortex.FileMeta) {}
