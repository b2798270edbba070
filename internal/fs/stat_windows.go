//go:build windows

package fs

import (
	"io/fs"
	"syscall"
	"time"

	"vortex-go/internal/vortex"
)

// extractTimes fills creation and access times from the Win32 attribute data.
func extractTimes(info fs.FileInfo, meta *vortex.FileMeta) {
	attrs, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return
	}
	created := time.Unix(0, attrs.CreationTime.Nanoseconds()).UTC()
	accessed := time.Unix(0, attrs.LastAccessTime.Nanoseconds()).UTC()
	meta.CreatedAt = &created
	meta.AccessedAt = &accessed
}
