//go:build linux

package fs

import (
	"io/fs"
	"syscall"
	"time"

	"vortex-go/internal/vortex"
)

// extractTimes fills the access time from the Linux stat data.
// Linux does not expose a creation time through stat, so CreatedAt stays unset.
func extractTimes(info fs.FileInfo, meta *vortex.FileMeta) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	accessed := time.Unix(stat.Atim.Sec, stat.Atim.Nsec).UTC()
	meta.AccessedAt = &accessed
}
