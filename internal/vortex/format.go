package vortex

import (
	"github.com/dustin/go-humanize"
)

// Sizes are rendered with "." grouping and "," decimals regardless of the
// host locale, e.g. "1.234.567 B", "0,50 MB" and "1.177 MB".

const mebibyte = 1024 * 1024

// FormatSizeBytes renders a plain grouped byte count.
func FormatSizeBytes(n int64) string {
	return humanize.FormatInteger("#.###,", int(n)) + " B"
}

// FormatSizeMB renders sizes below one megabyte with two decimals and
// larger sizes as a grouped whole number of megabytes.
func FormatSizeMB(n int64) string {
	if n < mebibyte {
		return humanize.FormatFloat("#.###,##", float64(n)/mebibyte) + " MB"
	}
	return humanize.FormatInteger("#.###,", int(n/mebibyte)) + " MB"
}
