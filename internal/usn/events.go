package usn

import (
	"strings"

	"vortex-go/internal/vortex"
)

// Expand turns a raw record into one JournalRecord per tracked reason bit.
// Records without any tracked bit yield nothing.
func Expand(drive string, rec RawRecord) []vortex.JournalRecord {
	var out []vortex.JournalRecord
	for _, reason := range vortex.TrackedReasons {
		if rec.Reason&uint32(reason) == 0 {
			continue
		}
		out = append(out, vortex.JournalRecord{
			Drive:     strings.ToUpper(drive),
			FileName:  rec.FileName,
			Reason:    reason,
			Timestamp: rec.Timestamp,
		})
	}
	return out
}
