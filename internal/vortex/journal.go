package vortex

import (
	"errors"
	"fmt"
	"time"
)

// ErrJournalUnsupported is returned when a volume has no change journal or
// its device cannot be opened.
var ErrJournalUnsupported = errors.New("change journal unsupported")

// JournalReason is the single change reason carried by a JournalRecord.
// The values are the NTFS USN_REASON bits they are decoded from.
type JournalReason uint32

const (
	ReasonDeleted   JournalReason = 0x00000200
	ReasonRenameOld JournalReason = 0x00001000
	ReasonRenameNew JournalReason = 0x00002000
)

// TrackedReasons lists the reasons kept from the journal, in fan-out order.
var TrackedReasons = []JournalReason{ReasonDeleted, ReasonRenameOld, ReasonRenameNew}

func (r JournalReason) String() string {
	switch r {
	case ReasonDeleted:
		return "Deleted"
	case ReasonRenameOld:
		return "RenameOld"
	case ReasonRenameNew:
		return "RenameNew"
	default:
		return "Unknown"
	}
}

// JournalRecord is one change event for a file name on a drive.
// Journal records carry no directory, only the name.
type JournalRecord struct {
	Drive     string
	FileName  string
	Reason    JournalReason
	Timestamp time.Time
}

// JournalState is the result of probing a volume.
type JournalState int

const (
	JournalUnchecked JournalState = iota
	JournalUnsupported
	JournalAvailable
	JournalScanned
)

func (s JournalState) String() string {
	switch s {
	case JournalUnsupported:
		return "Unsupported"
	case JournalAvailable:
		return "Available"
	case JournalScanned:
		return "Scanned"
	default:
		return "Unchecked"
	}
}

// JournalReader reads the change journal of a single volume.
type JournalReader interface {
	// Probe reports whether the drive has a change journal. It never
	// modifies the journal. A failure to open the device is Unsupported.
	Probe(drive string) JournalState

	// ReadRecords scans the whole retained journal of the drive.
	// Graceful end-of-journal conditions are not errors.
	ReadRecords(drive string) ([]JournalRecord, error)
}

const (
	journalStatusAvailable = "USN Journal Available"
)

// JournalStatusMissing is the status recorded for drives without a usable journal.
func JournalStatusMissing(drive string) string {
	return fmt.Sprintf("No USN Journal on Drive %s:", drive)
}
