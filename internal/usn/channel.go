package usn

import (
	"encoding/binary"
	"errors"
)

// ErrEndOfJournal is returned by Channel.Read when the journal has nothing
// more to give: end of file, or the journal was deleted or deactivated
// during the scan.
var ErrEndOfJournal = errors.New("usn: end of journal")

// AllReasons requests records for every change reason.
const AllReasons = 0xFFFFFFFF

// JournalData is the USN_JOURNAL_DATA_V0 returned by a journal query.
type JournalData struct {
	JournalID       uint64
	FirstUSN        int64
	NextUSN         int64
	LowestValidUSN  int64
	MaxUSN          int64
	MaximumSize     uint64
	AllocationDelta uint64
}

const journalDataSize = 56

// DecodeJournalData parses a query response.
func DecodeJournalData(b []byte) (JournalData, error) {
	if len(b) < journalDataSize {
		return JournalData{}, ErrTruncated
	}
	le := binary.LittleEndian
	return JournalData{
		JournalID:       le.Uint64(b[0:]),
		FirstUSN:        int64(le.Uint64(b[8:])),
		NextUSN:         int64(le.Uint64(b[16:])),
		LowestValidUSN:  int64(le.Uint64(b[24:])),
		MaxUSN:          int64(le.Uint64(b[32:])),
		MaximumSize:     le.Uint64(b[40:]),
		AllocationDelta: le.Uint64(b[48:]),
	}, nil
}

// Encode renders d in its on-wire layout.
func (d JournalData) Encode() []byte {
	b := make([]byte, journalDataSize)
	le := binary.LittleEndian
	le.PutUint64(b[0:], d.JournalID)
	le.PutUint64(b[8:], uint64(d.FirstUSN))
	le.PutUint64(b[16:], uint64(d.NextUSN))
	le.PutUint64(b[24:], uint64(d.LowestValidUSN))
	le.PutUint64(b[32:], uint64(d.MaxUSN))
	le.PutUint64(b[40:], d.MaximumSize)
	le.PutUint64(b[48:], d.AllocationDelta)
	return b
}

// ReadRequest is the READ_USN_JOURNAL_DATA_V0 input of a read.
// Timeout and BytesToWaitFor are always zero: return immediately.
type ReadRequest struct {
	StartUSN   int64
	ReasonMask uint32
	JournalID  uint64
}

const readRequestSize = 40

// Encode renders r in its on-wire layout.
func (r ReadRequest) Encode() []byte {
	b := make([]byte, readRequestSize)
	le := binary.LittleEndian
	le.PutUint64(b[0:], uint64(r.StartUSN))
	le.PutUint32(b[8:], r.ReasonMask)
	// ReturnOnlyOnClose, Timeout and BytesToWaitFor stay zero.
	le.PutUint64(b[32:], r.JournalID)
	return b
}

// Channel is a low-level conversation with one volume's journal.
type Channel interface {
	// Query returns the journal metadata. It never modifies the journal.
	Query() (JournalData, error)

	// Read fills buf with the response to req and returns the byte count.
	// Graceful end-of-scan conditions return ErrEndOfJournal.
	Read(req ReadRequest, buf []byte) (int, error)

	Close() error
}

// Opener opens journal channels by drive letter.
type Opener interface {
	Open(drive string) (Channel, error)
}
