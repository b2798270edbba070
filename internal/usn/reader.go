package usn

import (
	"encoding/binary"
	"errors"
	"fmt"

	"vortex-go/internal/vortex"
)

// DefaultBufferSize is the output buffer of each read request.
const DefaultBufferSize = 64 * 1024

// Reader implements vortex.JournalReader over an Opener.
type Reader struct {
	opener     Opener
	bufferSize int
	logger     vortex.Logger
}

// NewReader creates a Reader. A bufferSize of zero or less selects DefaultBufferSize.
func NewReader(opener Opener, bufferSize int, logger vortex.Logger) *Reader {
	if bufferSize <= headerSize {
		bufferSize = DefaultBufferSize
	}
	return &Reader{opener: opener, bufferSize: bufferSize, logger: logger}
}

// Probe opens the volume and queries its journal.
func (r *Reader) Probe(drive string) vortex.JournalState {
	ch, err := r.opener.Open(drive)
	if err != nil {
		r.logger.Debug("opening volume failed", "drive", drive, "error", err)
		return vortex.JournalUnsupported
	}
	defer ch.Close()

	if _, err := ch.Query(); err != nil {
		r.logger.Debug("querying journal failed", "drive", drive, "error", err)
		return vortex.JournalUnsupported
	}
	return vortex.JournalAvailable
}

// ReadRecords reads the whole retained journal of drive from USN 0 and
// returns one JournalRecord per tracked reason bit.
func (r *Reader) ReadRecords(drive string) ([]vortex.JournalRecord, error) {
	ch, err := r.opener.Open(drive)
	if err != nil {
		return nil, fmt.Errorf("opening volume %s: %w", drive, err)
	}
	defer ch.Close()

	var (
		out    []vortex.JournalRecord
		frames int
	)
	err = Scan(ch, r.bufferSize, func(frame []byte) error {
		frames++
		_, recs, err := DecodeBuffer(frame)
		if err != nil {
			// The remainder of this buffer cannot be walked; the next
			// start USN is still valid so the scan continues.
			r.logger.Warn("malformed journal buffer", "drive", drive, "error", err)
		}
		for _, rec := range recs {
			out = append(out, Expand(drive, rec)...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("journal scanned", "drive", drive, "buffers", frames, "records", len(out))
	return out, nil
}

// Scan drives the query/read loop over ch, passing each raw response with
// more than the next-USN header to fn. It stops on a response of at most
// eight bytes, on ErrEndOfJournal, or when the next USN does not advance.
func Scan(ch Channel, bufferSize int, fn func(frame []byte) error) error {
	data, err := ch.Query()
	if err != nil {
		return fmt.Errorf("querying journal: %w", err)
	}

	buf := make([]byte, bufferSize)
	req := ReadRequest{StartUSN: 0, ReasonMask: AllReasons, JournalID: data.JournalID}
	for {
		n, err := ch.Read(req, buf)
		if errors.Is(err, ErrEndOfJournal) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading journal at usn %d: %w", req.StartUSN, err)
		}
		if n <= headerSize {
			return nil
		}

		frame := buf[:n]
		next := int64(binary.LittleEndian.Uint64(frame))
		if err := fn(frame); err != nil {
			return err
		}
		if next == req.StartUSN {
			return nil
		}
		req.StartUSN = next
	}
}

var _ vortex.JournalReader = (*Reader)(nil)
