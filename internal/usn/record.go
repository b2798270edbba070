// Package usn reads the NTFS update sequence number (change) journal.
//
// Records are decoded from the raw buffers returned by FSCTL_READ_USN_JOURNAL.
// Every offset is checked against the received length before it is read, so
// a corrupt or truncated buffer yields an error instead of a panic.
package usn

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/encoding/unicode"
)

var (
	// ErrTruncated is returned when a buffer ends inside a record.
	ErrTruncated = errors.New("usn: truncated record")
	// ErrUnsupportedVersion is returned for record versions without a file name.
	ErrUnsupportedVersion = errors.New("usn: unsupported record version")
)

const (
	// headerSize is the leading next-USN field of every read response.
	headerSize = 8

	v2FixedSize = 60
	v3FixedSize = 76

	// filetimeEpochDelta is the number of 100ns intervals between
	// 1601-01-01 and 1970-01-01.
	filetimeEpochDelta = 116444736000000000
)

// RawRecord is the subset of a USN_RECORD_V2 or USN_RECORD_V3 the pipeline uses.
type RawRecord struct {
	MajorVersion uint16
	FileRef      []byte // 8 bytes for V2, 16 for V3
	ParentRef    []byte
	USN          int64
	Timestamp    time.Time
	Reason       uint32
	Attributes   uint32
	FileName     string
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// FiletimeToTime converts a Windows FILETIME to UTC.
func FiletimeToTime(ft int64) time.Time {
	return time.Unix(0, (ft-filetimeEpochDelta)*100).UTC()
}

// TimeToFiletime converts t to a Windows FILETIME.
func TimeToFiletime(t time.Time) int64 {
	return t.UnixNano()/100 + filetimeEpochDelta
}

// DecodeRecord decodes one record. b must be exactly the record's bytes,
// as delimited by its RecordLength.
func DecodeRecord(b []byte) (RawRecord, error) {
	if len(b) < 8 {
		return RawRecord{}, ErrTruncated
	}
	major := binary.LittleEndian.Uint16(b[4:])

	var (
		fixed                                 int
		refSize, usnOff, tsOff, reasonOff     int
		attrOff, nameLenOff, nameOffsetOffset int
	)
	switch major {
	case 2:
		fixed, refSize = v2FixedSize, 8
		usnOff, tsOff, reasonOff, attrOff = 24, 32, 40, 52
		nameLenOff, nameOffsetOffset = 56, 58
	case 3:
		fixed, refSize = v3FixedSize, 16
		usnOff, tsOff, reasonOff, attrOff = 40, 48, 56, 68
		nameLenOff, nameOffsetOffset = 72, 74
	default:
		return RawRecord{MajorVersion: major}, fmt.Errorf("version %d: %w", major, ErrUnsupportedVersion)
	}
	if len(b) < fixed {
		return RawRecord{}, ErrTruncated
	}

	nameLen := int(binary.LittleEndian.Uint16(b[nameLenOff:]))
	nameOff := int(binary.LittleEndian.Uint16(b[nameOffsetOffset:]))
	if nameOff < fixed || nameOff+nameLen > len(b) || nameLen%2 != 0 {
		return RawRecord{}, fmt.Errorf("file name out of bounds: %w", ErrTruncated)
	}
	name, err := utf16le.NewDecoder().Bytes(b[nameOff : nameOff+nameLen])
	if err != nil {
		return RawRecord{}, fmt.Errorf("decoding file name: %w", err)
	}

	return RawRecord{
		MajorVersion: major,
		FileRef:      append([]byte(nil), b[8:8+refSize]...),
		ParentRef:    append([]byte(nil), b[8+refSize:8+2*refSize]...),
		USN:          int64(binary.LittleEndian.Uint64(b[usnOff:])),
		Timestamp:    FiletimeToTime(int64(binary.LittleEndian.Uint64(b[tsOff:]))),
		Reason:       binary.LittleEndian.Uint32(b[reasonOff:]),
		Attributes:   binary.LittleEndian.Uint32(b[attrOff:]),
		FileName:     string(name),
	}, nil
}

// DecodeBuffer decodes a read response: the next start USN followed by
// records walked by their self-described length. Records of versions without
// a file name are skipped. On a malformed record the records decoded so far
// are returned together with the error.
func DecodeBuffer(buf []byte) (int64, []RawRecord, error) {
	if len(buf) < headerSize {
		return 0, nil, ErrTruncated
	}
	next := int64(binary.LittleEndian.Uint64(buf))

	var records []RawRecord
	off := headerSize
	for off < len(buf) {
		if len(buf)-off < 8 {
			return next, records, fmt.Errorf("record header at %d: %w", off, ErrTruncated)
		}
		length := int(binary.LittleEndian.Uint32(buf[off:]))
		if length < 8 || off+length > len(buf) {
			return next, records, fmt.Errorf("record length %d at %d: %w", length, off, ErrTruncated)
		}

		rec, err := DecodeRecord(buf[off : off+length])
		switch {
		case errors.Is(err, ErrUnsupportedVersion):
		case err != nil:
			return next, records, fmt.Errorf("record at %d: %w", off, err)
		default:
			records = append(records, rec)
		}
		off += length
	}
	return next, records, nil
}
