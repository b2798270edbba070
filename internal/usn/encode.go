package usn

import (
	"encoding/binary"

	"golang.org/x/text/encoding/unicode"
)

// EncodeRecordV2 renders rec as an 8-byte aligned USN_RECORD_V2.
// It is used to build captures and fixtures.
func EncodeRecordV2(rec RawRecord) []byte {
	return encodeRecord(rec, 2, 8, v2FixedSize, [4]int{24, 32, 40, 52}, 56)
}

// EncodeRecordV3 renders rec as an 8-byte aligned USN_RECORD_V3.
func EncodeRecordV3(rec RawRecord) []byte {
	return encodeRecord(rec, 3, 16, v3FixedSize, [4]int{40, 48, 56, 68}, 72)
}

func encodeRecord(rec RawRecord, major uint16, refSize, fixed int, offs [4]int, nameLenOff int) []byte {
	name, _ := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(rec.FileName))
	length := (fixed + len(name) + 7) &^ 7

	b := make([]byte, length)
	le := binary.LittleEndian
	le.PutUint32(b[0:], uint32(length))
	le.PutUint16(b[4:], major)
	copy(b[8:8+refSize], rec.FileRef)
	copy(b[8+refSize:8+2*refSize], rec.ParentRef)
	le.PutUint64(b[offs[0]:], uint64(rec.USN))
	le.PutUint64(b[offs[1]:], uint64(TimeToFiletime(rec.Timestamp)))
	le.PutUint32(b[offs[2]:], rec.Reason)
	le.PutUint32(b[offs[3]:], rec.Attributes)
	le.PutUint16(b[nameLenOff:], uint16(len(name)))
	le.PutUint16(b[nameLenOff+2:], uint16(fixed))
	copy(b[fixed:], name)
	return b
}

// EncodeBuffer renders a read response: the next start USN followed by the
// encoded records.
func EncodeBuffer(next int64, records ...[]byte) []byte {
	b := make([]byte, headerSize)
	binary.LittleEndian.PutUint64(b, uint64(next))
	for _, r := range records {
		b = append(b, r...)
	}
	return b
}
