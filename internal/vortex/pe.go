package vortex

import (
	"encoding/binary"
	"time"
)

const (
	peHeaderPointerOffset = 0x3C
	peSignature           = 0x00004550 // "PE\0\0"
	peMinTail             = 256

	peMagic32 = 0x010B
	peMagic64 = 0x020B

	dirCertificate = 4
	dirDebug       = 6
)

// PEInfo is the outcome of InspectPE. When Skipped is non-empty the buffer
// was not a usable PE image and every other field is unset.
type PEInfo struct {
	Skipped      string
	CompiledAt   *time.Time
	EntryPoint   *uint32
	Is64Bit      bool
	Signature    SignatureStatus
	DebugAllowed *bool
}

// OK reports whether PE metadata was extracted.
func (p PEInfo) OK() bool { return p.Skipped == "" }

func skipped(reason string) PEInfo { return PEInfo{Skipped: reason} }

type peBuffer []byte

func (b peBuffer) u16(off int) (uint16, bool) {
	if off < 0 || off+2 > len(b) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b[off:]), true
}

func (b peBuffer) u32(off int) (uint32, bool) {
	if off < 0 || off+4 > len(b) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b[off:]), true
}

// InspectPE extracts compile time, entry point and directory presence from
// the leading bytes of a file. It never fails: a buffer that is not a
// well-formed PE image comes back with a Skipped reason. When checkSignature
// is false the certificate table is not examined and Signature stays Unknown.
func InspectPE(header []byte, checkSignature bool) PEInfo {
	buf := peBuffer(header)
	if len(buf) < MinHeaderSize {
		return skipped("buffer too short")
	}

	rawPtr, ok := buf.u32(peHeaderPointerOffset)
	if !ok {
		return skipped("no header pointer")
	}
	ptr := int(int32(rawPtr))
	if ptr <= 0 || ptr+peMinTail > len(buf) {
		return skipped("header pointer out of range")
	}

	sig, ok := buf.u32(ptr)
	if !ok || sig != peSignature {
		return skipped("missing PE signature")
	}

	// COFF file header: Machine(2) NumberOfSections(2) TimeDateStamp(4)
	// PointerToSymbolTable(4) NumberOfSymbols(4) SizeOfOptionalHeader(2) Characteristics(2).
	coff := ptr + 4
	stamp, ok := buf.u32(coff + 4)
	if !ok {
		return skipped("truncated file header")
	}
	optSize, ok := buf.u16(coff + 16)
	if !ok || optSize == 0 {
		return skipped("no optional header")
	}

	opt := coff + 20
	magic, ok := buf.u16(opt)
	if !ok {
		return skipped("truncated optional header")
	}
	var countOff int
	switch magic {
	case peMagic32:
		countOff = opt + 92
	case peMagic64:
		countOff = opt + 108
	default:
		return skipped("unknown optional header magic")
	}

	entry, ok := buf.u32(opt + 16)
	if !ok {
		return skipped("truncated optional header")
	}
	count, ok := buf.u32(countOff)
	if !ok {
		return skipped("truncated optional header")
	}
	dirs := countOff + 4

	compiled := time.Unix(int64(stamp), 0).UTC()
	info := PEInfo{
		CompiledAt: &compiled,
		EntryPoint: &entry,
		Is64Bit:    magic == peMagic64,
	}

	if checkSignature && count > dirCertificate {
		if present, ok := buf.directoryPresent(dirs, dirCertificate); ok {
			if present {
				info.Signature = SignatureSigned
			} else {
				info.Signature = SignatureUnsigned
			}
		}
	}
	if count > dirDebug {
		if present, ok := buf.directoryPresent(dirs, dirDebug); ok {
			info.DebugAllowed = &present
		}
	}
	return info
}

// directoryPresent reports whether data directory idx has a non-zero RVA and size.
func (b peBuffer) directoryPresent(base, idx int) (present bool, ok bool) {
	off := base + idx*8
	rva, ok := b.u32(off)
	if !ok {
		return false, false
	}
	size, ok := b.u32(off + 4)
	if !ok {
		return false, false
	}
	return rva != 0 && size != 0, true
}
