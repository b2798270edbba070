package testutil

import "encoding/binary"

// PEImage describes a synthetic PE header for BuildPE.
type PEImage struct {
	Is64       bool
	Timestamp  uint32
	EntryPoint uint32
	CertRVA    uint32
	CertSize   uint32
	DebugRVA   uint32
	DebugSize  uint32
	// NumDirs is the data directory count; zero means 16.
	NumDirs uint32
	// HeaderOffset is the e_lfanew value; zero means 0x80.
	HeaderOffset uint32
	// Size is the total buffer length; zero means 1024.
	Size int
}

// BuildPE renders the leading bytes of a PE image: DOS stub pointer, PE
// signature, COFF header, optional header and data directories.
func BuildPE(img PEImage) []byte {
	off := img.HeaderOffset
	if off == 0 {
		off = 0x80
	}
	size := img.Size
	if size == 0 {
		size = 1024
	}
	dirs := img.NumDirs
	if dirs == 0 {
		dirs = 16
	}

	b := make([]byte, size)
	le := binary.LittleEndian
	put16 := func(at int, v uint16) {
		if at+2 <= len(b) {
			le.PutUint16(b[at:], v)
		}
	}
	put32 := func(at int, v uint32) {
		if at+4 <= len(b) {
			le.PutUint32(b[at:], v)
		}
	}

	b[0], b[1] = 'M', 'Z'
	put32(0x3C, off)

	p := int(off)
	put32(p, 0x00004550)
	coff := p + 4
	opt := coff + 20
	var countOff int
	if img.Is64 {
		put16(coff, 0x8664)
		put16(coff+16, 240)
		put16(opt, 0x020B)
		countOff = opt + 108
	} else {
		put16(coff, 0x014C)
		put16(coff+16, 224)
		put16(opt, 0x010B)
		countOff = opt + 92
	}
	put32(coff+4, img.Timestamp)
	put32(opt+16, img.EntryPoint)
	put32(countOff, dirs)

	base := countOff + 4
	put32(base+4*8, img.CertRVA)
	put32(base+4*8+4, img.CertSize)
	put32(base+6*8, img.DebugRVA)
	put32(base+6*8+4, img.DebugSize)
	return b
}
