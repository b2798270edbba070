package vortex_test

import (
	"testing"
	"time"

	"vortex-go/internal/testutil"
	"vortex-go/internal/vortex"
)

func TestInspectPE(t *testing.T) {
	compiled := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("PE32 with certificate and debug directories", func(t *testing.T) {
		buf := testutil.BuildPE(testutil.PEImage{
			Timestamp:  uint32(compiled.Unix()),
			EntryPoint: 0x1A2B,
			CertRVA:    0x4000,
			CertSize:   0x200,
			DebugRVA:   0x3000,
			DebugSize:  0x1C,
		})
		info := vortex.InspectPE(buf, true)
		if !info.OK() {
			t.Fatalf("InspectPE() skipped: %s", info.Skipped)
		}
		if info.Is64Bit {
			t.Error("Is64Bit = true, want false")
		}
		if info.EntryPoint == nil || *info.EntryPoint != 0x1A2B {
			t.Errorf("EntryPoint = %v, want 0x1A2B", info.EntryPoint)
		}
		if info.CompiledAt == nil || !info.CompiledAt.Equal(compiled) {
			t.Errorf("CompiledAt = %v, want %v", info.CompiledAt, compiled)
		}
		if info.Signature != vortex.SignatureSigned {
			t.Errorf("Signature = %v, want Signed", info.Signature)
		}
		if info.DebugAllowed == nil || !*info.DebugAllowed {
			t.Errorf("DebugAllowed = %v, want true", info.DebugAllowed)
		}
	})

	t.Run("PE32+ without certificate", func(t *testing.T) {
		buf := testutil.BuildPE(testutil.PEImage{Is64: true, EntryPoint: 0x140001000 & 0xFFFFFFFF, CertRVA: 0x4000})
		info := vortex.InspectPE(buf, true)
		if !info.OK() {
			t.Fatalf("InspectPE() skipped: %s", info.Skipped)
		}
		if !info.Is64Bit {
			t.Error("Is64Bit = false, want true")
		}
		if *info.EntryPoint != 0x40001000 {
			t.Errorf("EntryPoint = %#x, want 0x40001000", *info.EntryPoint)
		}
		if info.Signature != vortex.SignatureUnsigned {
			t.Errorf("Signature = %v, want Unsigned (size is zero)", info.Signature)
		}
		if info.DebugAllowed == nil || *info.DebugAllowed {
			t.Errorf("DebugAllowed = %v, want false", info.DebugAllowed)
		}
	})

	t.Run("signature check skipped", func(t *testing.T) {
		buf := testutil.BuildPE(testutil.PEImage{CertRVA: 1, CertSize: 1})
		if got := vortex.InspectPE(buf, false).Signature; got != vortex.SignatureUnknown {
			t.Errorf("Signature = %v, want Unknown", got)
		}
	})

	t.Run("too few directories leaves fields unset", func(t *testing.T) {
		buf := testutil.BuildPE(testutil.PEImage{NumDirs: 5, CertRVA: 1, CertSize: 1, DebugRVA: 1, DebugSize: 1})
		info := vortex.InspectPE(buf, true)
		if info.Signature != vortex.SignatureSigned {
			t.Errorf("Signature = %v, want Signed with 5 directories", info.Signature)
		}
		if info.DebugAllowed != nil {
			t.Errorf("DebugAllowed = %v, want nil with 5 directories", *info.DebugAllowed)
		}

		info = vortex.InspectPE(testutil.BuildPE(testutil.PEImage{NumDirs: 4, CertRVA: 1, CertSize: 1}), true)
		if info.Signature != vortex.SignatureUnknown {
			t.Errorf("Signature = %v, want Unknown with 4 directories", info.Signature)
		}
	})

	t.Run("malformed buffers are skipped", func(t *testing.T) {
		valid := testutil.BuildPE(testutil.PEImage{EntryPoint: 1})

		tests := map[string][]byte{
			"shorter than minimum":     valid[:63],
			"truncated before pointer": valid[:0x80],
			"pointer too close to end": testutil.BuildPE(testutil.PEImage{HeaderOffset: 0x80, Size: 0x80 + 255}),
			"negative pointer":         withU32(valid, 0x3C, 0xFFFFFFF0),
			"zero pointer":             withU32(valid, 0x3C, 0),
			"bad signature":            withU32(valid, 0x80, 0x00004551),
			"no optional header":       withU16(valid, 0x80+20, 0),
			"unknown optional magic":   withU16(valid, 0x80+24, 0x0107),
			"random text":              []byte("This program cannot be run in DOS mode. This program cannot be run in DOS mode."),
		}
		for name, buf := range tests {
			t.Run(name, func(t *testing.T) {
				info := vortex.InspectPE(buf, true)
				if info.OK() {
					t.Fatal("InspectPE() accepted a malformed buffer")
				}
				if info.EntryPoint != nil || info.CompiledAt != nil || info.DebugAllowed != nil {
					t.Error("skipped result carries PE fields")
				}
				if info.Signature != vortex.SignatureUnknown {
					t.Errorf("Signature = %v, want Unknown", info.Signature)
				}
			})
		}
	})
}

func withU32(b []byte, off int, v uint32) []byte {
	c := append([]byte(nil), b...)
	c[off], c[off+1], c[off+2], c[off+3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	return c
}

func withU16(b []byte, off int, v uint16) []byte {
	c := append([]byte(nil), b...)
	c[off], c[off+1] = byte(v), byte(v>>8)
	return c
}

func TestFormatSizes(t *testing.T) {
	tests := []struct {
		n     int64
		bytes string
		mb    string
	}{
		{0, "0 B", "0,00 MB"},
		{512, "512 B", "0,00 MB"},
		{524288, "524.288 B", "0,50 MB"},
		{1048576, "1.048.576 B", "1 MB"},
		{1234567, "1.234.567 B", "1 MB"},
		{5 * 1048576 * 1024, "5.368.709.120 B", "5.120 MB"},
	}
	for _, tt := range tests {
		if got := vortex.FormatSizeBytes(tt.n); got != tt.bytes {
			t.Errorf("FormatSizeBytes(%d) = %q, want %q", tt.n, got, tt.bytes)
		}
		if got := vortex.FormatSizeMB(tt.n); got != tt.mb {
			t.Errorf("FormatSizeMB(%d) = %q, want %q", tt.n, got, tt.mb)
		}
	}
}
