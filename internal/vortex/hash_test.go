package vortex_test

import (
	"bytes"
	"crypto/rand"
	"testing"

	"vortex-go/internal/testutil"
	"vortex-go/internal/vortex"
)

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read() error = %v", err)
	}
	return b
}

func TestHasher_Sum(t *testing.T) {
	t.Run("tiny stream has digest but no header", func(t *testing.T) {
		data := []byte("MZ too short")
		res, err := vortex.NewHasher().Sum(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("Sum() error = %v", err)
		}
		if res.Digest != testutil.MD5Hex(data) {
			t.Errorf("Digest = %s, want %s", res.Digest, testutil.MD5Hex(data))
		}
		if res.Header != nil {
			t.Errorf("Header = %d bytes, want nil", len(res.Header))
		}
	})

	t.Run("empty stream", func(t *testing.T) {
		res, err := vortex.NewHasher().Sum(bytes.NewReader(nil))
		if err != nil {
			t.Fatalf("Sum() error = %v", err)
		}
		if res.Digest != "d41d8cd98f00b204e9800998ecf8427e" {
			t.Errorf("Digest = %s", res.Digest)
		}
	})

	t.Run("small and large paths agree", func(t *testing.T) {
		sizes := []int{64, 1000, 1024, 1025, 80*1024 + 1024, 3*80*1024 + 17, 300000}
		for _, size := range sizes {
			data := randomBytes(t, size)

			small := &vortex.Hasher{Threshold: int64(size), ChunkSize: 80 * 1024}
			large := &vortex.Hasher{Threshold: 1, ChunkSize: 80 * 1024}

			a, err := small.Sum(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("small Sum() error = %v", err)
			}
			b, err := large.Sum(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("large Sum() error = %v", err)
			}
			if a.Digest != b.Digest || a.Digest != testutil.MD5Hex(data) {
				t.Errorf("size %d: small %s, large %s, want %s", size, a.Digest, b.Digest, testutil.MD5Hex(data))
			}
			if !bytes.Equal(a.Header, b.Header) {
				t.Errorf("size %d: headers differ", size)
			}
			wantHeader := min(size, vortex.HeaderSize)
			if len(a.Header) != wantHeader {
				t.Errorf("size %d: header = %d bytes, want %d", size, len(a.Header), wantHeader)
			}
		}
	})

	t.Run("digest is 32 lowercase hex characters", func(t *testing.T) {
		res, err := vortex.NewHasher().Sum(bytes.NewReader(randomBytes(t, 4096)))
		if err != nil {
			t.Fatalf("Sum() error = %v", err)
		}
		if len(res.Digest) != 32 {
			t.Fatalf("len(Digest) = %d, want 32", len(res.Digest))
		}
		for _, c := range res.Digest {
			if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
				t.Fatalf("Digest %s is not lowercase hex", res.Digest)
			}
		}
	})

	t.Run("rewinds a consumed stream", func(t *testing.T) {
		data := randomBytes(t, 2048)
		r := bytes.NewReader(data)
		_, _ = r.Read(make([]byte, 100))

		res, err := vortex.NewHasher().Sum(r)
		if err != nil {
			t.Fatalf("Sum() error = %v", err)
		}
		if res.Digest != testutil.MD5Hex(data) {
			t.Error("Sum() did not hash from the start of the stream")
		}
	})
}
