package vortex

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const (
	// DefaultSmallFileThreshold is the largest file hashed from a single
	// in-memory buffer.
	DefaultSmallFileThreshold = 1 << 20
	// DefaultChunkSize is the read size of the streaming path.
	DefaultChunkSize = 80 * 1024
	// HeaderSize is the number of leading bytes captured for PE inspection.
	HeaderSize = 1024
	// MinHeaderSize is the shortest file that can carry a PE header.
	MinHeaderSize = 64
)

// HashResult is the digest of a stream plus the header captured in the same pass.
type HashResult struct {
	Digest string // lowercase hex
	Header []byte // nil when the stream is shorter than MinHeaderSize
}

// Hasher computes MD5 digests, switching from a whole-buffer read to a
// chunked read once the stream exceeds Threshold bytes.
type Hasher struct {
	Threshold int64
	ChunkSize int
}

// NewHasher returns a Hasher with the default threshold and chunk size.
func NewHasher() *Hasher {
	return &Hasher{Threshold: DefaultSmallFileThreshold, ChunkSize: DefaultChunkSize}
}

// Sum hashes r from its start and returns the digest along with up to
// HeaderSize leading bytes.
func (h *Hasher) Sum(r io.ReadSeeker) (*HashResult, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("measuring stream: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding stream: %w", err)
	}

	threshold := h.Threshold
	if threshold <= 0 {
		threshold = DefaultSmallFileThreshold
	}
	if size <= threshold {
		return h.sumSmall(r)
	}
	return h.sumLarge(r)
}

func (h *Hasher) sumSmall(r io.Reader) (*HashResult, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading stream: %w", err)
	}
	sum := md5.Sum(buf)
	res := &HashResult{Digest: hex.EncodeToString(sum[:])}
	if len(buf) >= MinHeaderSize {
		n := min(len(buf), HeaderSize)
		res.Header = append([]byte(nil), buf[:n]...)
	}
	return res, nil
}

func (h *Hasher) sumLarge(r io.Reader) (*HashResult, error) {
	digest := md5.New()

	header, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	digest.Write(header)

	chunk := h.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	buf := make([]byte, chunk)
	for {
		n, err := io.ReadFull(r, buf)
		digest.Write(buf[:n])
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading chunk: %w", err)
		}
	}

	res := &HashResult{Digest: hex.EncodeToString(digest.Sum(nil))}
	if len(header) >= MinHeaderSize {
		res.Header = header
	}
	return res, nil
}

// ReadHeader reads up to HeaderSize bytes from r. A short stream is not an error.
func ReadHeader(r io.Reader) ([]byte, error) {
	buf := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	return buf[:n], nil
}
