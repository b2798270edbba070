package usn

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"vortex-go/internal/vortex"
)

// A capture file stores one journal conversation for offline replay:
// the magic, then length-prefixed frames. The first frame is the query
// response; every following frame is one read response.
const (
	captureMagic = "USNCAP01"
	// CaptureExt is the extension of capture files named by drive letter.
	CaptureExt = ".usncap"

	maxFrameSize = 16 << 20
)

// ErrBadCapture is returned for files that are not journal captures.
var ErrBadCapture = errors.New("usn: not a journal capture")

// CaptureFileName returns the capture file name for drive, e.g. "C.usncap".
func CaptureFileName(drive string) string {
	return strings.ToUpper(strings.TrimSuffix(drive, ":")) + CaptureExt
}

// Capture runs a full scan over ch and records every response to w.
// Returns the number of read responses written.
func Capture(ch Channel, w io.Writer, bufferSize int) (int, error) {
	if bufferSize <= headerSize {
		bufferSize = DefaultBufferSize
	}
	data, err := ch.Query()
	if err != nil {
		return 0, fmt.Errorf("querying journal: %w", err)
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(captureMagic); err != nil {
		return 0, fmt.Errorf("writing capture header: %w", err)
	}
	if err := writeFrame(bw, data.Encode()); err != nil {
		return 0, err
	}

	frames := 0
	err = Scan(&queriedChannel{Channel: ch, data: data}, bufferSize, func(frame []byte) error {
		frames++
		return writeFrame(bw, frame)
	})
	if err != nil {
		return frames, err
	}
	if err := bw.Flush(); err != nil {
		return frames, fmt.Errorf("flushing capture: %w", err)
	}
	return frames, nil
}

// queriedChannel answers Query from a cached result so a capture issues
// exactly one query.
type queriedChannel struct {
	Channel
	data JournalData
}

func (q *queriedChannel) Query() (JournalData, error) { return q.data, nil }

func writeFrame(w io.Writer, frame []byte) error {
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(frame)))
	if _, err := w.Write(n[:]); err != nil {
		return fmt.Errorf("writing frame length: %w", err)
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

func readFrame(r io.Reader) ([]byte, error) {
	var n [4]byte
	if _, err := io.ReadFull(r, n[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(n[:])
	if size > maxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes: %w", size, ErrBadCapture)
	}
	frame := make([]byte, size)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, fmt.Errorf("reading frame: %w", err)
	}
	return frame, nil
}

// ReplayChannel plays back a capture. Read ignores the request and returns
// the next recorded response; once they run out it reports ErrEndOfJournal.
type ReplayChannel struct {
	data   JournalData
	frames [][]byte
	pos    int
}

// NewReplayChannel reads a whole capture from r.
func NewReplayChannel(r io.Reader) (*ReplayChannel, error) {
	magic := make([]byte, len(captureMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != captureMagic {
		return nil, ErrBadCapture
	}
	query, err := readFrame(r)
	if err != nil {
		return nil, fmt.Errorf("reading query frame: %w", err)
	}
	data, err := DecodeJournalData(query)
	if err != nil {
		return nil, fmt.Errorf("decoding query frame: %w", err)
	}

	ch := &ReplayChannel{data: data}
	for {
		frame, err := readFrame(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		ch.frames = append(ch.frames, frame)
	}
	return ch, nil
}

// NewReplayChannelFromFrames builds a channel from in-memory responses.
func NewReplayChannelFromFrames(data JournalData, frames ...[]byte) *ReplayChannel {
	return &ReplayChannel{data: data, frames: frames}
}

func (c *ReplayChannel) Query() (JournalData, error) { return c.data, nil }

func (c *ReplayChannel) Read(_ ReadRequest, buf []byte) (int, error) {
	if c.pos >= len(c.frames) {
		return 0, ErrEndOfJournal
	}
	frame := c.frames[c.pos]
	c.pos++
	if len(frame) > len(buf) {
		return 0, fmt.Errorf("recorded response of %d bytes exceeds buffer of %d", len(frame), len(buf))
	}
	return copy(buf, frame), nil
}

func (c *ReplayChannel) Close() error { return nil }

// ReplayOpener opens <dir>/<LETTER>.usncap captures instead of live volumes.
// Drives without a capture are unsupported.
type ReplayOpener struct {
	fs  afero.Fs
	dir string
}

func NewReplayOpener(fs afero.Fs, dir string) *ReplayOpener {
	return &ReplayOpener{fs: fs, dir: dir}
}

func (o *ReplayOpener) Open(drive string) (Channel, error) {
	name := filepath.Join(o.dir, CaptureFileName(drive))
	f, err := o.fs.Open(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no capture for drive %s: %w", drive, vortex.ErrJournalUnsupported)
	}
	if err != nil {
		return nil, fmt.Errorf("opening capture: %w", err)
	}
	defer f.Close()

	ch, err := NewReplayChannel(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("loading capture %s: %w", name, err)
	}
	return ch, nil
}

var (
	_ Channel = (*ReplayChannel)(nil)
	_ Opener  = (*ReplayOpener)(nil)
)
