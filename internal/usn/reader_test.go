package usn_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vortex-go/internal/usn"
	"vortex-go/internal/vortex"
)

// scriptedChannel returns pre-built responses and records the requests it saw.
type scriptedChannel struct {
	queryErr  error
	responses [][]byte
	finalErr  error
	requests  []usn.ReadRequest
	closed    bool
}

func (c *scriptedChannel) Query() (usn.JournalData, error) {
	if c.queryErr != nil {
		return usn.JournalData{}, c.queryErr
	}
	return usn.JournalData{JournalID: 77, NextUSN: 1 << 20}, nil
}

func (c *scriptedChannel) Read(req usn.ReadRequest, buf []byte) (int, error) {
	c.requests = append(c.requests, req)
	if len(c.responses) == 0 {
		if c.finalErr != nil {
			return 0, c.finalErr
		}
		return 0, usn.ErrEndOfJournal
	}
	r := c.responses[0]
	c.responses = c.responses[1:]
	return copy(buf, r), nil
}

func (c *scriptedChannel) Close() error {
	c.closed = true
	return nil
}

type staticOpener struct {
	channels map[string]usn.Channel
}

func (o *staticOpener) Open(drive string) (usn.Channel, error) {
	ch, ok := o.channels[drive]
	if !ok {
		return nil, vortex.ErrJournalUnsupported
	}
	return ch, nil
}

func record(name string, reason vortex.JournalReason, at time.Time) []byte {
	return usn.EncodeRecordV2(usn.RawRecord{FileName: name, Reason: uint32(reason), Timestamp: at})
}

func TestReaderProbe(t *testing.T) {
	opener := &staticOpener{channels: map[string]usn.Channel{
		"C": &scriptedChannel{},
		"D": &scriptedChannel{queryErr: errors.New("not active")},
	}}
	r := usn.NewReader(opener, 0, vortex.NewNopLogger())

	assert.Equal(t, vortex.JournalAvailable, r.Probe("C"))
	assert.Equal(t, vortex.JournalUnsupported, r.Probe("D"))
	assert.Equal(t, vortex.JournalUnsupported, r.Probe("E"))
}

func TestReaderReadRecords(t *testing.T) {
	t.Run("follows next usn until short response", func(t *testing.T) {
		ch := &scriptedChannel{responses: [][]byte{
			usn.EncodeBuffer(100, record("a.exe", vortex.ReasonDeleted, stamp)),
			usn.EncodeBuffer(200, record("b.exe", vortex.ReasonRenameOld|vortex.ReasonRenameNew, stamp)),
			usn.EncodeBuffer(200),
		}}
		r := usn.NewReader(&staticOpener{channels: map[string]usn.Channel{"C": ch}}, 0, vortex.NewNopLogger())

		recs, err := r.ReadRecords("C")
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, "a.exe", recs[0].FileName)
		assert.Equal(t, vortex.ReasonRenameOld, recs[1].Reason)
		assert.Equal(t, vortex.ReasonRenameNew, recs[2].Reason)

		require.Len(t, ch.requests, 3)
		assert.Equal(t, int64(0), ch.requests[0].StartUSN)
		assert.Equal(t, uint32(usn.AllReasons), ch.requests[0].ReasonMask)
		assert.Equal(t, uint64(77), ch.requests[0].JournalID)
		assert.Equal(t, int64(100), ch.requests[1].StartUSN)
		assert.Equal(t, int64(200), ch.requests[2].StartUSN)
		assert.True(t, ch.closed)
	})

	t.Run("end of journal is graceful", func(t *testing.T) {
		ch := &scriptedChannel{responses: [][]byte{
			usn.EncodeBuffer(100, record("a.exe", vortex.ReasonDeleted, stamp)),
		}}
		r := usn.NewReader(&staticOpener{channels: map[string]usn.Channel{"C": ch}}, 0, vortex.NewNopLogger())

		recs, err := r.ReadRecords("C")
		require.NoError(t, err)
		assert.Len(t, recs, 1)
	})

	t.Run("stalled usn stops the scan", func(t *testing.T) {
		ch := &scriptedChannel{responses: [][]byte{
			usn.EncodeBuffer(0, record("a.exe", vortex.ReasonDeleted, stamp)),
			usn.EncodeBuffer(0, record("a.exe", vortex.ReasonDeleted, stamp)),
		}}
		r := usn.NewReader(&staticOpener{channels: map[string]usn.Channel{"C": ch}}, 0, vortex.NewNopLogger())

		recs, err := r.ReadRecords("C")
		require.NoError(t, err)
		assert.Len(t, recs, 1)
		assert.Len(t, ch.requests, 1)
	})

	t.Run("device failure is fatal for the drive", func(t *testing.T) {
		ch := &scriptedChannel{
			responses: [][]byte{usn.EncodeBuffer(100, record("a.exe", vortex.ReasonDeleted, stamp))},
			finalErr:  errors.New("device gone"),
		}
		r := usn.NewReader(&staticOpener{channels: map[string]usn.Channel{"C": ch}}, 0, vortex.NewNopLogger())

		_, err := r.ReadRecords("C")
		assert.ErrorContains(t, err, "device gone")
	})

	t.Run("malformed buffer keeps decodable records", func(t *testing.T) {
		frame := usn.EncodeBuffer(100, record("a.exe", vortex.ReasonDeleted, stamp), make([]byte, 8))
		ch := &scriptedChannel{responses: [][]byte{frame}}
		r := usn.NewReader(&staticOpener{channels: map[string]usn.Channel{"C": ch}}, 0, vortex.NewNopLogger())

		recs, err := r.ReadRecords("C")
		require.NoError(t, err)
		assert.Len(t, recs, 1)
	})

	t.Run("unopenable volume", func(t *testing.T) {
		r := usn.NewReader(&staticOpener{}, 0, vortex.NewNopLogger())
		_, err := r.ReadRecords("Z")
		assert.ErrorIs(t, err, vortex.ErrJournalUnsupported)
	})
}

func TestCaptureAndReplay(t *testing.T) {
	frames := [][]byte{
		usn.EncodeBuffer(100, record("a.exe", vortex.ReasonDeleted, stamp)),
		usn.EncodeBuffer(200, record("b.exe", vortex.ReasonRenameNew, stamp.Add(time.Minute))),
	}
	live := &scriptedChannel{responses: append([][]byte(nil), frames...)}

	var buf bytes.Buffer
	n, err := usn.Capture(live, &buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/captures/"+usn.CaptureFileName("c:"), buf.Bytes(), 0o644))

	r := usn.NewReader(usn.NewReplayOpener(fs, "/captures"), 0, vortex.NewNopLogger())
	assert.Equal(t, vortex.JournalAvailable, r.Probe("C"))
	assert.Equal(t, vortex.JournalUnsupported, r.Probe("D"))

	recs, err := r.ReadRecords("C")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "b.exe", recs[1].FileName)
	assert.Equal(t, stamp.Add(time.Minute), recs[1].Timestamp)
}

func TestReplayRejectsForeignFiles(t *testing.T) {
	_, err := usn.NewReplayChannel(bytes.NewReader([]byte("not a capture at all")))
	assert.ErrorIs(t, err, usn.ErrBadCapture)
}
