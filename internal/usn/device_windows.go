//go:build windows

package usn

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/windows"
)

const (
	fsctlQueryUSNJournal = 0x000900f4
	fsctlReadUSNJournal  = 0x000900bb

	// USN_JOURNAL_DATA_V2 is the largest query response; V0 is its prefix.
	queryBufferSize = 80
)

// Errors that end a scan gracefully.
var gracefulErrnos = []windows.Errno{
	windows.ERROR_HANDLE_EOF,
	windows.ERROR_JOURNAL_DELETE_IN_PROGRESS,
	windows.ERROR_JOURNAL_NOT_ACTIVE,
	windows.ERROR_JOURNAL_ENTRY_DELETED,
}

func isEndOfJournal(err error) bool {
	for _, errno := range gracefulErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

// DeviceOpener opens \\.\X: volume handles.
type DeviceOpener struct{}

func NewDeviceOpener() *DeviceOpener { return &DeviceOpener{} }

// Open opens the raw volume with read/write access, shared for reading and
// writing so other processes keep working.
func (DeviceOpener) Open(drive string) (Channel, error) {
	path := `\\.\` + strings.ToUpper(strings.TrimSuffix(drive, ":")) + ":"
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, fmt.Errorf("encoding volume path: %w", err)
	}
	h, err := windows.CreateFile(
		name,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		0,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &deviceChannel{handle: h}, nil
}

type deviceChannel struct {
	handle windows.Handle
}

func (c *deviceChannel) Query() (JournalData, error) {
	out := make([]byte, queryBufferSize)
	var n uint32
	err := windows.DeviceIoControl(c.handle, fsctlQueryUSNJournal, nil, 0, &out[0], uint32(len(out)), &n, nil)
	if err != nil {
		return JournalData{}, fmt.Errorf("FSCTL_QUERY_USN_JOURNAL: %w", err)
	}
	return DecodeJournalData(out[:n])
}

func (c *deviceChannel) Read(req ReadRequest, buf []byte) (int, error) {
	in := req.Encode()
	var n uint32
	err := windows.DeviceIoControl(c.handle, fsctlReadUSNJournal, &in[0], uint32(len(in)), &buf[0], uint32(len(buf)), &n, nil)
	if err != nil {
		if isEndOfJournal(err) {
			return 0, ErrEndOfJournal
		}
		return 0, fmt.Errorf("FSCTL_READ_USN_JOURNAL: %w", err)
	}
	return int(n), nil
}

func (c *deviceChannel) Close() error {
	return windows.CloseHandle(c.handle)
}

var _ Opener = (*DeviceOpener)(nil)
