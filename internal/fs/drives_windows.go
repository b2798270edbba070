//go:build windows

package fs

import (
	"fmt"

	"golang.org/x/sys/windows"

	"vortex-go/internal/vortex"
)

// OSDrives enumerates mounted volumes with GetLogicalDrives.
type OSDrives struct{}

func NewOSDrives() *OSDrives { return &OSDrives{} }

// Drives returns one entry per assigned drive letter. A drive is ready when
// its volume information can be read.
func (d *OSDrives) Drives() ([]vortex.Drive, error) {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil, fmt.Errorf("listing logical drives: %w", err)
	}

	var drives []vortex.Drive
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		letter := string(rune('A' + i))
		root, err := windows.UTF16PtrFromString(letter + `:\`)
		if err != nil {
			continue
		}

		drive := vortex.Drive{Letter: letter, Type: driveType(windows.GetDriveType(root))}
		fsName := make([]uint16, windows.MAX_PATH+1)
		err = windows.GetVolumeInformation(root, nil, 0, nil, nil, nil, &fsName[0], uint32(len(fsName)))
		if err == nil {
			drive.Ready = true
			drive.FileSystem = windows.UTF16ToString(fsName)
		}
		drives = append(drives, drive)
	}
	return drives, nil
}

func driveType(t uint32) vortex.DriveType {
	switch t {
	case windows.DRIVE_NO_ROOT_DIR:
		return vortex.DriveNoRootDir
	case windows.DRIVE_REMOVABLE:
		return vortex.DriveRemovable
	case windows.DRIVE_FIXED:
		return vortex.DriveFixed
	case windows.DRIVE_REMOTE:
		return vortex.DriveRemote
	case windows.DRIVE_CDROM:
		return vortex.DriveCDROM
	case windows.DRIVE_RAMDISK:
		return vortex.DriveRAMDisk
	default:
		return vortex.DriveUnknown
	}
}

var _ vortex.DriveLister = (*OSDrives)(nil)
