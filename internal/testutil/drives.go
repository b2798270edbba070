package testutil

import "vortex-go/internal/vortex"

// StaticDrives lists a fixed set of drives.
type StaticDrives struct {
	List []vortex.Drive
	Err  error
}

// FixedDrives returns ready, fixed NTFS drives for the given letters.
func FixedDrives(letters ...string) *StaticDrives {
	d := &StaticDrives{}
	for _, l := range letters {
		d.List = append(d.List, vortex.Drive{Letter: l, Type: vortex.DriveFixed, Ready: true, FileSystem: "NTFS"})
	}
	return d
}

// With appends a drive.
func (d *StaticDrives) With(drive vortex.Drive) *StaticDrives {
	d.List = append(d.List, drive)
	return d
}

func (d *StaticDrives) Drives() ([]vortex.Drive, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	return append([]vortex.Drive(nil), d.List...), nil
}

var _ vortex.DriveLister = (*StaticDrives)(nil)
