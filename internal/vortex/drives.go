package vortex

import (
	"sort"
	"strings"
)

// DriveType mirrors the Windows GetDriveType classification.
type DriveType int

const (
	DriveUnknown DriveType = iota
	DriveNoRootDir
	DriveRemovable
	DriveFixed
	DriveRemote
	DriveCDROM
	DriveRAMDisk
)

func (t DriveType) String() string {
	switch t {
	case DriveNoRootDir:
		return "NoRootDirectory"
	case DriveRemovable:
		return "Removable"
	case DriveFixed:
		return "Fixed"
	case DriveRemote:
		return "Network"
	case DriveCDROM:
		return "CDRom"
	case DriveRAMDisk:
		return "Ram"
	default:
		return "Unknown"
	}
}

// Drive describes one mounted volume.
type Drive struct {
	Letter     string // upper-case, no colon
	Type       DriveType
	Ready      bool
	FileSystem string
}

// Root returns the "X:\" root of the drive.
func (d Drive) Root() string {
	return d.Letter + `:\`
}

// DriveLister enumerates the volumes currently mounted on the host.
type DriveLister interface {
	Drives() ([]Drive, error)
}

// FixedReadyDrives returns the letters of fixed, ready drives in alphabetical order.
// These are the only volumes the journal cache scans.
func FixedReadyDrives(drives []Drive) []string {
	var letters []string
	for _, d := range drives {
		if d.Ready && d.Type == DriveFixed {
			letters = append(letters, strings.ToUpper(d.Letter))
		}
	}
	sort.Strings(letters)
	return letters
}

// SubstitutionDrives returns the letters tried when a drive-agnostic path has
// to be pinned to a volume: ready, non-optical drives, C through Z first,
// then A and B.
func SubstitutionDrives(drives []Drive) []string {
	var letters []string
	for _, d := range drives {
		if d.Ready && d.Type != DriveCDROM && d.Letter != "" {
			letters = append(letters, strings.ToUpper(d.Letter))
		}
	}
	sort.Slice(letters, func(i, j int) bool {
		return driveRank(letters[i]) < driveRank(letters[j])
	})
	return letters
}

func driveRank(letter string) int {
	c := letter[0]
	if c == 'A' || c == 'B' {
		return int(c-'A') + 26
	}
	return int(c - 'A')
}
