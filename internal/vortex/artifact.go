package vortex

import "time"

// Artifact store file names inside the PCA directory.
const (
	LaunchDictionaryFile = "PcaAppLaunchDic.txt"
	GeneralDB0File       = "PcaGeneralDb0.txt"
	GeneralDB1File       = "PcaGeneralDb1.txt"
)

// ArtifactFiles lists the artifact files in the order they are inspected.
var ArtifactFiles = []string{LaunchDictionaryFile, GeneralDB0File, GeneralDB1File}

// ArtifactFile describes an artifact store file as found on disk.
type ArtifactFile struct {
	Name       string     `json:"name"`
	Present    bool       `json:"present"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
	AccessedAt *time.Time `json:"accessed_at,omitempty"`
	SizeKB     int64      `json:"size_kb"`
	FirstLine  string     `json:"first_line,omitempty"`
	ReadOK     bool       `json:"read_ok"`
}

// ArtifactSource reads the two execution-history stores.
// Timestamps in the stores are UTC; offset converts them to local time.
type ArtifactSource interface {
	// Dir returns the directory holding the artifact files.
	Dir() string

	// Inspect reports presence, times, size and first line of one file.
	Inspect(name string) ArtifactFile

	// ParseLaunches reads a launch dictionary file. Malformed lines are skipped.
	ParseLaunches(name string, offset time.Duration) ([]*LaunchEntry, error)

	// ParseExecutions reads a general database file. Malformed lines are skipped.
	ParseExecutions(name string, offset time.Duration) ([]*ExecutionEntry, error)
}

// HostVersion identifies the running operating system.
type HostVersion struct {
	Version string `json:"version"`
	Build   uint32 `json:"build"`
}

// MinJournalBuild is the first Windows build (11 22H2) that writes the
// artifact stores this pipeline reads.
const MinJournalBuild = 22621

// Unsupported reports whether the host predates MinJournalBuild.
func (v HostVersion) Unsupported() bool {
	return v.Build < MinJournalBuild
}

// VersionChecker reports the host operating system version.
type VersionChecker interface {
	HostVersion() (HostVersion, error)
}
