package vortex

import "time"

// EnhancementTarget is implemented by record types that can receive
// enhancement and journal results for the path they carry.
type EnhancementTarget interface {
	EnhancementPath() string
	ApplyEnhancement(*EnhancedEntry)
	ApplyJournal(*JournalLookup)
}

var (
	_ EnhancementTarget = (*LaunchEntry)(nil)
	_ EnhancementTarget = (*ExecutionEntry)(nil)
)

// LaunchEntry is one line of the application launch dictionary: an absolute
// path and the last time it ran.
type LaunchEntry struct {
	Path            string         `json:"path"`
	LastExecutedUTC time.Time      `json:"last_executed_utc"`
	LastExecutedLoc time.Time      `json:"last_executed_local"`
	SourceFile      string         `json:"source_file"`
	Enhancement     *EnhancedEntry `json:"enhancement,omitempty"`
	Journal         *JournalLookup `json:"journal,omitempty"`
}

func (e *LaunchEntry) EnhancementPath() string            { return e.Path }
func (e *LaunchEntry) ApplyEnhancement(en *EnhancedEntry) { e.Enhancement = en }
func (e *LaunchEntry) ApplyJournal(l *JournalLookup)      { e.Journal = l }

// ResolutionStatus is the outcome of resolving an ExecutionEntry path.
type ResolutionStatus int

const (
	ResolutionEmpty ResolutionStatus = iota
	ResolutionResolved
	ResolutionUnknown
	ResolutionDuplicate
)

func (s ResolutionStatus) String() string {
	switch s {
	case ResolutionResolved:
		return "Resolved"
	case ResolutionUnknown:
		return "Unknown"
	case ResolutionDuplicate:
		return "Duplicate"
	default:
		return "Empty"
	}
}

func (s ResolutionStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *ResolutionStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Resolved":
		*s = ResolutionResolved
	case "Unknown":
		*s = ResolutionUnknown
	case "Duplicate":
		*s = ResolutionDuplicate
	default:
		*s = ResolutionEmpty
	}
	return nil
}

// ExecutionEntry is one line of the general execution database. Its raw path
// may be drive-less or contain environment variables; ResolvedPath holds the
// absolute path chosen for it.
type ExecutionEntry struct {
	TimestampUTC   time.Time        `json:"timestamp_utc"`
	TimestampLocal time.Time        `json:"timestamp_local"`
	EntryType      string           `json:"entry_type"`
	Path           string           `json:"path"`
	ProcessName    string           `json:"process_name"`
	Publisher      string           `json:"publisher"`
	Version        string           `json:"version"`
	ProgramID      string           `json:"program_id"`
	ExitCode       string           `json:"exit_code"`
	SourceFile     string           `json:"source_file"`
	ResolvedPath   string           `json:"resolved_path,omitempty"`
	PathStatus     ResolutionStatus `json:"path_status"`
	RunCount       int              `json:"run_count"`
	Enhancement    *EnhancedEntry   `json:"enhancement,omitempty"`
	Journal        *JournalLookup   `json:"journal,omitempty"`
}

// EnhancementPath prefers the resolved path and falls back to the raw one.
func (e *ExecutionEntry) EnhancementPath() string {
	if e.ResolvedPath != "" {
		return e.ResolvedPath
	}
	return e.Path
}

func (e *ExecutionEntry) ApplyEnhancement(en *EnhancedEntry) { e.Enhancement = en }
func (e *ExecutionEntry) ApplyJournal(l *JournalLookup)      { e.Journal = l }
