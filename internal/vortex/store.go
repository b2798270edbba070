package vortex

import "time"

// Run status values.
const (
	RunStatusRunning     = "running"
	RunStatusComplete    = "complete"
	RunStatusUnsupported = "unsupported"
	RunStatusFailed      = "failed"
)

// AnalysisRun is the bookkeeping record of one analysis.
type AnalysisRun struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     *time.Time
	Status         string
	HostVersion    string
	ArtifactDir    string
	LaunchCount    int
	ExecutionCount int
	EnhancedCount  int
	JournalHits    int
}

// EntryMatch is a stored enhanced entry found by a search.
type EntryMatch struct {
	RunID     string
	StartedAt time.Time
	Entry     *EnhancedEntry
}

// CaseStore persists analysis runs and their results.
type CaseStore interface {
	// CreateRun records the start of a run.
	CreateRun(run *AnalysisRun) error

	// SaveAnalysis stores the result of a run and marks it finished,
	// atomically.
	SaveAnalysis(run *AnalysisRun, result *AnalysisResult) error

	// ListRuns returns all runs, newest first.
	ListRuns() ([]*AnalysisRun, error)

	// FindRun returns the run with the given id, or nil if there is none.
	FindRun(id string) (*AnalysisRun, error)

	// LoadAnalysis returns the stored result of a run, or nil if it has none.
	LoadAnalysis(id string) (*AnalysisResult, error)

	// FindByMD5 returns every stored entry with the given digest.
	FindByMD5(digest string) ([]*EntryMatch, error)

	// Close closes the store.
	Close() error
}
