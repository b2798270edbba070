package testutil

import (
	"strings"
	"sync"

	"vortex-go/internal/vortex"
)

// StaticJournal is an in-memory vortex.JournalReader. Drives without
// records are Unsupported unless listed in Empty.
type StaticJournal struct {
	Records map[string][]vortex.JournalRecord
	Errs    map[string]error
	Empty   map[string]bool

	mu    sync.Mutex
	reads map[string]int
}

func NewStaticJournal() *StaticJournal {
	return &StaticJournal{
		Records: make(map[string][]vortex.JournalRecord),
		Errs:    make(map[string]error),
		Empty:   make(map[string]bool),
		reads:   make(map[string]int),
	}
}

// Add appends a record to its drive.
func (j *StaticJournal) Add(r vortex.JournalRecord) *StaticJournal {
	drive := strings.ToUpper(r.Drive)
	j.Records[drive] = append(j.Records[drive], r)
	return j
}

func (j *StaticJournal) Probe(drive string) vortex.JournalState {
	drive = strings.ToUpper(drive)
	if _, ok := j.Records[drive]; ok || j.Empty[drive] || j.Errs[drive] != nil {
		return vortex.JournalAvailable
	}
	return vortex.JournalUnsupported
}

func (j *StaticJournal) ReadRecords(drive string) ([]vortex.JournalRecord, error) {
	drive = strings.ToUpper(drive)
	j.mu.Lock()
	j.reads[drive]++
	j.mu.Unlock()
	if err := j.Errs[drive]; err != nil {
		return nil, err
	}
	return append([]vortex.JournalRecord(nil), j.Records[drive]...), nil
}

// Reads returns how many full scans drive received.
func (j *StaticJournal) Reads(drive string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.reads[strings.ToUpper(drive)]
}

var _ vortex.JournalReader = (*StaticJournal)(nil)
