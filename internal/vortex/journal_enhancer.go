package vortex

import (
	"fmt"
	"strings"
)

const journalTimeLayout = "2006-01-02 15:04:05"

// JournalLookup is the journal evidence found for one path.
// A negative lookup is inconclusive: the journal only retains recent history.
type JournalLookup struct {
	Found   bool     `json:"found"`
	Entries []string `json:"entries,omitempty"` // "<Reason> (yyyy-MM-dd HH:mm:ss)", oldest first
}

// Text joins the entries with "; ".
func (l JournalLookup) Text() string {
	if !l.Found {
		return ""
	}
	return strings.Join(l.Entries, "; ")
}

// Display condenses the lookup to "Deleted", "Renamed" or "" based on the
// first entry that names one of those changes.
func (l JournalLookup) Display() string {
	if !l.Found {
		return ""
	}
	for _, e := range l.Entries {
		switch {
		case strings.HasPrefix(e, ReasonDeleted.String()):
			return "Deleted"
		case strings.HasPrefix(e, "Rename"):
			return "Renamed"
		}
	}
	return ""
}

// JournalMap holds lookups keyed case-insensitively by path.
type JournalMap map[string]*JournalLookup

// Get returns the lookup for path, ignoring case.
func (m JournalMap) Get(path string) (*JournalLookup, bool) {
	l, ok := m[FoldPath(path)]
	return l, ok
}

// JournalEnhancer answers journal lookups for full paths by splitting them
// into drive letter and file name.
type JournalEnhancer struct {
	cache *JournalCache
}

func NewJournalEnhancer(cache *JournalCache) *JournalEnhancer {
	return &JournalEnhancer{cache: cache}
}

// Lookup returns the journal evidence for path. Paths without a drive letter
// or file name come back not found.
func (j *JournalEnhancer) Lookup(path string) *JournalLookup {
	res := &JournalLookup{}
	if strings.TrimSpace(path) == "" {
		return res
	}
	drive := DriveLetterOf(path)
	name := BaseName(path)
	if drive == "" || name == "" {
		return res
	}

	recs := j.cache.RecordsFor(drive, name)
	if len(recs) == 0 {
		return res
	}
	res.Found = true
	for _, r := range recs {
		res.Entries = append(res.Entries, fmt.Sprintf("%s (%s)", r.Reason, r.Timestamp.UTC().Format(journalTimeLayout)))
	}
	return res
}

// LookupBulk looks up each unique path once.
func (j *JournalEnhancer) LookupBulk(paths []string) JournalMap {
	out := make(JournalMap, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		key := FoldPath(p)
		if _, ok := out[key]; ok {
			continue
		}
		out[key] = j.Lookup(p)
	}
	return out
}

// ApplyJournal runs one bulk lookup over the paths of entries and applies
// each result back to its entry.
func ApplyJournal[T EnhancementTarget](j *JournalEnhancer, entries []T) JournalMap {
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.EnhancementPath())
	}
	results := j.LookupBulk(paths)
	for _, e := range entries {
		if l, ok := results.Get(e.EnhancementPath()); ok {
			e.ApplyJournal(l)
		}
	}
	return results
}
