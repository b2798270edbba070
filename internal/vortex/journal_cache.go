package vortex

import (
	"sort"
	"strings"
	"sync"
)

// JournalCache scans the change journal of every fixed, ready drive once and
// answers by-filename lookups from memory. The scan runs on the first call
// to any method; the maps are read-only afterwards.
type JournalCache struct {
	reader JournalReader
	drives DriveLister
	logger Logger

	once    sync.Once
	records map[string]map[string][]JournalRecord // drive -> folded name -> records by time
	status  map[string]string
	counts  map[string]int
}

// NewJournalCache creates a cache over reader for the drives listed by drives.
func NewJournalCache(reader JournalReader, drives DriveLister, logger Logger) *JournalCache {
	return &JournalCache{reader: reader, drives: drives, logger: logger}
}

// Initialize performs the one-time scan. Concurrent callers block until it finishes.
func (c *JournalCache) Initialize() {
	c.once.Do(c.scan)
}

func (c *JournalCache) scan() {
	c.records = make(map[string]map[string][]JournalRecord)
	c.status = make(map[string]string)
	c.counts = make(map[string]int)

	list, err := c.drives.Drives()
	if err != nil {
		c.logger.Warn("listing drives failed", "error", err)
		return
	}

	for _, drive := range FixedReadyDrives(list) {
		if c.reader.Probe(drive) != JournalAvailable {
			c.status[drive] = JournalStatusMissing(drive)
			c.logger.Info("no change journal", "drive", drive)
			continue
		}
		recs, err := c.reader.ReadRecords(drive)
		if err != nil {
			c.status[drive] = JournalStatusMissing(drive)
			c.logger.Warn("reading change journal failed", "drive", drive, "error", err)
			continue
		}

		byName := make(map[string][]JournalRecord)
		for _, r := range recs {
			key := strings.ToUpper(r.FileName)
			byName[key] = append(byName[key], r)
		}
		for _, rs := range byName {
			sort.SliceStable(rs, func(i, j int) bool { return rs[i].Timestamp.Before(rs[j].Timestamp) })
		}
		c.records[drive] = byName
		c.status[drive] = journalStatusAvailable
		c.counts[drive] = len(recs)
		c.logger.Info("change journal loaded", "drive", drive, "records", len(recs))
	}
}

// RecordsFor returns the records for fileName on drive, oldest first.
// Unknown drives and drives without a journal yield an empty slice.
func (c *JournalCache) RecordsFor(drive, fileName string) []JournalRecord {
	c.Initialize()
	byName, ok := c.records[strings.ToUpper(drive)]
	if !ok {
		return nil
	}
	recs := byName[strings.ToUpper(fileName)]
	out := make([]JournalRecord, len(recs))
	copy(out, recs)
	return out
}

// Status returns the human-readable journal status of drive.
func (c *JournalCache) Status(drive string) string {
	c.Initialize()
	drive = strings.ToUpper(drive)
	if s, ok := c.status[drive]; ok {
		return s
	}
	return JournalStatusMissing(drive)
}

// DriveStatus summarizes one scanned drive.
type DriveStatus struct {
	Drive   string `json:"drive"`
	Status  string `json:"status"`
	Records int    `json:"records"`
}

// Statuses returns the status of every scanned drive in letter order.
func (c *JournalCache) Statuses() []DriveStatus {
	c.Initialize()
	out := make([]DriveStatus, 0, len(c.status))
	for drive := range c.status {
		out = append(out, DriveStatus{Drive: drive, Status: c.Status(drive), Records: c.counts[drive]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Drive < out[j].Drive })
	return out
}
