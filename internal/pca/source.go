// Package pca reads the Program Compatibility Assistant execution-history
// stores: the application launch dictionary and the general databases.
package pca

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/transform"

	"vortex-go/internal/vortex"
)

// DefaultDir is the store location relative to %SystemRoot%.
const DefaultDir = `%SystemRoot%\appcompat\pca`

// timestampLayouts are tried in order. The stores write
// "2006-01-02 15:04:05.000"; the others cover hand-edited evidence.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006/01/02 15:04:05",
	"01/02/2006 15:04:05",
}

// lineTrim holds the characters stripped from both ends of every line.
const lineTrim = "\x00\uFEFF\u200B"

// maxLineSize bounds a single line. Real entries are a few hundred bytes.
const maxLineSize = 1 << 20

// Source is a vortex.ArtifactSource reading files from one directory.
type Source struct {
	fs     vortex.Filesystem
	dir    string
	cache  *encodingCache
	logger vortex.Logger
}

// NewSource creates a Source over dir.
func NewSource(fs vortex.Filesystem, dir string, logger vortex.Logger) *Source {
	if logger == nil {
		logger = vortex.NewNopLogger()
	}
	return &Source{fs: fs, dir: dir, cache: newEncodingCache(), logger: logger}
}

func (s *Source) Dir() string {
	return s.dir
}

func (s *Source) path(name string) string {
	return filepath.Join(s.dir, name)
}

// Inspect reports presence, times, size and first line of one file.
// Failures leave the corresponding fields empty.
func (s *Source) Inspect(name string) vortex.ArtifactFile {
	path := s.path(name)
	info := vortex.ArtifactFile{Name: name, Present: s.fs.Exists(path)}
	if !info.Present {
		return info
	}

	meta, err := s.fs.Stat(path)
	if err != nil {
		s.logger.Warn("stat artifact file failed", "path", path, "error", err)
		return info
	}
	info.CreatedAt = meta.CreatedAt
	info.ModifiedAt = meta.ModifiedAt
	info.AccessedAt = meta.AccessedAt
	info.SizeKB = meta.Size / 1024

	if meta.Size == 0 {
		return info
	}
	first, err := s.firstLine(path)
	if err != nil {
		s.logger.Warn("reading artifact file failed", "path", path, "error", err)
		return info
	}
	info.FirstLine = first
	info.ReadOK = first != ""
	return info
}

func (s *Source) firstLine(path string) (string, error) {
	var first string
	err := s.eachLine(path, func(line string) bool {
		first = line
		return false
	})
	return first, err
}

// ParseLaunches reads "path|timestamp" lines.
func (s *Source) ParseLaunches(name string, offset time.Duration) ([]*vortex.LaunchEntry, error) {
	path := s.path(name)
	if !s.fs.Exists(path) {
		return nil, nil
	}

	var entries []*vortex.LaunchEntry
	skipped := 0
	err := s.eachLine(path, func(line string) bool {
		e, ok := parseLaunchLine(line, offset)
		switch {
		case ok:
			e.SourceFile = path
			entries = append(entries, e)
		case strings.TrimSpace(line) != "":
			skipped++
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	s.logger.Debug("launch dictionary parsed", "file", name, "entries", len(entries), "skipped", skipped)
	return entries, nil
}

// ParseExecutions reads general database lines of at least eight pipe
// separated fields.
func (s *Source) ParseExecutions(name string, offset time.Duration) ([]*vortex.ExecutionEntry, error) {
	path := s.path(name)
	if !s.fs.Exists(path) {
		return nil, nil
	}

	var entries []*vortex.ExecutionEntry
	skipped := 0
	err := s.eachLine(path, func(line string) bool {
		e, ok := parseExecutionLine(line, offset)
		switch {
		case ok:
			e.SourceFile = path
			entries = append(entries, e)
		case strings.TrimSpace(line) != "":
			skipped++
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	s.logger.Debug("general database parsed", "file", name, "entries", len(entries), "skipped", skipped)
	return entries, nil
}

func parseLaunchLine(line string, offset time.Duration) (*vortex.LaunchEntry, bool) {
	if strings.TrimSpace(line) == "" {
		return nil, false
	}
	parts := strings.Split(line, "|")
	if len(parts) < 2 {
		return nil, false
	}
	ts, ok := parseTimestamp(parts[1])
	if !ok {
		return nil, false
	}
	return &vortex.LaunchEntry{
		Path:            strings.TrimSpace(parts[0]),
		LastExecutedUTC: ts,
		LastExecutedLoc: localTime(ts, offset),
	}, true
}

func parseExecutionLine(line string, offset time.Duration) (*vortex.ExecutionEntry, bool) {
	if strings.TrimSpace(line) == "" || !strings.Contains(line, "|") {
		return nil, false
	}
	parts := strings.Split(line, "|")
	if len(parts) < 8 {
		return nil, false
	}
	ts, ok := parseTimestamp(parts[0])
	if !ok {
		return nil, false
	}

	exitCode := strings.TrimSpace(parts[7])
	if len(parts) > 8 {
		exitCode = strings.Join(parts[7:], "|")
	}
	return &vortex.ExecutionEntry{
		TimestampUTC:   ts,
		TimestampLocal: localTime(ts, offset),
		EntryType:      strings.TrimSpace(parts[1]),
		Path:           strings.TrimSpace(parts[2]),
		ProcessName:    strings.TrimSpace(parts[3]),
		Publisher:      strings.TrimSpace(parts[4]),
		Version:        strings.TrimSpace(parts[5]),
		ProgramID:      strings.TrimSpace(parts[6]),
		ExitCode:       exitCode,
	}, true
}

// parseTimestamp reads a UTC timestamp, truncated to whole seconds.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC().Truncate(time.Second), true
		}
	}
	return time.Time{}, false
}

// localTime shifts a UTC time by offset into a fixed zone of that offset.
func localTime(utc time.Time, offset time.Duration) time.Time {
	return utc.In(time.FixedZone("", int(offset/time.Second)))
}

// eachLine decodes path and calls fn with each cleaned line until fn
// returns false.
func (s *Source) eachLine(path string, fn func(string) bool) error {
	enc, err := s.encodingOf(path)
	if err != nil {
		return err
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(transform.NewReader(f, enc.decoder()))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if !fn(strings.Trim(scanner.Text(), lineTrim)) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning lines: %w", err)
	}
	return nil
}

func (s *Source) encodingOf(path string) (Encoding, error) {
	if enc, ok := s.cache.get(path); ok {
		return enc, nil
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return UTF8, err
	}
	defer f.Close()

	head := make([]byte, sniffSize)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return UTF8, fmt.Errorf("reading file head: %w", err)
	}
	enc := DetectEncoding(head[:n])
	s.cache.put(path, enc)
	s.logger.Debug("artifact encoding detected", "path", path, "encoding", enc)
	return enc, nil
}

var _ vortex.ArtifactSource = (*Source)(nil)
