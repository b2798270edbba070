package vortex

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ProgressInterval is the number of completions between progress reports.
const ProgressInterval = 50

// ProgressFunc receives coalesced progress reports during bulk enhancement.
type ProgressFunc func(EnhancementProgress)

// EnhancementMap holds enhancement results keyed case-insensitively by path.
type EnhancementMap map[string]*EnhancedEntry

// Get returns the entry for path, ignoring case.
func (m EnhancementMap) Get(path string) (*EnhancedEntry, bool) {
	e, ok := m[FoldPath(path)]
	return e, ok
}

// Enhancer turns bare paths into EnhancedEntry snapshots.
type Enhancer struct {
	fs      Filesystem
	hasher  *Hasher
	workers int
	logger  Logger
}

// NewEnhancer creates an Enhancer. A workers value of zero or less selects
// half the available CPUs, with a minimum of two.
func NewEnhancer(fs Filesystem, hasher *Hasher, workers int, logger Logger) *Enhancer {
	if hasher == nil {
		hasher = NewHasher()
	}
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Enhancer{fs: fs, hasher: hasher, workers: workers, logger: logger}
}

// DefaultWorkers returns the default size of the bulk enhancement pool.
func DefaultWorkers() int {
	return max(2, runtime.NumCPU()/2)
}

// Enhance inspects a single path. It never fails: an invalid path yields an
// entry with FileStatusUnknown and PresenceError, a missing file yields
// FileStatusDeleted and PresenceFalse, and faults while reading a present
// file are recorded in ErrorMessage on an otherwise partial entry.
func (e *Enhancer) Enhance(path string, opts EnhanceOptions) *EnhancedEntry {
	entry := &EnhancedEntry{
		OriginalPath:  path,
		FileStatus:    FileStatusUnknown,
		IsFilePresent: PresenceError,
	}
	if !ValidatePath(path) {
		return entry
	}
	if !e.fs.Exists(path) {
		entry.FileStatus = FileStatusDeleted
		entry.IsFilePresent = PresenceFalse
		return entry
	}
	entry.FileStatus = FileStatusPresent
	entry.IsFilePresent = PresenceTrue

	defer func() {
		if r := recover(); r != nil {
			entry.ErrorMessage = fmt.Sprintf("panic: %v", r)
			e.logger.Warn("enhancement panicked", "path", path, "panic", r)
		}
	}()

	if err := e.snapshotMetadata(path, entry); err != nil {
		entry.ErrorMessage = err.Error()
		e.logger.Debug("metadata failed", "path", path, "error", err)
		return entry
	}
	if err := e.inspectContent(path, entry, opts); err != nil {
		entry.ErrorMessage = err.Error()
		e.logger.Debug("content inspection failed", "path", path, "error", err)
	}
	return entry
}

func (e *Enhancer) snapshotMetadata(path string, entry *EnhancedEntry) error {
	meta, err := e.fs.Stat(path)
	if err != nil {
		return fmt.Errorf("reading metadata: %w", err)
	}
	entry.CreatedAt = meta.CreatedAt
	entry.ModifiedAt = meta.ModifiedAt
	entry.AccessedAt = meta.AccessedAt
	size := meta.Size
	entry.RawFileSize = &size
	entry.FileSizeBytes = FormatSizeBytes(size)
	entry.FileSizeMB = FormatSizeMB(size)
	return nil
}

func (e *Enhancer) inspectContent(path string, entry *EnhancedEntry, opts EnhanceOptions) error {
	f, err := e.fs.Open(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	var header []byte
	if opts.ComputeHash {
		res, err := e.hasher.Sum(f)
		if err != nil {
			return fmt.Errorf("hashing file: %w", err)
		}
		entry.MD5 = res.Digest
		header = res.Header
	} else {
		header, err = ReadHeader(f)
		if err != nil {
			return err
		}
	}

	if len(header) < MinHeaderSize {
		return nil
	}
	info := InspectPE(header, opts.CheckSignature)
	if !info.OK() {
		return nil
	}
	entry.CompiledAt = info.CompiledAt
	entry.EntryPoint = info.EntryPoint
	entry.SignatureStatus = info.Signature
	entry.DebugAllowed = info.DebugAllowed
	return nil
}

// EnhanceBulk enhances every unique path (compared case-insensitively) on a
// bounded worker pool. Blank paths are ignored. onProgress, if non-nil, is
// called at most once per ProgressInterval completions plus once at the end.
func (e *Enhancer) EnhanceBulk(paths []string, opts EnhanceOptions, onProgress ProgressFunc) EnhancementMap {
	unique := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		key := FoldPath(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, p)
	}

	results := make(EnhancementMap, len(unique))
	total := len(unique)
	var (
		mu           sync.Mutex
		processed    int
		lastReported int
	)

	var g errgroup.Group
	g.SetLimit(e.workers)
	for _, p := range unique {
		p := p
		g.Go(func() error {
			entry := e.Enhance(p, opts)

			mu.Lock()
			defer mu.Unlock()
			results[FoldPath(p)] = entry
			processed++
			if onProgress != nil && (processed-lastReported >= ProgressInterval || processed == total) {
				lastReported = processed
				onProgress(EnhancementProgress{Total: total, Processed: processed, CurrentPath: p})
			}
			return nil
		})
	}
	_ = g.Wait()

	e.logger.Debug("bulk enhancement complete", "paths", total)
	return results
}

// EnhanceCollection runs one bulk pass over the paths of entries and applies
// each result back to the entry it came from. Entries sharing a path share
// one result.
func EnhanceCollection[T EnhancementTarget](e *Enhancer, entries []T, opts EnhanceOptions, onProgress ProgressFunc) EnhancementMap {
	if len(entries) == 0 {
		return EnhancementMap{}
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, entry.EnhancementPath())
	}
	results := e.EnhanceBulk(paths, opts, onProgress)
	for _, entry := range entries {
		path := entry.EnhancementPath()
		if strings.TrimSpace(path) == "" {
			continue
		}
		if enhanced, ok := results.Get(path); ok {
			entry.ApplyEnhancement(enhanced)
		}
	}
	return results
}
