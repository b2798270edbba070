package vortex

import (
	"fmt"
	"strings"
	"time"
)

// AnalysisResult is everything produced by one analysis run.
type AnalysisResult struct {
	RunID       string            `json:"run_id"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
	Host        HostVersion       `json:"host"`
	Unsupported bool              `json:"unsupported"`
	UTCOffset   time.Duration     `json:"utc_offset"`
	ArtifactDir string            `json:"artifact_dir"`
	Files       []ArtifactFile    `json:"files"`
	Launches    []*LaunchEntry    `json:"launches"`
	Executions  []*ExecutionEntry `json:"executions"`
	Enhanced    EnhancementMap    `json:"enhanced"`
	Journal     JournalMap        `json:"journal"`
	Drives      []DriveStatus     `json:"drives"`
}

// File returns the inspection result for the named artifact file.
func (r *AnalysisResult) File(name string) (ArtifactFile, bool) {
	for _, f := range r.Files {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return ArtifactFile{}, false
}

// JournalHits counts paths with journal evidence.
func (r *AnalysisResult) JournalHits() int {
	n := 0
	for _, l := range r.Journal {
		if l.Found {
			n++
		}
	}
	return n
}

// AnalyzeOptions controls one analysis run.
type AnalyzeOptions struct {
	Enhance          EnhanceOptions
	SkipVersionCheck bool
	DisableJournal   bool
	Progress         ProgressFunc
}

// Dependencies are the collaborators of a Service. Store, Archives and
// Encryptor may be left empty when reports are not persisted.
type Dependencies struct {
	Source    ArtifactSource
	Version   VersionChecker
	FS        Filesystem
	Drives    DriveLister
	Journal   JournalReader
	Enhancer  *Enhancer
	LookupEnv LookupEnvFunc
	Store     CaseStore
	Archives  []Archive
	Encryptor Encryptor
	Logger    Logger
	Clock     Clock
	IDGen     IDGenerator
}

// Service is the orchestration layer behind the CLI: it runs analyses,
// answers ad-hoc enhancement and journal queries, and exports reports.
type Service struct {
	source    ArtifactSource
	version   VersionChecker
	fs        Filesystem
	drives    DriveLister
	journal   JournalReader
	enhancer  *Enhancer
	lookupEnv LookupEnvFunc
	store     CaseStore
	archives  []Archive
	encryptor Encryptor
	logger    Logger
	clock     Clock
	idgen     IDGenerator
}

// NewService creates a Service from its dependencies.
func NewService(d Dependencies) *Service {
	logger := d.Logger
	if logger == nil {
		logger = NewNopLogger()
	}
	enhancer := d.Enhancer
	if enhancer == nil {
		enhancer = NewEnhancer(d.FS, nil, 0, logger)
	}
	clock := d.Clock
	if clock == nil {
		clock = RealClock{}
	}
	idgen := d.IDGen
	if idgen == nil {
		idgen = UUIDGenerator{}
	}
	return &Service{
		source:    d.Source,
		version:   d.Version,
		fs:        d.FS,
		drives:    d.Drives,
		journal:   d.Journal,
		enhancer:  enhancer,
		lookupEnv: d.LookupEnv,
		store:     d.Store,
		archives:  d.Archives,
		encryptor: d.Encryptor,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}

// Analyze runs the full pipeline: version gate, artifact inspection and
// parsing, path resolution, bulk enhancement and journal lookup. Per-item
// failures never abort the run; an error is returned only when the run
// cannot be recorded or the artifact files cannot be read at all.
func (s *Service) Analyze(opts AnalyzeOptions) (*AnalysisResult, error) {
	now := s.clock.Now()
	_, offsetSeconds := now.Zone()
	result := &AnalysisResult{
		RunID:     s.idgen.New(),
		StartedAt: now.UTC(),
		UTCOffset: time.Duration(offsetSeconds) * time.Second,
		Enhanced:  EnhancementMap{},
		Journal:   JournalMap{},
	}
	run := &AnalysisRun{ID: result.RunID, StartedAt: result.StartedAt, Status: RunStatusRunning}

	host, err := s.version.HostVersion()
	if err != nil {
		s.logger.Warn("reading host version failed", "error", err)
	}
	result.Host = host
	run.HostVersion = host.Version

	if s.store != nil {
		if err := s.store.CreateRun(run); err != nil {
			return nil, fmt.Errorf("creating run: %w", err)
		}
	}
	s.logger.Info("analysis started", "run", result.RunID, "host", host.Version, "build", host.Build)

	if host.Unsupported() && !opts.SkipVersionCheck {
		result.Unsupported = true
		s.logger.Warn("host build predates artifact stores", "build", host.Build, "minimum", MinJournalBuild)
		return s.finish(run, result, RunStatusUnsupported)
	}

	if err := s.collect(result); err != nil {
		s.fail(run)
		return nil, err
	}

	NewResolver(s.fs, s.drives, s.lookupEnv, s.logger).Resolve(result.Executions, result.Launches)
	s.logger.Info("paths resolved", "executions", len(result.Executions))

	targets := analysisTargets(result)
	result.Enhanced = EnhanceCollection(s.enhancer, targets, opts.Enhance, opts.Progress)
	s.logger.Info("paths enhanced", "count", len(result.Enhanced))

	if !opts.DisableJournal && s.journal != nil {
		cache := NewJournalCache(s.journal, s.drives, s.logger)
		result.Journal = ApplyJournal(NewJournalEnhancer(cache), targets)
		result.Drives = cache.Statuses()
		s.logger.Info("journal searched", "hits", result.JournalHits())
	}

	return s.finish(run, result, RunStatusComplete)
}

// collect inspects and parses the artifact files.
func (s *Service) collect(result *AnalysisResult) error {
	result.ArtifactDir = s.source.Dir()
	for _, name := range ArtifactFiles {
		result.Files = append(result.Files, s.source.Inspect(name))
	}

	if f, _ := result.File(LaunchDictionaryFile); f.Present {
		launches, err := s.source.ParseLaunches(LaunchDictionaryFile, result.UTCOffset)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", LaunchDictionaryFile, err)
		}
		result.Launches = launches
	}
	for _, name := range []string{GeneralDB0File, GeneralDB1File} {
		if f, _ := result.File(name); !f.Present {
			continue
		}
		execs, err := s.source.ParseExecutions(name, result.UTCOffset)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
		result.Executions = append(result.Executions, execs...)
	}
	s.logger.Info("artifacts parsed", "launches", len(result.Launches), "executions", len(result.Executions))
	return nil
}

func (s *Service) finish(run *AnalysisRun, result *AnalysisResult, status string) (*AnalysisResult, error) {
	result.FinishedAt = s.clock.Now().UTC()
	finished := result.FinishedAt
	run.FinishedAt = &finished
	run.Status = status
	run.ArtifactDir = result.ArtifactDir
	run.LaunchCount = len(result.Launches)
	run.ExecutionCount = len(result.Executions)
	run.EnhancedCount = len(result.Enhanced)
	run.JournalHits = result.JournalHits()

	if s.store != nil {
		if err := s.store.SaveAnalysis(run, result); err != nil {
			return nil, fmt.Errorf("saving analysis: %w", err)
		}
	}
	s.logger.Info("analysis finished", "run", run.ID, "status", status)
	return result, nil
}

func (s *Service) fail(run *AnalysisRun) {
	if s.store == nil {
		return
	}
	finished := s.clock.Now().UTC()
	run.FinishedAt = &finished
	run.Status = RunStatusFailed
	if err := s.store.SaveAnalysis(run, nil); err != nil {
		s.logger.Error("recording failed run", "run", run.ID, "error", err)
	}
}

// analysisTargets returns the launches followed by the executions.
func analysisTargets(result *AnalysisResult) []EnhancementTarget {
	targets := make([]EnhancementTarget, 0, len(result.Launches)+len(result.Executions))
	for _, l := range result.Launches {
		targets = append(targets, l)
	}
	for _, e := range result.Executions {
		targets = append(targets, e)
	}
	return targets
}

// EnhancePaths enhances ad-hoc paths outside of an analysis run.
func (s *Service) EnhancePaths(paths []string, opts EnhanceOptions, progress ProgressFunc) EnhancementMap {
	return s.enhancer.EnhanceBulk(paths, opts, progress)
}

// LookupJournal scans the journals once and looks up each path.
func (s *Service) LookupJournal(paths []string) (JournalMap, []DriveStatus) {
	cache := NewJournalCache(s.journal, s.drives, s.logger)
	return NewJournalEnhancer(cache).LookupBulk(paths), cache.Statuses()
}

// ResolveExecutions parses the artifact stores and resolves the execution
// paths without enhancing them.
func (s *Service) ResolveExecutions() ([]*ExecutionEntry, error) {
	_, offsetSeconds := s.clock.Now().Zone()
	result := &AnalysisResult{UTCOffset: time.Duration(offsetSeconds) * time.Second}
	if err := s.collect(result); err != nil {
		return nil, err
	}
	NewResolver(s.fs, s.drives, s.lookupEnv, s.logger).Resolve(result.Executions, result.Launches)
	return result.Executions, nil
}

// History lists recorded runs, newest first.
func (s *Service) History() ([]*AnalysisRun, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no case store configured")
	}
	runs, err := s.store.ListRuns()
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// SearchMD5 finds stored entries with the given digest across all runs.
func (s *Service) SearchMD5(digest string) ([]*EntryMatch, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no case store configured")
	}
	matches, err := s.store.FindByMD5(strings.ToLower(strings.TrimSpace(digest)))
	if err != nil {
		return nil, fmt.Errorf("searching by md5: %w", err)
	}
	return matches, nil
}
