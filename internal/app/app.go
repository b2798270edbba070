package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"

	"vortex-go/internal/archive"
	"vortex-go/internal/config"
	"vortex-go/internal/database"
	"vortex-go/internal/encryption"
	vfs "vortex-go/internal/fs"
	"vortex-go/internal/pca"
	"vortex-go/internal/usn"
	"vortex-go/internal/vortex"
)

// Platform holds the host-facing collaborators. Production uses the OS;
// tests substitute in-memory versions.
type Platform struct {
	Fs        afero.Fs
	Drives    vortex.DriveLister
	Version   vortex.VersionChecker
	Opener    usn.Opener // live journal devices; replaced by captures when journal.replay_dir is set
	LookupEnv vortex.LookupEnvFunc
	Stderr    io.Writer
	Clock     vortex.Clock
	IDGen     vortex.IDGenerator
}

// OSPlatform returns the platform of the running host.
func OSPlatform() Platform {
	return Platform{
		Fs:        afero.NewOsFs(),
		Drives:    vfs.NewOSDrives(),
		Version:   vfs.NewOSVersion(),
		Opener:    usn.NewDeviceOpener(),
		LookupEnv: os.LookupEnv,
		Stderr:    os.Stderr,
		Clock:     vortex.RealClock{},
		IDGen:     vortex.UUIDGenerator{},
	}
}

// VortexApp is the application layer between the CLI and vortex.Service.
// It constructs all dependencies from config, exposes high-level operations
// and manages the case store lifecycle on Close.
type VortexApp struct {
	cfg       *config.Config
	platform  Platform
	store     vortex.CaseStore
	archives  []vortex.Archive
	encryptor vortex.Encryptor
	service   *vortex.Service
	op        *Operation
	logger    vortex.Logger
	logFile   io.Closer
}

// NewVortexApp creates a fully wired VortexApp on the OS platform.
// operation names the CLI command being run (e.g. "analyze", "report export").
// The caller must call Close when done.
func NewVortexApp(cfg *config.Config, operation string) (*VortexApp, error) {
	return NewVortexAppOn(cfg, operation, OSPlatform())
}

// NewVortexAppOn creates a VortexApp on the given platform.
func NewVortexAppOn(cfg *config.Config, operation string, p Platform) (*VortexApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if p.Stderr == nil {
		p.Stderr = io.Discard
	}
	if p.Clock == nil {
		p.Clock = vortex.RealClock{}
	}
	if p.LookupEnv == nil {
		p.LookupEnv = os.LookupEnv
	}

	op := NewOperation(operation, p.Clock.Now())
	logger, logFile, err := newLogger(p.Fs, cfg.LogDir, op.ID, p.Stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	closeLog := func() {
		if logFile != nil {
			logFile.Close()
		}
	}

	store, err := database.NewCaseStoreFromConfig(cfg.Database, cfg.CaseID)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("creating case store: %w", err)
	}
	if checker, ok := store.(interface{ CheckMigrations() error }); ok {
		if err := checker.CheckMigrations(); err != nil {
			store.Close()
			closeLog()
			return nil, fmt.Errorf("case store schema out of date: %w", err)
		}
	}

	archives, err := archive.NewArchivesFromConfig(context.Background(), cfg.Archives, p.Fs, p.LookupEnv)
	if err != nil {
		store.Close()
		closeLog()
		return nil, fmt.Errorf("creating archives: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(p.Fs, cfg.Encryption)
	if err != nil {
		store.Close()
		closeLog()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	fsys := vfs.NewFilesystem(p.Fs)
	hasher := &vortex.Hasher{Threshold: cfg.Analysis.SmallFileThreshold, ChunkSize: vortex.DefaultChunkSize}
	pcaDir := vortex.ExpandWindowsEnv(cfg.Analysis.PCADir, p.LookupEnv)

	var journal vortex.JournalReader
	if cfg.Journal.IsEnabled() {
		opener := p.Opener
		if cfg.Journal.ReplayDir != "" {
			opener = usn.NewReplayOpener(p.Fs, cfg.Journal.ReplayDir)
			logger.Info("replaying captured journals", "dir", cfg.Journal.ReplayDir)
		}
		journal = usn.NewReader(opener, cfg.Journal.BufferSize, logger)
	}

	svc := vortex.NewService(vortex.Dependencies{
		Source:    pca.NewSource(fsys, pcaDir, logger),
		Version:   p.Version,
		FS:        fsys,
		Drives:    p.Drives,
		Journal:   journal,
		Enhancer:  vortex.NewEnhancer(fsys, hasher, cfg.Analysis.Workers, logger),
		LookupEnv: p.LookupEnv,
		Store:     store,
		Archives:  archives,
		Encryptor: enc,
		Logger:    logger,
		Clock:     p.Clock,
		IDGen:     p.IDGen,
	})

	return &VortexApp{
		cfg:       cfg,
		platform:  p,
		store:     store,
		archives:  archives,
		encryptor: enc,
		service:   svc,
		op:        op,
		logger:    logger,
		logFile:   logFile,
	}, nil
}

// Service exposes the wired service.
func (a *VortexApp) Service() *vortex.Service {
	return a.service
}

// Operation returns the operation record of this invocation.
func (a *VortexApp) Operation() *Operation {
	return a.op
}

func (a *VortexApp) enhanceOptions() vortex.EnhanceOptions {
	return vortex.EnhanceOptions{
		ComputeHash:    a.cfg.Analysis.HashEnabled(),
		CheckSignature: a.cfg.Analysis.SignatureEnabled(),
	}
}

// Analyze runs a full analysis and records it in the case store.
func (a *VortexApp) Analyze(progress vortex.ProgressFunc) (*vortex.AnalysisResult, error) {
	a.op.MarkMutating()
	result, err := a.service.Analyze(vortex.AnalyzeOptions{
		Enhance:          a.enhanceOptions(),
		SkipVersionCheck: a.cfg.Analysis.SkipVersionCheck,
		DisableJournal:   !a.cfg.Journal.IsEnabled(),
		Progress:         progress,
	})
	if err != nil {
		a.op.Fail()
		return nil, err
	}
	a.op.Parameters = result.RunID
	return result, nil
}

// Enhance snapshots ad-hoc paths.
func (a *VortexApp) Enhance(paths []string, progress vortex.ProgressFunc) vortex.EnhancementMap {
	return a.service.EnhancePaths(paths, a.enhanceOptions(), progress)
}

// LookupJournal searches the change journals for each path.
func (a *VortexApp) LookupJournal(paths []string) (vortex.JournalMap, []vortex.DriveStatus, error) {
	if !a.cfg.Journal.IsEnabled() {
		return nil, nil, fmt.Errorf("journal scanning is disabled in config")
	}
	m, statuses := a.service.LookupJournal(paths)
	return m, statuses, nil
}

// Resolve parses the general database and resolves its paths.
func (a *VortexApp) Resolve() ([]*vortex.ExecutionEntry, error) {
	return a.service.ResolveExecutions()
}

// History returns the recorded runs, newest first.
func (a *VortexApp) History() ([]*vortex.AnalysisRun, error) {
	return a.service.History()
}

// SearchMD5 finds stored entries by digest.
func (a *VortexApp) SearchMD5(digest string) ([]*vortex.EntryMatch, error) {
	return a.service.SearchMD5(digest)
}

// ExportReport stores a run's report in every archive. Reports are
// encrypted whenever keys are configured, unless plain is set.
func (a *VortexApp) ExportReport(runID string, plain bool) (string, error) {
	encrypt := !plain && a.encryptor.IsConfigured()
	return a.service.ExportReport(runID, encrypt)
}

// FetchReport writes a run's report to w. passphrase is only called when
// the stored report is encrypted.
func (a *VortexApp) FetchReport(runID string, w io.Writer, passphrase func() (string, error)) error {
	var dc vortex.DecryptionContext
	if a.service.ReportEncrypted(runID) {
		if !a.encryptor.IsConfigured() {
			return fmt.Errorf("report is encrypted but no keys are configured")
		}
		pass, err := passphrase()
		if err != nil {
			return fmt.Errorf("reading passphrase: %w", err)
		}
		dc, err = a.encryptor.Unlock(pass)
		if err != nil {
			return fmt.Errorf("unlocking private key: %w", err)
		}
	}
	return a.service.FetchReport(runID, w, dc)
}

// InitKeys generates the report encryption key pair.
func (a *VortexApp) InitKeys(passphrase string) error {
	a.op.MarkMutating()
	if err := a.encryptor.Setup(passphrase); err != nil {
		a.op.Fail()
		return fmt.Errorf("generating keys: %w", err)
	}
	a.logger.Info("encryption keys generated")
	return nil
}

// CaptureJournal records the raw journal of drive to outPath for later
// replay. Returns the number of read responses captured.
func (a *VortexApp) CaptureJournal(drive, outPath string) (int, error) {
	ch, err := a.platform.Opener.Open(drive)
	if err != nil {
		return 0, fmt.Errorf("opening volume %s: %w", drive, err)
	}
	defer ch.Close()

	f, err := a.platform.Fs.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("creating capture file: %w", err)
	}
	frames, err := usn.Capture(ch, f, a.cfg.Journal.BufferSize)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing capture file: %w", cerr)
	}
	if err != nil {
		a.platform.Fs.Remove(outPath)
		return 0, err
	}
	a.logger.Info("journal captured", "drive", drive, "frames", frames, "path", outPath)
	return frames, nil
}

// Close finalizes the operation and closes all resources. After a mutating
// operation the case database is snapshotted to every archive.
func (a *VortexApp) Close() error {
	var firstErr error

	if a.op.Mutating() && a.op.Status == StatusSuccess {
		if err := a.snapshotCase(); err != nil {
			a.logger.Warn("case snapshot failed", "error", err)
			firstErr = err
		}
	}

	if err := a.store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing case store: %w", err)
	}

	a.logger.Info("operation finished", "operation", a.op.Name, "status", a.op.Status,
		"elapsed", a.op.Elapsed(a.platform.Clock.Now()))
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// snapshotCase uploads a consistent copy of the case database to each
// archive under <case id>.db. Stores without file backing are skipped.
func (a *VortexApp) snapshotCase() error {
	backup, ok := a.store.(interface{ BackupTo(string) error })
	if !ok || len(a.archives) == 0 || a.cfg.Database.Type != "sqlite" {
		return nil
	}

	tmp, err := os.CreateTemp("", "vortex-case-*.db")
	if err != nil {
		return fmt.Errorf("creating temp file for case snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	os.Remove(tmpPath) // VACUUM INTO requires a new file
	defer os.Remove(tmpPath)

	if err := backup.BackupTo(tmpPath); err != nil {
		return fmt.Errorf("backing up case store: %w", err)
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("opening case snapshot: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat case snapshot: %w", err)
	}

	key := a.cfg.CaseID + ".db"
	for _, ar := range a.archives {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewinding case snapshot: %w", err)
		}
		if err := ar.PutReport(key, f, info.Size()); err != nil {
			return fmt.Errorf("uploading case snapshot to %s: %w", ar.Name(), err)
		}
	}
	a.logger.Info("case snapshot stored", "key", key, "bytes", info.Size())
	return nil
}
