package database

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vortex-go/internal/database/migrations"
	"vortex-go/internal/vortex"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const memoryPath = ":memory:"

// SQLiteCaseStore implements vortex.CaseStore using SQLite. The full
// analysis result is kept as a JSON report per run; enhanced entries,
// launch and execution rows and drive statuses are stored alongside it so
// they can be queried across runs.
type SQLiteCaseStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteCaseStore opens the database at path (or ":memory:"), applies
// pending migrations and returns the store.
func NewSQLiteCaseStore(path string) (*SQLiteCaseStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating case database: %w", err)
	}
	return &SQLiteCaseStore{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection with appropriate
// PRAGMAs. An in-memory database is limited to one connection, since each
// new connection would otherwise see its own empty database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == memoryPath {
		db.SetMaxOpenConns(1)
	}

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}
	return db, nil
}

// Run operations

func (s *SQLiteCaseStore) CreateRun(run *vortex.AnalysisRun) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO runs (id, started_at, status, host_version, artifact_dir)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.Status, run.HostVersion, run.ArtifactDir)
	if err != nil {
		return fmt.Errorf("creating run: %w", err)
	}
	return nil
}

// SaveAnalysis updates the run row and, when result is non-nil, replaces
// the stored report and its derived rows in one transaction.
func (s *SQLiteCaseStore) SaveAnalysis(run *vortex.AnalysisRun, result *vortex.AnalysisResult) error {
	ctx := context.Background()

	var report any // NULL keeps the stored report
	if result != nil {
		data, err := vortex.EncodeReport(result)
		if err != nil {
			return err
		}
		report = data
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, status = ?, host_version = ?, artifact_dir = ?,
			launch_count = ?, execution_count = ?, enhanced_count = ?, journal_hits = ?,
			report = COALESCE(?, report)
		WHERE id = ?`,
		nullTime(run.FinishedAt), run.Status, run.HostVersion, run.ArtifactDir,
		run.LaunchCount, run.ExecutionCount, run.EnhancedCount, run.JournalHits,
		report, run.ID)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("updating run: no run with id %s", run.ID)
	}

	if result != nil {
		if err := saveRows(ctx, tx, run.ID, result); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing analysis: %w", err)
	}
	return nil
}

func saveRows(ctx context.Context, tx *sql.Tx, runID string, result *vortex.AnalysisResult) error {
	for _, table := range []string{"enhanced_entries", "launch_entries", "execution_entries", "drive_statuses"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", runID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for key, e := range result.Enhanced {
		entry, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encoding entry %s: %w", e.OriginalPath, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO enhanced_entries (run_id, path_key, path, file_status, md5, entry)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, key, e.OriginalPath, e.FileStatus.String(), e.MD5, string(entry)); err != nil {
			return fmt.Errorf("inserting enhanced entry: %w", err)
		}
	}

	for i, l := range result.Launches {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO launch_entries (run_id, seq, path, last_executed_utc, source_file)
			VALUES (?, ?, ?, ?, ?)`,
			runID, i, l.Path, l.LastExecutedUTC.UTC(), l.SourceFile); err != nil {
			return fmt.Errorf("inserting launch entry: %w", err)
		}
	}

	for i, e := range result.Executions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO execution_entries (run_id, seq, timestamp_utc, path, resolved_path,
				path_status, run_count, process_name, exit_code)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i, e.TimestampUTC.UTC(), e.Path, e.ResolvedPath,
			e.PathStatus.String(), e.RunCount, e.ProcessName, e.ExitCode); err != nil {
			return fmt.Errorf("inserting execution entry: %w", err)
		}
	}

	for _, d := range result.Drives {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO drive_statuses (run_id, drive, status, records) VALUES (?, ?, ?, ?)`,
			runID, d.Drive, d.Status, d.Records); err != nil {
			return fmt.Errorf("inserting drive status: %w", err)
		}
	}
	return nil
}

const runColumns = `id, started_at, finished_at, status, host_version, artifact_dir,
	launch_count, execution_count, enhanced_count, journal_hits`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*vortex.AnalysisRun, error) {
	var (
		run      vortex.AnalysisRun
		finished sql.NullTime
	)
	err := row.Scan(&run.ID, &run.StartedAt, &finished, &run.Status, &run.HostVersion, &run.ArtifactDir,
		&run.LaunchCount, &run.ExecutionCount, &run.EnhancedCount, &run.JournalHits)
	if err != nil {
		return nil, err
	}
	run.StartedAt = run.StartedAt.UTC()
	if finished.Valid {
		t := finished.Time.UTC()
		run.FinishedAt = &t
	}
	return &run, nil
}

func (s *SQLiteCaseStore) ListRuns() ([]*vortex.AnalysisRun, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*vortex.AnalysisRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteCaseStore) FindRun(id string) (*vortex.AnalysisRun, error) {
	row := s.db.QueryRowContext(context.Background(), `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding run: %w", err)
	}
	return run, nil
}

func (s *SQLiteCaseStore) LoadAnalysis(id string) (*vortex.AnalysisResult, error) {
	var report []byte
	err := s.db.QueryRowContext(context.Background(), `SELECT report FROM runs WHERE id = ?`, id).Scan(&report)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("loading analysis: %w", err)
	}
	if report == nil {
		return nil, nil
	}
	return vortex.DecodeReport(bytes.NewReader(report))
}

func (s *SQLiteCaseStore) FindByMD5(digest string) ([]*vortex.EntryMatch, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT e.run_id, r.started_at, e.entry
		FROM enhanced_entries e JOIN runs r ON r.id = e.run_id
		WHERE e.md5 = ? AND e.md5 != ''
		ORDER BY r.started_at DESC, e.path`, digest)
	if err != nil {
		return nil, fmt.Errorf("searching by md5: %w", err)
	}
	defer rows.Close()

	var matches []*vortex.EntryMatch
	for rows.Next() {
		var (
			m     vortex.EntryMatch
			entry string
		)
		if err := rows.Scan(&m.RunID, &m.StartedAt, &entry); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		m.StartedAt = m.StartedAt.UTC()
		m.Entry = &vortex.EnhancedEntry{}
		if err := json.Unmarshal([]byte(entry), m.Entry); err != nil {
			return nil, fmt.Errorf("decoding entry: %w", err)
		}
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteCaseStore) Path() string {
	return s.path
}

// CheckMigrations verifies the schema is up to date.
func (s *SQLiteCaseStore) CheckMigrations() error {
	return migrations.CheckStatus(s.db)
}

// BackupTo writes a consistent copy of the database to destPath using VACUUM INTO.
func (s *SQLiteCaseStore) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteCaseStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// Compile-time check that SQLiteCaseStore implements vortex.CaseStore
var _ vortex.CaseStore = (*SQLiteCaseStore)(nil)
