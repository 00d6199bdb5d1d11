// Package storage keeps a history of crawl runs in SQLite: what was
// searched, which seeds were chosen, every page visited and the results.
// History is informational only and never feeds back into a crawl.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/masahif/bgpscope/internal/crawler"
	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

// ErrNoActiveRun is returned when visits or results arrive before BeginRun
var ErrNoActiveRun = errors.New("no active run")

// ErrRunNotFound is returned when a run id does not exist
var ErrRunNotFound = errors.New("run not found")

const timeLayout = time.RFC3339Nano

// SQLiteStorage records runs in a SQLite database
type SQLiteStorage struct {
	db    *sql.DB
	runID int64
}

// RunSummary is one row of the run history
type RunSummary struct {
	ID             int64
	Company        string
	StartedAt      time.Time
	FinishedAt     time.Time // zero while the run is open
	Reason         string
	PagesProcessed int
	Error          string
	AddressRanges  int
	DomainNames    int
}

// NewSQLiteStorage opens (creating if needed) the database at dbPath
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection prevents lock conflicts
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	storage := &SQLiteStorage{db: db}
	if err := storage.InitSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// InitSchema creates the database schema
func (s *SQLiteStorage) InitSchema() error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 30000",
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return s.SetMeta("schema_version", schemaVersion)
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginRun opens a new run; subsequent visits are attached to it
func (s *SQLiteStorage) BeginRun(company string, seeds []string, startedAt time.Time) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(
		"INSERT INTO runs (company, started_at) VALUES (?, ?)",
		company, startedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	if err := insertOrdered(tx, "INSERT INTO run_seeds (run_id, position, url) VALUES (?, ?, ?)", runID, seeds); err != nil {
		return 0, fmt.Errorf("failed to save seeds: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	s.runID = runID
	return runID, nil
}

// RecordVisit stores one crawl loop iteration of the active run
func (s *SQLiteStorage) RecordVisit(v crawler.Visit) error {
	if s.runID == 0 {
		return ErrNoActiveRun
	}

	_, err := s.db.Exec(`
		INSERT INTO page_visits (run_id, seq, url, kind, outcome, message, content_hash, visited_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.runID, v.Seq, v.URL, v.Kind.String(), v.Outcome, v.Message, v.ContentHash, v.VisitedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save visit %s: %w", v.URL, err)
	}
	return nil
}

// FinishRun stores the outcome and results of the active run and closes it
func (s *SQLiteStorage) FinishRun(out *crawler.Outcome, finishedAt time.Time) error {
	if s.runID == 0 {
		return ErrNoActiveRun
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var cause sql.NullString
	if out.Cause != nil {
		cause = sql.NullString{String: out.Cause.Error(), Valid: true}
	}
	if _, err := tx.Exec(`
		UPDATE runs SET finished_at = ?, reason = ?, pages_processed = ?, error = ?
		WHERE id = ?
	`, finishedAt.UTC().Format(timeLayout), out.Reason.String(), out.PagesProcessed, cause, s.runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	if err := insertOrdered(tx, "INSERT INTO address_ranges (run_id, position, cidr) VALUES (?, ?, ?)", s.runID, out.Results.AddressRanges); err != nil {
		return fmt.Errorf("failed to save address ranges: %w", err)
	}
	if err := insertOrdered(tx, "INSERT INTO domain_names (run_id, position, name) VALUES (?, ?, ?)", s.runID, out.Results.DomainNames); err != nil {
		return fmt.Errorf("failed to save domain names: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.runID = 0
	return nil
}

// ListRuns returns the most recent runs first
func (s *SQLiteStorage) ListRuns(limit int) ([]RunSummary, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.company, r.started_at, r.finished_at, r.reason, r.pages_processed, r.error,
			(SELECT COUNT(*) FROM address_ranges a WHERE a.run_id = r.id),
			(SELECT COUNT(*) FROM domain_names d WHERE d.run_id = r.id)
		FROM runs r
		ORDER BY r.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun returns the summary of run id
func (s *SQLiteStorage) GetRun(id int64) (*RunSummary, error) {
	row := s.db.QueryRow(`
		SELECT r.id, r.company, r.started_at, r.finished_at, r.reason, r.pages_processed, r.error,
			(SELECT COUNT(*) FROM address_ranges a WHERE a.run_id = r.id),
			(SELECT COUNT(*) FROM domain_names d WHERE d.run_id = r.id)
		FROM runs r
		WHERE r.id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return run, err
}

// RunResults rebuilds the result set stored for run id
func (s *SQLiteStorage) RunResults(id int64) (*crawler.ResultSet, error) {
	results := crawler.NewResultSet()

	ranges, err := s.orderedValues("SELECT cidr FROM address_ranges WHERE run_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("failed to load address ranges: %w", err)
	}
	for _, cidr := range ranges {
		results.AddAddressRange(cidr)
	}

	names, err := s.orderedValues("SELECT name FROM domain_names WHERE run_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("failed to load domain names: %w", err)
	}
	for _, name := range names {
		results.AddDomainName(name)
	}

	return results, nil
}

// RunVisits returns the visits of run id in loop order
func (s *SQLiteStorage) RunVisits(id int64) ([]crawler.Visit, error) {
	rows, err := s.db.Query(`
		SELECT seq, url, kind, outcome, message, content_hash, visited_at
		FROM page_visits WHERE run_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var visits []crawler.Visit
	for rows.Next() {
		var v crawler.Visit
		var kind, visitedAt string
		var message, hash sql.NullString
		if err := rows.Scan(&v.Seq, &v.URL, &kind, &v.Outcome, &message, &hash, &visitedAt); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		v.Kind = crawler.ParsePageKind(kind)
		v.Message = message.String
		v.ContentHash = hash.String
		if v.VisitedAt, err = time.Parse(timeLayout, visitedAt); err != nil {
			return nil, fmt.Errorf("invalid visit time %q: %w", visitedAt, err)
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// GetMeta retrieves a metadata value
func (s *SQLiteStorage) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM crawl_meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get meta: %w", err)
	}
	return value, nil
}

// SetMeta stores a metadata value
func (s *SQLiteStorage) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO crawl_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set meta: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) orderedValues(query string, id int64) ([]string, error) {
	rows, err := s.db.Query(query, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// insertOrdered inserts values with their index as position
func insertOrdered(tx *sql.Tx, query string, runID int64, values []string) error {
	if len(values) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, v := range values {
		if _, err := stmt.Exec(runID, i, v); err != nil {
			return fmt.Errorf("failed to insert %s: %w", v, err)
		}
	}
	return nil
}

var _ crawler.VisitRecorder = (*SQLiteStorage)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunSummary, error) {
	var run RunSummary
	var startedAt string
	var finishedAt, reason, runErr sql.NullString

	if err := row.Scan(&run.ID, &run.Company, &startedAt, &finishedAt, &reason, &run.PagesProcessed, &runErr,
		&run.AddressRanges, &run.DomainNames); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	var err error
	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, fmt.Errorf("invalid start time %q: %w", startedAt, err)
	}
	if finishedAt.Valid {
		if run.FinishedAt, err = time.Parse(timeLayout, finishedAt.String); err != nil {
			return nil, fmt.Errorf("invalid finish time %q: %w", finishedAt.String, err)
		}
	}
	run.Reason = reason.String
	run.Error = runErr.String
	return &run, nil
}
