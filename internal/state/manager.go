package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DBFileName is the run history database inside the state directory
const DBFileName = "mistergen.db"

// Status is the outcome of one generation run
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial" // completed with warnings
	StatusFailed  Status = "failed"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusSuccess, StatusPartial, StatusFailed:
		return true
	}
	return false
}

// StatusOf derives the run status from its outcome
func StatusOf(warnings int, err error) Status {
	switch {
	case err != nil:
		return StatusFailed
	case warnings > 0:
		return StatusPartial
	default:
		return StatusSuccess
	}
}

// Manager handles run history persistence
type Manager struct {
	db *sql.DB
}

// RunRecord represents a single generation run
type RunRecord struct {
	ID          int64
	RunID       string
	Roots       []string
	OutputDir   string
	StartTime   time.Time
	EndTime     time.Time
	Status      Status
	Launchers   int
	DirsVisited int
	DirsSkipped int
	Excluded    int
	Warnings    int
	Error       string
}

// Duration returns how long the run took
func (r RunRecord) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// NewManager opens (or creates) the history database under dataDir
func NewManager(dataDir string) (*Manager, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dataDir, DBFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection avoids "database is locked" between writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	manager := &Manager{db: db}
	if err := manager.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return manager, nil
}

func (m *Manager) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		roots TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		status TEXT NOT NULL,
		launchers INTEGER DEFAULT 0,
		dirs_visited INTEGER DEFAULT 0,
		dirs_skipped INTEGER DEFAULT 0,
		excluded INTEGER DEFAULT 0,
		warnings INTEGER DEFAULT 0,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_time ON runs(start_time DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
	`

	_, err := m.db.Exec(schema)
	return err
}

// SaveRun records a generation run
func (m *Manager) SaveRun(record RunRecord) error {
	if !record.Status.IsValid() {
		return fmt.Errorf("invalid status: %s (must be 'success', 'partial', or 'failed')", record.Status)
	}
	if record.RunID == "" {
		return fmt.Errorf("run id cannot be empty")
	}

	roots, err := json.Marshal(record.Roots)
	if err != nil {
		return fmt.Errorf("failed to encode roots: %w", err)
	}

	query := `
		INSERT INTO runs (run_id, roots, output_dir, start_time, end_time, status,
			launchers, dirs_visited, dirs_skipped, excluded, warnings, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = m.db.Exec(query,
		record.RunID,
		string(roots),
		record.OutputDir,
		record.StartTime,
		record.EndTime,
		string(record.Status),
		record.Launchers,
		record.DirsVisited,
		record.DirsSkipped,
		record.Excluded,
		record.Warnings,
		record.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save run record: %w", err)
	}

	return nil
}

const selectRuns = `
	SELECT id, run_id, roots, output_dir, start_time, end_time, status,
		launchers, dirs_visited, dirs_skipped, excluded, warnings, error
	FROM runs
`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var (
		record RunRecord
		roots  string
		status string
		errMsg sql.NullString
	)
	err := row.Scan(
		&record.ID,
		&record.RunID,
		&roots,
		&record.OutputDir,
		&record.StartTime,
		&record.EndTime,
		&status,
		&record.Launchers,
		&record.DirsVisited,
		&record.DirsSkipped,
		&record.Excluded,
		&record.Warnings,
		&errMsg,
	)
	if err != nil {
		return RunRecord{}, err
	}
	if err := json.Unmarshal([]byte(roots), &record.Roots); err != nil {
		return RunRecord{}, fmt.Errorf("invalid roots column: %w", err)
	}
	record.Status = Status(status)
	record.Error = errMsg.String
	return record, nil
}

// GetHistory retrieves the most recent runs, newest first
func (m *Manager) GetHistory(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := m.db.Query(selectRuns+"ORDER BY start_time DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

// GetRun retrieves one run by its run id, or nil if unknown
func (m *Manager) GetRun(runID string) (*RunRecord, error) {
	record, err := scanRun(m.db.QueryRow(selectRuns+"WHERE run_id = ?", runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return &record, nil
}

// GetLastSuccess retrieves the last run that completed without warnings,
// or nil if there is none
func (m *Manager) GetLastSuccess() (*RunRecord, error) {
	record, err := scanRun(m.db.QueryRow(selectRuns+"WHERE status = 'success' ORDER BY start_time DESC LIMIT 1"))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last success: %w", err)
	}
	return &record, nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
