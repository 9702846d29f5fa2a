package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    completed_at TEXT NOT NULL,
    pass_criterion TEXT NOT NULL,
    mode TEXT NOT NULL,
    total INTEGER NOT NULL,
    pass_count INTEGER NOT NULL,
    fail_count INTEGER NOT NULL,
    payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at);
`

// timeLayout has a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteArchive stores completed runs in a SQLite database.
type SQLiteArchive struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the archive database at path.
func OpenSQLite(path string) (*SQLiteArchive, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	// a single connection serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA encoding = 'UTF-8'"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure sqlite store: %w", err)
	}
	if _, err := db.Exec(createRunsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create runs table: %w", err)
	}

	return &SQLiteArchive{db: db}, nil
}

// Save inserts or replaces run.
func (a *SQLiteArchive) Save(ctx context.Context, run *Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	info := run.Info()
	_, err = a.db.ExecContext(ctx, `
INSERT INTO runs (id, created_at, completed_at, pass_criterion, mode, total, pass_count, fail_count, payload)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    completed_at=excluded.completed_at,
    mode=excluded.mode,
    pass_count=excluded.pass_count,
    fail_count=excluded.fail_count,
    payload=excluded.payload;
`,
		info.ID,
		formatTime(info.CreatedAt),
		formatTime(info.CompletedAt),
		info.PassCriterion,
		string(info.Mode),
		info.Total,
		info.PassCount,
		info.FailCount,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// Get loads the run with the given id.
func (a *SQLiteArchive) Get(ctx context.Context, id string) (*Run, error) {
	var payload string
	err := a.db.QueryRowContext(ctx, "SELECT payload FROM runs WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	run := &Run{}
	if err := json.Unmarshal([]byte(payload), run); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", id, err)
	}
	return run, nil
}

// List returns up to limit archived runs, newest first. A non-positive limit lists all.
func (a *SQLiteArchive) List(ctx context.Context, limit int) ([]Info, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := a.db.QueryContext(ctx, `
SELECT id, created_at, completed_at, pass_criterion, mode, total, pass_count, fail_count
FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var (
			info               Info
			created, completed string
			mode               string
		)
		if err := rows.Scan(&info.ID, &created, &completed, &info.PassCriterion, &mode,
			&info.Total, &info.PassCount, &info.FailCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		info.CreatedAt = parseTime(created)
		info.CompletedAt = parseTime(completed)
		info.Mode = Mode(mode)
		info.Status = StatusCompleted
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return infos, nil
}

// Close closes the database.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
