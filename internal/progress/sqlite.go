package progress

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS goal_progress (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	goal_id TEXT NOT NULL,
	progress INTEGER NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_goal_progress_goal ON goal_progress(goal_id, recorded_at);
`

// SQLiteStore keeps records in a local SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Record(ctx context.Context, r Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goal_progress (goal_id, progress, note, recorded_at) VALUES (?, ?, ?, ?)`,
		r.GoalID, r.Progress, r.Note, r.RecordedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert progress: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Latest(ctx context.Context, goalID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT goal_id, progress, note, recorded_at FROM goal_progress
		 WHERE goal_id = ? ORDER BY recorded_at DESC, id DESC LIMIT 1`, goalID)

	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest progress: %w", err)
	}
	return &r, nil
}

func (s *SQLiteStore) History(ctx context.Context, goalID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT goal_id, progress, note, recorded_at FROM goal_progress
		 WHERE goal_id = ? ORDER BY recorded_at ASC, id ASC`, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress history: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Forget(ctx context.Context, goalID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM goal_progress WHERE goal_id = ?`, goalID); err != nil {
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		r  Record
		ns int64
	)
	if err := sc.Scan(&r.GoalID, &r.Progress, &r.Note, &ns); err != nil {
		return Record{}, err
	}
	r.RecordedAt = time.Unix(0, ns).UTC()
	return r, nil
}
