// File path: internal/audit/store.go
package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/docflow-io/docflow/internal/common"
)

const busyTimeoutMillis = 5000

const schema = `
CREATE TABLE IF NOT EXISTS processing_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_id TEXT NOT NULL,
    file_name TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL,
    confidence REAL NOT NULL,
    stage TEXT NOT NULL,
    route TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_processing_history_file ON processing_history(file_id);
CREATE INDEX IF NOT EXISTS idx_processing_history_created ON processing_history(created_at);
`

// Entry is one processed file in the audit catalog.
type Entry struct {
	ID         int64     `db:"id" json:"id"`
	FileID     string    `db:"file_id" json:"file_id"`
	FileName   string    `db:"file_name" json:"file_name,omitempty"`
	Category   string    `db:"category" json:"category"`
	Confidence float64   `db:"confidence" json:"confidence"`
	Stage      string    `db:"stage" json:"stage"`
	Route      string    `db:"route" json:"route"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Store is the sqlite-backed processing catalog. Every file the pipeline
// finishes gets one row, whatever route it took.
type Store struct {
	db *sqlx.DB
}

// Open creates or opens the catalog at path and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("audit: create db dir: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("audit: resolve db path: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", abs, busyTimeoutMillis)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: open db: %w", err)
	}
	// modernc sqlite serializes writes; one connection avoids lock churn.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: migrate: %w", err)
	}
	common.Logger().Info("audit: catalog opened", "path", abs)
	return &Store{db: db}, nil
}

// Record inserts one processed-file row.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO processing_history
        (file_id, file_name, category, confidence, stage, route, created_at)
        VALUES (:file_id, :file_name, :category, :confidence, :stage, :route, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, query, e); err != nil {
		return fmt.Errorf("audit: record %s: %w", e.FileID, err)
	}
	return nil
}

// Recent returns the newest entries, newest first, capped at limit.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []Entry
	const query = `SELECT id, file_id, file_name, category, confidence, stage, route, created_at
        FROM processing_history ORDER BY created_at DESC, id DESC LIMIT ?`
	if err := s.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("audit: recent: %w", err)
	}
	return entries, nil
}

// ByFile returns all entries for one file, newest first.
func (s *Store) ByFile(ctx context.Context, fileID string) ([]Entry, error) {
	var entries []Entry
	const query = `SELECT id, file_id, file_name, category, confidence, stage, route, created_at
        FROM processing_history WHERE file_id = ? ORDER BY created_at DESC, id DESC`
	if err := s.db.SelectContext(ctx, &entries, query, fileID); err != nil {
		return nil, fmt.Errorf("audit: by file %s: %w", fileID, err)
	}
	return entries, nil
}

// Count returns the number of catalog rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM processing_history`); err != nil {
		return 0, fmt.Errorf("audit: count: %w", err)
	}
	return n, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
