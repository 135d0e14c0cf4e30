// Package history persists request outcomes to SQLite so operators can
// inspect what the bot has been asked to download. It is an operational log,
// not a queue: nothing is ever read back into the request path.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/RakhmaMed/Downloader-Bot/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements domain.HistoryStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection: SQLite handles one writer at a time anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS requests (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		url         TEXT NOT NULL,
		chat_id     TEXT NOT NULL,
		outcome     TEXT NOT NULL,
		bytes       INTEGER DEFAULT 0,
		error       TEXT,
		duration_ms INTEGER DEFAULT 0,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_requests_time ON requests(created_at);
	CREATE INDEX IF NOT EXISTS idx_requests_outcome ON requests(outcome);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record inserts one completed request.
func (s *SQLiteStore) Record(ctx context.Context, rec domain.RequestRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO requests (url, chat_id, outcome, bytes, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.URL, rec.ChatID, string(rec.Outcome), rec.Bytes, rec.Error,
		rec.Duration.Milliseconds(), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record request: %w", err)
	}
	return nil
}

// Recent returns the most recent requests, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]domain.RequestRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, chat_id, outcome, bytes, error, duration_ms, created_at
		 FROM requests ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var out []domain.RequestRecord
	for rows.Next() {
		var rec domain.RequestRecord
		var outcome string
		var errText sql.NullString
		var durationMs int64
		if err := rows.Scan(&rec.ID, &rec.URL, &rec.ChatID, &outcome, &rec.Bytes,
			&errText, &durationMs, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		rec.Outcome = domain.Outcome(outcome)
		rec.Error = errText.String
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Summary returns request counts grouped by outcome.
func (s *SQLiteStore) Summary(ctx context.Context) (map[domain.Outcome]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT outcome, COUNT(*) FROM requests GROUP BY outcome`,
	)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.Outcome]int64)
	for rows.Next() {
		var outcome string
		var count int64
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out[domain.Outcome(outcome)] = count
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
