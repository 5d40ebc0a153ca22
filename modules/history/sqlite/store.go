// Package sqlite persists check outcomes in a local SQLite database using
// modernc.org/sqlite (pure Go, no CGO).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration

	"github.com/Rajat069/leetcode-reminder-bot/internal/check"
	"github.com/Rajat069/leetcode-reminder-bot/internal/cron"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

// Compile-time interface guards.
var (
	_ check.HistoryRecorder = (*Store)(nil)
	_ cron.HistoryPruner    = (*Store)(nil)
)

// maxRecent caps Recent queries.
const maxRecent = 1000

// Store is the check history store.
type Store struct {
	db *sql.DB
}

// Open opens the database at cfg.Path, creating the parent directory when
// needed, and migrates the schema. The connection pool is limited to one
// connection since SQLite serialises writes.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return nil, errors.New("sqlite: path is required")
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(1)

	if cfg.walEnabled() {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.BusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: set busy_timeout: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Stop implements core.Stopper.
func (s *Store) Stop(_ context.Context) error {
	return s.Close()
}

// Record implements check.HistoryRecorder.
func (s *Store) Record(ctx context.Context, rec potd.CheckRecord) error {
	if !rec.Outcome.Valid() {
		return fmt.Errorf("sqlite: invalid outcome %q", rec.Outcome)
	}
	if rec.CheckedAt.IsZero() {
		rec.CheckedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checks (run_id, user_id, username, slug, outcome, detail, trigger_by, checked_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.UserID, rec.Username, rec.Slug, string(rec.Outcome), rec.Detail, rec.Trigger,
		formatTime(rec.CheckedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert check: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. username filters the
// results when non-empty.
func (s *Store) Recent(ctx context.Context, username string, limit int) ([]potd.CheckRecord, error) {
	if limit <= 0 || limit > maxRecent {
		limit = maxRecent
	}

	query := `SELECT run_id, user_id, username, slug, outcome, detail, trigger_by, checked_at
		FROM checks`
	args := []any{}
	if username != "" {
		query += ` WHERE username = ?`
		args = append(args, username)
	}
	query += ` ORDER BY checked_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query checks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []potd.CheckRecord
	for rows.Next() {
		var (
			rec       potd.CheckRecord
			outcome   string
			checkedAt string
		)
		if err := rows.Scan(&rec.RunID, &rec.UserID, &rec.Username, &rec.Slug, &outcome, &rec.Detail, &rec.Trigger, &checkedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan check: %w", err)
		}
		rec.Outcome = potd.Outcome(outcome)
		if rec.CheckedAt, err = time.Parse(time.RFC3339Nano, checkedAt); err != nil {
			return nil, fmt.Errorf("sqlite: parse checked_at %q: %w", checkedAt, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate checks: %w", err)
	}
	return out, nil
}

// Prune implements cron.HistoryPruner.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM checks WHERE checked_at < ?`, formatTime(before))
	if err != nil {
		return 0, fmt.Errorf("sqlite: prune checks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: prune rows affected: %w", err)
	}
	return n, nil
}

// formatTime renders t in UTC with a fixed-width fraction so that string
// comparison matches chronological order.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}
