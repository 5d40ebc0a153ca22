package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS checks (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id     TEXT    NOT NULL,
		user_id    TEXT    NOT NULL DEFAULT '',
		username   TEXT    NOT NULL,
		slug       TEXT    NOT NULL DEFAULT '',
		outcome    TEXT    NOT NULL,
		detail     TEXT    NOT NULL DEFAULT '',
		trigger_by TEXT    NOT NULL DEFAULT '',
		checked_at TEXT    NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_checks_checked_at ON checks(checked_at)`,

	`CREATE INDEX IF NOT EXISTS idx_checks_username ON checks(username, checked_at)`,
}

// migrate creates or updates the database schema to the latest version.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w\nstatement: %s", err, stmt)
		}
	}
	if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}
	return tx.Commit()
}
