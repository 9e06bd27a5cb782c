package sqlite

import (
	"context"
	"database/sql"
)

// Ordered schema statements; every statement is idempotent so startup
// can run the whole list each time.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS investigation_cases (
		record_id    TEXT PRIMARY KEY,
		case_number  INTEGER NOT NULL UNIQUE,
		subject      TEXT NOT NULL,
		requester    TEXT NOT NULL,
		status       TEXT NOT NULL,
		metadata     TEXT NOT NULL,
		created_at   TIMESTAMP NOT NULL,
		last_updated TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS investigated_accounts (
		subject   TEXT PRIMARY KEY,
		record_id TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS failed_mints (
		record_id TEXT PRIMARY KEY,
		metadata  TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS case_counter (
		id    INTEGER PRIMARY KEY,
		value INTEGER NOT NULL
	);`,
	`INSERT OR IGNORE INTO case_counter (id, value) VALUES (1, 0);`,
	`CREATE TABLE IF NOT EXISTS schema_info (
		id      INTEGER PRIMARY KEY,
		version INTEGER NOT NULL
	);`,
	`INSERT OR IGNORE INTO schema_info (id, version) VALUES (1, 1);`,
	`CREATE TABLE IF NOT EXISTS case_records (
		record_id   TEXT PRIMARY KEY,
		owner       TEXT NOT NULL,
		title       TEXT NOT NULL,
		description TEXT NOT NULL,
		media       TEXT NOT NULL DEFAULT '',
		extra       TEXT NOT NULL,
		issued_at   TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_case_records_owner ON case_records (owner);`,
	`CREATE TABLE IF NOT EXISTS webhook_audit (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		delivery_id TEXT NOT NULL,
		record_id   TEXT NOT NULL,
		tag         TEXT NOT NULL,
		outcome     TEXT NOT NULL,
		message     TEXT,
		archive_url TEXT,
		created_at  TIMESTAMP NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_webhook_audit_record ON webhook_audit (record_id);`,
}

// EnsureSchema creates all tables and seed rows.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
