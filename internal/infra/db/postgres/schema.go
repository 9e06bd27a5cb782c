package postgres

import (
	"context"
	"database/sql"
)

// Ordered schema statements; every statement is idempotent so startup
// can run the whole list each time.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS investigation_cases (
		record_id    VARCHAR(255) PRIMARY KEY,
		case_number  BIGINT NOT NULL UNIQUE,
		subject      VARCHAR(255) NOT NULL,
		requester    VARCHAR(255) NOT NULL,
		status       VARCHAR(16) NOT NULL,
		metadata     TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		last_updated TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS investigated_accounts (
		subject   VARCHAR(255) PRIMARY KEY,
		record_id VARCHAR(255) NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS failed_mints (
		record_id VARCHAR(255) PRIMARY KEY,
		metadata  TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS case_counter (
		id    SMALLINT PRIMARY KEY,
		value BIGINT NOT NULL
	);`,
	`INSERT INTO case_counter (id, value) VALUES (1, 0) ON CONFLICT (id) DO NOTHING;`,
	`CREATE TABLE IF NOT EXISTS schema_info (
		id      SMALLINT PRIMARY KEY,
		version INT NOT NULL
	);`,
	`INSERT INTO schema_info (id, version) VALUES (1, 1) ON CONFLICT (id) DO NOTHING;`,
	`CREATE TABLE IF NOT EXISTS case_records (
		record_id   VARCHAR(255) PRIMARY KEY,
		owner       VARCHAR(255) NOT NULL,
		title       VARCHAR(512) NOT NULL,
		description TEXT NOT NULL,
		media       VARCHAR(512) NOT NULL DEFAULT '',
		extra       TEXT NOT NULL,
		issued_at   TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_case_records_owner ON case_records (owner);`,
	`CREATE TABLE IF NOT EXISTS webhook_audit (
		id          BIGSERIAL PRIMARY KEY,
		delivery_id VARCHAR(64) NOT NULL,
		record_id   VARCHAR(255) NOT NULL,
		tag         VARCHAR(32) NOT NULL,
		outcome     VARCHAR(16) NOT NULL,
		message     TEXT,
		archive_url VARCHAR(1024),
		created_at  TIMESTAMPTZ NOT NULL
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
