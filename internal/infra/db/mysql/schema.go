package mysql

import (
	"context"
	"database/sql"
)

// Ordered schema statements; every statement is idempotent so startup
// can run the whole list each time.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS investigation_cases (
		record_id    VARCHAR(255) PRIMARY KEY,
		case_number  BIGINT UNSIGNED NOT NULL UNIQUE,
		subject      VARCHAR(255) NOT NULL,
		requester    VARCHAR(255) NOT NULL,
		status       VARCHAR(16) NOT NULL,
		metadata     TEXT NOT NULL,
		created_at   DATETIME(6) NOT NULL,
		last_updated DATETIME(6) NOT NULL
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
		id    TINYINT PRIMARY KEY,
		value BIGINT UNSIGNED NOT NULL
	);`,
	`INSERT IGNORE INTO case_counter (id, value) VALUES (1, 0);`,
	`CREATE TABLE IF NOT EXISTS schema_info (
		id      TINYINT PRIMARY KEY,
		version INT UNSIGNED NOT NULL
	);`,
	`INSERT IGNORE INTO schema_info (id, version) VALUES (1, 1);`,
	`CREATE TABLE IF NOT EXISTS case_records (
		record_id   VARCHAR(255) PRIMARY KEY,
		owner       VARCHAR(255) NOT NULL,
		title       VARCHAR(512) NOT NULL,
		description TEXT NOT NULL,
		media       VARCHAR(512) NOT NULL DEFAULT '',
		extra       TEXT NOT NULL,
		issued_at   DATETIME(6) NOT NULL,
		updated_at  DATETIME(6) NOT NULL,
		INDEX idx_case_records_owner (owner)
	);`,
	`CREATE TABLE IF NOT EXISTS webhook_audit (
		id          BIGINT AUTO_INCREMENT PRIMARY KEY,
		delivery_id VARCHAR(64) NOT NULL,
		record_id   VARCHAR(255) NOT NULL,
		tag         VARCHAR(32) NOT NULL,
		outcome     VARCHAR(16) NOT NULL,
		message     TEXT,
		archive_url VARCHAR(1024),
		created_at  DATETIME(6) NOT NULL,
		INDEX idx_webhook_audit_record (record_id)
	);`,
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
