package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/chainsleuth/casefile-api/internal/domain/cases"
)

// RecordRepository is the DB-backed record registry: authoritative for
// ownership and for the last-written metadata blob.
type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) Mint(ctx context.Context, rec domain.Record) error {
	const q = `
INSERT INTO case_records
(record_id, owner, title, description, media, extra, issued_at, updated_at)
VALUES (?,?,?,?,?,?,?,?);
`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.Owner, rec.Title, rec.Description, rec.Media, rec.Extra,
		rec.IssuedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("minting %s: %w", rec.ID, err)
	}
	return nil
}

func (r *RecordRepository) Get(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	const q = `
SELECT record_id, owner, title, description, media, extra, issued_at, updated_at
FROM case_records WHERE record_id=? LIMIT 1;
`
	var rec domain.Record
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&rec.ID, &rec.Owner, &rec.Title, &rec.Description, &rec.Media, &rec.Extra,
		&rec.IssuedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *RecordRepository) UpdateMetadata(ctx context.Context, id domain.RecordID, description, extra string) error {
	const q = `
UPDATE case_records
SET description = ?, extra = ?, updated_at = NOW(6)
WHERE record_id = ?;
`
	res, err := r.db.ExecContext(ctx, q, description, extra, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("record not found: %s", id)
	}
	return nil
}

func (r *RecordRepository) Transfer(ctx context.Context, sender, receiver string, id domain.RecordID) error {
	const q = `
UPDATE case_records SET owner = ? WHERE record_id = ? AND owner = ?;
`
	res, err := r.db.ExecContext(ctx, q, receiver, id, sender)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("sender %q is not the owner of %s", sender, id)
	}
	return nil
}

func (r *RecordRepository) ResolveTransfer(ctx context.Context, previousOwner, receiver string, id domain.RecordID) (bool, error) {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, fmt.Errorf("record not found: %s", id)
	}
	if rec.Owner == receiver {
		return false, nil
	}
	const q = `UPDATE case_records SET owner = ? WHERE record_id = ?;`
	if _, err := r.db.ExecContext(ctx, q, previousOwner, id); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RecordRepository) Tokens(ctx context.Context, from, limit int) ([]*domain.Record, error) {
	if limit <= 0 || limit > domain.MaxPageSize {
		limit = domain.MaxPageSize
	}
	const q = `
SELECT record_id, owner, title, description, media, extra, issued_at, updated_at
FROM case_records ORDER BY record_id ASC LIMIT ? OFFSET ?;
`
	return r.queryRecords(ctx, q, limit, from)
}

func (r *RecordRepository) TokensForOwner(ctx context.Context, owner string, from, limit int) ([]*domain.Record, error) {
	if limit <= 0 || limit > domain.MaxPageSize {
		limit = domain.MaxPageSize
	}
	const q = `
SELECT record_id, owner, title, description, media, extra, issued_at, updated_at
FROM case_records WHERE owner=? ORDER BY record_id ASC LIMIT ? OFFSET ?;
`
	return r.queryRecords(ctx, q, owner, limit, from)
}

func (r *RecordRepository) TotalSupply(ctx context.Context) (uint64, error) {
	var n uint64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM case_records;`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *RecordRepository) queryRecords(ctx context.Context, q string, args ...any) ([]*domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(
			&rec.ID, &rec.Owner, &rec.Title, &rec.Description, &rec.Media, &rec.Extra,
			&rec.IssuedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
