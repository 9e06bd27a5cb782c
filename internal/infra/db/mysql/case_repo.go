package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	domain "github.com/chainsleuth/casefile-api/internal/domain/cases"
)

type CaseRepository struct {
	db *sql.DB
}

func NewCaseRepository(db *sql.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

// AllocateCaseNumber bumps the single counter row inside a transaction
// so numbers are strictly increasing with no gaps or repeats.
func (r *CaseRepository) AllocateCaseNumber(ctx context.Context) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var value uint64
	if err := tx.QueryRowContext(ctx,
		`SELECT value FROM case_counter WHERE id = 1 FOR UPDATE;`).Scan(&value); err != nil {
		return 0, err
	}
	value++
	if _, err := tx.ExecContext(ctx,
		`UPDATE case_counter SET value = ? WHERE id = 1;`, value); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return value, nil
}

// SaveCase insert/update the case row; metadata holds the full JSON blob
func (r *CaseRepository) SaveCase(ctx context.Context, c *domain.Case) error {
	meta, err := json.Marshal(c)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO investigation_cases
(record_id, case_number, subject, requester, status, metadata, created_at, last_updated)
VALUES (?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 status=VALUES(status),
 metadata=VALUES(metadata),
 last_updated=VALUES(last_updated);
`
	_, err = r.db.ExecContext(ctx, q,
		c.RecordID, c.CaseNumber, c.Subject, c.Requester, c.Status,
		string(meta), c.CreatedAt, c.LastUpdated,
	)
	return err
}

func (r *CaseRepository) GetCase(ctx context.Context, id domain.RecordID) (*domain.Case, error) {
	const q = `SELECT metadata FROM investigation_cases WHERE record_id=? LIMIT 1;`
	return r.scanCase(r.db.QueryRowContext(ctx, q, id), string(id))
}

func (r *CaseRepository) CaseBySubject(ctx context.Context, subject string) (*domain.Case, error) {
	const q = `
SELECT c.metadata
FROM investigated_accounts a
JOIN investigation_cases c ON c.record_id = a.record_id
WHERE a.subject=? LIMIT 1;
`
	return r.scanCase(r.db.QueryRowContext(ctx, q, subject), subject)
}

func (r *CaseRepository) scanCase(row *sql.Row, key string) (*domain.Case, error) {
	var meta string
	if err := row.Scan(&meta); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
		}
		return nil, err
	}
	var c domain.Case
	if err := json.Unmarshal([]byte(meta), &c); err != nil {
		return nil, fmt.Errorf("decoding case %s: %w", key, err)
	}
	return &c, nil
}

func (r *CaseRepository) RegisterSubject(ctx context.Context, subject string, id domain.RecordID) error {
	const q = `
INSERT INTO investigated_accounts (subject, record_id)
VALUES (?,?)
ON DUPLICATE KEY UPDATE record_id=VALUES(record_id);
`
	_, err := r.db.ExecContext(ctx, q, subject, id)
	return err
}

func (r *CaseRepository) PutFailedMint(ctx context.Context, id domain.RecordID, metadata string) error {
	const q = `
INSERT INTO failed_mints (record_id, metadata)
VALUES (?,?)
ON DUPLICATE KEY UPDATE metadata=VALUES(metadata);
`
	_, err := r.db.ExecContext(ctx, q, id, metadata)
	return err
}

func (r *CaseRepository) GetFailedMint(ctx context.Context, id domain.RecordID) (string, error) {
	const q = `SELECT metadata FROM failed_mints WHERE record_id=? LIMIT 1;`
	var meta string
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&meta); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: no failed mint for %s", domain.ErrNotFound, id)
		}
		return "", err
	}
	return meta, nil
}

func (r *CaseRepository) DeleteFailedMint(ctx context.Context, id domain.RecordID) error {
	const q = `DELETE FROM failed_mints WHERE record_id=?;`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// Paginate with offset + limit (classic pagination)
func (r *CaseRepository) Paginate(ctx context.Context, page, pageSize int) (domain.PaginatedResult, error) {
	page, pageSize = domain.ClampPage(page, pageSize)
	offset := (page - 1) * pageSize

	const q = `
SELECT metadata FROM investigation_cases
ORDER BY case_number ASC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying cases: %w", err)
	}
	defer rows.Close()

	var out []*domain.Case
	for rows.Next() {
		var meta string
		if err := rows.Scan(&meta); err != nil {
			return domain.PaginatedResult{}, fmt.Errorf("scanning row: %w", err)
		}
		var c domain.Case
		if err := json.Unmarshal([]byte(meta), &c); err != nil {
			return domain.PaginatedResult{}, fmt.Errorf("decoding case: %w", err)
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("iterating rows: %w", err)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM investigation_cases;`).Scan(&total); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("getting total count: %w", err)
	}

	return domain.PaginatedResult{
		Data:       out,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

func (r *CaseRepository) SchemaVersion(ctx context.Context) (uint32, error) {
	var v uint32
	if err := r.db.QueryRowContext(ctx,
		`SELECT version FROM schema_info WHERE id = 1;`).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

func (r *CaseRepository) SetSchemaVersion(ctx context.Context, v uint32) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE schema_info SET version = ? WHERE id = 1;`, v)
	return err
}
