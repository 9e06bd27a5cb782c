package mysql

import (
	"context"
	"database/sql"

	"github.com/chainsleuth/casefile-api/internal/domain/audit"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Save(ctx context.Context, d *audit.Delivery) error {
	const q = `
INSERT INTO webhook_audit
(delivery_id, record_id, tag, outcome, message, archive_url, created_at)
VALUES (?,?,?,?,?,?,?);
`
	res, err := r.db.ExecContext(ctx, q,
		d.DeliveryID, d.RecordID, d.Tag, string(d.Outcome), d.Message, d.ArchiveURL, d.CreatedAt,
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		d.ID = id
	}
	return nil
}

func (r *AuditRepository) ListByRecord(ctx context.Context, recordID string, limit int) ([]*audit.Delivery, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, delivery_id, record_id, tag, outcome, message, archive_url, created_at
FROM webhook_audit WHERE record_id=? ORDER BY id DESC LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, recordID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*audit.Delivery
	for rows.Next() {
		var d audit.Delivery
		if err := rows.Scan(
			&d.ID, &d.DeliveryID, &d.RecordID, &d.Tag, &d.Outcome,
			&d.Message, &d.ArchiveURL, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}
