package audit

import "context"

// Repository defines persistence for webhook deliveries
type Repository interface {
	Save(ctx context.Context, d *Delivery) error
	ListByRecord(ctx context.Context, recordID string, limit int) ([]*Delivery, error)
}
