package memory

import (
	"context"
	"sync"

	"github.com/chainsleuth/casefile-api/internal/domain/audit"
)

type AuditRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  []*audit.Delivery
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Save(ctx context.Context, d *audit.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *d
	cp.ID = r.nextID
	r.items = append(r.items, &cp)
	return nil
}

func (r *AuditRepository) ListByRecord(ctx context.Context, recordID string, limit int) ([]*audit.Delivery, error) {
	if limit <= 0 {
		limit = 50
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*audit.Delivery
	// newest first
	for i := len(r.items) - 1; i >= 0 && len(out) < limit; i-- {
		if r.items[i].RecordID == recordID {
			cp := *r.items[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}
