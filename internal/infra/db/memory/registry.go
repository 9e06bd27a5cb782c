package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/chainsleuth/casefile-api/internal/domain/cases"
)

// Registry is an in-process record registry. It enforces the same
// contract the external one does: one owner per record, ids never
// reused, ownership moved only by transfer.
type Registry struct {
	mu      sync.RWMutex
	records map[domain.RecordID]*domain.Record
	owners  map[string][]domain.RecordID
}

func NewRegistry() *Registry {
	return &Registry{
		records: make(map[domain.RecordID]*domain.Record),
		owners:  make(map[string][]domain.RecordID),
	}
}

func (r *Registry) Mint(ctx context.Context, rec domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[rec.ID]; exists {
		return fmt.Errorf("record already exists: %s", rec.ID)
	}
	cp := rec
	r.records[rec.ID] = &cp
	r.owners[rec.Owner] = append(r.owners[rec.Owner], rec.ID)
	return nil
}

func (r *Registry) Get(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *Registry) UpdateMetadata(ctx context.Context, id domain.RecordID, description, extra string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return fmt.Errorf("record not found: %s", id)
	}
	rec.Description = description
	rec.Extra = extra
	return nil
}

func (r *Registry) Transfer(ctx context.Context, sender, receiver string, id domain.RecordID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return fmt.Errorf("record not found: %s", id)
	}
	if rec.Owner != sender {
		return fmt.Errorf("sender %q is not the owner of %s", sender, id)
	}
	r.owners[sender] = removeID(r.owners[sender], id)
	rec.Owner = receiver
	r.owners[receiver] = append(r.owners[receiver], id)
	return nil
}

func (r *Registry) ResolveTransfer(ctx context.Context, previousOwner, receiver string, id domain.RecordID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return false, fmt.Errorf("record not found: %s", id)
	}
	// Receiver kept the record; nothing to roll back.
	if rec.Owner == receiver {
		return false, nil
	}
	// Receiver returned it (or never accepted); restore the previous owner.
	r.owners[rec.Owner] = removeID(r.owners[rec.Owner], id)
	rec.Owner = previousOwner
	r.owners[previousOwner] = append(r.owners[previousOwner], id)
	return true, nil
}

func (r *Registry) Tokens(ctx context.Context, from, limit int) ([]*domain.Record, error) {
	r.mu.RLock()
	all := make([]*domain.Record, 0, len(r.records))
	for _, rec := range r.records {
		cp := *rec
		all = append(all, &cp)
	}
	r.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, from, limit), nil
}

func (r *Registry) TokensForOwner(ctx context.Context, owner string, from, limit int) ([]*domain.Record, error) {
	r.mu.RLock()
	ids := append([]domain.RecordID(nil), r.owners[owner]...)
	out := make([]*domain.Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := r.records[id]; ok {
			cp := *rec
			out = append(out, &cp)
		}
	}
	r.mu.RUnlock()
	return window(out, from, limit), nil
}

func (r *Registry) TotalSupply(ctx context.Context) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint64(len(r.records)), nil
}

func removeID(ids []domain.RecordID, id domain.RecordID) []domain.RecordID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func window(recs []*domain.Record, from, limit int) []*domain.Record {
	if limit <= 0 || limit > domain.MaxPageSize {
		limit = domain.MaxPageSize
	}
	if from < 0 {
		from = 0
	}
	if from > len(recs) {
		from = len(recs)
	}
	end := from + limit
	if end > len(recs) {
		end = len(recs)
	}
	return recs[from:end]
}
