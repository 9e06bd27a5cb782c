// Package memory holds the in-process backend: one mutable structure
// owning the counter, the subject index, the case map, the failed-mint
// buffer and the schema version. It backs tests and the zero-dependency
// dev deployment.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	domain "github.com/chainsleuth/casefile-api/internal/domain/cases"
)

type Store struct {
	mu          sync.RWMutex
	counter     uint64
	subjects    map[string]domain.RecordID
	cases       map[domain.RecordID]*domain.Case
	failedMints map[domain.RecordID]string
	version     uint32
}

func NewStore() *Store {
	return &Store{
		subjects:    make(map[string]domain.RecordID),
		cases:       make(map[domain.RecordID]*domain.Case),
		failedMints: make(map[domain.RecordID]string),
		version:     1,
	}
}

func (s *Store) AllocateCaseNumber(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return s.counter, nil
}

func (s *Store) SaveCase(ctx context.Context, c *domain.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.cases[c.RecordID] = &cp
	return nil
}

func (s *Store) GetCase(ctx context.Context, id domain.RecordID) (*domain.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	cp := *c
	return &cp, nil
}

func (s *Store) CaseBySubject(ctx context.Context, subject string) (*domain.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.subjects[subject]
	if !ok {
		return nil, fmt.Errorf("%w: no case for %s", domain.ErrNotFound, subject)
	}
	c, ok := s.cases[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	cp := *c
	return &cp, nil
}

func (s *Store) RegisterSubject(ctx context.Context, subject string, id domain.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects[subject] = id
	return nil
}

func (s *Store) PutFailedMint(ctx context.Context, id domain.RecordID, metadata string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedMints[id] = metadata
	return nil
}

func (s *Store) GetFailedMint(ctx context.Context, id domain.RecordID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.failedMints[id]
	if !ok {
		return "", fmt.Errorf("%w: no failed mint for %s", domain.ErrNotFound, id)
	}
	return m, nil
}

func (s *Store) DeleteFailedMint(ctx context.Context, id domain.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failedMints, id)
	return nil
}

func (s *Store) Paginate(ctx context.Context, page, pageSize int) (domain.PaginatedResult, error) {
	page, pageSize = domain.ClampPage(page, pageSize)

	s.mu.RLock()
	all := make([]*domain.Case, 0, len(s.cases))
	for _, c := range s.cases {
		cp := *c
		all = append(all, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CaseNumber < all[j].CaseNumber })

	total := int64(len(all))
	start := (page - 1) * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}

	return domain.PaginatedResult{
		Data:       all[start:end],
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

func (s *Store) SchemaVersion(ctx context.Context) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version, nil
}

func (s *Store) SetSchemaVersion(ctx context.Context, v uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = v
	return nil
}
