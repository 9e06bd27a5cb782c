package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	domain "github.com/chainsleuth/casefile-api/internal/domain/cases"
)

func seedCases(t *testing.T, s *Store, n int) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		num, err := s.AllocateCaseNumber(ctx)
		if err != nil {
			t.Fatalf("AllocateCaseNumber: %v", err)
		}
		subject := fmt.Sprintf("user%d.near", i)
		c := domain.NewCase(num, subject, "admin.near", now)
		if err := s.SaveCase(ctx, c); err != nil {
			t.Fatalf("SaveCase: %v", err)
		}
		if err := s.RegisterSubject(ctx, subject, c.RecordID); err != nil {
			t.Fatalf("RegisterSubject: %v", err)
		}
	}
}

func TestAllocateCaseNumberMonotonic(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for want := uint64(1); want <= 3; want++ {
		got, err := s.AllocateCaseNumber(ctx)
		if err != nil {
			t.Fatalf("AllocateCaseNumber: %v", err)
		}
		if got != want {
			t.Errorf("allocated %d, want %d", got, want)
		}
	}
}

func TestSaveCaseCopiesValue(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	c := domain.NewCase(1, "alice.near", "admin.near", time.Now())
	if err := s.SaveCase(ctx, c); err != nil {
		t.Fatalf("SaveCase: %v", err)
	}

	// Mutating the caller's value must not reach the stored copy.
	c.Status = domain.StatusFailed
	got, err := s.GetCase(ctx, c.RecordID)
	if err != nil {
		t.Fatalf("GetCase: %v", err)
	}
	if got.Status != domain.StatusPending {
		t.Errorf("stored case aliased caller memory: status = %q", got.Status)
	}
}

func TestCaseBySubjectNotFound(t *testing.T) {
	s := NewStore()
	if _, err := s.CaseBySubject(context.Background(), "ghost.near"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPaginateWindows(t *testing.T) {
	s := NewStore()
	seedCases(t, s, 45)
	ctx := context.Background()

	page, err := s.Paginate(ctx, 2, 20)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if len(page.Data) != 20 || page.Total != 45 || page.TotalPages != 3 {
		t.Errorf("page = {len=%d total=%d pages=%d}", len(page.Data), page.Total, page.TotalPages)
	}
	if page.Data[0].CaseNumber != 21 {
		t.Errorf("page 2 starts at %d, want 21", page.Data[0].CaseNumber)
	}

	// Past the end: empty data, same totals.
	page, err = s.Paginate(ctx, 9, 20)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if len(page.Data) != 0 || page.Total != 45 {
		t.Errorf("past-the-end page = {len=%d total=%d}", len(page.Data), page.Total)
	}
}

func TestPaginateCapsPageSize(t *testing.T) {
	s := NewStore()
	seedCases(t, s, 150)

	page, err := s.Paginate(context.Background(), 1, 500)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if len(page.Data) != domain.MaxPageSize {
		t.Errorf("page size = %d, want %d", len(page.Data), domain.MaxPageSize)
	}
}

func TestFailedMintBuffer(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	id := domain.RecordID("Case File #1: alice.near")

	if err := s.PutFailedMint(ctx, id, `{"case_number":1}`); err != nil {
		t.Fatalf("PutFailedMint: %v", err)
	}
	meta, err := s.GetFailedMint(ctx, id)
	if err != nil || meta != `{"case_number":1}` {
		t.Fatalf("GetFailedMint = %q, %v", meta, err)
	}
	if err := s.DeleteFailedMint(ctx, id); err != nil {
		t.Fatalf("DeleteFailedMint: %v", err)
	}
	if _, err := s.GetFailedMint(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSchemaVersionRoundTrip(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	v, err := s.SchemaVersion(ctx)
	if err != nil || v != 1 {
		t.Fatalf("SchemaVersion = %d, %v; want 1", v, err)
	}
	if err := s.SetSchemaVersion(ctx, 2); err != nil {
		t.Fatalf("SetSchemaVersion: %v", err)
	}
	if v, _ := s.SchemaVersion(ctx); v != 2 {
		t.Errorf("SchemaVersion = %d, want 2", v)
	}
}
