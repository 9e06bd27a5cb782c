package memory

import (
	"context"
	"testing"
	"time"

	domain "github.com/chainsleuth/casefile-api/internal/domain/cases"
)

func mintRecord(t *testing.T, r *Registry, id domain.RecordID, owner string) {
	t.Helper()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	err := r.Mint(context.Background(), domain.Record{
		ID:        id,
		Owner:     owner,
		Title:     string(id),
		IssuedAt:  now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Mint(%s): %v", id, err)
	}
}

func TestMintRejectsDuplicateID(t *testing.T) {
	r := NewRegistry()
	mintRecord(t, r, "Case File #1: alice.near", "alice.near")

	err := r.Mint(context.Background(), domain.Record{ID: "Case File #1: alice.near", Owner: "bob.near"})
	if err == nil {
		t.Fatal("duplicate mint accepted")
	}
}

func TestGetMissingRecordReturnsNil(t *testing.T) {
	r := NewRegistry()
	rec, err := r.Get(context.Background(), "Case File #9: ghost.near")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec != nil {
		t.Errorf("rec = %+v, want nil", rec)
	}
}

func TestTransferMovesOwnership(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	mintRecord(t, r, "Case File #1: alice.near", "alice.near")

	if err := r.Transfer(ctx, "alice.near", "bob.near", "Case File #1: alice.near"); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	rec, _ := r.Get(ctx, "Case File #1: alice.near")
	if rec.Owner != "bob.near" {
		t.Errorf("owner = %q, want bob.near", rec.Owner)
	}

	bobs, _ := r.TokensForOwner(ctx, "bob.near", 0, 10)
	if len(bobs) != 1 {
		t.Errorf("bob owns %d records, want 1", len(bobs))
	}
	alices, _ := r.TokensForOwner(ctx, "alice.near", 0, 10)
	if len(alices) != 0 {
		t.Errorf("alice still owns %d records", len(alices))
	}
}

func TestTransferRequiresOwnership(t *testing.T) {
	r := NewRegistry()
	mintRecord(t, r, "Case File #1: alice.near", "alice.near")

	if err := r.Transfer(context.Background(), "mallory.near", "bob.near", "Case File #1: alice.near"); err == nil {
		t.Fatal("non-owner transfer accepted")
	}
}

func TestResolveTransferRollsBack(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	mintRecord(t, r, "Case File #1: alice.near", "alice.near")

	if err := r.Transfer(ctx, "alice.near", "bob.near", "Case File #1: alice.near"); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	// Receiver kept it: nothing rolled back.
	rolledBack, err := r.ResolveTransfer(ctx, "alice.near", "bob.near", "Case File #1: alice.near")
	if err != nil {
		t.Fatalf("ResolveTransfer: %v", err)
	}
	if rolledBack {
		t.Error("resolve rolled back a completed transfer")
	}

	// Receiver gave it away in the meantime: restore the previous owner.
	if err := r.Transfer(ctx, "bob.near", "carol.near", "Case File #1: alice.near"); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	rolledBack, err = r.ResolveTransfer(ctx, "carol.near", "bob.near", "Case File #1: alice.near")
	if err != nil {
		t.Fatalf("ResolveTransfer: %v", err)
	}
	if !rolledBack {
		t.Error("resolve did not report a rollback")
	}
	rec, _ := r.Get(ctx, "Case File #1: alice.near")
	if rec.Owner != "carol.near" {
		t.Errorf("owner = %q, want carol.near", rec.Owner)
	}
}

func TestTokensEnumerationIsBounded(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	for i := 0; i < 120; i++ {
		mintRecord(t, r, domain.DeriveRecordID(uint64(i+1), "x.near"), "x.near")
	}

	all, err := r.Tokens(ctx, 0, 0)
	if err != nil {
		t.Fatalf("Tokens: %v", err)
	}
	if len(all) != domain.MaxPageSize {
		t.Errorf("Tokens returned %d, want cap %d", len(all), domain.MaxPageSize)
	}

	window, err := r.Tokens(ctx, 110, 50)
	if err != nil {
		t.Fatalf("Tokens: %v", err)
	}
	if len(window) != 10 {
		t.Errorf("tail window = %d records, want 10", len(window))
	}

	supply, _ := r.TotalSupply(ctx)
	if supply != 120 {
		t.Errorf("TotalSupply = %d, want 120", supply)
	}
}
