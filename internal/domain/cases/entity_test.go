package cases

import (
	"testing"
	"time"
)

func TestDeriveRecordID(t *testing.T) {
	got := DeriveRecordID(7, "alice.near")
	if got != "Case File #7: alice.near" {
		t.Errorf("DeriveRecordID = %q", got)
	}
	// same inputs, same id
	if DeriveRecordID(7, "alice.near") != got {
		t.Error("record id derivation is not deterministic")
	}
	// different case numbers never collide even for the same subject
	if DeriveRecordID(8, "alice.near") == got {
		t.Error("distinct case numbers produced the same record id")
	}
}

func TestNewCaseSeedsZeroedSummaries(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c := NewCase(3, "bob.near", "admin.near", now)

	if c.Status != StatusPending {
		t.Errorf("Status = %q, want Pending", c.Status)
	}
	if c.Financial.TotalUSDValue != "0" || c.Financial.NearBalance != "0" || c.Financial.DefiValue != "0" {
		t.Errorf("financial summary not zero-seeded: %+v", c.Financial)
	}
	if c.Analysis.RobustSummary != nil || c.Analysis.ShortSummary != nil {
		t.Errorf("analysis summaries should start absent: %+v", c.Analysis)
	}
	if !c.CreatedAt.Equal(now) || !c.LastUpdated.Equal(now) {
		t.Errorf("timestamps not seeded from now: %v %v", c.CreatedAt, c.LastUpdated)
	}
}

func TestRecordForCaseDescription(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c := NewCase(1, "bob.near", "admin.near", now)

	rec := RecordForCase(c, `{}`, now)
	if rec.Description != "Investigation in progress..." {
		t.Errorf("Description = %q", rec.Description)
	}
	if rec.Owner != "bob.near" || rec.ID != c.RecordID {
		t.Errorf("record identity wrong: %+v", rec)
	}

	s := "full findings"
	c.Analysis.RobustSummary = &s
	rec = RecordForCase(c, `{}`, now)
	if rec.Description != "full findings" {
		t.Errorf("Description = %q, want summary text", rec.Description)
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, 20},
		{-3, -1, 1, 20},
		{2, 50, 2, 50},
		{1, 1000, 1, MaxPageSize},
	}
	for _, tt := range tests {
		p, s := ClampPage(tt.page, tt.size)
		if p != tt.wantPage || s != tt.wantSize {
			t.Errorf("ClampPage(%d,%d) = (%d,%d), want (%d,%d)",
				tt.page, tt.size, p, s, tt.wantPage, tt.wantSize)
		}
	}
}
