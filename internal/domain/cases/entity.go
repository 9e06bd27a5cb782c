package cases

import (
	"fmt"
	"time"
)

// RecordID identifies the registry record backing a case
type RecordID string

// InvestigationStatus enum
type InvestigationStatus string

const (
	StatusPending    InvestigationStatus = "Pending"
	StatusProcessing InvestigationStatus = "Processing"
	StatusCompleted  InvestigationStatus = "Completed"
	StatusFailed     InvestigationStatus = "Failed"
)

// ValidStatus reports whether s is one of the four canonical tags.
func ValidStatus(s InvestigationStatus) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// FinancialSummary keeps decimal values as strings so repeated merges
// never drift through float rounding.
type FinancialSummary struct {
	TotalUSDValue string `json:"total_usd_value"`
	NearBalance   string `json:"near_balance"`
	DefiValue     string `json:"defi_value"`
}

// AnalysisSummary value object
type AnalysisSummary struct {
	RobustSummary    *string `json:"robust_summary"`
	ShortSummary     *string `json:"short_summary"`
	TransactionCount uint64  `json:"transaction_count"`
	IsBot            bool    `json:"is_bot"`
}

// Aggregate root: Case. One per investigated subject; the record id is
// stable for the lifetime of the case.
type Case struct {
	CaseNumber  uint64              `json:"case_number"`
	RecordID    RecordID            `json:"record_id"`
	Subject     string              `json:"target_account"`
	Requester   string              `json:"requester"`
	Status      InvestigationStatus `json:"status"`
	Financial   FinancialSummary    `json:"financial_summary"`
	Analysis    AnalysisSummary     `json:"analysis_summary"`
	CreatedAt   time.Time           `json:"investigation_date"`
	LastUpdated time.Time           `json:"last_updated"`
}

// DeriveRecordID computes the record id for a case number + subject pair.
// Deterministic and collision-free because case numbers are unique.
func DeriveRecordID(caseNumber uint64, subject string) RecordID {
	return RecordID(fmt.Sprintf("Case File #%d: %s", caseNumber, subject))
}

// NewCase seeds a fresh case: status Pending, summary fields zeroed.
func NewCase(caseNumber uint64, subject, requester string, now time.Time) *Case {
	return &Case{
		CaseNumber: caseNumber,
		RecordID:   DeriveRecordID(caseNumber, subject),
		Subject:    subject,
		Requester:  requester,
		Status:     StatusPending,
		Financial: FinancialSummary{
			TotalUSDValue: "0",
			NearBalance:   "0",
			DefiValue:     "0",
		},
		Analysis: AnalysisSummary{
			RobustSummary:    nil,
			ShortSummary:     nil,
			TransactionCount: 0,
			IsBot:            false,
		},
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// Record is the registry-side view of a minted case record. The engine
// owns the structured fields serialized into Extra; the registry owns
// ownership and the last-written blob.
type Record struct {
	ID          RecordID  `json:"record_id"`
	Owner       string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Media       string    `json:"media,omitempty"`
	Extra       string    `json:"extra,omitempty"`
	IssuedAt    time.Time `json:"issued_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const defaultRecordMedia = "https://gateway.pinata.cloud/ipfs/QmSNycrd5gWH7QAFKBVvKaT58c5S6B1tq9ScHP7thxvLWM"

// RecordForCase builds the registry record for a case, with the case
// metadata serialized into the extra blob.
func RecordForCase(c *Case, extra string, now time.Time) Record {
	desc := "Investigation in progress..."
	if c.Analysis.RobustSummary != nil && *c.Analysis.RobustSummary != "" {
		desc = *c.Analysis.RobustSummary
	}
	return Record{
		ID:          c.RecordID,
		Owner:       c.Subject,
		Title:       string(c.RecordID),
		Description: desc,
		Media:       defaultRecordMedia,
		Extra:       extra,
		IssuedAt:    c.CreatedAt,
		UpdatedAt:   now,
	}
}

// ContractMetadata is the static descriptor of this case registry,
// served on the query surface.
type ContractMetadata struct {
	Spec   string `json:"spec"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Icon   string `json:"icon,omitempty"`
}

func DefaultContractMetadata() ContractMetadata {
	return ContractMetadata{
		Spec:   "case-file-1.0.0",
		Name:   "ChainSleuth Case Files",
		Symbol: "CASE",
		Icon:   "https://gateway.pinata.cloud/ipfs/QmYkT5eNLePKnvw9vLXNdLxFynp8amKUPaPZ74LhQxxdpu",
	}
}
