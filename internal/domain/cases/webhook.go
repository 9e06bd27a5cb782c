package cases

import (
	"encoding/json"
	"fmt"
)

// WebhookType classifies an inbound report from the analysis backend.
type WebhookType string

const (
	WebhookProgress      WebhookType = "Progress"
	WebhookCompletion    WebhookType = "Completion"
	WebhookError         WebhookType = "Error"
	WebhookMetadataReady WebhookType = "MetadataReady"
	WebhookLog           WebhookType = "Log"
)

// ValidWebhookType reports whether t is a known classification tag.
func ValidWebhookType(t WebhookType) bool {
	switch t {
	case WebhookProgress, WebhookCompletion, WebhookError, WebhookMetadataReady, WebhookLog:
		return true
	}
	return false
}

// NextStatus returns the status a tag drives a case into. Log never
// changes status, so it returns the current one unchanged.
func (t WebhookType) NextStatus(current InvestigationStatus) InvestigationStatus {
	switch t {
	case WebhookProgress, WebhookMetadataReady:
		return StatusProcessing
	case WebhookCompletion:
		return StatusCompleted
	case WebhookError:
		return StatusFailed
	default:
		return current
	}
}

// RequiresMerge reports whether the tag carries a metadata update.
// Error fails the case without touching metadata; Log carries nothing.
func (t WebhookType) RequiresMerge() bool {
	switch t {
	case WebhookProgress, WebhookCompletion, WebhookMetadataReady:
		return true
	}
	return false
}

// PartialUpdate mirrors the webhook payload schema. Every field is
// optional; absence means "no change". Status is decoded for wire
// compatibility but the state machine alone decides status (see
// NextStatus), so Merge ignores it.
type PartialUpdate struct {
	Status *InvestigationStatus `json:"status,omitempty"`
	Result *PartialResult       `json:"result,omitempty"`
}

type PartialResult struct {
	RobustSummary    *string           `json:"robustSummary,omitempty"`
	ShortSummary     *string           `json:"shortSummary,omitempty"`
	TransactionCount *uint64           `json:"transactionCount,omitempty"`
	IsBot            *bool             `json:"isBot,omitempty"`
	FinancialData    *PartialFinancial `json:"financialData,omitempty"`
}

type PartialFinancial struct {
	TotalUsdValue *string `json:"totalUsdValue,omitempty"`
	NearBalance   *string `json:"nearBalance,omitempty"`
	DefiValue     *string `json:"defiValue,omitempty"`
}

// DecodePartialUpdate parses a webhook payload. A decode failure is a
// hard, reported error, never a silent skip.
func DecodePartialUpdate(raw []byte) (PartialUpdate, error) {
	var p PartialUpdate
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return PartialUpdate{}, fmt.Errorf("%w: %v", ErrDeserializationFailed, err)
	}
	if p.Status != nil && !ValidStatus(*p.Status) {
		return PartialUpdate{}, fmt.Errorf("%w: unknown status %q", ErrDeserializationFailed, *p.Status)
	}
	return p, nil
}

// Empty reports whether the update carries no leaf fields at all.
func (p PartialUpdate) Empty() bool {
	return p.Result == nil
}
