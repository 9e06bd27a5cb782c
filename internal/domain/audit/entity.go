package audit

import "time"

// Outcome of one webhook delivery
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

// Delivery is one persisted webhook delivery. Rejected and failed
// deliveries are recorded too: a no-op call must still be observable,
// never silently dropped.
type Delivery struct {
	ID         int64     `json:"id"`
	DeliveryID string    `json:"delivery_id"`
	RecordID   string    `json:"record_id"`
	Tag        string    `json:"tag"`
	Outcome    Outcome   `json:"outcome"`
	Message    string    `json:"message,omitempty"`
	ArchiveURL string    `json:"archive_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
