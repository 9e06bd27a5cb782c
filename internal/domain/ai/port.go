package ai

import "context"

// Summaries produced by the analysis model for one case.
type Summaries struct {
	RobustSummary string `json:"robust_summary"`
	ShortSummary  string `json:"short_summary"`
}

// Client interface for the summarization backend
type Client interface {
	Summarize(ctx context.Context, caseMetadata string) (Summaries, error)
}
