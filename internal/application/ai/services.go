package ai

import (
	"context"

	"github.com/chainsleuth/casefile-api/internal/domain/ai"
)

type Service struct {
	client ai.Client
}

func NewService(client ai.Client) *Service {
	return &Service{client: client}
}

func (s *Service) Summarize(ctx context.Context, caseMetadata string) (ai.Summaries, error) {
	return s.client.Summarize(ctx, caseMetadata)
}
