package ai

import (
	"context"

	"github.com/wardenhq/warden-analysis/internal/domain/ai"
)

type Service struct {
	client ai.Client
}

func NewService(client ai.Client) *Service {
	return &Service{client: client}
}

// Triage asks the model for a short failure triage of a finished report.
func (s *Service) Triage(ctx context.Context, reportJSON string) (string, error) {
	return s.client.Triage(ctx, reportJSON)
}
