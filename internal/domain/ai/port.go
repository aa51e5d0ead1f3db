package ai

import "context"

type Client interface {
	Triage(ctx context.Context, reportJSON string) (string, error)
}
