package runs

import "context"

// Repository port (interface for run persistence)
type Repository interface {
	Save(ctx context.Context, r *Run) error
	Get(ctx context.Context, id RunID) (*Run, error)
	Latest(ctx context.Context, limit int) ([]*Run, error)
}

// ErrorRepository defines persistence for pipeline failures
type ErrorRepository interface {
	Save(ctx context.Context, e *RunError) error
	ListByRun(ctx context.Context, runID string, limit int) ([]*RunError, error)
}

// ArtifactStore port (interface for archive/report storage)
type ArtifactStore interface {
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
