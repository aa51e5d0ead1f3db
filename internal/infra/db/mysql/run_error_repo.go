package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/wardenhq/warden-analysis/internal/domain/runs"
)

type RunErrorRepository struct {
	db *sql.DB
}

func NewRunErrorRepository(db *sql.DB) *RunErrorRepository {
	return &RunErrorRepository{db: db}
}

// Save insert a RunError entry
func (r *RunErrorRepository) Save(ctx context.Context, e *domain.RunError) error {
	const q = `
INSERT INTO run_errors (run_id, phase, message, details_json, created_at)
VALUES (?,?,?,?,?);
`
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		e.RunID, stringOrDash(e.Phase), e.Message, e.DetailsJSON, created,
	)
	return err
}

// ListByRun errors for one run
func (r *RunErrorRepository) ListByRun(ctx context.Context, runID string, limit int) ([]*domain.RunError, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, run_id, phase, message, details_json, created_at
FROM run_errors
WHERE run_id=? ORDER BY created_at DESC LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.RunError
	for rows.Next() {
		var e domain.RunError
		if err := rows.Scan(&e.ID, &e.RunID, &e.Phase, &e.Message, &e.DetailsJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
