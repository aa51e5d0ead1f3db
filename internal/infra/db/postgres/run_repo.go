package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/wardenhq/warden-analysis/internal/domain/runs"
)

type RunRepository struct{ db *sql.DB }

func NewRunRepository(db *sql.DB) *RunRepository { return &RunRepository{db: db} }

// Save insert/update Run record
func (r *RunRepository) Save(ctx context.Context, run *domain.Run) error {
	const q = `
INSERT INTO analysis_runs
(id, kind, path, started_at, status,
 total_tests, passed_tests, failed_tests, invalid_specs, skipped_tests,
 artifact_url, duration_ms)
VALUES ($1,$2,$3,$4,$5,
        $6,$7,$8,$9,$10,
        $11,$12)
ON CONFLICT (id) DO UPDATE SET
 status = EXCLUDED.status,
 total_tests = EXCLUDED.total_tests,
 passed_tests = EXCLUDED.passed_tests,
 failed_tests = EXCLUDED.failed_tests,
 invalid_specs = EXCLUDED.invalid_specs,
 skipped_tests = EXCLUDED.skipped_tests,
 artifact_url = EXCLUDED.artifact_url,
 duration_ms = EXCLUDED.duration_ms;`

	kind := stringOrDash(string(run.Kind))
	status := stringOrDash(string(run.Status))
	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		run.ID, kind, run.Path, started, status,
		run.Counts.Total, run.Counts.Passed, run.Counts.Failed,
		run.Counts.InvalidSpecs, run.Counts.SkippedTests,
		run.ArtifactURL, run.DurationMS,
	)
	return err
}

// Get by ID
func (r *RunRepository) Get(ctx context.Context, id domain.RunID) (*domain.Run, error) {
	const q = `
SELECT id, kind, path, started_at, status,
       total_tests, passed_tests, failed_tests, invalid_specs, skipped_tests,
       artifact_url, duration_ms
FROM analysis_runs
WHERE id=$1 LIMIT 1;`
	row := r.db.QueryRowContext(ctx, q, id)

	var run domain.Run
	var total, passed, failed, invalid, skipped int
	if err := row.Scan(
		&run.ID, &run.Kind, &run.Path, &run.StartedAt, &run.Status,
		&total, &passed, &failed, &invalid, &skipped,
		&run.ArtifactURL, &run.DurationMS,
	); err != nil {
		return nil, err
	}
	run.Counts = domain.TestCounts{
		Total: total, Passed: passed, Failed: failed,
		InvalidSpecs: invalid, SkippedTests: skipped,
	}
	return &run, nil
}

// Latest runs
func (r *RunRepository) Latest(ctx context.Context, limit int) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, kind, path, started_at, status,
       total_tests, passed_tests, failed_tests, invalid_specs, skipped_tests,
       artifact_url, duration_ms
FROM analysis_runs
ORDER BY started_at DESC LIMIT $1;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Run
	for rows.Next() {
		var run domain.Run
		var total, passed, failed, invalid, skipped int
		if err := rows.Scan(
			&run.ID, &run.Kind, &run.Path, &run.StartedAt, &run.Status,
			&total, &passed, &failed, &invalid, &skipped,
			&run.ArtifactURL, &run.DurationMS,
		); err != nil {
			return nil, err
		}
		run.Counts = domain.TestCounts{
			Total: total, Passed: passed, Failed: failed,
			InvalidSpecs: invalid, SkippedTests: skipped,
		}
		out = append(out, &run)
	}
	return out, rows.Err()
}

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
