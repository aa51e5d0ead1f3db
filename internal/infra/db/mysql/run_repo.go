package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/wardenhq/warden-analysis/internal/domain/runs"
)

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Save insert/update Run record
func (r *RunRepository) Save(ctx context.Context, run *domain.Run) error {
	const q = `
INSERT INTO analysis_runs
(id, kind, path, started_at, status,
 total_tests, passed_tests, failed_tests, invalid_specs, skipped_tests,
 artifact_url, duration_ms)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 status=VALUES(status),
 total_tests=VALUES(total_tests), passed_tests=VALUES(passed_tests),
 failed_tests=VALUES(failed_tests), invalid_specs=VALUES(invalid_specs),
 skipped_tests=VALUES(skipped_tests),
 artifact_url=VALUES(artifact_url), duration_ms=VALUES(duration_ms);
`
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
WHERE id=? LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, id)
	return scanRun(row.Scan)
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
ORDER BY started_at DESC LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func scanRun(scan func(dest ...any) error) (*domain.Run, error) {
	var run domain.Run
	var total, passed, failed, invalid, skipped int
	if err := scan(
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
