package runs

import "time"

// ID tipe untuk Run
type RunID string

// Kind enum
type Kind string

const (
	KindUpload    Kind = "upload"
	KindValidate  Kind = "validate"
	KindTest      Kind = "test"
	KindBenchmark Kind = "benchmark"
)

// Status enum
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// TestCounts value object
type TestCounts struct {
	Total        int `json:"total"`
	Passed       int `json:"passed"`
	Failed       int `json:"failed"`
	InvalidSpecs int `json:"invalid_specs"`
	SkippedTests int `json:"skipped_tests"`
}

// Aggregate Root: Run, one invocation of upload/validate/test/benchmark,
// persisted for history.
type Run struct {
	ID          RunID      `json:"id"`
	Kind        Kind       `json:"kind"`
	Path        string     `json:"path,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	Status      Status     `json:"status"`
	Counts      TestCounts `json:"counts"`
	ArtifactURL string     `json:"artifact_url,omitempty"`
	DurationMS  int64      `json:"duration_ms"`
}

// RunError represents a persisted pipeline failure entry
type RunError struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"run_id"`
	Phase       string    `json:"phase,omitempty"` // package | submit | aggregate | other
	Message     string    `json:"message"`
	DetailsJSON string    `json:"details_json,omitempty"` // raw JSON string
	CreatedAt   time.Time `json:"created_at"`
}
