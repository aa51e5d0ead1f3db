package bulk

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wardenhq/warden-analysis/internal/application"
	"github.com/wardenhq/warden-analysis/internal/domain/analysis"
	"github.com/wardenhq/warden-analysis/internal/domain/backend"
	"github.com/wardenhq/warden-analysis/internal/domain/results"
	"github.com/wardenhq/warden-analysis/internal/domain/runs"
	"github.com/wardenhq/warden-analysis/internal/infra/archive"
)

// DefaultChunkBytes bounds one archive's raw (pre-compression) content.
// Oversized archives are silently rejected by the backend, so the planner
// measures raw bytes, the conservative basis.
const DefaultChunkBytes = 50 << 20

// Service implements the bulk upload/validate use-cases.
// Repo, Errors and Artifacts are optional; a nil port is skipped.
type Service struct {
	Client     backend.Client
	Repo       runs.Repository
	ErrorsRepo runs.ErrorRepository
	Artifacts  runs.ArtifactStore
	Clock      application.Clock
	Log        *zap.Logger
	ChunkBytes int64
}

// Output is what a command prints: the report plus the process exit code.
type Output struct {
	Code   int
	Report results.ValidationReport
}

// Validate packages the first chunk under path and submits it for
// content validation. Every failure path still yields a well-formed
// report; errors never escape as the primary output.
func (s *Service) Validate(ctx context.Context, path string) Output {
	if s.Client == nil || !s.Client.SupportsBulkValidate() {
		return Output{Code: 1, Report: results.NewValidationReport(
			false, "validate is only supported with an API token backend", nil, nil)}
	}

	chunks, err := s.planChunks(path)
	if err != nil {
		return s.failure("validate", "package", err)
	}
	if len(chunks) == 0 {
		return Output{Code: 1, Report: results.NewValidationReport(
			false, fmt.Sprintf("no analysis files found under %s", path), nil, nil)}
	}

	buf, err := archive.Build(chunks[0])
	if err != nil {
		return s.failure("validate", "package", err)
	}

	result, err := s.Client.BulkValidate(ctx, backend.BulkUploadParams{Zip: buf})
	if err != nil {
		if errors.Is(err, backend.ErrCapabilityUnsupported) {
			s.Log.Debug("bulk validate unsupported", zap.Error(err))
			return Output{Code: 1, Report: results.NewValidationReport(
				false, "your deployment does not support this feature",
				[]map[string]any{{"error": err.Error()}}, nil)}
		}
		return s.failure("validate", "submit", err)
	}

	if result.Valid {
		return Output{Code: 0, Report: results.NewValidationReport(true, "validation success", nil, nil)}
	}

	var errs []map[string]any
	if result.Error != "" {
		errs = append(errs, map[string]any{"error": result.Error})
	}
	errs = append(errs, issueEntries(result.Issues)...)
	return Output{Code: 1, Report: results.NewValidationReport(false, "validation failed", errs, nil)}
}

// Upload plans all chunks under path, builds and submits each archive in
// order, and merges per-chunk issues into one report. Chunks are
// independent; results are merged single-writer here.
func (s *Service) Upload(ctx context.Context, path string) Output {
	if s.Client == nil {
		return Output{Code: 1, Report: results.NewValidationReport(
			false, "no backend configured; set api.host and api.token", nil, nil)}
	}

	start := s.Clock.Now()
	runID := uuid.New().String()

	chunks, err := s.planChunks(path)
	if err != nil {
		return s.failure("upload", "package", err)
	}
	if len(chunks) == 0 {
		return Output{Code: 1, Report: results.NewValidationReport(
			false, fmt.Sprintf("no analysis files found under %s", path), nil, nil)}
	}

	var allIssues []map[string]any
	var warnings []map[string]any
	uploaded := 0
	for i, chunk := range chunks {
		buf, err := archive.Build(chunk)
		if err != nil {
			s.recordError(ctx, runID, "package", err)
			return s.failure("upload", "package", err)
		}
		s.archiveChunk(ctx, runID, i, buf)

		_, err = s.Client.BulkUpload(ctx, backend.BulkUploadParams{Zip: buf})
		if err != nil {
			var rejected *backend.ContentRejectedError
			switch {
			case errors.Is(err, backend.ErrCapabilityUnsupported):
				s.Log.Debug("bulk upload unsupported", zap.Error(err))
				return Output{Code: 1, Report: results.NewValidationReport(
					false, "your deployment does not support this feature",
					[]map[string]any{{"error": err.Error()}}, nil)}
			case errors.As(err, &rejected):
				allIssues = append(allIssues, issueEntries(rejected.Issues)...)
			default:
				s.recordError(ctx, runID, "submit", err)
				return s.failure("upload", "submit", err)
			}
			continue
		}
		uploaded++
	}

	code := 0
	success := len(allIssues) == 0
	message := fmt.Sprintf("upload succeeded (%d chunks)", uploaded)
	if !success {
		code = 1
		message = "upload failed"
	}
	s.saveRun(ctx, runID, runs.KindUpload, path, success, time.Since(start))
	return Output{Code: code, Report: results.NewValidationReport(success, message, allIssues, warnings)}
}

// CheckConnection asks the backend for a liveness answer and maps it into
// the connection report shape.
func (s *Service) CheckConnection(ctx context.Context, apiHost string) (int, results.ConnectionReport) {
	if s.Client == nil {
		return 1, results.ConnectionReport{Success: false, Message: "no backend configured", APIHost: apiHost}
	}
	result, err := s.Client.Check(ctx)
	if err != nil {
		return 1, results.ConnectionReport{Success: false, Message: err.Error(), APIHost: apiHost}
	}
	code := 0
	if !result.Success {
		code = 1
	}
	return code, results.ConnectionReport{Success: result.Success, Message: result.Message, APIHost: apiHost}
}

func (s *Service) planChunks(path string) ([]analysis.Chunk, error) {
	files, err := analysis.ListFiles(path)
	if err != nil {
		return nil, err
	}
	budget := s.ChunkBytes
	if budget <= 0 {
		budget = DefaultChunkBytes
	}
	return analysis.PlanChunks(files, budget), nil
}

// failure converts any unexpected error into the structured report shape so
// no raw failure ever reaches the caller.
func (s *Service) failure(op, phase string, err error) Output {
	s.Log.Error(op+" failed", zap.String("phase", phase), zap.Error(err))
	return Output{Code: 1, Report: results.NewValidationReport(
		false, op+" failed", []map[string]any{{"error": err.Error()}}, nil)}
}

func (s *Service) archiveChunk(ctx context.Context, runID string, idx int, buf []byte) {
	if s.Artifacts == nil {
		return
	}
	key := filepath.ToSlash(fmt.Sprintf("runs/%s/chunk-%d.zip", runID, idx))
	url, err := s.Artifacts.UploadBytes(ctx, key, buf, "application/zip")
	if err != nil {
		// Artifact archival is best-effort; the upload itself decides the outcome
		s.Log.Warn("artifact upload failed", zap.String("key", key), zap.Error(err))
		return
	}
	s.Log.Debug("chunk archived", zap.String("url", url))
}

func (s *Service) saveRun(ctx context.Context, id string, kind runs.Kind, path string, success bool, elapsed time.Duration) {
	if s.Repo == nil {
		return
	}
	status := runs.StatusSuccess
	if !success {
		status = runs.StatusFailed
	}
	run := &runs.Run{
		ID:         runs.RunID(id),
		Kind:       kind,
		Path:       path,
		StartedAt:  s.Clock.Now().Add(-elapsed),
		Status:     status,
		DurationMS: elapsed.Milliseconds(),
	}
	if err := s.Repo.Save(ctx, run); err != nil {
		s.Log.Warn("run history save failed", zap.Error(err))
	}
}

func (s *Service) recordError(ctx context.Context, runID, phase string, err error) {
	if s.ErrorsRepo == nil {
		return
	}
	e := &runs.RunError{
		RunID:     runID,
		Phase:     phase,
		Message:   err.Error(),
		CreatedAt: s.Clock.Now(),
	}
	if saveErr := s.ErrorsRepo.Save(ctx, e); saveErr != nil {
		s.Log.Warn("run error save failed", zap.Error(saveErr))
	}
}

func issueEntries(issues []backend.ValidationIssue) []map[string]any {
	var out []map[string]any
	for _, issue := range issues {
		entry := map[string]any{}
		if issue.Path != "" {
			entry["path"] = issue.Path
		}
		if issue.ErrorMessage != "" {
			entry["message"] = issue.ErrorMessage
		}
		if len(entry) > 0 {
			out = append(out, entry)
		}
	}
	return out
}
