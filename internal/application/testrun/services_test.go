package testrun

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wardenhq/warden-analysis/internal/application"
	"github.com/wardenhq/warden-analysis/internal/domain/analysis"
	"github.com/wardenhq/warden-analysis/internal/domain/results"
	"github.com/wardenhq/warden-analysis/internal/domain/runs"
)

// fakeEngine answers per test name; unknown names pass. A name listed in
// errOn returns an engine error instead of a result.
type fakeEngine struct {
	failOn map[string]bool
	errOn  map[string]error
	calls  int
}

func (f *fakeEngine) RunTest(ctx context.Context, spec *analysis.Spec, test analysis.TestSpec) (results.RawTestResult, error) {
	f.calls++
	if err := f.errOn[test.Name]; err != nil {
		return results.RawTestResult{}, err
	}
	passed := !f.failOn[test.Name]
	return results.RawTestResult{
		Name:   test.Name,
		Passed: passed,
		Functions: map[string]*results.FunctionOutcome{
			"detectionFunction": {Output: passed},
		},
	}, nil
}

type memRunRepo struct {
	saved []*runs.Run
}

func (m *memRunRepo) Save(ctx context.Context, r *runs.Run) error { m.saved = append(m.saved, r); return nil }
func (m *memRunRepo) Get(ctx context.Context, id runs.RunID) (*runs.Run, error) {
	return nil, errors.New("not found")
}
func (m *memRunRepo) Latest(ctx context.Context, limit int) ([]*runs.Run, error) { return nil, nil }

func writeSpec(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const enabledSpec = `AnalysisType: rule
RuleID: My.Rule
Enabled: true
Tests:
  - Name: good event
    ExpectedResult: false
    Log:
      eventName: Describe
  - Name: bad event
    ExpectedResult: true
    Log:
      eventName: ConsoleLogin
`

func newService(engine analysis.Executor) *Service {
	return &Service{
		Engine: engine,
		Clock:  application.SystemClock{},
		Log:    zap.NewNop(),
	}
}

func TestRun_PassAndFail(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "rule.yml", enabledSpec)
	engine := &fakeEngine{failOn: map[string]bool{"bad event": true}}

	report, err := newService(engine).Run(context.Background(), dir, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.ReturnCode)
	assert.Equal(t, 2, report.Summary.TotalTests)
	assert.Equal(t, 1, report.Summary.PassedTests)
	assert.Equal(t, 1, report.Summary.FailedTests)
	require.Len(t, report.Detections, 1)
	assert.Equal(t, []string{"bad event"}, report.Detections[0].FailedTests)
}

func TestRun_AllPassing(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "rule.yml", enabledSpec)

	report, err := newService(&fakeEngine{}).Run(context.Background(), dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Summary.ReturnCode)
	assert.Equal(t, 2, report.Summary.PassedTests)
}

func TestRun_DisabledSpecSkipped(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "off.yml", `AnalysisType: rule
RuleID: Off.Rule
Enabled: false
Tests:
  - Name: t
    ExpectedResult: true
    Log: {}
`)
	engine := &fakeEngine{}

	report, err := newService(engine).Run(context.Background(), dir, Options{})
	require.NoError(t, err)
	assert.Zero(t, engine.calls)
	require.Len(t, report.SkippedTests, 1)
	assert.Equal(t, "disabled", report.SkippedTests[0].Reason)
	assert.Equal(t, 0, report.Summary.ReturnCode)
}

func TestRun_NoTestsSentinel(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "lonely.yml", `AnalysisType: rule
RuleID: Lonely.Rule
Enabled: true
`)

	report, err := newService(&fakeEngine{}).Run(context.Background(), dir, Options{})
	require.NoError(t, err)
	require.Len(t, report.Detections, 1)
	require.Len(t, report.Detections[0].TestResults, 1)
	tr := report.Detections[0].TestResults[0]
	assert.Equal(t, results.NoTestsMarker, tr.Name)
	assert.False(t, tr.Passed)
	// A detection without tests counts as a failure.
	assert.Equal(t, 1, report.Summary.FailedTests)
	assert.Equal(t, 1, report.Summary.ReturnCode)
}

func TestRun_FilterSkipsNonMatching(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "rule.yml", enabledSpec)
	engine := &fakeEngine{}

	report, err := newService(engine).Run(context.Background(), dir, Options{Filter: []string{"good event"}})
	require.NoError(t, err)
	assert.Equal(t, 1, engine.calls)
	assert.Equal(t, 1, report.Summary.TotalTests)

	report, err = newService(engine).Run(context.Background(), dir, Options{Filter: []string{"nope"}})
	require.NoError(t, err)
	require.Len(t, report.SkippedTests, 1)
	assert.Equal(t, "no_matching_tests", report.SkippedTests[0].Reason)
}

func TestRun_InvalidSpecCollected(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "rule.yml", enabledSpec)
	writeSpec(t, dir, "broken.yml", "AnalysisType: [unclosed")

	report, err := newService(&fakeEngine{}).Run(context.Background(), dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.InvalidSpecs)
	// A spec that never parsed does not count as tested.
	assert.Equal(t, 1, report.Summary.TestedDetections)
}

func TestRun_EngineErrorBecomesFailedResult(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "rule.yml", enabledSpec)
	engine := &fakeEngine{errOn: map[string]error{"bad event": errors.New("engine crashed")}}

	report, err := newService(engine).Run(context.Background(), dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.ReturnCode)
	require.Len(t, report.Detections, 1)
	assert.Equal(t, []string{"bad event"}, report.Detections[0].FailedTests)

	var failed *results.TestResult
	for i, tr := range report.Detections[0].TestResults {
		if tr.Name == "bad event" {
			failed = &report.Detections[0].TestResults[i]
		}
	}
	require.NotNil(t, failed)
	fn := failed.Functions["rule"]
	require.NotNil(t, fn)
	require.NotNil(t, fn.Error)
	assert.Equal(t, "engine crashed", *fn.Error)
}

func TestRun_MissingPath(t *testing.T) {
	_, err := newService(&fakeEngine{}).Run(context.Background(), "/does/not/exist", Options{})
	assert.Error(t, err)
}

func TestRun_SavesHistory(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "rule.yml", enabledSpec)
	svc := newService(&fakeEngine{failOn: map[string]bool{"bad event": true}})
	repo := &memRunRepo{}
	svc.Repo = repo

	_, err := svc.Run(context.Background(), dir, Options{})
	require.NoError(t, err)
	require.Len(t, repo.saved, 1)
	run := repo.saved[0]
	assert.Equal(t, runs.KindTest, run.Kind)
	assert.Equal(t, runs.StatusFailed, run.Status)
	assert.Equal(t, 2, run.Counts.Total)
	assert.Equal(t, 1, run.Counts.Failed)
}

func TestBenchmark_CompletesAllIterations(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, "rule.yml", enabledSpec)
	engine := &fakeEngine{}

	report, err := newService(engine).Benchmark(context.Background(), path, "AWS.CloudTrail", 5)
	require.NoError(t, err)
	assert.Equal(t, "My.Rule", report.RuleID)
	assert.Equal(t, "AWS.CloudTrail", report.LogType)
	assert.Equal(t, 5, report.Iterations)
	assert.Equal(t, 5, report.CompletedIterations)
	assert.Len(t, report.ReadTimeNanos, 5)
	assert.Len(t, report.ProcessingTimeNanos, 5)
	assert.True(t, report.Success)
	assert.Nil(t, report.ErrorMessage)
	// Only the first test is benchmarked.
	assert.Equal(t, 5, engine.calls)
}

func TestBenchmark_StopsOnEngineError(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, "rule.yml", enabledSpec)
	engine := &fakeEngine{errOn: map[string]error{"good event": errors.New("boom")}}

	report, err := newService(engine).Benchmark(context.Background(), path, "lt", 5)
	require.NoError(t, err)
	assert.False(t, report.Success)
	assert.Equal(t, 0, report.CompletedIterations)
	require.NotNil(t, report.ErrorMessage)
	assert.Equal(t, "boom", *report.ErrorMessage)
	// The failing iteration's samples are still recorded.
	assert.Len(t, report.ReadTimeNanos, 1)
	assert.Len(t, report.ProcessingTimeNanos, 1)
}

func TestBenchmark_NoTestsConfigured(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, "lonely.yml", `AnalysisType: rule
RuleID: Lonely.Rule
Enabled: true
`)

	report, err := newService(&fakeEngine{}).Benchmark(context.Background(), path, "lt", 3)
	require.NoError(t, err)
	assert.False(t, report.Success)
	require.NotNil(t, report.ErrorMessage)
	assert.Contains(t, *report.ErrorMessage, "no tests configured")
	assert.NotNil(t, report.ReadTimeNanos)
}

func TestBenchmark_UnparseableSpec(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, "broken.yml", "AnalysisType: [unclosed")

	_, err := newService(&fakeEngine{}).Benchmark(context.Background(), path, "lt", 3)
	assert.Error(t, err)
}
