package testrun

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wardenhq/warden-analysis/internal/application"
	"github.com/wardenhq/warden-analysis/internal/domain/analysis"
	"github.com/wardenhq/warden-analysis/internal/domain/results"
	"github.com/wardenhq/warden-analysis/internal/domain/runs"
)

// Service drives the test and benchmark use-cases: it loads specs, feeds
// lifecycle events into one aggregator and never lets an engine failure
// abort report generation.
type Service struct {
	Engine analysis.Executor
	Repo   runs.Repository
	Clock  application.Clock
	Log    *zap.Logger
}

// Options narrows a test run. An empty Filter runs every test.
type Options struct {
	Filter []string
}

// Run tests every spec under path and returns the finished report. The
// error return covers only the inability to read path at all; everything
// downstream degrades into report entries.
func (s *Service) Run(ctx context.Context, path string, opts Options) (*results.AnalysisReport, error) {
	start := s.Clock.Now()
	specs, invalid, err := analysis.LoadSpecs(path)
	if err != nil {
		return nil, err
	}

	agg := results.NewAggregator()
	for _, inv := range invalid {
		agg.AddInvalidSpec(inv.Filename, inv.Err)
	}

	failed := results.FailedTestRegistry{}
	for _, spec := range specs {
		s.runSpec(ctx, agg, failed, spec, opts)
	}

	code := 0
	if agg.HasFailures() {
		code = 1
	}
	report := agg.Report(path, len(specs), code)
	s.saveRun(ctx, path, report, time.Since(start))
	return report, nil
}

// runSpec emits the lifecycle events for one spec. Engine panics or errors
// for a single test surface as a failed result, never as a crash.
func (s *Service) runSpec(ctx context.Context, agg *results.Aggregator, failed results.FailedTestRegistry, spec *analysis.Spec, opts Options) {
	id := spec.DetectionID()
	if !spec.Enabled {
		agg.AddSkippedTest(spec.Filename, id, false)
		return
	}

	tests := filterTests(spec.Tests, opts.Filter)
	if len(spec.Tests) == 0 {
		agg.StartDetection(id, spec.AnalysisType)
		agg.NoTestsConfigured(id)
		agg.FinishDetection(failed)
		return
	}
	if len(tests) == 0 {
		agg.AddSkippedTest(spec.Filename, id, true)
		return
	}

	det := &results.Detection{ID: id, Type: spec.AnalysisType, MatcherName: spec.MatcherName()}
	agg.StartDetection(id, spec.AnalysisType)
	for _, test := range tests {
		tr := s.runOne(ctx, spec, test)
		agg.AddTestResult(det, tr)
		if !tr.Passed {
			failed[id] = append(failed[id], tr.Name)
		}
	}
	agg.FinishDetection(failed)
}

func (s *Service) runOne(ctx context.Context, spec *analysis.Spec, test analysis.TestSpec) results.RawTestResult {
	tr, err := s.Engine.RunTest(ctx, spec, test)
	if err != nil {
		s.Log.Warn("engine error",
			zap.String("detection", spec.DetectionID()),
			zap.String("test", test.Name),
			zap.Error(err))
		msg := err.Error()
		return results.RawTestResult{
			Name:   test.Name,
			Passed: false,
			Functions: map[string]*results.FunctionOutcome{
				"detectionFunction": {Output: "engine error", Error: &msg},
			},
		}
	}
	return tr
}

// Benchmark runs the first test of the spec at specPath for the given
// number of iterations, timing the log read and the engine processing
// separately. The stats reduction never decides success itself.
func (s *Service) Benchmark(ctx context.Context, specPath, logType string, iterations int) (*results.BenchmarkReport, error) {
	spec, err := analysis.ParseSpec(specPath)
	if err != nil {
		return nil, err
	}
	ruleID := spec.DetectionID()
	if len(spec.Tests) == 0 {
		msg := "no tests configured for " + ruleID
		return results.NewBenchmarkReport(ruleID, logType, iterations, 0, nil, nil, false, &msg), nil
	}
	test := spec.Tests[0]

	var readNs, procNs []int64
	var errMsg *string
	success := true
	completed := 0
	for i := 0; i < iterations; i++ {
		readStart := time.Now()
		payload, err := json.Marshal(test.Log)
		readNs = append(readNs, time.Since(readStart).Nanoseconds())
		if err != nil {
			msg := err.Error()
			errMsg, success = &msg, false
			break
		}
		_ = payload

		procStart := time.Now()
		_, err = s.Engine.RunTest(ctx, spec, test)
		procNs = append(procNs, time.Since(procStart).Nanoseconds())
		if err != nil {
			msg := err.Error()
			errMsg, success = &msg, false
			break
		}
		completed++
	}

	return results.NewBenchmarkReport(ruleID, logType, iterations, completed, readNs, procNs, success, errMsg), nil
}

func (s *Service) saveRun(ctx context.Context, path string, report *results.AnalysisReport, elapsed time.Duration) {
	if s.Repo == nil {
		return
	}
	status := runs.StatusSuccess
	if report.Summary.ReturnCode != 0 {
		status = runs.StatusFailed
	}
	run := &runs.Run{
		ID:        runs.RunID(uuid.New().String()),
		Kind:      runs.KindTest,
		Path:      path,
		StartedAt: s.Clock.Now().Add(-elapsed),
		Status:    status,
		Counts: runs.TestCounts{
			Total:        report.Summary.TotalTests,
			Passed:       report.Summary.PassedTests,
			Failed:       report.Summary.FailedTests,
			InvalidSpecs: report.Summary.InvalidSpecs,
			SkippedTests: report.Summary.SkippedTests,
		},
		DurationMS: elapsed.Milliseconds(),
	}
	if err := s.Repo.Save(ctx, run); err != nil {
		s.Log.Warn("run history save failed", zap.Error(err))
	}
}

func filterTests(tests []analysis.TestSpec, filter []string) []analysis.TestSpec {
	if len(filter) == 0 {
		return tests
	}
	allowed := make(map[string]bool, len(filter))
	for _, name := range filter {
		allowed[name] = true
	}
	var out []analysis.TestSpec
	for _, t := range tests {
		if allowed[t.Name] {
			out = append(out, t)
		}
	}
	return out
}
