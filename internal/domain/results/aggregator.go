package results

import (
	"encoding/json"
	"strings"
)

// NoTestsMarker names the sentinel TestResult recorded for detections that
// have no tests configured. Distinct from "ran and passed".
const NoTestsMarker = "NO_TESTS_CONFIGURED"

// functionSuffix is stripped from raw function names in reports.
const functionSuffix = "Function"

// primaryDetectionName is the reserved key the engine uses for the primary
// matcher; it is replaced with the detection's matcher display name.
const primaryDetectionName = "detection"

// FailedTestRegistry maps detection id -> failed test names, maintained by
// the driving test loop.
type FailedTestRegistry map[string][]string

// Aggregator consumes test lifecycle events and accumulates one analysis
// run's results. Exactly one detection may be open at a time; events that
// arrive in an invalid order are ignored, never an error, so a report can
// always be emitted even when the test loop misbehaves. Not safe for
// concurrent use: run one Aggregator per worker and Merge afterwards.
type Aggregator struct {
	detections   []DetectionReport
	invalidSpecs []InvalidSpec
	skippedTests []SkippedTest
	current      *DetectionReport
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		detections:   []DetectionReport{},
		invalidSpecs: []InvalidSpec{},
		skippedTests: []SkippedTest{},
	}
}

// StartDetection opens a new DetectionReport. An already-open report is
// discarded, matching the single open-slot model.
func (a *Aggregator) StartDetection(id, detectionType string) {
	var dt *string
	if detectionType != "" {
		dt = &detectionType
	}
	a.current = &DetectionReport{
		DetectionID:   id,
		DetectionType: dt,
		TestResults:   []TestResult{},
		FailedTests:   []string{},
	}
}

// AddTestResult normalizes tr and appends it to the open detection.
// No-op when no detection is open.
func (a *Aggregator) AddTestResult(det *Detection, tr RawTestResult) {
	if a.current == nil {
		return
	}
	a.current.TestResults = append(a.current.TestResults, TestResult{
		Name:      tr.Name,
		Passed:    tr.Passed,
		Functions: normalizeFunctions(det, tr.Functions),
	})
}

// FinishDetection seals the open report. Failed test names registered for
// this detection are appended verbatim; the registry owns deduplication.
func (a *Aggregator) FinishDetection(failed FailedTestRegistry) {
	if a.current == nil {
		return
	}
	if names, ok := failed[a.current.DetectionID]; ok {
		a.current.FailedTests = append(a.current.FailedTests, names...)
	}
	a.detections = append(a.detections, *a.current)
	a.current = nil
}

// AddInvalidSpec records a spec file that failed to parse.
func (a *Aggregator) AddInvalidSpec(filename string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	a.invalidSpecs = append(a.invalidSpecs, InvalidSpec{Filename: filename, Error: msg})
}

// AddSkippedTest records a spec whose tests did not run: disabled specs, or
// enabled specs where no test matched the active filter.
func (a *Aggregator) AddSkippedTest(filename, detectionID string, enabled bool) {
	reason := "no_matching_tests"
	if !enabled {
		reason = "disabled"
	}
	a.skippedTests = append(a.skippedTests, SkippedTest{
		Filename:    filename,
		DetectionID: detectionID,
		Reason:      reason,
	})
}

// NoTestsConfigured records the sentinel result for a detection with zero
// tests. Opens a detection when none is open.
func (a *Aggregator) NoTestsConfigured(detectionID string) {
	if a.current == nil {
		a.StartDetection(detectionID, "")
	}
	a.current.TestResults = append(a.current.TestResults, TestResult{
		Name:      NoTestsMarker,
		Passed:    false,
		Functions: map[string]NormalizedOutcome{},
	})
}

// HasFailures reports whether any accumulated test failed or any spec was
// invalid. Used by callers to decide the exit code before emission.
func (a *Aggregator) HasFailures() bool {
	if len(a.invalidSpecs) > 0 {
		return true
	}
	for _, d := range a.detections {
		for _, t := range d.TestResults {
			if !t.Passed {
				return true
			}
		}
	}
	return false
}

// Merge appends another aggregator's accumulated lists. Summary fields are
// pure functions of the lists, so merge-then-recompute is always safe.
func (a *Aggregator) Merge(b *Aggregator) {
	a.detections = append(a.detections, b.detections...)
	a.invalidSpecs = append(a.invalidSpecs, b.invalidSpecs...)
	a.skippedTests = append(a.skippedTests, b.skippedTests...)
}

// Report builds the final AnalysisReport, recomputing every summary counter
// from the accumulated lists.
func (a *Aggregator) Report(path string, totalDetections, returnCode int) *AnalysisReport {
	totalTests, passedTests := 0, 0
	withFailures := 0
	for _, d := range a.detections {
		totalTests += len(d.TestResults)
		for _, t := range d.TestResults {
			if t.Passed {
				passedTests++
			}
		}
		if len(d.FailedTests) > 0 {
			withFailures++
		}
	}
	return &AnalysisReport{
		Summary: Summary{
			Path:                   path,
			ReturnCode:             returnCode,
			TotalDetections:        totalDetections,
			TestedDetections:       len(a.detections),
			TotalTests:             totalTests,
			PassedTests:            passedTests,
			FailedTests:            totalTests - passedTests,
			InvalidSpecs:           len(a.invalidSpecs),
			SkippedTests:           len(a.skippedTests),
			DetectionsWithFailures: withFailures,
		},
		Detections:   a.detections,
		InvalidSpecs: a.invalidSpecs,
		SkippedTests: a.skippedTests,
	}
}

// normalizeFunctions applies the inclusion and cleanup rules shared by the
// text and JSON outputs: keep only outcomes with a non-nil output, strip the
// "Function" token from names, map the reserved primary name to the matcher
// display name, drop nil errors and parse brace-prefixed string outputs.
func normalizeFunctions(det *Detection, raw map[string]*FunctionOutcome) map[string]NormalizedOutcome {
	out := map[string]NormalizedOutcome{}
	for name, fn := range raw {
		if fn == nil || fn.Output == nil {
			continue
		}
		printable := strings.ReplaceAll(name, functionSuffix, "")
		if printable == primaryDetectionName && det != nil {
			printable = det.MatcherName
		}
		out[printable] = NormalizedOutcome{
			Output: maybeParseJSON(fn.Output),
			Error:  fn.Error,
		}
	}
	return out
}

// maybeParseJSON replaces a string output that looks like embedded JSON with
// its parsed form. Parse failures keep the original string; never an error.
func maybeParseJSON(v any) any {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(strings.TrimSpace(s), "{") {
		return v
	}
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return v
	}
	return parsed
}
