package results

// Detection is the handle the test loop holds for the detection under test.
// The execution engine itself lives behind a port; the aggregator only needs
// the id, the kind tag and the matcher display name.
type Detection struct {
	ID          string
	Type        string // rule | policy
	MatcherName string // display name of the primary matcher function
}

// FunctionOutcome is the raw per-function result reported by the engine.
// Output is any structured or string value and may be nil.
type FunctionOutcome struct {
	Output any     `json:"output"`
	Error  *string `json:"error"`
}

// RawTestResult is one test case outcome as the engine reports it,
// before normalization.
type RawTestResult struct {
	Name      string                      `json:"name"`
	Passed    bool                        `json:"passed"`
	Functions map[string]*FunctionOutcome `json:"functions"`
}

// NormalizedOutcome is the cleaned per-function record that appears in
// reports. A nil Error is omitted entirely, never emitted as null.
type NormalizedOutcome struct {
	Output any     `json:"output"`
	Error  *string `json:"error,omitempty"`
}

// TestResult is a normalized test case outcome inside a DetectionReport.
type TestResult struct {
	Name      string                       `json:"name"`
	Passed    bool                         `json:"passed"`
	Functions map[string]NormalizedOutcome `json:"functions"`
}

// DetectionReport collects the test results for one detection.
// Sealed by Aggregator.FinishDetection and immutable afterwards.
type DetectionReport struct {
	DetectionID   string       `json:"detection_id"`
	DetectionType *string      `json:"detection_type"`
	TestResults   []TestResult `json:"test_results"`
	FailedTests   []string     `json:"failed_tests"`
}

// InvalidSpec records a spec file that could not be parsed.
type InvalidSpec struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// SkippedTest records a spec whose tests did not run.
type SkippedTest struct {
	Filename    string `json:"filename"`
	DetectionID string `json:"detection_id"`
	Reason      string `json:"reason"` // disabled | no_matching_tests
}

// Summary holds the counters of one analysis run. Always recomputed from
// the accumulated lists at emission time, never tracked incrementally.
type Summary struct {
	Path                   string `json:"path"`
	ReturnCode             int    `json:"return_code"`
	TotalDetections        int    `json:"total_detections"`
	TestedDetections       int    `json:"tested_detections"`
	TotalTests             int    `json:"total_tests"`
	PassedTests            int    `json:"passed_tests"`
	FailedTests            int    `json:"failed_tests"`
	InvalidSpecs           int    `json:"invalid_specs"`
	SkippedTests           int    `json:"skipped_tests"`
	DetectionsWithFailures int    `json:"detections_with_failures"`
}

// AnalysisReport is the full output of one test run. Both the text and the
// JSON emission are derived from this one value, so they cannot diverge.
type AnalysisReport struct {
	Summary      Summary           `json:"summary"`
	Detections   []DetectionReport `json:"detections"`
	InvalidSpecs []InvalidSpec     `json:"invalid_specs"`
	SkippedTests []SkippedTest     `json:"skipped_tests"`
}
