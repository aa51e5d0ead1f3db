package results

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func passing(name string) RawTestResult {
	return RawTestResult{
		Name:   name,
		Passed: true,
		Functions: map[string]*FunctionOutcome{
			"detectionFunction": {Output: true},
		},
	}
}

func TestAggregator_AddTestResultWhileIdleIsNoop(t *testing.T) {
	agg := NewAggregator()
	agg.AddTestResult(nil, passing("orphan"))

	report := agg.Report("rules/", 0, 0)
	assert.Empty(t, report.Detections)
	assert.Zero(t, report.Summary.TotalTests)
}

func TestAggregator_FinishWhileIdleIsNoop(t *testing.T) {
	agg := NewAggregator()
	agg.FinishDetection(FailedTestRegistry{})
	assert.Empty(t, agg.Report("rules/", 0, 0).Detections)
}

func TestAggregator_DetectionLifecycle(t *testing.T) {
	agg := NewAggregator()
	det := &Detection{ID: "My.Rule", Type: "rule", MatcherName: "rule"}

	agg.StartDetection("My.Rule", "rule")
	agg.AddTestResult(det, passing("first"))
	agg.AddTestResult(det, RawTestResult{Name: "second", Passed: false, Functions: nil})
	agg.FinishDetection(FailedTestRegistry{"My.Rule": {"second"}})

	report := agg.Report("rules/", 1, 1)
	require.Len(t, report.Detections, 1)
	d := report.Detections[0]
	assert.Equal(t, "My.Rule", d.DetectionID)
	require.NotNil(t, d.DetectionType)
	assert.Equal(t, "rule", *d.DetectionType)
	require.Len(t, d.TestResults, 2)
	assert.Equal(t, []string{"second"}, d.FailedTests)
}

func TestAggregator_FailedRegistryAppendedVerbatim(t *testing.T) {
	agg := NewAggregator()
	agg.StartDetection("dup", "rule")
	agg.FinishDetection(FailedTestRegistry{"dup": {"a", "a", "b"}})

	// No extra deduplication beyond what the registry already holds.
	assert.Equal(t, []string{"a", "a", "b"}, agg.Report("p", 1, 0).Detections[0].FailedTests)
}

func TestNormalization_NullOutputExcluded(t *testing.T) {
	agg := NewAggregator()
	agg.StartDetection("r", "rule")
	agg.AddTestResult(nil, RawTestResult{
		Name:   "t",
		Passed: true,
		Functions: map[string]*FunctionOutcome{
			"titleFunction":    {Output: nil},
			"severityFunction": nil,
			"dedupFunction":    {Output: "custom"},
		},
	})
	agg.FinishDetection(nil)

	fns := agg.Report("p", 1, 0).Detections[0].TestResults[0].Functions
	assert.NotContains(t, fns, "title")
	assert.NotContains(t, fns, "severity")
	assert.Contains(t, fns, "dedup")
}

func TestNormalization_FunctionSuffixAndMatcherName(t *testing.T) {
	agg := NewAggregator()
	det := &Detection{ID: "r", Type: "rule", MatcherName: "rule"}
	agg.StartDetection("r", "rule")
	agg.AddTestResult(det, RawTestResult{
		Name:   "t",
		Passed: true,
		Functions: map[string]*FunctionOutcome{
			"detectionFunction": {Output: true},
			"titleFunction":     {Output: "a title"},
		},
	})
	agg.FinishDetection(nil)

	fns := agg.Report("p", 1, 0).Detections[0].TestResults[0].Functions
	assert.Contains(t, fns, "rule")
	assert.NotContains(t, fns, "detection")
	assert.Contains(t, fns, "title")
}

func TestNormalization_EmbeddedJSONOutput(t *testing.T) {
	agg := NewAggregator()
	agg.StartDetection("r", "rule")
	agg.AddTestResult(nil, RawTestResult{
		Name:   "t",
		Passed: true,
		Functions: map[string]*FunctionOutcome{
			"alertContextFunction": {Output: `{"a":1}`},
			"titleFunction":        {Output: `{not valid json`},
			"dedupFunction":        {Output: "plain string"},
		},
	})
	agg.FinishDetection(nil)

	fns := agg.Report("p", 1, 0).Detections[0].TestResults[0].Functions
	assert.Equal(t, map[string]any{"a": float64(1)}, fns["alertContext"].Output)
	// Parse failure keeps the original string unchanged.
	assert.Equal(t, `{not valid json`, fns["title"].Output)
	assert.Equal(t, "plain string", fns["dedup"].Output)
}

func TestNormalization_NullErrorNeverEmitted(t *testing.T) {
	agg := NewAggregator()
	agg.StartDetection("r", "rule")
	agg.AddTestResult(nil, RawTestResult{
		Name:   "t",
		Passed: false,
		Functions: map[string]*FunctionOutcome{
			"titleFunction": {Output: "x", Error: nil},
			"dedupFunction": {Output: "y", Error: strptr("boom")},
		},
	})
	agg.FinishDetection(nil)

	out, err := agg.Report("p", 1, 0).JSON()
	require.NoError(t, err)
	assert.NotContains(t, out, `"error": null`)
	assert.Contains(t, out, `"error": "boom"`)
}

func TestAggregator_NoTestsSentinel(t *testing.T) {
	agg := NewAggregator()
	agg.NoTestsConfigured("lonely")
	agg.FinishDetection(nil)

	report := agg.Report("p", 1, 0)
	require.Len(t, report.Detections, 1)
	require.Len(t, report.Detections[0].TestResults, 1)
	tr := report.Detections[0].TestResults[0]
	assert.Equal(t, NoTestsMarker, tr.Name)
	assert.False(t, tr.Passed)
	assert.Empty(t, tr.Functions)
}

func TestAggregator_SkippedAndInvalid(t *testing.T) {
	agg := NewAggregator()
	agg.AddInvalidSpec("bad.yml", errors.New("yaml: broken"))
	agg.AddSkippedTest("off.yml", "Off.Rule", false)
	agg.AddSkippedTest("filtered.yml", "Filtered.Rule", true)

	report := agg.Report("p", 3, 1)
	require.Len(t, report.InvalidSpecs, 1)
	assert.Equal(t, "yaml: broken", report.InvalidSpecs[0].Error)
	require.Len(t, report.SkippedTests, 2)
	assert.Equal(t, "disabled", report.SkippedTests[0].Reason)
	assert.Equal(t, "no_matching_tests", report.SkippedTests[1].Reason)
	assert.Equal(t, 1, report.Summary.InvalidSpecs)
	assert.Equal(t, 2, report.Summary.SkippedTests)
}

func TestSummary_RecomputedFromLists(t *testing.T) {
	agg := NewAggregator()
	spec := []struct {
		id     string
		passed []bool
	}{
		{"a", []bool{true, true}},
		{"b", []bool{true, false, false}},
		{"c", []bool{false}},
	}
	failed := FailedTestRegistry{}
	for _, d := range spec {
		agg.StartDetection(d.id, "rule")
		for i, p := range d.passed {
			name := d.id + string(rune('0'+i))
			agg.AddTestResult(nil, RawTestResult{Name: name, Passed: p})
			if !p {
				failed[d.id] = append(failed[d.id], name)
			}
		}
		agg.FinishDetection(failed)
	}

	s := agg.Report("rules/", 3, 1).Summary
	assert.Equal(t, 3, s.TotalDetections)
	assert.Equal(t, 3, s.TestedDetections)
	assert.Equal(t, 6, s.TotalTests)
	assert.Equal(t, 3, s.PassedTests)
	assert.Equal(t, 3, s.FailedTests)
	assert.Equal(t, 2, s.DetectionsWithFailures)
	assert.Equal(t, "rules/", s.Path)
	assert.Equal(t, 1, s.ReturnCode)
}

func TestReport_SerializationIdempotent(t *testing.T) {
	agg := NewAggregator()
	agg.StartDetection("r", "rule")
	agg.AddTestResult(nil, passing("t1"))
	agg.FinishDetection(nil)

	first, err := agg.Report("p", 1, 0).JSON()
	require.NoError(t, err)
	second, err := agg.Report("p", 1, 0).JSON()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	text1 := agg.Report("p", 1, 0).Text()
	text2 := agg.Report("p", 1, 0).Text()
	assert.Equal(t, text1, text2)
}

func TestReport_ArraysNeverNull(t *testing.T) {
	out, err := NewAggregator().Report("p", 0, 0).JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	for _, key := range []string{"detections", "invalid_specs", "skipped_tests"} {
		assert.IsType(t, []any{}, decoded[key], key)
	}
}

func TestReport_SummaryKeyOrder(t *testing.T) {
	out, err := NewAggregator().Report("p", 0, 0).JSON()
	require.NoError(t, err)

	order := []string{
		`"path"`, `"return_code"`, `"total_detections"`, `"tested_detections"`,
		`"total_tests"`, `"passed_tests"`, `"failed_tests"`,
		`"invalid_specs"`, `"skipped_tests"`, `"detections_with_failures"`,
	}
	last := -1
	for _, key := range order {
		idx := strings.Index(out, key)
		require.Greater(t, idx, last, "key %s out of order", key)
		last = idx
	}
}

func TestAggregator_Merge(t *testing.T) {
	a := NewAggregator()
	a.StartDetection("a", "rule")
	a.AddTestResult(nil, passing("t"))
	a.FinishDetection(nil)

	b := NewAggregator()
	b.StartDetection("b", "policy")
	b.AddTestResult(nil, RawTestResult{Name: "u", Passed: false})
	b.FinishDetection(FailedTestRegistry{"b": {"u"}})
	b.AddInvalidSpec("x.yml", errors.New("nope"))

	a.Merge(b)
	s := a.Report("p", 2, 1).Summary
	assert.Equal(t, 2, s.TestedDetections)
	assert.Equal(t, 2, s.TotalTests)
	assert.Equal(t, 1, s.PassedTests)
	assert.Equal(t, 1, s.FailedTests)
	assert.Equal(t, 1, s.InvalidSpecs)
	assert.Equal(t, 1, s.DetectionsWithFailures)
}

func TestText_MatchesReportContent(t *testing.T) {
	agg := NewAggregator()
	det := &Detection{ID: "My.Rule", Type: "rule", MatcherName: "rule"}
	agg.StartDetection("My.Rule", "rule")
	agg.AddTestResult(det, RawTestResult{
		Name:   "bad event",
		Passed: false,
		Functions: map[string]*FunctionOutcome{
			"detectionFunction": {Output: false},
		},
	})
	agg.FinishDetection(FailedTestRegistry{"My.Rule": {"bad event"}})
	agg.AddInvalidSpec("broken.yml", errors.New("bad yaml"))

	text := agg.Report("rules/", 1, 1).Text()
	assert.Contains(t, text, "My.Rule (rule)")
	assert.Contains(t, text, "[FAIL] bad event")
	assert.Contains(t, text, "failed tests: bad event")
	assert.Contains(t, text, "broken.yml: bad yaml")
	assert.Contains(t, text, "failed_tests: 1")
	assert.Contains(t, text, "return_code: 1")
}
