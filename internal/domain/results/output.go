package results

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// marshalIndent is the one JSON encoding used for every report shape:
// 2-space indent, struct tag key order.
func marshalIndent(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// JSON renders the report as the machine-readable document.
func (r *AnalysisReport) JSON() (string, error) {
	return marshalIndent(r)
}

// Text renders the same report for humans. It reads only fields the JSON
// emission reads, so the two stay semantically identical.
func (r *AnalysisReport) Text() string {
	var b strings.Builder

	b.WriteString("Test Results\n")
	b.WriteString("------------\n")
	for _, d := range r.Detections {
		kind := ""
		if d.DetectionType != nil {
			kind = fmt.Sprintf(" (%s)", *d.DetectionType)
		}
		fmt.Fprintf(&b, "%s%s\n", d.DetectionID, kind)
		for _, t := range d.TestResults {
			status := "PASS"
			if !t.Passed {
				status = "FAIL"
			}
			fmt.Fprintf(&b, "\t[%s] %s\n", status, t.Name)
			for _, name := range sortedKeys(t.Functions) {
				fn := t.Functions[name]
				fmt.Fprintf(&b, "\t\t[%s] %s\n", boolStatus(fn.Error == nil), name)
				fmt.Fprintf(&b, "\t\t\toutput: %s\n", renderValue(fn.Output))
				if fn.Error != nil {
					fmt.Fprintf(&b, "\t\t\terror: %s\n", *fn.Error)
				}
			}
		}
		if len(d.FailedTests) > 0 {
			fmt.Fprintf(&b, "\tfailed tests: %s\n", strings.Join(d.FailedTests, ", "))
		}
	}

	if len(r.InvalidSpecs) > 0 {
		b.WriteString("\nInvalid Specs\n")
		b.WriteString("-------------\n")
		for _, s := range r.InvalidSpecs {
			fmt.Fprintf(&b, "\t%s: %s\n", s.Filename, s.Error)
		}
	}

	if len(r.SkippedTests) > 0 {
		b.WriteString("\nSkipped Tests\n")
		b.WriteString("-------------\n")
		for _, s := range r.SkippedTests {
			fmt.Fprintf(&b, "\t%s (%s): %s\n", s.DetectionID, s.Filename, s.Reason)
		}
	}

	b.WriteString("\nSummary\n")
	b.WriteString("-------\n")
	fmt.Fprintf(&b, "\tpath: %s\n", r.Summary.Path)
	fmt.Fprintf(&b, "\treturn_code: %d\n", r.Summary.ReturnCode)
	fmt.Fprintf(&b, "\ttotal_detections: %d\n", r.Summary.TotalDetections)
	fmt.Fprintf(&b, "\ttested_detections: %d\n", r.Summary.TestedDetections)
	fmt.Fprintf(&b, "\ttotal_tests: %d\n", r.Summary.TotalTests)
	fmt.Fprintf(&b, "\tpassed_tests: %d\n", r.Summary.PassedTests)
	fmt.Fprintf(&b, "\tfailed_tests: %d\n", r.Summary.FailedTests)
	fmt.Fprintf(&b, "\tinvalid_specs: %d\n", r.Summary.InvalidSpecs)
	fmt.Fprintf(&b, "\tskipped_tests: %d\n", r.Summary.SkippedTests)
	fmt.Fprintf(&b, "\tdetections_with_failures: %d\n", r.Summary.DetectionsWithFailures)

	return b.String()
}

func boolStatus(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

// renderValue prints structured outputs as compact JSON and falls back to
// fmt for anything the encoder rejects.
func renderValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func sortedKeys(m map[string]NormalizedOutcome) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidationReport is the structured outcome of a bulk validate or upload.
type ValidationReport struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Errors   []map[string]any `json:"errors"`
	Warnings []map[string]any `json:"warnings"`
}

// NewValidationReport keeps the error/warning arrays non-nil so the JSON
// emission never contains null where a list belongs.
func NewValidationReport(success bool, message string, errs, warnings []map[string]any) ValidationReport {
	if errs == nil {
		errs = []map[string]any{}
	}
	if warnings == nil {
		warnings = []map[string]any{}
	}
	return ValidationReport{Success: success, Message: message, Errors: errs, Warnings: warnings}
}

func (r ValidationReport) JSON() (string, error) {
	return marshalIndent(r)
}

func (r ValidationReport) Text() string {
	var b strings.Builder
	if r.Success {
		fmt.Fprintf(&b, "%s\n", r.Message)
		return b.String()
	}
	fmt.Fprintf(&b, "%s\n", r.Message)
	for _, e := range r.Errors {
		for _, k := range sortedMapKeys(e) {
			fmt.Fprintf(&b, "\t%s: %v\n", k, e[k])
		}
	}
	for _, w := range r.Warnings {
		for _, k := range sortedMapKeys(w) {
			fmt.Fprintf(&b, "\twarning %s: %v\n", k, w[k])
		}
	}
	return b.String()
}

// ConnectionReport is the structured outcome of a connection check.
type ConnectionReport struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	APIHost string `json:"api_host"`
}

func (r ConnectionReport) JSON() (string, error) {
	return marshalIndent(r)
}

func (r ConnectionReport) Text() string {
	if r.Success {
		return fmt.Sprintf("connection to %s succeeded: %s\n", r.APIHost, r.Message)
	}
	return fmt.Sprintf("connection to %s failed: %s\n", r.APIHost, r.Message)
}

func sortedMapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
