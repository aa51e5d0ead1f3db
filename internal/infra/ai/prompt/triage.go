package prompt

import "fmt"

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior detection engineer. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- likely_causes is an array of concise strings, most probable first.
- affected_detections lists detection ids taken verbatim from the report.
- Keep summary under three sentences; never restate raw test output.

Schema (example with empty values):
{
  "summary": "<string>",
  "affected_detections": ["<string>"],
  "likely_causes": ["<string>"],
  "suggested_fixes": ["<string>"]
}`
}

// GetUserPrompt wraps the finished analysis report for triage.
func GetUserPrompt(reportJSON string) string {
	return fmt.Sprintf("Triage the failing tests in this analysis report and respond with the JSON per schema. Report:\n%s", reportJSON)
}

// Triage is a sample structure that matches the schema used by the system prompt.
type Triage struct {
	Summary            string   `json:"summary"`
	AffectedDetections []string `json:"affected_detections"`
	LikelyCauses       []string `json:"likely_causes"`
	SuggestedFixes     []string `json:"suggested_fixes"`
}
