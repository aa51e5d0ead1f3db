// Package execengine adapts an external detection engine binary to the
// Executor port. The engine receives one test case as JSON on stdin and
// answers with a test result as JSON on stdout; matcher semantics stay on
// its side of the pipe.
package execengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	"github.com/wardenhq/warden-analysis/internal/domain/analysis"
	"github.com/wardenhq/warden-analysis/internal/domain/results"
)

type Runner struct {
	command string
	log     *zap.Logger
}

func NewRunner(command string, log *zap.Logger) *Runner {
	return &Runner{command: command, log: log}
}

// request is the wire shape the engine binary reads from stdin.
type request struct {
	AnalysisType string         `json:"analysis_type"`
	DetectionID  string         `json:"detection_id"`
	SpecFile     string         `json:"spec_file"`
	TestName     string         `json:"test_name"`
	Expected     bool           `json:"expected_result"`
	Log          map[string]any `json:"log"`
}

func (r *Runner) RunTest(ctx context.Context, spec *analysis.Spec, test analysis.TestSpec) (results.RawTestResult, error) {
	if r.command == "" {
		return results.RawTestResult{}, fmt.Errorf("no engine command configured")
	}

	payload, err := json.Marshal(request{
		AnalysisType: spec.AnalysisType,
		DetectionID:  spec.DetectionID(),
		SpecFile:     spec.Filename,
		TestName:     test.Name,
		Expected:     test.ExpectedResult,
		Log:          test.Log,
	})
	if err != nil {
		return results.RawTestResult{}, err
	}

	cmd := exec.CommandContext(ctx, r.command, "test")
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		r.log.Debug("engine exited with error",
			zap.String("detection", spec.DetectionID()),
			zap.String("stderr", stderr.String()))
		return results.RawTestResult{}, fmt.Errorf("engine run: %w", err)
	}

	var tr results.RawTestResult
	if err := json.Unmarshal(stdout.Bytes(), &tr); err != nil {
		return results.RawTestResult{}, fmt.Errorf("decode engine output: %w", err)
	}
	if tr.Name == "" {
		tr.Name = test.Name
	}
	return tr, nil
}
