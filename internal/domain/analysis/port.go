package analysis

import (
	"context"

	"github.com/wardenhq/warden-analysis/internal/domain/results"
)

// Executor port: runs one test case against a detection. The matcher, title
// and severity function semantics live entirely behind this interface.
type Executor interface {
	RunTest(ctx context.Context, spec *Spec, test TestSpec) (results.RawTestResult, error)
}
