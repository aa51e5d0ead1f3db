package backend

import (
	"errors"
	"fmt"
)

// ErrCapabilityUnsupported indicates the deployment lacks a feature this
// tool needs. Expected, warning-level outcome, not a crash.
var ErrCapabilityUnsupported = errors.New("backend does not support this capability")

// ContentRejectedError indicates the backend parsed the submission and
// rejected its content, with per-file issues.
type ContentRejectedError struct {
	Message string
	Issues  []ValidationIssue
}

func (e *ContentRejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("content rejected: %s (%d issues)", e.Message, len(e.Issues))
	}
	return fmt.Sprintf("content rejected: %d issues", len(e.Issues))
}
