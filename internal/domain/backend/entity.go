package backend

// BulkUploadParams carries one chunk's archive bytes.
type BulkUploadParams struct {
	Zip []byte
}

// ValidationIssue is one content-level problem the backend reported for a
// submitted file. Both fields are optional.
type ValidationIssue struct {
	Path         string `json:"path,omitempty"`
	ErrorMessage string `json:"message,omitempty"`
}

// ValidateResult is the backend's answer to a bulk validate call.
type ValidateResult struct {
	Valid  bool
	Error  string
	Issues []ValidationIssue
}

// UploadResult is the backend's answer to a bulk upload call.
type UploadResult struct {
	TotalDetections    int
	ModifiedDetections int
	NewDetections      int
}

// CheckResult is the backend's answer to a connection check.
type CheckResult struct {
	Success bool
	Message string
}
