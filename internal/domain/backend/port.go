package backend

import "context"

// Client port for the remote Warden API. Transport, auth and retry policy
// are the implementation's concern, never this core's.
type Client interface {
	Check(ctx context.Context) (CheckResult, error)
	BulkUpload(ctx context.Context, params BulkUploadParams) (*UploadResult, error)
	BulkValidate(ctx context.Context, params BulkUploadParams) (*ValidateResult, error)
	SupportsBulkValidate() bool
}
