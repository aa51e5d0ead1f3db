// Package backendhttp is the HTTP implementation of the backend client
// port. Retry policy is deliberately absent here; callers own it.
package backendhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "github.com/wardenhq/warden-analysis/internal/domain/backend"
)

type Client struct {
	httpClient *http.Client
	host       string
	token      string
	log        *zap.Logger
}

func New(host, token string, log *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		host:       strings.TrimRight(host, "/"),
		token:      token,
		log:        log,
	}
}

// issuePayload mirrors the backend's error body for the bulk endpoints.
type issuePayload struct {
	Error  string `json:"error"`
	Issues []struct {
		Path    string `json:"path"`
		Message string `json:"message"`
	} `json:"issues"`
}

func (c *Client) Check(ctx context.Context) (domain.CheckResult, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/status", nil, "")
	if err != nil {
		return domain.CheckResult{}, err
	}
	defer resp.Body.Close()

	var body struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode != http.StatusOK {
		msg := body.Message
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return domain.CheckResult{Success: false, Message: msg}, nil
	}
	return domain.CheckResult{Success: true, Message: body.Message}, nil
}

func (c *Client) BulkUpload(ctx context.Context, params domain.BulkUploadParams) (*domain.UploadResult, error) {
	resp, err := c.do(ctx, http.MethodPost, "/v1/analysis/upload", params.Zip, "application/zip")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body struct {
			TotalDetections    int `json:"total_detections"`
			ModifiedDetections int `json:"modified_detections"`
			NewDetections      int `json:"new_detections"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decode upload response: %w", err)
		}
		return &domain.UploadResult{
			TotalDetections:    body.TotalDetections,
			ModifiedDetections: body.ModifiedDetections,
			NewDetections:      body.NewDetections,
		}, nil
	case http.StatusBadRequest:
		payload := decodeIssues(resp.Body)
		return nil, &domain.ContentRejectedError{Message: payload.Error, Issues: toIssues(payload)}
	case http.StatusNotFound, http.StatusNotImplemented:
		return nil, fmt.Errorf("bulk upload: %w", domain.ErrCapabilityUnsupported)
	default:
		return nil, fmt.Errorf("bulk upload: unexpected status %d", resp.StatusCode)
	}
}

func (c *Client) BulkValidate(ctx context.Context, params domain.BulkUploadParams) (*domain.ValidateResult, error) {
	resp, err := c.do(ctx, http.MethodPost, "/v1/analysis/validate", params.Zip, "application/zip")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return &domain.ValidateResult{Valid: true}, nil
	case http.StatusBadRequest:
		payload := decodeIssues(resp.Body)
		return &domain.ValidateResult{Valid: false, Error: payload.Error, Issues: toIssues(payload)}, nil
	case http.StatusNotFound, http.StatusNotImplemented:
		return nil, fmt.Errorf("bulk validate: %w", domain.ErrCapabilityUnsupported)
	default:
		return nil, fmt.Errorf("bulk validate: unexpected status %d", resp.StatusCode)
	}
}

// SupportsBulkValidate: the validate endpoint is only served to API-token
// authenticated clients.
func (c *Client) SupportsBulkValidate() bool {
	return c.token != ""
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.host+path, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("X-API-Key", c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	c.log.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))
	return resp, nil
}

func decodeIssues(r io.Reader) issuePayload {
	var payload issuePayload
	// Best effort: an undecodable body just yields an empty issue list
	_ = json.NewDecoder(r).Decode(&payload)
	return payload
}

func toIssues(p issuePayload) []domain.ValidationIssue {
	out := make([]domain.ValidationIssue, 0, len(p.Issues))
	for _, i := range p.Issues {
		out = append(out, domain.ValidationIssue{Path: i.Path, ErrorMessage: i.Message})
	}
	return out
}
