// Package receipts is a thin client for the external receipt-ingestion
// pipeline (OCR over uploaded receipt images). The pipeline is an
// opaque collaborator: this service only triggers runs, inspects
// failures, and stores the pipeline's API credential. The resulting
// rows land in the CSV source and arrive here through a normal refresh.
package receipts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type (
	Client struct {
		baseURL string
		client  *http.Client
	}

	// ProcessRequest selects which receipt files to run. RetryFailed
	// reruns only previously failed files; Files, when set, names an
	// explicit list.
	ProcessRequest struct {
		RetryFailed bool     `json:"retry_failed"`
		Files       []string `json:"files,omitempty"`
	}

	ProcessError struct {
		Filename string `json:"filename"`
		Error    string `json:"error"`
	}

	ProcessResult struct {
		Processed   int            `json:"processed"`
		Failed      int            `json:"failed"`
		WrittenRows int            `json:"written_rows"`
		Errors      []ProcessError `json:"errors"`
	}

	FailedReceipt struct {
		Filename  string  `json:"filename"`
		Error     string  `json:"error"`
		Timestamp *string `json:"timestamp"`
	}

	// APIError carries the pipeline's HTTP status and error message so
	// callers can mirror them.
	APIError struct {
		Status  int
		Message string
	}
)

func (e *APIError) Error() string {
	return fmt.Sprintf("receipt pipeline: %s (status %d)", e.Message, e.Status)
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Process triggers a pipeline run and returns its counters.
func (c *Client) Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	var result ProcessResult
	if err := c.post(ctx, "/api/process", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Failures returns the receipts currently marked as failed.
func (c *Client) Failures(ctx context.Context) ([]FailedReceipt, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/failures", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch failures: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var payload struct {
		Failures []FailedReceipt `json:"failures"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode failures: %w", err)
	}
	return payload.Failures, nil
}

// SetAPIKey stores the credential the pipeline uses for OCR calls.
func (c *Client) SetAPIKey(ctx context.Context, apiKey string) error {
	body := struct {
		APIKey string `json:"api_key"`
	}{APIKey: apiKey}
	return c.post(ctx, "/api/config/openai-key", body, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// apiError extracts {"error": "..."} from an error response, falling
// back to the raw body text.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = "request failed"
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
