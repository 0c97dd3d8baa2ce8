package api

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

// do marshals body (when non-nil) as JSON and runs the request through the
// limiter, resilience executor, and metrics.
func (c *Client) do(ctx context.Context, method, path string, contentType string, body any, out any, operation string) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", operation, err)
		}
		if contentType == "" {
			contentType = "application/json"
		}
	}
	return c.doRaw(ctx, method, path, contentType, payload, out, operation)
}

// doRaw sends pre-encoded bytes. The body is kept as a slice so a retry
// attempt can rebuild its reader instead of resending a drained one.
func (c *Client) doRaw(ctx context.Context, method, path string, contentType string, payload []byte, out any, operation string) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit %s: %w", operation, err)
		}
	}

	c.metrics.RequestStarted()
	started := time.Now()

	call := func(ctx context.Context) error {
		return c.send(ctx, method, path, contentType, payload, out, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "api."+operation, call, classifyAPIError)
	} else {
		err = call(ctx)
	}

	c.metrics.RequestFinished(operation, started, err)
	return wrapTemporaryIfNeeded(operation, err)
}

func (c *Client) send(ctx context.Context, method, path string, contentType string, payload []byte, out any, operation string) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("receipts %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return newHTTPStatusError(operation, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

// HTTPStatusError carries the backend's status and a body excerpt so
// user-facing messages can show what the server actually said.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func newHTTPStatusError(operation string, resp *http.Response) *HTTPStatusError {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(excerpt)),
	}
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "receipts status error"
	}
	if e.Body == "" {
		return fmt.Sprintf("receipts %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("receipts %s status: %s: %s", e.Operation, e.Status, e.Body)
}
