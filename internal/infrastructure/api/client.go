// Package api implements the REST client for the receipts backend. The
// backend is the single source of truth; this client only shuttles raw
// payloads — normalization happens in the core, so wire-shape quirks
// (envelope vs. bare array, wrapped OCR structures) stop here.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ilhamije/receipt-scanner/internal/core/domain"
	"github.com/ilhamije/receipt-scanner/internal/core/ports"
	"github.com/ilhamije/receipt-scanner/internal/infrastructure/resilience"
	"github.com/ilhamije/receipt-scanner/internal/observability/metrics"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
	metrics    *metrics.ClientMetrics
}

type Options struct {
	// Timeout bounds every call; a timed-out call fails exactly like any
	// other network error. Defaults to 30s.
	Timeout time.Duration
	// RateLimit throttles outgoing calls; zero disables throttling.
	RateLimit rate.Limit
	RateBurst int
	Executor  *resilience.Executor
	Metrics   *metrics.ClientMetrics
}

func New(baseURL string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	var limiter *rate.Limiter
	if options.RateLimit > 0 {
		burst := options.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(options.RateLimit, burst)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		executor:   options.Executor,
		metrics:    options.Metrics,
	}
}

var _ ports.ReceiptAPI = (*Client)(nil)

func (c *Client) List(ctx context.Context, filter domain.Filter, limit, offset int) (ports.RawPage, error) {
	path := "/receipts/?" + filter.Query(limit, offset).Encode()
	var payload json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, "", nil, &payload, "list"); err != nil {
		return ports.RawPage{}, err
	}
	return decodeListPayload(payload), nil
}

func (c *Client) Get(ctx context.Context, id string) (map[string]any, error) {
	var record map[string]any
	err := c.do(ctx, http.MethodGet, "/receipts/"+id, "", nil, &record, "get")
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, domain.WrapError(domain.ErrNotFound, "get receipt", err)
		}
		return nil, err
	}
	return record, nil
}

func (c *Client) Upload(ctx context.Context, filename string, file io.Reader) (map[string]any, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy upload payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize upload form: %w", err)
	}

	var record map[string]any
	if err := c.doRaw(ctx, http.MethodPost, "/receipts/", writer.FormDataContentType(), body.Bytes(), &record, "upload"); err != nil {
		return nil, err
	}
	return record, nil
}

func (c *Client) Update(ctx context.Context, id string, patch domain.ReceiptPatch) (map[string]any, error) {
	var record map[string]any
	err := c.do(ctx, http.MethodPatch, "/receipts/"+id, "", patch, &record, "update")
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, domain.WrapError(domain.ErrNotFound, "update receipt", err)
		}
		return nil, err
	}
	return record, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/receipts/"+id, "", nil, nil, "delete")
	if err != nil && statusOf(err) == http.StatusNotFound {
		return domain.WrapError(domain.ErrNotFound, "delete receipt", err)
	}
	return err
}

// decodeListPayload accepts the `{results, total}` envelope, degrades to a
// bare array (total inferred from its length), and treats anything else as
// an empty result set. An unexpected payload shape must never crash the
// client or poison the list view.
func decodeListPayload(payload json.RawMessage) ports.RawPage {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return ports.RawPage{Results: []map[string]any{}}
	}

	if trimmed[0] == '[' {
		var results []map[string]any
		if err := json.Unmarshal(trimmed, &results); err != nil {
			return ports.RawPage{Results: []map[string]any{}}
		}
		return ports.RawPage{Results: results, Total: len(results)}
	}

	var envelope struct {
		Results []map[string]any `json:"results"`
		Total   *int             `json:"total"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil || envelope.Results == nil {
		return ports.RawPage{Results: []map[string]any{}}
	}
	total := len(envelope.Results)
	if envelope.Total != nil {
		total = *envelope.Total
	}
	return ports.RawPage{Results: envelope.Results, Total: total}
}
