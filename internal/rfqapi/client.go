package rfqapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/rfqedit/internal/logging"
	"github.com/muurk/rfqedit/internal/rfq"
	"github.com/muurk/rfqedit/internal/version"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second

	// RequestIDHeader carries a per-request id for log correlation
	RequestIDHeader = "X-Request-ID"
)

// Client performs requests against one RFQ record and its line table.
// Writes are never retried. Reads are retried only when MaxRetries > 0.
type Client struct {
	// BaseURL is the service root (e.g., "http://localhost:5012")
	BaseURL string

	// RFQID identifies the record
	RFQID int

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the number of extra attempts for failed reads (0 = none)
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay caps the exponential backoff
	MaxRetryDelay time.Duration
}

// NewClient creates a client for record rfqID at baseURL.
func NewClient(baseURL string, rfqID int) *Client {
	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		RFQID:         rfqID,
		HTTPClient:    &http.Client{Timeout: DefaultTimeout},
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior for reads
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// RecordURL returns the record endpoint.
func (c *Client) RecordURL() string {
	return fmt.Sprintf("%s/api/rfq/%d", c.BaseURL, c.RFQID)
}

func (c *Client) soltURL(parts ...string) string {
	u := c.RecordURL() + "/solt"
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}
	return u
}

// Health checks that the service answers.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, c.BaseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return nil
}

// FetchRecord retrieves the record.
func (c *Client) FetchRecord(ctx context.Context) (rfq.Record, error) {
	var rec rfq.Record
	err := c.withRetry(ctx, func() error {
		body, err := c.readJSON(ctx, http.MethodGet, c.RecordURL(), nil)
		if err != nil {
			return err
		}
		rec, err = rfq.DecodeRecord(body)
		if err != nil {
			return NewParseError("failed to parse record", err)
		}
		return nil
	})
	return rec, err
}

// PatchRecord writes one field and returns the authoritative record.
// Callers must replace their cache with the result rather than merging
// the written value, since derived fields may have changed too.
func (c *Client) PatchRecord(ctx context.Context, field string, value rfq.Value) (rfq.Record, error) {
	body, err := c.readJSON(ctx, http.MethodPatch, c.RecordURL(), map[string]rfq.Value{field: value})
	if err != nil {
		return nil, err
	}
	rec, err := rfq.DecodeRecord(body)
	if err != nil {
		return nil, NewParseError("failed to parse patched record", err)
	}
	return rec, nil
}

// FetchSolt retrieves the tab and line snapshot.
func (c *Client) FetchSolt(ctx context.Context) (*rfq.Snapshot, error) {
	var snap *rfq.Snapshot
	err := c.withRetry(ctx, func() error {
		body, err := c.readJSON(ctx, http.MethodGet, c.soltURL(), nil)
		if err != nil {
			return err
		}
		var s rfq.Snapshot
		if err := json.Unmarshal(body, &s); err != nil {
			return NewParseError("failed to parse line table", err)
		}
		snap = &s
		return nil
	})
	return snap, err
}

// PatchTab renames a tab. The response carries at least the new name.
func (c *Client) PatchTab(ctx context.Context, index int, name string) (rfq.Tab, error) {
	body, err := c.readJSON(ctx, http.MethodPatch, c.soltURL("tab", strconv.Itoa(index)), map[string]string{"name": name})
	if err != nil {
		return rfq.Tab{}, err
	}
	var resp struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return rfq.Tab{}, NewParseError("failed to parse tab", err)
	}
	return rfq.Tab{Index: index, Name: resp.Name}, nil
}

// PatchLine writes a partial field map to a line. Only the status is
// significant; the response body is discarded.
func (c *Client) PatchLine(ctx context.Context, id rfq.LineID, fields map[string]any) bool {
	resp, err := c.do(ctx, http.MethodPatch, c.soltURL("line", string(id)), fields)
	if err != nil {
		logging.Debug("Line patch failed", zap.String("line_id", string(id)), zap.Error(err))
		return false
	}
	_ = resp.Body.Close()
	return true
}

// AddLine appends a line to a tab.
func (c *Client) AddLine(ctx context.Context, line rfq.NewLine) error {
	resp, err := c.do(ctx, http.MethodPost, c.soltURL("line"), line)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

// DeleteLine removes a line.
func (c *Client) DeleteLine(ctx context.Context, id rfq.LineID) error {
	resp, err := c.do(ctx, http.MethodDelete, c.soltURL("line", string(id)), nil)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

// withRetry runs attempt up to MaxRetries+1 times with exponential backoff.
func (c *Client) withRetry(ctx context.Context, attempt func() error) error {
	var lastErr error
	currentDelay := c.RetryDelay

	for i := 0; i <= c.MaxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return NewNetworkError("request cancelled", ctx.Err())
			case <-time.After(currentDelay):
			}
			currentDelay *= 2
			if currentDelay > c.MaxRetryDelay {
				currentDelay = c.MaxRetryDelay
			}
		}

		lastErr = attempt()
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

// readJSON performs a request and returns the body of a success response.
func (c *Client) readJSON(ctx context.Context, method, target string, payload any) ([]byte, error) {
	resp, err := c.do(ctx, method, target, payload)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err)
	}
	return body, nil
}

// do sends one request and maps transport failures and non-2xx statuses to
// RemoteError. On success the caller owns resp.Body.
func (c *Client) do(ctx context.Context, method, target string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s body: %w", method, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, NewNetworkError(fmt.Sprintf("failed to create %s request", method), err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logging.Debug("Request failed",
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("url", target),
			zap.Error(err),
		)
		return nil, NewNetworkError(fmt.Sprintf("%s request failed", method), err)
	}

	logging.Debug("Request completed",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("%s %s returned %d: %s", method, target, resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	return resp, nil
}
