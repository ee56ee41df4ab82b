// Package httprecord implements the remote record service contract over a
// JSON HTTP API. Records live in a named zone; saves are batched with
// per-record results, queries return per-record results, and error responses
// carry service codes that map onto the local error taxonomy.
package httprecord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	syncErrors "github.com/i4ali/macrosnap/errors"
	"github.com/i4ali/macrosnap/logging"
	"github.com/i4ali/macrosnap/record"
	"github.com/i4ali/macrosnap/remote"
)

// Limits bounds response handling.
type Limits struct {
	MaxBodyBytes int64 // Maximum response body size in bytes
}

// Client talks to the record service. It is safe for concurrent use.
type Client struct {
	baseURL string
	zone    string
	http    *http.Client
	limits  Limits
	logger  *logging.Logger
}

var _ remote.Store = (*Client)(nil)

// Option configures a Client using the functional options pattern.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(cl *http.Client) Option {
	return func(c *Client) {
		c.http = cl
	}
}

// WithTimeout sets the per-call timeout on the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithLimits sets response size limits.
func WithLimits(l Limits) Option {
	return func(c *Client) {
		c.limits = l
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a record-service client scoped to one zone. The default
// per-call timeout is 10 seconds; a timed-out call fails on its own without
// aborting the surrounding sync pass.
func NewClient(baseURL, zone string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		zone:    zone,
		http:    &http.Client{Timeout: 10 * time.Second},
		limits: Limits{
			MaxBodyBytes: 8 << 20, // 8MB
		},
		logger: logging.WithComponent(logging.Component("httprecord")),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Zone returns the zone the client is scoped to.
func (c *Client) Zone() string { return c.zone }

// AccountStatus reports whether the backing account can be used.
func (c *Client) AccountStatus(ctx context.Context) (remote.AccountStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/account", nil)
	if err != nil {
		return remote.StatusUnknown, syncErrors.NewWithComponent(syncErrors.OpAccountCheck, "remote", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return remote.StatusUnknown, syncErrors.NewRetryable(syncErrors.OpAccountCheck, fmt.Errorf("network error: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return remote.StatusUnknown, c.statusError(syncErrors.OpAccountCheck, resp)
	}

	var body accountResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.limits.MaxBodyBytes)).Decode(&body); err != nil {
		return remote.StatusUnknown, syncErrors.NewWithComponent(syncErrors.OpAccountCheck, "remote", fmt.Errorf("failed to decode response: %w", err))
	}

	switch body.Status {
	case "available":
		return remote.StatusAvailable, nil
	case "no_account":
		return remote.StatusNoAccount, nil
	case "restricted":
		return remote.StatusRestricted, nil
	default:
		return remote.StatusUnknown, nil
	}
}

// EnsureZone creates the zone if needed; conflict means it already exists.
func (c *Client) EnsureZone(ctx context.Context) error {
	u := fmt.Sprintf("%s/zones/%s", c.baseURL, url.PathEscape(c.zone))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return syncErrors.NewWithComponent(syncErrors.OpEnsureZone, "remote", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return syncErrors.NewRetryable(syncErrors.OpEnsureZone, fmt.Errorf("network error: %w", err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusConflict:
		return nil
	default:
		return c.statusError(syncErrors.OpEnsureZone, resp)
	}
}

// SaveBatch upserts up to remote.MaxBatchSize records in one call.
func (c *Client) SaveBatch(ctx context.Context, records []record.Record) ([]remote.SaveResult, error) {
	if len(records) == 0 {
		return nil, nil
	}
	if len(records) > remote.MaxBatchSize {
		return nil, syncErrors.NewValidationError(syncErrors.OpPush,
			fmt.Errorf("batch of %d exceeds limit of %d", len(records), remote.MaxBatchSize))
	}

	reqBody := saveBatchRequest{Records: make([]wireRecord, 0, len(records))}
	for _, r := range records {
		w, err := toWireRecord(r)
		if err != nil {
			return nil, syncErrors.NewDataError(syncErrors.OpPush, err)
		}
		reqBody.Records = append(reqBody.Records, w)
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, syncErrors.NewWithComponent(syncErrors.OpPush, "remote", fmt.Errorf("failed to marshal batch: %w", err))
	}

	u := fmt.Sprintf("%s/zones/%s/records:batch", c.baseURL, url.PathEscape(c.zone))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, syncErrors.NewWithComponent(syncErrors.OpPush, "remote", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Saving record batch",
		slog.Int("record_count", len(records)),
		slog.String("zone", c.zone))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, syncErrors.NewRetryable(syncErrors.OpPush, fmt.Errorf("network error: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(syncErrors.OpPush, resp)
	}

	var body saveBatchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.limits.MaxBodyBytes)).Decode(&body); err != nil {
		return nil, syncErrors.NewWithComponent(syncErrors.OpPush, "remote", fmt.Errorf("failed to decode response: %w", err))
	}

	results := make([]remote.SaveResult, 0, len(body.Results))
	for _, wr := range body.Results {
		if wr.Error != nil {
			results = append(results, remote.SaveResult{Err: c.codeError(syncErrors.OpPush, *wr.Error)})
			continue
		}
		if wr.Record == nil {
			results = append(results, remote.SaveResult{Err: syncErrors.NewDataError(syncErrors.OpPush, fmt.Errorf("save result carries neither record nor error"))})
			continue
		}
		rec, err := fromWireRecord(*wr.Record)
		if err != nil {
			results = append(results, remote.SaveResult{Err: syncErrors.NewDataError(syncErrors.OpPush, err)})
			continue
		}
		results = append(results, remote.SaveResult{Record: rec})
	}
	return results, nil
}

// Query returns every record of the given type modified since the given time.
func (c *Client) Query(ctx context.Context, recordType string, since time.Time) ([]remote.QueryResult, error) {
	u := fmt.Sprintf("%s/zones/%s/records?type=%s&since=%s",
		c.baseURL, url.PathEscape(c.zone), url.QueryEscape(recordType),
		url.QueryEscape(since.UTC().Format(time.RFC3339Nano)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, syncErrors.NewWithComponent(syncErrors.OpPull, "remote", err)
	}

	c.logger.Debug("Querying records",
		slog.String("record_type", recordType),
		slog.String("zone", c.zone))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, syncErrors.NewRetryable(syncErrors.OpPull, fmt.Errorf("network error: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(syncErrors.OpPull, resp)
	}

	var body queryResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.limits.MaxBodyBytes)).Decode(&body); err != nil {
		return nil, syncErrors.NewWithComponent(syncErrors.OpPull, "remote", fmt.Errorf("failed to decode response: %w", err))
	}

	results := make([]remote.QueryResult, 0, len(body.Results))
	for _, wr := range body.Results {
		if wr.Error != nil {
			results = append(results, remote.QueryResult{Err: c.codeError(syncErrors.OpPull, *wr.Error)})
			continue
		}
		if wr.Record == nil {
			results = append(results, remote.QueryResult{Err: syncErrors.NewDataError(syncErrors.OpPull, fmt.Errorf("query result carries neither record nor error"))})
			continue
		}
		rec, err := fromWireRecord(*wr.Record)
		if err != nil {
			results = append(results, remote.QueryResult{Err: syncErrors.NewDataError(syncErrors.OpPull, err)})
			continue
		}
		results = append(results, remote.QueryResult{Record: rec})
	}
	return results, nil
}

// Delete removes a single record by identity.
func (c *Client) Delete(ctx context.Context, recordID string) error {
	u := fmt.Sprintf("%s/zones/%s/records/%s", c.baseURL, url.PathEscape(c.zone), url.PathEscape(recordID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return syncErrors.NewWithComponent(syncErrors.OpDelete, "remote", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return syncErrors.NewRetryable(syncErrors.OpDelete, fmt.Errorf("network error: %w", err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	default:
		return c.statusError(syncErrors.OpDelete, resp)
	}
}

// Close does nothing; the underlying http.Client holds no resources needing
// explicit release.
func (c *Client) Close() error { return nil }

// statusError maps an HTTP error response to the local taxonomy, preferring
// the service's structured error code when the body carries one.
func (c *Client) statusError(op syncErrors.Operation, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, c.limits.MaxBodyBytes))

	var we wireError
	if err := json.Unmarshal(body, &we); err == nil && we.Code != "" {
		return c.codeError(op, we)
	}

	err := fmt.Errorf("server error (status %d): %s", resp.StatusCode, string(body))
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &syncErrors.SyncError{Op: op, Component: "remote", Kind: syncErrors.KindNotFound, Err: err}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return syncErrors.NewRetryable(op, err)
	default:
		return syncErrors.NewWithComponent(op, "remote", err)
	}
}

// codeError maps a service error code to the local taxonomy.
func (c *Client) codeError(op syncErrors.Operation, we wireError) error {
	err := fmt.Errorf("%s: %s", we.Code, we.Message)
	switch we.Code {
	case codeSchemaNotProvisioned:
		return syncErrors.NewSchemaNotProvisioned(op, err)
	case codeNotFound:
		return &syncErrors.SyncError{Op: op, Component: "remote", Kind: syncErrors.KindNotFound, Err: err}
	case codeRateLimited:
		return syncErrors.NewRetryable(op, err)
	default:
		return syncErrors.NewWithComponent(op, "remote", err)
	}
}
