package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrStatus reports an unexpected response status.
var ErrStatus = errors.New("unexpected status")

// Client talks to the ranking API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK)
}

// Criteria fetches the registry.
func (c *Client) Criteria(ctx context.Context) ([]Criterion, error) {
	var out []Criterion
	if err := c.do(ctx, http.MethodGet, "/criteria", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// PostEmployee upserts one employee.
func (c *Client) PostEmployee(ctx context.Context, e Employee) error {
	return c.do(ctx, http.MethodPost, "/employees", e, nil, http.StatusOK)
}

// PostMeasurements submits one batch.
func (c *Client) PostMeasurements(ctx context.Context, ms []Measurement) error {
	return c.do(ctx, http.MethodPost, "/measurements", ms, nil, http.StatusAccepted)
}

// Recompute schedules a recompute of every month.
func (c *Client) Recompute(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/recompute", nil, nil, http.StatusAccepted)
}

// Rankings fetches the first limit rows of period.
func (c *Client) Rankings(ctx context.Context, period string, limit int) ([]Row, error) {
	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var body struct {
		Results []Row `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/rankings?"+q.Encode(), nil, &body, http.StatusOK); err != nil {
		return nil, err
	}
	return body.Results, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, want int) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("%w: %s %s: %d %s", ErrStatus, method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
