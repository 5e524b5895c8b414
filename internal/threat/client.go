package threat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// FetchError is the single failure kind surfaced by the client. It names
// the resource that failed and wraps the cause.
type FetchError struct {
	Resource string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client reads the threat feed over HTTP.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a client for the given base endpoint address.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// BaseURL reports the configured endpoint address.
func (c *Client) BaseURL() string { return c.baseURL }

type threatsResponse struct {
	Threats []Threat `json:"threats"`
}

// Threats retrieves the current threat list. A payload without a threats
// field yields an empty list, not an error.
func (c *Client) Threats(ctx context.Context) ([]Threat, error) {
	var resp threatsResponse
	if err := c.getJSON(ctx, "/api/threats", &resp); err != nil {
		return nil, &FetchError{Resource: "threats", Err: err}
	}
	if resp.Threats == nil {
		resp.Threats = []Threat{}
	}
	return resp.Threats, nil
}

// Summary retrieves the dashboard counters. An empty payload yields an
// empty summary, not an error.
func (c *Client) Summary(ctx context.Context) (*Summary, error) {
	var s Summary
	if err := c.getJSON(ctx, "/api/dashboard/summary", &s); err != nil {
		return nil, &FetchError{Resource: "summary", Err: err}
	}
	return &s, nil
}

// FetchDashboard issues both reads concurrently and waits for both to
// settle. Either failure fails the whole cycle; when both fail the threat
// list error wins.
func (c *Client) FetchDashboard(ctx context.Context) ([]Threat, *Summary, error) {
	var (
		wg         sync.WaitGroup
		threats    []Threat
		summary    *Summary
		threatsErr error
		summaryErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		threats, threatsErr = c.Threats(ctx)
	}()
	go func() {
		defer wg.Done()
		summary, summaryErr = c.Summary(ctx)
	}()
	wg.Wait()

	if threatsErr != nil {
		return nil, nil, threatsErr
	}
	if summaryErr != nil {
		return nil, nil, summaryErr
	}
	return threats, summary, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
