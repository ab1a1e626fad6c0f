package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docgateway-backend/internal/analysis"
	"docgateway-backend/internal/shared/telemetry"
)

const (
	pollInterval    = 1 * time.Second
	maxPollAttempts = 30
	requestTimeout  = 60 * time.Second
)

// Client talks to the remote document-analysis service. A submission either
// completes synchronously (200 with the extracted text as the body) or is
// accepted as a long-running job (202 with a job location header) that the
// client polls until a terminal state or the attempt budget is exhausted.
type Client struct {
	endpoint   string
	creds      Credentials
	httpClient *http.Client

	interval    time.Duration
	maxAttempts int
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewClient constructs a Client for the given analyze endpoint.
func NewClient(endpoint string, creds Credentials) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("analysis endpoint is required")
	}
	if creds == nil {
		return nil, fmt.Errorf("analysis credentials are required")
	}
	return &Client{
		endpoint: endpoint,
		creds:    creds,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		interval:    pollInterval,
		maxAttempts: maxPollAttempts,
		sleep:       sleepCtx,
	}, nil
}

// Analyze submits the document and returns its extracted text.
func (c *Client) Analyze(ctx context.Context, data []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if err := c.creds.Apply(req); err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", analysis.ErrCancelled, ctx.Err())
		}
		return "", fmt.Errorf("submit analysis: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("read analysis body: %w", err)
		}
		text := strings.TrimSpace(string(body))
		if text == "" {
			return "", analysis.ErrEmptyResult
		}
		return text, nil

	case http.StatusAccepted:
		location := resp.Header.Get("Operation-Location")
		if location == "" {
			location = resp.Header.Get("Location")
		}
		if location == "" {
			return "", analysis.ErrNoJobLocation
		}
		return c.awaitResult(ctx, location)

	default:
		return "", &analysis.HTTPError{StatusCode: resp.StatusCode}
	}
}

// awaitResult drives the poll loop: wait one interval, fetch status, fold it
// into the state, stop on a terminal state or when attempts run out.
func (c *Client) awaitResult(ctx context.Context, location string) (string, error) {
	state := pollState{}
	for state.Attempts < c.maxAttempts {
		if err := c.sleep(ctx, c.interval); err != nil {
			return "", fmt.Errorf("%w: %v", analysis.ErrCancelled, err)
		}

		status, err := c.fetchStatus(ctx, location)
		if err != nil {
			return "", err
		}

		state = state.advance(status)
		switch state.Phase {
		case phaseSucceeded:
			if strings.TrimSpace(state.Text) == "" {
				return "", analysis.ErrEmptyResult
			}
			return state.Text, nil
		case phaseFailed:
			return "", &analysis.RemoteError{Code: state.FailureCode, Message: state.FailureMessage}
		case phaseUnknown:
			return "", &analysis.ParseError{Err: fmt.Errorf("unexpected job status %q", status.Status)}
		}
	}

	telemetry.Warn("analysis.poll.timeout", map[string]any{
		"location": location,
		"attempts": state.Attempts,
	})
	return "", analysis.ErrTimeout
}

func (c *Client) fetchStatus(ctx context.Context, location string) (jobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return jobStatus{}, err
	}
	if err := c.creds.Apply(req); err != nil {
		return jobStatus{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return jobStatus{}, fmt.Errorf("%w: %v", analysis.ErrCancelled, ctx.Err())
		}
		return jobStatus{}, fmt.Errorf("fetch job status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return jobStatus{}, &analysis.HTTPError{StatusCode: resp.StatusCode}
	}

	var status jobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return jobStatus{}, &analysis.ParseError{Err: err}
	}
	return status, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ analysis.Analyzer = (*Client)(nil)
