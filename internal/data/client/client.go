package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/penwyp/go-calltime/internal/core/model"
	"github.com/penwyp/go-calltime/internal/util"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultBaseBackoff = 500 * time.Millisecond
	defaultMaxBackoff  = 5 * time.Second

	// maxBodySize bounds a single page response; 100 messages never come close.
	maxBodySize = 16 << 20
)

// RemoteAPIError is returned when the API answers with an error object.
// It is never retried.
type RemoteAPIError struct {
	Status  int
	Payload *model.APIError
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("remote API error (HTTP %d): %s", e.Status, e.Payload.String())
}

// NetworkError wraps a transient failure that persisted through every retry.
type NetworkError struct {
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ErrMalformedResponse is returned when the body is neither a message list nor an error object.
var ErrMalformedResponse = errors.New("malformed API response")

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	BaseURL     string
	Token       string
	Timeout     time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// Client fetches channel message pages from the REST API.
type Client struct {
	baseURL     string
	token       string
	maxAttempts int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	httpClient  *http.Client
	sleep       func(ctx context.Context, d time.Duration) error
}

// New creates a Client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = model.DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = defaultBaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		maxAttempts: cfg.MaxAttempts,
		baseBackoff: cfg.BaseBackoff,
		maxBackoff:  cfg.MaxBackoff,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		sleep: sleepContext,
	}
}

// PageURL builds the messages endpoint URL for one page.
func (c *Client) PageURL(channelId, before string) string {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(model.PageSize))
	if before != "" {
		query.Set("before", before)
	}
	return fmt.Sprintf("%s/channels/%s/messages?%s", c.baseURL, url.PathEscape(channelId), query.Encode())
}

// FetchPage returns up to model.PageSize messages older than before, newest first.
// An empty before fetches the newest page.
func (c *Client) FetchPage(ctx context.Context, channelId, before string) ([]model.Message, error) {
	pageURL := c.PageURL(channelId, before)

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		page, err := c.fetchOnce(ctx, pageURL)
		if err == nil {
			return page.Messages, nil
		}

		var transient *transientError
		if !errors.As(err, &transient) {
			return nil, err
		}
		lastErr = transient.err

		if attempt == c.maxAttempts || ctx.Err() != nil {
			break
		}

		wait := c.backoff(attempt)
		util.LogWarnf("Request %s failed (attempt %d/%d): %v, retrying in %v",
			pageURL, attempt, c.maxAttempts, transient.err, wait)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, &NetworkError{Attempts: attempt, Err: err}
		}
	}

	if ctx.Err() != nil {
		lastErr = ctx.Err()
	}
	return nil, &NetworkError{Attempts: c.maxAttempts, Err: lastErr}
}

// transientError marks a failure worth retrying.
type transientError struct {
	err error
}

func (e *transientError) Error() string {
	return e.err.Error()
}

func (c *Client) fetchOnce(ctx context.Context, pageURL string) (model.PageResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return model.PageResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("authorization", c.token)
	req.Header.Set("Accept", "application/json")

	util.LogDebugf("GET %s", pageURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.PageResult{}, &transientError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return model.PageResult{}, &transientError{err: fmt.Errorf("failed to read response body: %w", err)}
	}

	page, decodeErr := model.DecodePage(body)
	if decodeErr == nil && page.Kind == model.PageKindError {
		return model.PageResult{}, &RemoteAPIError{Status: resp.StatusCode, Payload: page.Error}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return model.PageResult{}, &transientError{err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	if decodeErr != nil {
		return model.PageResult{}, fmt.Errorf("%w (HTTP %d): %v", ErrMalformedResponse, resp.StatusCode, decodeErr)
	}
	if resp.StatusCode != http.StatusOK {
		return model.PageResult{}, fmt.Errorf("%w: unexpected status code %d for a message list", ErrMalformedResponse, resp.StatusCode)
	}

	util.LogDebugf("Received %d messages from %s", len(page.Messages), pageURL)
	return page, nil
}

// backoff doubles per attempt from baseBackoff, capped at maxBackoff.
func (c *Client) backoff(attempt int) time.Duration {
	wait := c.baseBackoff
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait >= c.maxBackoff {
			return c.maxBackoff
		}
	}
	return wait
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
