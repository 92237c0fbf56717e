// Package github wraps the GitHub API for PR activity tracking: it
// searches for tracked users' pull requests and walks their comment
// and review timelines.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	gh "github.com/google/go-github/v59/github"
	"github.com/prnudge/prnudge/internal/log"
	"golang.org/x/oauth2"
)

// maxAttempts bounds retries of idempotent read operations.
const maxAttempts = 3

// maxRetryDelay caps how long a single retry waits, even when the rate
// limit reset is further out.
const maxRetryDelay = 30 * time.Second

// rateLimitTransport wraps an http.RoundTripper to handle GitHub rate limits
type rateLimitTransport struct {
	base   http.RoundTripper
	limits *rateLimitState
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Don't burn requests while the window is known to be exhausted
	if t.limits.limitedNow() {
		return nil, ErrRateLimited
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	remaining, limit, resetAt := parseRateLimitHeaders(resp)
	if remaining >= 0 && limit > 0 {
		t.limits.observe(remaining, limit, resetAt)
	}

	if remaining <= rateLimitLowWatermark && remaining > 0 {
		log.Debug("rate limit low", "remaining", remaining, "resets_at", resetAt.Format(time.RFC3339))
	}

	// Handle rate limit responses (403 with rate limit exceeded or 429)
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		if resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.StatusCode == http.StatusTooManyRequests {
			t.limits.markExhausted(resetAt)
			_ = resp.Body.Close()
			return nil, ErrRateLimited
		}
	}

	return resp, err
}

// parseRateLimitHeaders extracts rate limit info from response headers.
func parseRateLimitHeaders(resp *http.Response) (remaining, limit int, resetAt time.Time) {
	remaining = -1
	limit = -1

	if remainingStr := resp.Header.Get("X-RateLimit-Remaining"); remainingStr != "" {
		if rem, err := strconv.Atoi(remainingStr); err == nil {
			remaining = rem
		}
	}

	if limitStr := resp.Header.Get("X-RateLimit-Limit"); limitStr != "" {
		if lim, err := strconv.Atoi(limitStr); err == nil {
			limit = lim
		}
	}

	if resetStr := resp.Header.Get("X-RateLimit-Reset"); resetStr != "" {
		if resetTime, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
			resetAt = time.Unix(resetTime, 0)
		}
	}

	return remaining, limit, resetAt
}

// Client wraps the GitHub API client
type Client struct {
	client *gh.Client
	limits *rateLimitState
}

// NewClient creates a new GitHub client using a personal access token.
func NewClient(ctx context.Context, token string) (*Client, error) {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("GitHub token not provided. Set the GITHUB_TOKEN environment variable")
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	// Wrap transport with rate limit handling
	limits := &rateLimitState{}
	tc.Transport = &rateLimitTransport{
		base:   tc.Transport,
		limits: limits,
	}

	return &Client{client: gh.NewClient(tc), limits: limits}, nil
}

// AuthenticatedUser returns the authenticated user's login
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	user, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to get authenticated user: %w", err)
	}
	return user.GetLogin(), nil
}

// RateLimits fetches the current GitHub API rate limit status.
func (c *Client) RateLimits(ctx context.Context) (*gh.RateLimits, error) {
	limits, _, err := c.client.RateLimit.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limits: %w", err)
	}
	return limits, nil
}

// withRetry runs fn, retrying transient upstream failures (rate limits,
// 5xx, network errors) with backoff. Only idempotent reads go through
// here; exhausting retries surfaces the last error to the caller.
func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		wait, retryable := c.retryDelay(err, attempt)
		if !retryable {
			return err
		}
		if attempt == maxAttempts {
			break
		}

		log.Debug("retrying after upstream error",
			"op", op, "attempt", attempt, "wait", wait, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("%s: giving up after %d attempts: %w", op, maxAttempts, err)
}

// retryDelay decides whether an error is worth retrying and how long to
// wait first. Rate limit errors wait for the advertised reset, capped
// at maxRetryDelay.
func (c *Client) retryDelay(err error, attempt int) (time.Duration, bool) {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return capDelay(time.Until(rateErr.Rate.Reset.Time), attempt), true
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		if abuseErr.RetryAfter != nil {
			return capDelay(*abuseErr.RetryAfter, attempt), true
		}
		return backoff(attempt), true
	}

	if errors.Is(err, ErrRateLimited) {
		return capDelay(c.limits.untilReset(), attempt), true
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) {
		if respErr.Response != nil && respErr.Response.StatusCode >= 500 {
			return backoff(attempt), true
		}
		return 0, false
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return backoff(attempt), true
	}

	return 0, false
}

// backoff returns the exponential delay for the given attempt: 1s, 2s, 4s...
func backoff(attempt int) time.Duration {
	return time.Second << (attempt - 1)
}

func capDelay(d time.Duration, attempt int) time.Duration {
	if d < backoff(attempt) {
		return backoff(attempt)
	}
	if d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}
