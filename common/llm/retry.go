package llm

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

// Retry-and-backoff policy for LLM calls: up to 3 attempts in total on
// retryable errors (rate limits, server errors, network failures; see
// IsRetryable) with capped exponential backoff (base 2s, cap 60s),
// honoring an explicit Retry-After hint when the provider sends one in
// the response headers.
const (
	defaultMaxAttempts = 3
	backoffBase        = 2 * time.Second
	backoffCap         = 60 * time.Second
)

type retryingClient struct {
	inner       Client
	maxAttempts int
}

// WithRetry wraps inner so Chat retries rate-limit and transient server
// errors (per IsRetryable) with capped exponential backoff. Non-retryable
// errors return immediately on the first attempt.
func WithRetry(inner Client) Client {
	return &retryingClient{inner: inner, maxAttempts: defaultMaxAttempts}
}

func (c *retryingClient) Model() string {
	return c.inner.Model()
}

func (c *retryingClient) Chat(ctx context.Context, req Request, result any) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		resp, err := c.inner.Chat(ctx, req, result)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !IsRetryable(ctx, err) || attempt == c.maxAttempts-1 {
			return nil, err
		}

		wait := backoffFor(attempt)
		if hint, ok := retryAfterHint(err); ok {
			wait = hint
		}

		slog.WarnContext(ctx, "llm call failed, backing off before retry",
			"attempt", attempt+1,
			"max_attempts", c.maxAttempts,
			"wait_ms", wait.Milliseconds(),
			"error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

// backoffFor returns the base-2s, cap-60s exponential backoff for the
// given zero-indexed attempt number.
func backoffFor(attempt int) time.Duration {
	d := time.Duration(float64(backoffBase) * math.Pow(2, float64(attempt)))
	if d > backoffCap {
		return backoffCap
	}
	return d
}

// retryAfterHint extracts a provider-supplied Retry-After hint from err,
// when one is present and parseable as either a delay in seconds or an
// HTTP-date, capped at backoffCap.
func retryAfterHint(err error) (time.Duration, bool) {
	var raw string
	var openaiErr *openai.Error
	var anthropicErr *anthropic.Error
	switch {
	case errors.As(err, &openaiErr) && openaiErr.Response != nil:
		raw = openaiErr.Response.Header.Get("Retry-After")
	case errors.As(err, &anthropicErr) && anthropicErr.Response != nil:
		raw = anthropicErr.Response.Header.Get("Retry-After")
	}
	if raw == "" {
		return 0, false
	}

	if secs, parseErr := strconv.Atoi(raw); parseErr == nil {
		d := time.Duration(secs) * time.Second
		if d > backoffCap {
			d = backoffCap
		}
		return d, true
	}

	if when, parseErr := http.ParseTime(raw); parseErr == nil {
		d := time.Until(when)
		if d <= 0 {
			return 0, false
		}
		if d > backoffCap {
			d = backoffCap
		}
		return d, true
	}

	return 0, false
}
