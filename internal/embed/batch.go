package embed

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"time"
)

// BatchClient wraps an Embedder with the ingestion pipeline's batch contract:
// order is preserved, one text's permanent failure never aborts its siblings,
// transient failures are retried with jittered exponential backoff, and every
// outbound call is throttled by a RateLimiter.
type BatchClient struct {
	inner    Embedder
	limiter  *RateLimiter
	failures *FailureLog

	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
}

// BatchClientOption customizes a BatchClient at construction time.
type BatchClientOption func(*BatchClient)

// WithRateLimiter overrides the default rate limiter.
func WithRateLimiter(rl *RateLimiter) BatchClientOption {
	return func(c *BatchClient) { c.limiter = rl }
}

// WithFailureLog overrides the default failure log.
func WithFailureLog(fl *FailureLog) BatchClientOption {
	return func(c *BatchClient) { c.failures = fl }
}

// WithMaxAttempts overrides the default attempt ceiling (initial try + retries)
// for transient failures.
func WithMaxAttempts(n int) BatchClientOption {
	return func(c *BatchClient) { c.maxAttempts = n }
}

// NewBatchClient wraps inner with retry, rate limiting and failure tracking.
func NewBatchClient(inner Embedder, opts ...BatchClientOption) *BatchClient {
	c := &BatchClient{
		inner:        inner,
		limiter:      DefaultRateLimiter(),
		failures:     NewFailureLog(),
		maxAttempts:  4,
		initialDelay: 500 * time.Millisecond,
		maxDelay:     8 * time.Second,
		multiplier:   2.0,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Failures returns the accumulated failure log.
func (c *BatchClient) Failures() *FailureLog {
	return c.failures
}

// Dimensions passes through to the inner embedder.
func (c *BatchClient) Dimensions() int { return c.inner.Dimensions() }

// ModelName passes through to the inner embedder.
func (c *BatchClient) ModelName() string { return c.inner.ModelName() }

// Available passes through to the inner embedder.
func (c *BatchClient) Available(ctx context.Context) bool { return c.inner.Available(ctx) }

// Close passes through to the inner embedder.
func (c *BatchClient) Close() error { return c.inner.Close() }

// SetBatchIndex passes through to the inner embedder.
func (c *BatchClient) SetBatchIndex(idx int) { c.inner.SetBatchIndex(idx) }

// SetFinalBatch passes through to the inner embedder.
func (c *BatchClient) SetFinalBatch(isFinal bool) { c.inner.SetFinalBatch(isFinal) }

// Inner returns the wrapped embedder.
func (c *BatchClient) Inner() Embedder { return c.inner }

var _ Embedder = (*BatchClient)(nil)

// Embed embeds a single text, retrying transient failures.
func (c *BatchClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	vec, err := c.embedWithRetry(ctx, text)
	if err != nil {
		c.failures.Record(text, err)
		return nil, err
	}
	c.failures.Clear(text)
	return vec, nil
}

// EmbedBatch embeds every text in texts, preserving order. A text whose
// embedding permanently fails, or exhausts its retries, yields a nil slot
// instead of aborting the batch; callers inspect slots for nil to find
// which texts need re-embedding later (spec's EmbeddingFailure contract).
func (c *BatchClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		vec, err := c.embedWithRetry(ctx, text)
		if err != nil {
			c.failures.Record(text, err)
			results[i] = nil
			continue
		}
		c.failures.Clear(text)
		results[i] = vec
	}
	return results, nil
}

// embedWithRetry retries transient failures with exponential backoff and
// jitter, up to maxAttempts total attempts. A permanent failure (4xx other
// than 429) returns immediately without consuming further attempts.
func (c *BatchClient) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	delay := c.initialDelay
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		vec, err := c.inner.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err

		if isPermanentFailure(err) || attempt == c.maxAttempts {
			break
		}

		jittered := time.Duration(float64(delay) * (0.5 + rand.Float64()*0.5))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(jittered):
		}
		delay = time.Duration(float64(delay) * c.multiplier)
		if delay > c.maxDelay {
			delay = c.maxDelay
		}
	}
	return nil, fmt.Errorf("embedding failed after retries: %w", lastErr)
}

var statusCodePattern = regexp.MustCompile(`status (\d{3})`)

// isPermanentFailure classifies an embedding error as non-retryable: a 4xx
// response other than 429 (rate limited, which is transient). Errors with no
// recognizable status code are treated as transient so the retry loop still
// gets a chance to recover from connection blips.
func isPermanentFailure(err error) bool {
	if err == nil {
		return false
	}
	m := statusCodePattern.FindStringSubmatch(err.Error())
	if m == nil {
		return false
	}
	code, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return false
	}
	if code == 429 {
		return false
	}
	return code >= 400 && code < 500
}
