package stratz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jpillora/backoff"
	"golang.org/x/time/rate"

	appconfig "darkseer/config"
	"darkseer/internal/ratelimit"
	"darkseer/logger"
)

// quotaSafetyMargin is subtracted from the server-reported hourly budget
// before reconciliation, leaving headroom for requests already in flight.
const quotaSafetyMargin = 10

// RetriesExhaustedError is returned when a request kept failing with
// transient errors until the attempt budget ran out.
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Last }

// Client talks to the STRATZ GraphQL endpoint. All requests funnel
// through the shared quota buckets and the per-second pacer, so a single
// Client instance may be used from many goroutines.
//
// [ANON]  quota is 300/hour, 150/minute at 20 requests per second.
// [AUTH]  quota is 500/hour, 150/minute at 20 requests per second.
type Client struct {
	url    string
	token  string
	http   *http.Client
	hour   *ratelimit.Bucket
	minute *ratelimit.Bucket
	pace   *rate.Limiter
	retry  appconfig.RetryConfig
	log    *logger.Log
}

// NewClient builds a client from configuration. Supplying a bearer token
// raises the hourly quota before the first request is made.
func NewClient(cfg *appconfig.Config) *Client {
	rl := cfg.Stratz.RateLimit

	hourTokens := rl.HourTokens
	if cfg.Stratz.BearerToken != "" {
		hourTokens = rl.HourTokensAuthed
	}

	return &Client{
		url:   cfg.Stratz.URL,
		token: cfg.Stratz.BearerToken,
		http: &http.Client{
			Timeout: 2 * time.Minute,
			Transport: userAgentTransport{
				agent: "darkseer/" + cfg.Darkseer.Version + " (+github: dark-seer)",
				base:  http.DefaultTransport,
			},
		},
		hour:   ratelimit.NewBucket(float64(hourTokens), time.Hour),
		minute: ratelimit.NewBucket(float64(rl.MinuteTokens), time.Minute),
		pace:   rate.NewLimiter(rate.Limit(rl.RequestsPerSecond), rl.BurstSize),
		retry:  cfg.Stratz.Retry,
		log:    logger.GetLogger(),
	}
}

type gqlRequest struct {
	Query string `json:"query"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// query binds variables into a GraphQL document, executes it with the
// full retry budget and returns the decoded data payload.
func (c *Client) query(ctx context.Context, doc string, vars map[string]interface{}) (json.RawMessage, error) {
	return c.execute(ctx, doc, vars, c.retry.MaxAttempts)
}

// queryOnce executes with a single attempt, for fire-and-forget calls.
func (c *Client) queryOnce(ctx context.Context, doc string, vars map[string]interface{}) (json.RawMessage, error) {
	return c.execute(ctx, doc, vars, 1)
}

func (c *Client) execute(ctx context.Context, doc string, vars map[string]interface{}, maxAttempts int) (json.RawMessage, error) {
	bound, err := bindQuery(doc, vars)
	if err != nil {
		// Programmer error, never retried.
		return nil, err
	}

	body, err := json.Marshal(gqlRequest{Query: bound})
	if err != nil {
		return nil, fmt.Errorf("encode query body: %w", err)
	}

	requestID := uuid.NewString()
	log := c.log.WithComponent("stratz_client").WithFields(logger.Fields{"request_id": requestID})

	delay := &backoff.Backoff{
		Min:    c.retry.BaseDelay,
		Max:    c.retry.MaxDelay,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			logger.IncrementRequestRetry()
		}

		if err := (ratelimit.Group{c.hour, c.minute}).Acquire(ctx); err != nil {
			return nil, err
		}
		logger.IncrementQuotaWait()
		if err := c.pace.Wait(ctx); err != nil {
			return nil, err
		}

		data, transient, retryAfter, err := c.attempt(ctx, body, requestID)
		if err == nil {
			logger.IncrementRequestSent()
			return data, nil
		}
		lastErr = err

		if !transient {
			return nil, err
		}

		wait := delay.Duration()
		if retryAfter > 0 {
			wait = retryAfter
		}

		log.WithError(err).WithFields(logger.Fields{
			"attempt": attempt,
			"wait_ms": wait.Milliseconds(),
		}).Warn("request failed, backing off")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, &RetriesExhaustedError{Attempts: maxAttempts, Last: lastErr}
}

// attempt executes one HTTP round trip. On failure it reports whether
// the error is worth retrying and, for provider throttling, the wait
// the server asked for.
func (c *Client) attempt(ctx context.Context, body []byte, requestID string) (json.RawMessage, bool, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, false, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	c.reconcileQuota(resp.Header)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		var retryAfter time.Duration
		if s := resp.Header.Get("Retry-After"); s != "" {
			if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, true, retryAfter, fmt.Errorf("rate limited by provider (status %d)", resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, true, 0, fmt.Errorf("provider error (status %d)", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, 0, fmt.Errorf("query rejected (status %d)", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, 0, fmt.Errorf("read response body: %w", err)
	}

	var envelope gqlEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, false, 0, fmt.Errorf("decode response envelope: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return nil, false, 0, fmt.Errorf("query rejected: %s", envelope.Errors[0].Message)
	}

	return envelope.Data, false, 0, nil
}

// reconcileQuota lowers the local quota accounting to the server's view
// when provider headers report a smaller remaining budget.
func (c *Client) reconcileQuota(h http.Header) {
	if s := h.Get("X-RateLimit-Remaining-Hour"); s != "" {
		if remaining, err := strconv.Atoi(s); err == nil {
			c.hour.Reconcile(float64(remaining - quotaSafetyMargin))
		}
	}
	if s := h.Get("X-RateLimit-Remaining-Minute"); s != "" {
		if remaining, err := strconv.Atoi(s); err == nil {
			c.minute.Reconcile(float64(remaining))
		}
	}
}
