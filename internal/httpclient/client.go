// Package httpclient wraps an http.Client with vendor request pacing and
// throttle-aware retries.
package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/yuchenw/songvault/internal/constants"
)

// Client paces outgoing vendor requests through a shared rate limiter and
// retries only on throttling responses (429/503), honoring Retry-After.
// Other failures surface immediately; step-level fail-fast semantics belong
// to the caller.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a paced vendor client. minInterval is the minimum
// spacing between any two requests.
func NewClient(httpClient *http.Client, minInterval time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: constants.DefaultHTTPTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		}
	}
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Do executes an HTTP request, waiting for a pacing slot first.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < constants.DefaultRetryCount; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
			return resp, nil
		}

		retryAfter := parseRetryAfter(resp)
		_ = resp.Body.Close()
		lastErr = fmt.Errorf("vendor throttled request (status %d)", resp.StatusCode)

		wait := time.Duration(attempt+1) * constants.DefaultRetryBase
		if retryAfter > wait {
			wait = retryAfter
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

// Underlying returns the wrapped *http.Client for transfers that must not be
// paced, like streaming an already-resolved asset URL.
func (c *Client) Underlying() *http.Client {
	return c.httpClient
}

// parseRetryAfter reads a Retry-After header and returns the duration to wait.
func parseRetryAfter(resp *http.Response) time.Duration {
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(ra); err == nil {
		return time.Until(t)
	}
	return 0
}
