package georoute

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryPolicy controls how transient upstream failures are retried
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Factor     float64
	// Jitter is the fraction of each delay that may be added at random
	Jitter float64
}

// DefaultRetryPolicy retries twice, starting at 400ms and doubling
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		BaseDelay:  400 * time.Millisecond,
		Factor:     2,
		Jitter:     0.25,
	}
}

// Delay returns the wait before retry number n (0-based), jitter excluded
func (p RetryPolicy) Delay(n int) time.Duration {
	d := float64(p.BaseDelay)
	for i := 0; i < n; i++ {
		d *= p.Factor
	}
	return time.Duration(d)
}

func (p RetryPolicy) jittered(n int) time.Duration {
	d := p.Delay(n)
	if p.Jitter <= 0 || d <= 0 {
		return d
	}
	return d + time.Duration(rand.Float64()*p.Jitter*float64(d))
}

// Retryable reports whether an HTTP status should be retried (429 or 5xx)
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}

type httpStatusError struct {
	Code int
	Body []byte
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, strings.TrimSpace(string(e.Body)))
}

func (c *OSRMClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		return nil, &httpStatusError{Code: resp.StatusCode, Body: b}
	}
	return resp, nil
}

// doWithRetry retries 429/5xx responses and network errors with exponential
// backoff and jitter while respecting context cancellation.
func (c *OSRMClient) doWithRetry(ctx context.Context, op string, makeReq func() (*http.Request, error)) (*http.Response, error) {
	attempts := c.retry.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			retry = Retryable(he.Code)
		}
		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == attempts {
			return nil, lastErr
		}

		wait := c.retry.jittered(attempt - 1)
		c.log.WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt,
			"wait_ms": wait.Milliseconds(),
		}).Warnf("routing request failed, retrying: %v", err)

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
