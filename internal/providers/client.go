package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	maxAttempts  = 3
	retryBackoff = 500 * time.Millisecond
)

// RetryRecorder counts retry attempts and final fetch failures for
// monitoring. Optional.
type RetryRecorder interface {
	RecordRetry(provider string)
	RecordProviderError(provider string)
}

// client is the shared resilient HTTP JSON fetcher under every provider.
type client struct {
	name    string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	retries RetryRecorder
	log     zerolog.Logger
}

func newClient(name string, timeout time.Duration, rps float64, burst int, retries RetryRecorder, log zerolog.Logger) *client {
	if burst < 1 {
		burst = 1
	}
	return &client{
		name:    name,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		retries: retries,
		log:     log.With().Str("provider", name).Logger(),
	}
}

// getJSON fetches url and decodes the body into v, retrying transient
// failures with exponential backoff. 4xx responses are not retried.
func (c *client) getJSON(ctx context.Context, op, url string, v any) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := retryBackoff * time.Duration(1<<(attempt-1))
			c.log.Warn().Err(lastErr).Str("op", op).Dur("backoff", backoff).Msg("retrying fetch")
			if c.retries != nil {
				c.retries.RecordRetry(c.name)
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return &Error{Provider: c.name, Op: op, Err: ctx.Err()}
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return &Error{Provider: c.name, Op: op, Err: err}
		}

		_, err := c.breaker.Execute(func() (any, error) {
			return nil, c.fetch(ctx, url, v)
		})
		if err == nil {
			return nil
		}
		lastErr = err

		var httpErr *statusError
		if errors.As(err, &httpErr) && httpErr.code >= 400 && httpErr.code < 500 {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	if c.retries != nil {
		c.retries.RecordProviderError(c.name)
	}
	return &Error{Provider: c.name, Op: op, Err: lastErr}
}

func (c *client) fetch(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &statusError{code: resp.StatusCode}
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

type statusError struct {
	code int
}

func (e *statusError) Error() string { return fmt.Sprintf("HTTP %d", e.code) }

// safeFloat parses upstream numeric strings, treating "None", "NaN", "."
// and empty values as 0 so a missing field degrades instead of failing.
func safeFloat(s string) float64 {
	switch s {
	case "", "None", "NaN", "nan", ".", "null":
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
