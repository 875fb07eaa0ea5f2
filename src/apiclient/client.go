// Package apiclient talks to the CMS client directory and the feature settings API.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"feature-dashboard/src/logging"
	"feature-dashboard/src/metrics"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

// Upstream names used for breakers, metrics and logs
const (
	UpstreamCMS      = "cms"
	UpstreamSettings = "settings"
)

// Endpoints are the configured base URLs
type Endpoints struct {
	CMSClients     string
	Features       string
	OverviewBase   string
	Configurations string
	Usages         string
}

// Options tune the transport
type Options struct {
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	HTTPClient      *http.Client
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}

// IsStatus reports whether err is a StatusError with code
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// IsNotFound reports whether the upstream answered 404
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

// Client calls the upstream APIs. Identical concurrent GETs share one request
// and every upstream sits behind its own circuit breaker. Nothing is retried.
type Client struct {
	endpoints Endpoints
	http      *http.Client
	breakers  map[string]*gobreaker.CircuitBreaker[[]byte]
	inflight  singleflight.Group
	timeout   time.Duration
}

// New creates a client for endpoints
func New(endpoints Endpoints, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	failures := opts.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	c := &Client{
		endpoints: Endpoints{
			CMSClients:     strings.TrimRight(endpoints.CMSClients, "/"),
			Features:       strings.TrimRight(endpoints.Features, "/"),
			OverviewBase:   strings.TrimRight(endpoints.OverviewBase, "/"),
			Configurations: strings.TrimRight(endpoints.Configurations, "/"),
			Usages:         strings.TrimRight(endpoints.Usages, "/"),
		},
		http:     httpClient,
		breakers: make(map[string]*gobreaker.CircuitBreaker[[]byte]),
		timeout:  opts.Timeout,
	}
	for _, name := range []string{UpstreamCMS, UpstreamSettings} {
		c.breakers[name] = newBreaker(name, failures, opts.BreakerTimeout)
	}
	return c
}

func newBreaker(name string, failures uint32, timeout time.Duration) *gobreaker.CircuitBreaker[[]byte] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    name,
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// client errors say nothing about upstream health
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < http.StatusInternalServerError
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logging.Warn().
				Str("upstream", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})
}

// getJSON fetches url and decodes the body into out. Identical in-flight
// requests are coalesced.
func (c *Client) getJSON(ctx context.Context, upstream, url string, out interface{}) error {
	// the shared call outlives any single caller; each caller still honours its own ctx
	ch := c.inflight.DoChan(url, func() (interface{}, error) {
		sctx, cancel := c.detach(ctx)
		defer cancel()
		return c.do(sctx, upstream, http.MethodGet, url, nil)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return ctx.Err()
	}
	if res.Shared {
		metrics.UpstreamCoalesced.WithLabelValues(upstream).Inc()
	}
	if res.Err != nil {
		return res.Err
	}
	if err := json.Unmarshal(res.Val.([]byte), out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// detach drops ctx's cancellation and deadline but keeps its values, bounded by the client timeout
func (c *Client) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if c.timeout <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, c.timeout)
}

// sendJSON encodes in as the request body; out may be nil
func (c *Client) sendJSON(ctx context.Context, upstream, method, url string, in, out interface{}) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode %s body: %w", url, err)
		}
	}

	resp, err := c.do(ctx, upstream, method, url, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, upstream, method, url string, body []byte) ([]byte, error) {
	start := time.Now()
	data, err := c.breakers[upstream].Execute(func() ([]byte, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", url, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &StatusError{Method: method, URL: url, Code: resp.StatusCode, Body: string(payload)}
		}
		return payload, nil
	})

	metrics.RecordUpstream(upstream, method, time.Since(start), failureReason(err))
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s api unavailable: %w", upstream, err)
		}
		return nil, err
	}
	return data, nil
}

func failureReason(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &se):
		return fmt.Sprintf("status_%d", se.Code)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "transport"
}
