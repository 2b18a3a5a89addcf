// Package upstream holds the HTTP plumbing shared by the geocoding and
// ticketing adapters: one request per call, a circuit breaker, metrics and
// provider errors mapped onto AppError.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/zatekoja/eventfinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxBodyBytes       = 5 << 20
)

// errCallerGone marks a request abandoned by its caller. It is not held
// against the provider.
var errCallerGone = errors.New("caller went away")

// StatusError is wrapped by GetJSON when the provider answers with a
// non-2xx status
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d", e.Status)
}

// StatusCode returns the provider status carried by err, or 0
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// Client performs JSON GET requests against a single provider
type Client struct {
	name       string
	httpClient *http.Client
	header     http.Header
	breaker    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
}

// NewClient creates a client for the named provider. header is sent on
// every request; httpClient may be nil.
func NewClient(name string, httpClient *http.Client, header http.Header) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if header == nil {
		header = http.Header{}
	}
	return &Client{
		name:       name,
		httpClient: httpClient,
		header:     header,
		breaker:    gobreaker.NewCircuitBreaker(breakerSettings(name)),
	}
}

func breakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCallerGone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.GetLogger().Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}
}

// SetMetrics attaches OTel instruments
func (c *Client) SetMetrics(metrics *observability.Metrics) {
	c.metrics = metrics
}

// Name returns the provider name
func (c *Client) Name() string {
	return c.name
}

type reply struct {
	status int
	body   []byte
}

// GetJSON fetches rawURL and decodes the body into out. Every failure is
// an external error; a non-2xx status is wrapped as *StatusError so callers
// that look up a single resource can tell a 404 apart.
func (c *Client) GetJSON(ctx context.Context, operation, rawURL string, out any) error {
	start := time.Now()
	res, err := c.breaker.Execute(func() (interface{}, error) {
		r, err := c.do(ctx, rawURL)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errCallerGone, ctx.Err())
		}
		return r, err
	})
	observability.RecordUpstreamMetric(ctx, c.metrics, c.name, operation, time.Since(start), err)

	logger := observability.LoggerFromContext(ctx)
	if err != nil {
		logger.Warn().Err(err).Str("provider", c.name).Str("operation", operation).Msg("upstream request failed")
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return apperrors.NewExternalError(c.name+" temporarily unavailable", err)
		}
		return apperrors.NewExternalError(c.name+" request failed", err)
	}

	r := res.(*reply)
	if r.status < 200 || r.status >= 300 {
		logger.Warn().Str("provider", c.name).Str("operation", operation).Int("status", r.status).
			Str("body", truncate(r.body, 256)).Msg("upstream returned error status")
		return apperrors.NewExternalError(fmt.Sprintf("%s returned status %d", c.name, r.status), &StatusError{Status: r.status})
	}

	if err := json.Unmarshal(r.body, out); err != nil {
		logger.Warn().Err(err).Str("provider", c.name).Str("operation", operation).Msg("failed to decode upstream response")
		return apperrors.NewExternalError("failed to decode "+c.name+" response", err)
	}
	return nil
}

// do returns an error only for failures that should count against the
// breaker: transport errors and 5xx responses.
func (c *Client) do(ctx context.Context, rawURL string) (*reply, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for key, values := range c.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return nil, &StatusError{Status: resp.StatusCode}
	}
	return &reply{status: resp.StatusCode, body: body}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
