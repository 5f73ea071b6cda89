// Package golemio fetches departure boards from the Golemio PID API.
package golemio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"jizdninerad.cz/internal/departures"
	"jizdninerad.cz/internal/logging"
	"jizdninerad.cz/internal/metrics"
)

const (
	// AccessTokenHeader carries the API credential.
	AccessTokenHeader = "X-Access-Token"

	maxBodySize    = 25 * 1024 * 1024
	defaultTimeout = 15 * time.Second
)

// Config describes how to reach the departure board endpoint.
type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// StatusError is returned when the upstream answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("departure board returned %s", e.Status)
	}
	return fmt.Sprintf("departure board returned %s: %s", e.Status, e.Body)
}

// Client implements departures.Fetcher over HTTP.
type Client struct {
	baseURL     *url.URL
	accessToken string
	httpClient  *http.Client
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

var _ departures.Fetcher = (*Client)(nil)

// NewClient builds a client with its own transport. logger and m may be nil.
func NewClient(cfg Config, logger *slog.Logger, m *metrics.Metrics) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid departure board URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid departure board URL %q: scheme must be http or https", cfg.BaseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:     base,
		accessToken: cfg.AccessToken,
		httpClient:  newHTTPClient(cfg.Timeout),
		logger:      logger.With(slog.String("component", "golemio_client")),
		metrics:     m,
	}, nil
}

// newHTTPClient clones http.DefaultTransport so proxy and keepalive defaults
// survive, and wraps it to request and transparently decode gzip bodies.
func newHTTPClient(timeout time.Duration) *http.Client {
	var transport *http.Transport
	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		transport = t.Clone()
	} else {
		transport = &http.Transport{}
	}
	transport.MaxIdleConns = 10
	transport.MaxIdleConnsPerHost = 10
	transport.IdleConnTimeout = 90 * time.Second
	transport.TLSHandshakeTimeout = 10 * time.Second

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: gzhttp.Transport(transport),
	}
}

// requestURL merges the query into the base URL's own parameters.
func (c *Client) requestURL(q departures.StopQuery) string {
	u := *c.baseURL
	values := u.Query()
	for key, vals := range q.Values() {
		values[key] = append([]string(nil), vals...)
	}
	u.RawQuery = values.Encode()
	return u.String()
}

// FetchDepartureBoard performs the request for q and returns the raw body.
func (c *Client) FetchDepartureBoard(ctx context.Context, q departures.StopQuery) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(q), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set(AccessTokenHeader, c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe("error", start, 0)
		return nil, fmt.Errorf("departure board request failed: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "http_response_body")

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.observe(strconv.Itoa(resp.StatusCode), start, len(snippet))
		c.logger.Warn("departure board request rejected",
			slog.Int("status", resp.StatusCode),
			slog.Int("stops", len(q.StopNames)))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(snippet),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		c.observe("error", start, len(body))
		return nil, fmt.Errorf("failed to read departure board body: %w", err)
	}
	if len(body) > maxBodySize {
		c.observe("error", start, len(body))
		return nil, fmt.Errorf("departure board response exceeds size limit of %d bytes", maxBodySize)
	}

	c.observe(strconv.Itoa(resp.StatusCode), start, len(body))
	c.logger.Debug("departure board fetched",
		slog.Int("stops", len(q.StopNames)),
		slog.Int("bytes", len(body)),
		slog.Duration("elapsed", time.Since(start)))

	return body, nil
}

func (c *Client) observe(status string, start time.Time, size int) {
	if c.metrics == nil {
		return
	}
	c.metrics.UpstreamRequestsTotal.WithLabelValues(status).Inc()
	c.metrics.UpstreamRequestDuration.Observe(time.Since(start).Seconds())
	if size > 0 {
		c.metrics.UpstreamResponseBytes.Observe(float64(size))
	}
}

// IsTimeout reports whether err came from a deadline or client timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
