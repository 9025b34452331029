// Package httpclient holds the request plumbing shared by HTTP lookup
// providers: per-call timeout, optional rate limiting, status classification
// and bounded JSON decoding. Every failure comes back as a
// *providers.ProviderError so adapters can hand it to providers.Failure.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"numlookup/internal/lookup/providers"
)

const (
	// DefaultTimeout bounds a single provider call.
	DefaultTimeout = 10 * time.Second

	maxBodyBytes  = 1 << 20
	maxErrorBytes = 512
)

// Client performs provider HTTP calls.
type Client struct {
	provider string
	http     *http.Client
	timeout  time.Duration
	limiter  *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client (tests use httptest servers).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimit caps outgoing calls to perSecond with a burst of one.
// Zero or negative disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// New builds a client for the named provider.
func New(provider string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		provider: provider,
		http:     &http.Client{},
		timeout:  timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeout returns the per-call bound.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Request describes one GET call.
type Request struct {
	URL      string
	Username string // HTTP basic auth, optional
	Password string
}

// GetJSON performs the request and decodes a JSON object body into a map.
func (c *Client) GetJSON(ctx context.Context, r Request) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, providers.NewProviderError(providers.ErrorRateLimited, c.provider, "local rate limit exceeded", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, c.provider, "build request", withoutURL(err))
	}
	req.Header.Set("Accept", "application/json")
	if r.Username != "" || r.Password != "" {
		req.SetBasicAuth(r.Username, r.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, providers.NewProviderError(providers.ErrorTimeout, c.provider, "request timed out", withoutURL(err))
		}
		return nil, providers.NewProviderError(providers.ErrorProviderOutage, c.provider, "request failed", withoutURL(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, providers.NewProviderError(providers.ErrorTimeout, c.provider, "reading response timed out", withoutURL(err))
		}
		return nil, providers.NewProviderError(providers.ErrorProviderOutage, c.provider, "read response", withoutURL(err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		pe := providers.NewProviderError(
			CategoryForStatus(resp.StatusCode),
			c.provider,
			fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(strings.TrimSpace(string(body)), maxErrorBytes)),
			nil,
		)
		pe.StatusCode = resp.StatusCode
		return nil, pe
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, c.provider, "malformed JSON payload", err)
	}
	if data == nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, c.provider, "empty JSON payload", nil)
	}
	return data, nil
}

// withoutURL drops the request URL from transport errors. Provider URLs carry
// credentials and the queried number.
func withoutURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

// CategoryForStatus maps a non-2xx HTTP status to the error taxonomy.
func CategoryForStatus(status int) providers.ErrorCategory {
	switch {
	case status == http.StatusNotFound:
		return providers.ErrorNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return providers.ErrorAuthentication
	case status == http.StatusTooManyRequests:
		return providers.ErrorRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return providers.ErrorTimeout
	case status >= 500:
		return providers.ErrorProviderOutage
	default:
		return providers.ErrorBadData
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
