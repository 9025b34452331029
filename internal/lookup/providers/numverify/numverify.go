// Package numverify implements the apilayer Numverify validate API adapter.
package numverify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"numlookup/internal/lookup/models"
	"numlookup/internal/lookup/providers"
	"numlookup/internal/lookup/providers/httpclient"
)

const (
	Name           = "numverify"
	DefaultBaseURL = "http://apilayer.net/api"
)

// Provider queries Numverify. Its payload already uses the canonical field
// names, so it relies on the default field mapping.
type Provider struct {
	apiKey  string
	baseURL string
	client  *httpclient.Client
}

// New creates a Numverify provider. An empty apiKey yields a provider that
// reports "not configured" without network I/O.
func New(apiKey, baseURL string, timeout time.Duration, opts ...httpclient.Option) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpclient.New(Name, timeout, opts...),
	}
}

func (p *Provider) Name() string {
	return Name
}

// Health reports whether credentials are present. It never spends a lookup.
func (p *Provider) Health(context.Context) error {
	if p.apiKey == "" {
		return providers.ErrNotConfigured
	}
	return nil
}

// Lookup calls GET {base}/validate.
func (p *Provider) Lookup(ctx context.Context, key models.QueryKey) models.ProviderResult {
	if p.apiKey == "" {
		return providers.NotConfigured(Name)
	}

	q := url.Values{}
	q.Set("access_key", p.apiKey)
	q.Set("number", key.String())
	q.Set("format", "1")

	data, err := p.client.GetJSON(ctx, httpclient.Request{URL: p.baseURL + "/validate?" + q.Encode()})
	if err != nil {
		return providers.Failure(Name, err)
	}
	if err := apiError(data); err != nil {
		return providers.Failure(Name, err)
	}
	return models.NewAvailable(Name, data)
}

// apiError detects the {"success":false,"error":{...}} envelope Numverify
// returns with HTTP 200.
func apiError(data map[string]any) error {
	success, ok := data["success"].(bool)
	if !ok || success {
		return nil
	}
	code, _ := models.Nested(data, "error", "code")
	info, _ := models.Nested(data, "error", "info")

	n, _ := code.(float64)
	msg := fmt.Sprintf("api error %d", int(n))
	if s, ok := info.(string); ok && s != "" {
		msg += ": " + s
	}
	return providers.NewProviderError(categoryForCode(int(n)), Name, msg, nil)
}

func categoryForCode(code int) providers.ErrorCategory {
	switch code {
	case 101, 102, 103:
		return providers.ErrorAuthentication
	case 104, 106:
		return providers.ErrorRateLimited
	default:
		return providers.ErrorBadData
	}
}
