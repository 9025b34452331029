// Package whitepages is a placeholder for a paid Whitepages Pro integration.
// It participates in fan-out and reporting but never returns data.
package whitepages

import (
	"context"

	"numlookup/internal/lookup/models"
	"numlookup/internal/lookup/providers"
)

const Name = "whitepages"

// Provider is the placeholder adapter.
type Provider struct {
	apiKey string
}

func New(apiKey string) *Provider {
	return &Provider{apiKey: apiKey}
}

func (p *Provider) Name() string {
	return Name
}

func (p *Provider) Health(context.Context) error {
	if p.apiKey == "" {
		return providers.ErrNotConfigured
	}
	return nil
}

// Lookup reports "not configured" without a key and a not-implemented
// failure with one.
func (p *Provider) Lookup(_ context.Context, _ models.QueryKey) models.ProviderResult {
	if p.apiKey == "" {
		return providers.NotConfigured(Name)
	}
	return models.NewUnavailable(Name, string(providers.ErrorNotImplemented), "placeholder - integration not implemented")
}
