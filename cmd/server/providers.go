package main

import (
	"fmt"
	"time"

	"numlookup/internal/lookup/providers"
	"numlookup/internal/lookup/providers/httpclient"
	"numlookup/internal/lookup/providers/numverify"
	"numlookup/internal/lookup/providers/twilio"
	"numlookup/internal/lookup/providers/whitepages"
	"numlookup/internal/platform/config"
)

// buildRegistry registers one adapter per configured provider, in the
// configured order, which is also the merge priority.
func buildRegistry(cfgs []config.ProviderConfig, timeout time.Duration) (*providers.Registry, error) {
	registry := providers.NewRegistry()
	for _, pc := range cfgs {
		opts := []httpclient.Option{httpclient.WithRateLimit(pc.RateLimitPerSecond)}

		var p providers.Provider
		switch pc.Name {
		case numverify.Name:
			p = numverify.New(pc.APIKey, pc.BaseURL, timeout, opts...)
		case twilio.Name:
			p = twilio.New(pc.AccountSID, pc.AuthToken, pc.BaseURL, timeout, opts...)
		case whitepages.Name:
			p = whitepages.New(pc.APIKey)
		default:
			return nil, fmt.Errorf("unknown provider %q: %w", pc.Name, providers.ErrProviderNotFound)
		}
		if err := registry.Register(p); err != nil {
			return nil, fmt.Errorf("register %s: %w", pc.Name, err)
		}
	}
	return registry, nil
}
