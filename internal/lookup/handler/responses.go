package handler

import (
	"time"

	"numlookup/internal/lookup/models"
)

// LookupResponse is the JSON form of a lookup bundle. Providers are listed in
// priority order.
type LookupResponse struct {
	QueryKey  string                    `json:"query_key"`
	Merged    models.ConsolidatedRecord `json:"merged"`
	Providers []ProviderResponse        `json:"providers"`
	CreatedAt time.Time                 `json:"created_at"`
}

type ProviderResponse struct {
	Name       string         `json:"name"`
	Available  bool           `json:"available"`
	Fields     map[string]any `json:"fields,omitempty"`
	Error      string         `json:"error,omitempty"`
	Category   string         `json:"category,omitempty"`
	StatusCode int            `json:"status_code,omitempty"`
	LatencyMs  int64          `json:"latency_ms"`
}

type ProvidersResponse struct {
	Providers []string `json:"providers"`
}

type HealthResponse struct {
	Status    string           `json:"status"`
	Providers []ProviderHealth `json:"providers"`
}

type ProviderHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
