package models

import (
	"encoding/json"
	"maps"
	"time"
)

// NotConfigured is the error text reported by providers that have no credentials.
const NotConfigured = "not configured"

// ProviderResult is the normalized outcome of one provider call.
//
// Available results carry the provider's decoded payload and no error.
// Unavailable results carry no fields and always have an error description.
// A ProviderResult is immutable: the payload is copied in on construction and
// copied out by Fields.
type ProviderResult struct {
	provider   string
	available  bool
	fields     map[string]any
	err        string
	category   string
	statusCode int
	latency    time.Duration
	checkedAt  time.Time
}

// NewAvailable builds a successful result from a provider payload.
func NewAvailable(provider string, fields map[string]any) ProviderResult {
	return ProviderResult{
		provider:  provider,
		available: true,
		fields:    maps.Clone(fields),
	}
}

// NewUnavailable builds a failure result. An empty errMsg is replaced by the
// category so the invariant "unavailable implies error" always holds.
func NewUnavailable(provider, category, errMsg string) ProviderResult {
	if errMsg == "" {
		errMsg = category
	}
	if errMsg == "" {
		errMsg = "unavailable"
	}
	return ProviderResult{
		provider: provider,
		err:      errMsg,
		category: category,
	}
}

// WithStatusCode returns a copy carrying the HTTP status the provider answered with.
func (r ProviderResult) WithStatusCode(code int) ProviderResult {
	r.statusCode = code
	return r
}

// WithTiming returns a copy stamped with when the call finished and how long it took.
func (r ProviderResult) WithTiming(checkedAt time.Time, latency time.Duration) ProviderResult {
	r.checkedAt = checkedAt
	r.latency = latency
	return r
}

func (r ProviderResult) Provider() string { return r.provider }
func (r ProviderResult) Available() bool { return r.available }
func (r ProviderResult) ErrorMessage() string { return r.err }
func (r ProviderResult) Category() string { return r.category }
func (r ProviderResult) StatusCode() int { return r.statusCode }
func (r ProviderResult) Latency() time.Duration { return r.latency }
func (r ProviderResult) CheckedAt() time.Time { return r.checkedAt }
func (r ProviderResult) Field(name string) any { return r.fields[name] }
func (r ProviderResult) Fields() map[string]any { return maps.Clone(r.fields) }
func (r ProviderResult) HasField(name string) bool {
	_, ok := r.fields[name]
	return ok
}

type providerResultJSON struct {
	Provider   string         `json:"provider"`
	Available  bool           `json:"available"`
	Fields     map[string]any `json:"fields,omitempty"`
	Error      string         `json:"error,omitempty"`
	Category   string         `json:"category,omitempty"`
	StatusCode int            `json:"status_code,omitempty"`
	LatencyMs  int64          `json:"latency_ms"`
	CheckedAt  time.Time      `json:"checked_at"`
}

// MarshalJSON encodes the result for the HTTP API and the shared cache tier.
func (r ProviderResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(providerResultJSON{
		Provider:   r.provider,
		Available:  r.available,
		Fields:     r.fields,
		Error:      r.err,
		Category:   r.category,
		StatusCode: r.statusCode,
		LatencyMs:  r.latency.Milliseconds(),
		CheckedAt:  r.checkedAt,
	})
}

// UnmarshalJSON restores a result previously encoded by MarshalJSON.
func (r *ProviderResult) UnmarshalJSON(data []byte) error {
	var w providerResultJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = ProviderResult{
		provider:   w.Provider,
		available:  w.Available,
		fields:     w.Fields,
		err:        w.Error,
		category:   w.Category,
		statusCode: w.StatusCode,
		latency:    time.Duration(w.LatencyMs) * time.Millisecond,
		checkedAt:  w.CheckedAt,
	}
	return nil
}
