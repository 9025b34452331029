package models

import "time"

// Field names a canonical attribute of a consolidated lookup.
type Field string

const (
	FieldInternationalFormat Field = "international_format"
	FieldValid               Field = "valid"
	FieldCountryName         Field = "country_name"
	FieldCountryCode         Field = "country_code"
	FieldLocation            Field = "location"
	FieldCarrier             Field = "carrier"
	FieldLineType            Field = "line_type"
	FieldCallerName          Field = "caller_name"
)

// CanonicalFields lists every canonical field in display order.
var CanonicalFields = []Field{
	FieldInternationalFormat,
	FieldValid,
	FieldCountryName,
	FieldCountryCode,
	FieldLocation,
	FieldCarrier,
	FieldLineType,
	FieldCallerName,
}

// FieldSet holds the canonical values one provider offers. String fields hold
// string values and FieldValid holds a bool; anything else is ignored by the merge.
type FieldSet map[Field]any

// ConsolidatedRecord is the merged view over all providers. A nil field means
// no available provider stated a value for it.
type ConsolidatedRecord struct {
	QueriedNumber       QueryKey `json:"queried_number"`
	InternationalFormat *string  `json:"international_format,omitempty"`
	Valid               *bool    `json:"valid,omitempty"`
	CountryName         *string  `json:"country_name,omitempty"`
	CountryCode         *string  `json:"country_code,omitempty"`
	Location            *string  `json:"location,omitempty"`
	Carrier             *string  `json:"carrier,omitempty"`
	LineType            *string  `json:"line_type,omitempty"`
	CallerName          *string  `json:"caller_name,omitempty"`
}

// IsEmpty reports whether no canonical field is set.
func (r ConsolidatedRecord) IsEmpty() bool {
	return r.InternationalFormat == nil && r.Valid == nil && r.CountryName == nil &&
		r.CountryCode == nil && r.Location == nil && r.Carrier == nil &&
		r.LineType == nil && r.CallerName == nil
}

// Bundle is the product of one fan-out: the consolidated record plus every
// provider's raw result. Bundles are shared read-only between all readers of
// a cache entry; callers must not modify Raw or Order.
type Bundle struct {
	QueryKey     QueryKey                  `json:"query_key"`
	Consolidated ConsolidatedRecord        `json:"consolidated"`
	Raw          map[string]ProviderResult `json:"raw"`
	// Order is the provider priority order the bundle was merged with.
	Order     []string  `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

// Result returns the raw result recorded for provider.
func (b Bundle) Result(provider string) (ProviderResult, bool) {
	r, ok := b.Raw[provider]
	return r, ok
}

// Nested reads fields[outer][inner] when fields[outer] is a JSON object.
// Only one level of nesting is unwrapped.
func Nested(fields map[string]any, outer, inner string) (any, bool) {
	obj, ok := fields[outer].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := obj[inner]
	return v, ok
}
