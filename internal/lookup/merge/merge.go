// Package merge consolidates per-provider results into one record.
//
// Priority is the provider order the Engine was built with. For every
// canonical field the first available provider offering a non-empty value
// wins, and later providers never overwrite it. Valid follows the same rule,
// so an earlier explicit false beats a later true.
package merge

import (
	"strings"

	"numlookup/internal/lookup/models"
	"numlookup/internal/lookup/providers"
)

// Mapper turns a provider payload into canonical field values.
type Mapper func(fields map[string]any) models.FieldSet

// Source is one provider in priority order.
type Source struct {
	Name   string
	Mapper Mapper
}

// Engine merges results in a fixed priority order.
type Engine struct {
	sources []Source
}

// NewEngine builds an engine; sources earlier in the list take priority.
// A Source without a Mapper uses Canonical.
func NewEngine(sources ...Source) *Engine {
	e := &Engine{sources: make([]Source, len(sources))}
	for i, s := range sources {
		if s.Mapper == nil {
			s.Mapper = Canonical
		}
		e.sources[i] = s
	}
	return e
}

// FromProviders builds an engine in provider registration order, using each
// provider's own FieldMapper when it has one.
func FromProviders(ps []providers.Provider) *Engine {
	sources := make([]Source, 0, len(ps))
	for _, p := range ps {
		src := Source{Name: p.Name()}
		if fm, ok := p.(providers.FieldMapper); ok {
			src.Mapper = fm.MapFields
		}
		sources = append(sources, src)
	}
	return NewEngine(sources...)
}

// Order returns provider names in priority order.
func (e *Engine) Order() []string {
	names := make([]string, len(e.sources))
	for i, s := range e.sources {
		names[i] = s.Name
	}
	return names
}

// Merge consolidates results for key. Results from providers the engine does
// not know, and unavailable results, never contribute.
func (e *Engine) Merge(key models.QueryKey, results map[string]models.ProviderResult) models.ConsolidatedRecord {
	rec := models.ConsolidatedRecord{QueriedNumber: key}
	for _, src := range e.sources {
		r, ok := results[src.Name]
		if !ok || !r.Available() {
			continue
		}
		values := src.Mapper(r.Fields())

		setString(&rec.InternationalFormat, values[models.FieldInternationalFormat])
		setBool(&rec.Valid, values[models.FieldValid])
		setString(&rec.CountryName, values[models.FieldCountryName])
		setString(&rec.CountryCode, values[models.FieldCountryCode])
		setString(&rec.Location, values[models.FieldLocation])
		setString(&rec.Carrier, values[models.FieldCarrier])
		setString(&rec.LineType, values[models.FieldLineType])
		setString(&rec.CallerName, values[models.FieldCallerName])
	}
	return rec
}

// Canonical reads canonical field names straight from the payload.
func Canonical(fields map[string]any) models.FieldSet {
	out := make(models.FieldSet, len(models.CanonicalFields))
	for _, f := range models.CanonicalFields {
		if v, ok := fields[string(f)]; ok {
			out[f] = v
		}
	}
	return out
}

func setString(dst **string, v any) {
	if *dst != nil {
		return
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return
	}
	*dst = &s
}

func setBool(dst **bool, v any) {
	if *dst != nil {
		return
	}
	b, ok := v.(bool)
	if !ok {
		return
	}
	*dst = &b
}
