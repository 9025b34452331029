package providers

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"numlookup/internal/lookup/models"
)

// Provider is the universal interface all phone lookup sources must implement.
//
// Lookup never fails: every transport error, timeout, bad status, malformed
// payload or missing credential is reported as an unavailable result.
type Provider interface {
	// Name returns a unique identifier for this provider instance
	Name() string

	// Lookup queries the provider for a single number
	Lookup(ctx context.Context, key models.QueryKey) models.ProviderResult
}

// FieldMapper is implemented by providers whose payload does not use the
// canonical field names, e.g. nested carrier objects.
type FieldMapper interface {
	MapFields(fields map[string]any) models.FieldSet
}

// HealthChecker is implemented by providers that can report readiness
// without spending a paid lookup.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Registry keeps providers in registration order. The order doubles as the
// merge priority: earlier providers win conflicting fields.
type Registry struct {
	ordered []Provider
	byName  map[string]Provider
}

// NewRegistry creates a new empty registry
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Provider),
	}
}

// Register appends a provider at the lowest priority so far.
func (r *Registry) Register(p Provider) error {
	name := p.Name()
	if name == "" {
		return errors.New("provider name is required")
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("provider %s: %w", name, ErrDuplicateProvider)
	}
	r.byName[name] = p
	r.ordered = append(r.ordered, p)
	return nil
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// All returns all registered providers in priority order
func (r *Registry) All() []Provider {
	return slices.Clone(r.ordered)
}

// Names returns provider names in priority order
func (r *Registry) Names() []string {
	names := make([]string, len(r.ordered))
	for i, p := range r.ordered {
		names[i] = p.Name()
	}
	return names
}

// Len returns the number of registered providers
func (r *Registry) Len() int {
	return len(r.ordered)
}
