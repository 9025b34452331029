package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"numlookup/internal/lookup/cache"
	"numlookup/internal/lookup/fanout"
	"numlookup/internal/lookup/merge"
	"numlookup/internal/lookup/metrics"
	"numlookup/internal/lookup/models"
	"numlookup/internal/lookup/providers"
	dErrors "numlookup/pkg/domain-errors"
	"numlookup/pkg/platform/sentinel"
	"numlookup/pkg/requestcontext"
)

// ErrInvalidInput is returned by Aggregate for a query that is not a
// normalized international number. It carries dErrors.CodeInvalidInput.
var ErrInvalidInput = dErrors.New(dErrors.CodeInvalidInput, "invalid phone number, expected + followed by digits")

// Aggregate sources recorded against the latency histogram.
const (
	sourceCache  = "cache"
	sourceFanout = "fanout"
)

// Service is the lookup entry point: it validates the query, serves it from
// cache when possible, and otherwise fans out to every registered provider
// and merges the results.
type Service struct {
	providers   []providers.Provider
	engine      *merge.Engine
	coordinator *fanout.Coordinator
	cache       cache.Store
	flights     singleflight.Group
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCoordinator replaces the default fan-out coordinator.
func WithCoordinator(c *fanout.Coordinator) Option {
	return func(s *Service) {
		s.coordinator = c
	}
}

// WithClock overrides the time source used for bundle creation times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a service over the providers in registry, merged in
// registration order. store is the cache consulted before any fan-out.
func New(registry *providers.Registry, store cache.Store, opts ...Option) *Service {
	ps := registry.All()
	s := &Service{
		providers: ps,
		engine:    merge.FromProviders(ps),
		cache:     store,
		logger:    slog.New(slog.DiscardHandler),
		tracer:    otel.Tracer("numlookup/lookup/service"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.coordinator == nil {
		s.coordinator = fanout.New(fanout.WithLogger(s.logger), fanout.WithMetrics(s.metrics))
	}
	return s
}

// Aggregate returns the lookup bundle for raw. A malformed number fails with
// ErrInvalidInput before any provider or cache activity. Any valid number
// yields a bundle, even when every provider is unavailable.
//
// Concurrent calls for the same number share a single fan-out. The shared
// fan-out is detached from the caller's cancellation, so a caller that gives
// up does not fail the others; provider timeouts still bound it.
func (s *Service) Aggregate(ctx context.Context, raw string) (models.Bundle, error) {
	key, err := models.ParseQueryKey(raw)
	if err != nil {
		return models.Bundle{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	ctx, span := s.tracer.Start(ctx, "lookup.aggregate", trace.WithAttributes(attribute.String("number", key.Masked())))
	defer span.End()

	start := s.now()
	if b, ok := s.cached(ctx, key); ok {
		span.SetAttributes(attribute.String("source", sourceCache))
		s.metrics.ObserveAggregate(sourceCache, s.now().Sub(start))
		return b, nil
	}

	detached := context.WithoutCancel(ctx)
	v, _, shared := s.flights.Do(key.String(), func() (any, error) {
		// Another flight may have stored the bundle between our miss and now.
		if b, ok := s.cached(detached, key); ok {
			return b, nil
		}
		return s.compute(detached, key), nil
	})
	if shared {
		s.metrics.IncrementSharedFlights()
	}
	span.SetAttributes(attribute.String("source", sourceFanout), attribute.Bool("shared", shared))
	s.metrics.ObserveAggregate(sourceFanout, s.now().Sub(start))

	return v.(models.Bundle), nil
}

// Providers returns provider names in priority order.
func (s *Service) Providers() []string {
	return s.engine.Order()
}

// Health reports per-provider health. Providers without a health check report
// nil. All checks run with ctx and are independent of each other.
func (s *Service) Health(ctx context.Context) map[string]error {
	out := make(map[string]error, len(s.providers))
	for _, p := range s.providers {
		hc, ok := p.(providers.HealthChecker)
		if !ok {
			out[p.Name()] = nil
			continue
		}
		out[p.Name()] = hc.Health(ctx)
	}
	return out
}

func (s *Service) cached(ctx context.Context, key models.QueryKey) (models.Bundle, bool) {
	b, err := s.cache.Get(ctx, key)
	if err == nil {
		return b, true
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "cache read failed",
			"number", key.Masked(),
			"error", err,
		)
	}
	return models.Bundle{}, false
}

// compute runs one fan-out, merges it and stores the bundle.
func (s *Service) compute(ctx context.Context, key models.QueryKey) models.Bundle {
	s.metrics.IncrementFanouts()

	results := s.coordinator.Run(ctx, key, s.providers)
	bundle := models.Bundle{
		QueryKey:     key,
		Consolidated: s.engine.Merge(key, results),
		Raw:          results,
		Order:        s.engine.Order(),
		CreatedAt:    s.now(),
	}

	available := 0
	for _, r := range results {
		if r.Available() {
			available++
		}
	}
	s.logger.InfoContext(ctx, "lookup aggregated",
		"number", key.Masked(),
		"providers", len(results),
		"available", available,
		"request_id", requestcontext.RequestID(ctx),
	)

	if err := s.cache.Put(ctx, key, bundle); err != nil {
		s.logger.WarnContext(ctx, "cache write failed",
			"number", key.Masked(),
			"error", err,
		)
	}
	return bundle
}
