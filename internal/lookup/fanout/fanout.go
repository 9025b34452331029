// Package fanout runs every provider for a query concurrently and collects
// exactly one result per provider.
package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"numlookup/internal/lookup/metrics"
	"numlookup/internal/lookup/models"
	"numlookup/internal/lookup/providers"
)

// DefaultTimeout bounds each provider call.
const DefaultTimeout = 10 * time.Second

// Coordinator fans a query out to providers.
type Coordinator struct {
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithClock overrides the time source used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// New creates a coordinator.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		timeout: DefaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
		tracer:  otel.Tracer("numlookup/lookup/fanout"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run invokes every provider concurrently and waits until each one has
// returned or timed out. The result holds one entry per provider, keyed by
// provider name; a failing or misbehaving provider never affects the others.
func (c *Coordinator) Run(ctx context.Context, key models.QueryKey, ps []providers.Provider) map[string]models.ProviderResult {
	slots := make([]models.ProviderResult, len(ps))

	var g errgroup.Group
	for i, p := range ps {
		g.Go(func() error {
			slots[i] = c.call(ctx, key, p)
			return nil
		})
	}
	_ = g.Wait()

	results := make(map[string]models.ProviderResult, len(ps))
	for i, p := range ps {
		results[p.Name()] = slots[i]
	}
	return results
}

// call runs one provider under its own deadline. The provider runs on a
// separate goroutine so one that ignores its context is abandoned at the
// deadline; its late result is dropped.
func (c *Coordinator) call(ctx context.Context, key models.QueryKey, p providers.Provider) models.ProviderResult {
	name := p.Name()
	ctx, span := c.tracer.Start(ctx, "provider.lookup", trace.WithAttributes(attribute.String("provider", name)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := c.now()
	done := make(chan models.ProviderResult, 1)
	go func() {
		done <- c.invoke(ctx, key, p)
	}()

	var result models.ProviderResult
	select {
	case result = <-done:
	case <-ctx.Done():
		result = providers.Failure(name, providers.NewProviderError(providers.ErrorTimeout, name, "provider did not return in time", ctx.Err()))
	}

	latency := c.now().Sub(start)
	result = stamp(name, result).WithTiming(c.now(), latency)

	outcome := "ok"
	if !result.Available() {
		outcome = result.Category()
		span.SetStatus(codes.Error, result.ErrorMessage())
		c.logger.WarnContext(ctx, "provider lookup failed",
			"provider", name,
			"number", key.Masked(),
			"category", result.Category(),
			"error", result.ErrorMessage(),
			"latency", latency,
		)
	}
	span.SetAttributes(attribute.String("outcome", outcome))
	c.metrics.ObserveProvider(name, outcome, latency)
	return result
}

// invoke calls the provider and converts a panic into a failure result.
func (c *Coordinator) invoke(ctx context.Context, key models.QueryKey, p providers.Provider) (result models.ProviderResult) {
	defer func() {
		if r := recover(); r != nil {
			name := p.Name()
			c.logger.ErrorContext(ctx, "provider violated lookup contract",
				"provider", name,
				"panic", fmt.Sprint(r),
			)
			result = providers.Failure(name, providers.NewProviderError(
				providers.ErrorInternal, name, fmt.Sprintf("provider panicked: %v", r), nil,
			))
		}
	}()
	return p.Lookup(ctx, key)
}

// stamp makes sure the result is tagged with the declared provider name and
// honours the unavailable-implies-error rule even for sloppy adapters.
func stamp(name string, r models.ProviderResult) models.ProviderResult {
	if r.Provider() == name && (r.Available() || r.ErrorMessage() != "") {
		return r
	}
	if r.Available() {
		return models.NewAvailable(name, r.Fields()).WithStatusCode(r.StatusCode())
	}
	return models.NewUnavailable(name, r.Category(), r.ErrorMessage()).WithStatusCode(r.StatusCode())
}
