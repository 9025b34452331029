package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"numlookup/internal/lookup/cache"
	"numlookup/internal/lookup/fanout"
	"numlookup/internal/lookup/metrics"
	"numlookup/internal/lookup/models"
	"numlookup/internal/lookup/providers"
	dErrors "numlookup/pkg/domain-errors"
)

type countingProvider struct {
	name  string
	calls atomic.Int32
	delay time.Duration
	fn    func(key models.QueryKey) models.ProviderResult
}

func (p *countingProvider) Name() string { return p.name }

func (p *countingProvider) Lookup(ctx context.Context, key models.QueryKey) models.ProviderResult {
	p.calls.Add(1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return models.NewUnavailable(p.name, "timeout", "timeout")
		}
	}
	return p.fn(key)
}

func (p *countingProvider) Health(context.Context) error {
	if p.name == "down" {
		return errors.New("unreachable")
	}
	return nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	clock   *clock
	metrics *metrics.Metrics
	a       *countingProvider
	b       *countingProvider
	cache   *cache.MemoryCache
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = &clock{now: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)}
	s.metrics = metrics.New(prometheus.NewRegistry())

	s.a = &countingProvider{name: "A", fn: func(models.QueryKey) models.ProviderResult {
		return models.NewAvailable("A", map[string]any{"carrier": "Acme", "line_type": "mobile"})
	}}
	s.b = &countingProvider{name: "B", fn: func(models.QueryKey) models.ProviderResult {
		return models.NewUnavailable("B", "timeout", "timeout")
	}}
	s.cache = cache.NewMemoryCache(time.Hour, 100, cache.WithClock(s.clock.Now), cache.WithMetrics(s.metrics))
	s.service = s.newService(s.cache, s.a, s.b)
}

func (s *ServiceSuite) newService(store cache.Store, ps ...providers.Provider) *Service {
	registry := providers.NewRegistry()
	for _, p := range ps {
		s.Require().NoError(registry.Register(p))
	}
	return New(registry, store,
		WithClock(s.clock.Now),
		WithMetrics(s.metrics),
		WithCoordinator(fanout.New(fanout.WithTimeout(time.Second), fanout.WithMetrics(s.metrics))),
	)
}

func (s *ServiceSuite) TestAggregateMergesAndKeepsRawResults() {
	bundle, err := s.service.Aggregate(s.ctx, "+919812345678")
	s.Require().NoError(err)

	s.Equal(models.QueryKey("+919812345678"), bundle.QueryKey)
	s.Equal(models.QueryKey("+919812345678"), bundle.Consolidated.QueriedNumber)
	s.Require().NotNil(bundle.Consolidated.Carrier)
	s.Equal("Acme", *bundle.Consolidated.Carrier)
	s.Equal("mobile", *bundle.Consolidated.LineType)
	s.Equal([]string{"A", "B"}, bundle.Order)
	s.Equal(s.clock.Now(), bundle.CreatedAt)

	s.Require().Len(bundle.Raw, 2)
	rb, ok := bundle.Result("B")
	s.Require().True(ok)
	s.False(rb.Available())
	s.Equal("timeout", rb.ErrorMessage())
}

func (s *ServiceSuite) TestInvalidInputHasNoSideEffects() {
	for _, raw := range []string{"", "9812345678", "+", "+91 98123", "+91-9812345678", "+abc"} {
		_, err := s.service.Aggregate(s.ctx, raw)
		s.Require().Error(err, raw)
		s.ErrorIs(err, ErrInvalidInput, raw)
		s.ErrorIs(err, models.ErrMalformedQuery, raw)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput), raw)
	}

	s.Zero(s.a.calls.Load())
	s.Zero(s.b.calls.Load())
	s.Zero(s.cache.Len())
	s.Zero(promtest.ToFloat64(s.metrics.CacheLookups.WithLabelValues("miss")))
}

func (s *ServiceSuite) TestSurroundingWhitespaceIsTrimmed() {
	bundle, err := s.service.Aggregate(s.ctx, "  +14155552671\n")
	s.Require().NoError(err)
	s.Equal(models.QueryKey("+14155552671"), bundle.QueryKey)
}

func (s *ServiceSuite) TestAllProvidersUnavailableStillYieldsBundle() {
	off := &countingProvider{name: "off", fn: func(models.QueryKey) models.ProviderResult {
		return providers.NotConfigured("off")
	}}
	svc := s.newService(cache.NewMemoryCache(time.Hour, 10), off, s.b)

	bundle, err := svc.Aggregate(s.ctx, "+14155552671")
	s.Require().NoError(err)
	s.True(bundle.Consolidated.IsEmpty())
	s.Len(bundle.Raw, 2)
	for name, r := range bundle.Raw {
		s.False(r.Available(), name)
		s.NotEmpty(r.ErrorMessage(), name)
	}
}

func (s *ServiceSuite) TestRepeatQueryIsServedFromCache() {
	first, err := s.service.Aggregate(s.ctx, "+14155552671")
	s.Require().NoError(err)

	s.clock.Advance(59 * time.Minute)
	second, err := s.service.Aggregate(s.ctx, "+14155552671")
	s.Require().NoError(err)

	s.Equal(first, second)
	s.EqualValues(1, s.a.calls.Load())
	s.EqualValues(1, s.b.calls.Load())
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Fanouts))
}

func (s *ServiceSuite) TestExpiredEntryTriggersNewFanout() {
	_, err := s.service.Aggregate(s.ctx, "+14155552671")
	s.Require().NoError(err)

	s.clock.Advance(time.Hour)
	bundle, err := s.service.Aggregate(s.ctx, "+14155552671")
	s.Require().NoError(err)

	s.EqualValues(2, s.a.calls.Load())
	s.Equal(s.clock.Now(), bundle.CreatedAt)
}

func (s *ServiceSuite) TestConcurrentCallersShareOneFanout() {
	s.a.delay = 100 * time.Millisecond

	const callers = 20
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		bundles = make([]models.Bundle, callers)
		errs    = make([]error, callers)
	)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			bundles[i], errs[i] = s.service.Aggregate(s.ctx, "+919812345678")
		}()
	}
	close(start)
	wg.Wait()

	for i := range callers {
		s.Require().NoError(errs[i])
		s.Equal(bundles[0], bundles[i])
	}
	s.EqualValues(1, s.a.calls.Load())
	s.EqualValues(1, s.b.calls.Load())
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Fanouts))
}

func (s *ServiceSuite) TestCapacityEvictionForcesRecompute() {
	svc := s.newService(cache.NewMemoryCache(time.Hour, 2, cache.WithClock(s.clock.Now)), s.a)

	for _, raw := range []string{"+10001", "+10002", "+10003"} {
		_, err := svc.Aggregate(s.ctx, raw)
		s.Require().NoError(err)
	}
	s.EqualValues(3, s.a.calls.Load())

	_, err := svc.Aggregate(s.ctx, "+10001")
	s.Require().NoError(err)
	s.EqualValues(4, s.a.calls.Load())

	_, err = svc.Aggregate(s.ctx, "+10003")
	s.Require().NoError(err)
	s.EqualValues(4, s.a.calls.Load())
}

func (s *ServiceSuite) TestCancelledCallerStillGetsBundle() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	bundle, err := s.service.Aggregate(ctx, "+14155552671")
	s.Require().NoError(err)
	s.True(bundle.Raw["A"].Available())
}

func (s *ServiceSuite) TestCacheWriteFailureDoesNotFailAggregate() {
	svc := s.newService(failingStore{}, s.a)

	bundle, err := svc.Aggregate(s.ctx, "+14155552671")
	s.Require().NoError(err)
	s.Equal("Acme", *bundle.Consolidated.Carrier)
}

func (s *ServiceSuite) TestProvidersAndHealth() {
	down := &countingProvider{name: "down", fn: func(models.QueryKey) models.ProviderResult {
		return models.NewAvailable("down", nil)
	}}
	svc := s.newService(s.cache, s.a, down)

	s.Equal([]string{"A", "down"}, svc.Providers())

	health := svc.Health(s.ctx)
	s.Require().Len(health, 2)
	s.NoError(health["A"])
	s.EqualError(health["down"], "unreachable")
}

type failingStore struct{}

func (failingStore) Get(context.Context, models.QueryKey) (models.Bundle, error) {
	return models.Bundle{}, errors.New("connection refused")
}

func (failingStore) Put(context.Context, models.QueryKey, models.Bundle) error {
	return errors.New("connection refused")
}

func TestNewWithoutOptions(t *testing.T) {
	registry := providers.NewRegistry()
	require.NoError(t, registry.Register(&countingProvider{name: "A", fn: func(models.QueryKey) models.ProviderResult {
		return models.NewAvailable("A", map[string]any{"country_name": "India"})
	}}))

	svc := New(registry, cache.NewMemoryCache(0, 0))
	bundle, err := svc.Aggregate(context.Background(), "+919812345678")
	require.NoError(t, err)
	assert.Equal(t, "India", *bundle.Consolidated.CountryName)
}
