package fanout

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"numlookup/internal/lookup/metrics"
	"numlookup/internal/lookup/models"
	"numlookup/internal/lookup/providers"
)

type funcProvider struct {
	name string
	fn   func(ctx context.Context, key models.QueryKey) models.ProviderResult
}

func (p funcProvider) Name() string { return p.name }

func (p funcProvider) Lookup(ctx context.Context, key models.QueryKey) models.ProviderResult {
	return p.fn(ctx, key)
}

func available(name string, fields map[string]any) funcProvider {
	return funcProvider{name: name, fn: func(context.Context, models.QueryKey) models.ProviderResult {
		return models.NewAvailable(name, fields)
	}}
}

type FanoutSuite struct {
	suite.Suite
	metrics *metrics.Metrics
	coord   *Coordinator
}

func TestFanoutSuite(t *testing.T) {
	suite.Run(t, new(FanoutSuite))
}

func (s *FanoutSuite) SetupTest() {
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.coord = New(WithTimeout(200*time.Millisecond), WithMetrics(s.metrics))
}

func (s *FanoutSuite) TestReturnsOneResultPerProvider() {
	ps := []providers.Provider{
		available("numverify", map[string]any{"carrier": "Acme"}),
		funcProvider{name: "twilio", fn: func(context.Context, models.QueryKey) models.ProviderResult {
			return models.NewUnavailable("twilio", "not_found", "status 404")
		}},
		available("whitepages", nil),
	}

	results := s.coord.Run(context.Background(), "+919812345678", ps)

	s.Require().Len(results, 3)
	s.True(results["numverify"].Available())
	s.Equal("Acme", results["numverify"].Field("carrier"))
	s.False(results["twilio"].Available())
	s.Equal("status 404", results["twilio"].ErrorMessage())
	s.True(results["whitepages"].Available())
	s.Equal(1.0, promtest.ToFloat64(s.metrics.ProviderResults.WithLabelValues("twilio", "not_found")))
}

func (s *FanoutSuite) TestPanickingProviderIsIsolated() {
	ps := []providers.Provider{
		funcProvider{name: "broken", fn: func(context.Context, models.QueryKey) models.ProviderResult {
			panic("nil map write")
		}},
		available("numverify", map[string]any{"country_name": "India"}),
	}

	results := s.coord.Run(context.Background(), "+919812345678", ps)

	s.Require().Len(results, 2)
	broken := results["broken"]
	s.False(broken.Available())
	s.Equal("broken", broken.Provider())
	s.Equal(string(providers.ErrorInternal), broken.Category())
	s.Contains(broken.ErrorMessage(), "nil map write")
	s.True(results["numverify"].Available())
}

func (s *FanoutSuite) TestProviderIgnoringContextIsAbandoned() {
	release := make(chan struct{})
	defer close(release)

	ps := []providers.Provider{
		funcProvider{name: "stuck", fn: func(context.Context, models.QueryKey) models.ProviderResult {
			<-release
			return models.NewAvailable("stuck", map[string]any{"carrier": "Late"})
		}},
		available("numverify", nil),
	}

	start := time.Now()
	results := s.coord.Run(context.Background(), "+14155552671", ps)
	elapsed := time.Since(start)

	s.Less(elapsed, time.Second)
	s.False(results["stuck"].Available())
	s.Equal("timeout", results["stuck"].ErrorMessage())
	s.True(results["numverify"].Available())
}

func (s *FanoutSuite) TestProvidersRunInParallel() {
	var inFlight, peak atomic.Int32
	slow := func(name string) funcProvider {
		return funcProvider{name: name, fn: func(ctx context.Context, _ models.QueryKey) models.ProviderResult {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(50 * time.Millisecond)
			inFlight.Add(-1)
			return models.NewAvailable(name, nil)
		}}
	}

	results := s.coord.Run(context.Background(), "+14155552671",
		[]providers.Provider{slow("a"), slow("b"), slow("c")})

	s.Len(results, 3)
	s.EqualValues(3, peak.Load())
}

func (s *FanoutSuite) TestResultsAreTaggedWithDeclaredName() {
	ps := []providers.Provider{
		funcProvider{name: "declared", fn: func(context.Context, models.QueryKey) models.ProviderResult {
			return models.ProviderResult{}
		}},
	}

	r := s.coord.Run(context.Background(), "+1", ps)["declared"]
	s.Equal("declared", r.Provider())
	s.False(r.Available())
	s.NotEmpty(r.ErrorMessage())
}

func TestRunWithNoProviders(t *testing.T) {
	results := New().Run(context.Background(), "+1", nil)
	require.NotNil(t, results)
	assert.Empty(t, results)
}

func TestRunStampsTiming(t *testing.T) {
	fixed := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	c := New(WithClock(func() time.Time { return fixed }))

	r := c.Run(context.Background(), "+1", []providers.Provider{available("a", nil)})["a"]
	assert.Equal(t, fixed, r.CheckedAt())
	assert.Equal(t, time.Duration(0), r.Latency())
}
