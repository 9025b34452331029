package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"numlookup/internal/lookup/cache"
	"numlookup/internal/lookup/fanout"
	"numlookup/internal/lookup/handler"
	lookupmetrics "numlookup/internal/lookup/metrics"
	"numlookup/internal/lookup/service"
	"numlookup/internal/platform/config"
	"numlookup/internal/platform/httpserver"
	"numlookup/internal/platform/logger"
	"numlookup/internal/platform/metrics"
	"numlookup/internal/platform/redis"
	httptransport "numlookup/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Lookup logic lives in internal/lookup.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	lookupMetrics := lookupmetrics.New(reg)

	registry, err := buildRegistry(cfg.Providers, cfg.ProviderTimeout)
	if err != nil {
		return err
	}

	memory := cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.MaxEntries, cache.WithMetrics(lookupMetrics))
	var store cache.Store = memory
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		store = cache.NewTiered(memory, cache.NewRedisCache(redisClient.Client, cfg.Cache.TTL), log)
		log.Info("shared cache enabled")
	}

	lookup := service.New(registry, store,
		service.WithLogger(log),
		service.WithMetrics(lookupMetrics),
		service.WithCoordinator(fanout.New(
			fanout.WithTimeout(cfg.ProviderTimeout),
			fanout.WithLogger(log),
			fanout.WithMetrics(lookupMetrics),
		)),
	)

	router := httptransport.NewRouter(handler.New(lookup, log), metrics.NewHTTP(reg), reg, log)
	srv := httpserver.New(cfg.Addr, router, cfg.ProviderTimeout)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting numlookup", "addr", cfg.Addr, "providers", registry.Names())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
