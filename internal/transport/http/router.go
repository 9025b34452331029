package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"numlookup/internal/lookup/handler"
	"numlookup/internal/platform/metrics"
	"numlookup/pkg/platform/middleware/requestid"
	"numlookup/pkg/platform/middleware/requesttime"
	"numlookup/pkg/requestcontext"
)

// NewRouter wires all public endpoints behind the shared middleware chain.
// The transport stays thin; lookup semantics live in the lookup handler.
func NewRouter(lookup *handler.Handler, httpMetrics *metrics.HTTP, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(requesttime.Middleware)
	r.Use(requestid.Middleware)
	r.Use(chimw.Recoverer)
	r.Use(httpMetrics.Middleware)
	r.Use(accessLog(logger))

	lookup.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

// accessLog logs one line per request. Paths are not logged because they
// carry the queried number.
func accessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				route = rc.RoutePattern()
			}
			logger.InfoContext(r.Context(), "request completed",
				"request_id", requestcontext.RequestID(r.Context()),
				"method", r.Method,
				"route", route,
				"status", ww.Status(),
				"duration", time.Since(requestcontext.Now(r.Context())),
			)
		})
	}
}
