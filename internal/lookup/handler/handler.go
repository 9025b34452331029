package handler

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"numlookup/internal/lookup/format"
	"numlookup/internal/lookup/models"
	dErrors "numlookup/pkg/domain-errors"
	"numlookup/pkg/platform/httputil"
	"numlookup/pkg/requestcontext"
)

// Service defines the lookup operations exposed over HTTP.
type Service interface {
	Aggregate(ctx context.Context, raw string) (models.Bundle, error)
	Providers() []string
	Health(ctx context.Context) map[string]error
}

// Handler serves lookup endpoints.
type Handler struct {
	logger *slog.Logger
	lookup Service
}

// New creates a new lookup Handler.
func New(lookup Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{logger: logger, lookup: lookup}
}

// Register registers the lookup routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/lookup/{number}", h.handleLookup)
	r.Get("/v1/lookup/{number}/text", h.handleLookupText)
	r.Get("/v1/providers", h.handleProviders)
	r.Get("/healthz", h.handleHealth)
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	bundle, ok := h.aggregate(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLookupResponse(bundle))
}

func (h *Handler) handleLookupText(w http.ResponseWriter, r *http.Request) {
	bundle, ok := h.aggregate(w, r)
	if !ok {
		return
	}
	httputil.WriteText(w, http.StatusOK, format.Truncate(format.Text(bundle), format.MaxTextLength))
}

func (h *Handler) handleProviders(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, &ProvidersResponse{Providers: h.lookup.Providers()})
}

// handleHealth reports per-provider health. Provider problems never fail the
// endpoint itself; the service stays up with degraded providers.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := h.lookup.Health(r.Context())

	resp := &HealthResponse{Status: "ok", Providers: make([]ProviderHealth, 0, len(checks))}
	for _, name := range h.lookup.Providers() {
		err, ok := checks[name]
		if !ok {
			continue
		}
		ph := ProviderHealth{Name: name, Status: "ok"}
		if err != nil {
			ph.Status = "degraded"
			ph.Error = err.Error()
			resp.Status = "degraded"
		}
		resp.Providers = append(resp.Providers, ph)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) aggregate(w http.ResponseWriter, r *http.Request) (models.Bundle, bool) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	bundle, err := h.lookup.Aggregate(ctx, chi.URLParam(r, "number"))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			h.logger.WarnContext(ctx, "invalid lookup request",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
			return models.Bundle{}, false
		}
		h.logger.ErrorContext(ctx, "lookup failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "lookup failed"))
		return models.Bundle{}, false
	}
	return bundle, true
}

func toLookupResponse(b models.Bundle) *LookupResponse {
	resp := &LookupResponse{
		QueryKey:  b.QueryKey.String(),
		Merged:    b.Consolidated,
		Providers: make([]ProviderResponse, 0, len(b.Raw)),
		CreatedAt: b.CreatedAt,
	}
	names := slices.Clone(b.Order)
	for name := range b.Raw {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	for _, name := range names {
		res, ok := b.Raw[name]
		if !ok {
			continue
		}
		resp.Providers = append(resp.Providers, toProviderResponse(res))
	}
	return resp
}

func toProviderResponse(r models.ProviderResult) ProviderResponse {
	pr := ProviderResponse{
		Name:       r.Provider(),
		Available:  r.Available(),
		Error:      r.ErrorMessage(),
		Category:   r.Category(),
		StatusCode: r.StatusCode(),
		LatencyMs:  r.Latency().Milliseconds(),
	}
	if r.Available() {
		pr.Fields = r.Fields()
	}
	return pr
}
