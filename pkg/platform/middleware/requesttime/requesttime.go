// Package requesttime captures one timestamp per request so access logs and
// handlers agree on when the request started.
package requesttime

import (
	"net/http"
	"time"

	"numlookup/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
