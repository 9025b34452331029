package requesttime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"numlookup/pkg/requestcontext"
)

func TestMiddlewareStoresStartTime(t *testing.T) {
	before := time.Now()
	var seen time.Time
	h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestcontext.Now(r.Context())
		time.Sleep(5 * time.Millisecond)
		assert.Equal(t, seen, requestcontext.Now(r.Context()))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.False(t, seen.Before(before))
	assert.False(t, seen.After(time.Now()))
}
