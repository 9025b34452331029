package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"numlookup/internal/lookup/models"
)

type namedProvider string

func (p namedProvider) Name() string { return string(p) }

func (p namedProvider) Lookup(context.Context, models.QueryKey) models.ProviderResult {
	return models.NewAvailable(string(p), nil)
}

func TestRegistry(t *testing.T) {
	t.Run("keeps registration order", func(t *testing.T) {
		r := NewRegistry()
		for _, name := range []string{"numverify", "twilio", "whitepages"} {
			require.NoError(t, r.Register(namedProvider(name)))
		}
		assert.Equal(t, []string{"numverify", "twilio", "whitepages"}, r.Names())
		assert.Equal(t, 3, r.Len())

		p, ok := r.Get("twilio")
		require.True(t, ok)
		assert.Equal(t, "twilio", p.Name())
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(namedProvider("twilio")))
		err := r.Register(namedProvider("twilio"))
		assert.ErrorIs(t, err, ErrDuplicateProvider)
		assert.Equal(t, 1, r.Len())
	})

	t.Run("rejects empty names", func(t *testing.T) {
		assert.Error(t, NewRegistry().Register(namedProvider("")))
	})

	t.Run("All returns a copy", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(namedProvider("a")))
		all := r.All()
		all[0] = namedProvider("mutated")
		assert.Equal(t, []string{"a"}, r.Names())
	})
}

func TestFailure(t *testing.T) {
	t.Run("timeout is described as timeout", func(t *testing.T) {
		err := NewProviderError(ErrorTimeout, "twilio", "request timed out", context.DeadlineExceeded)
		r := Failure("twilio", err)
		assert.False(t, r.Available())
		assert.Equal(t, "timeout", r.ErrorMessage())
		assert.Equal(t, "timeout", r.Category())
	})

	t.Run("bare deadline exceeded is a timeout", func(t *testing.T) {
		r := Failure("twilio", fmt.Errorf("call: %w", context.DeadlineExceeded))
		assert.Equal(t, "timeout", r.ErrorMessage())
	})

	t.Run("not configured", func(t *testing.T) {
		r := Failure("numverify", ErrNotConfigured)
		assert.Equal(t, models.NotConfigured, r.ErrorMessage())
		assert.Equal(t, r, NotConfigured("numverify"))
	})

	t.Run("keeps message and status code", func(t *testing.T) {
		pe := NewProviderError(ErrorNotFound, "twilio", "status 404: missing", nil)
		pe.StatusCode = 404
		r := Failure("twilio", pe)
		assert.Equal(t, "status 404: missing", r.ErrorMessage())
		assert.Equal(t, 404, r.StatusCode())
	})

	t.Run("unknown errors are internal", func(t *testing.T) {
		r := Failure("x", errors.New("boom"))
		assert.Equal(t, "boom", r.ErrorMessage())
		assert.Equal(t, string(ErrorInternal), r.Category())
	})
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewProviderError(ErrorTimeout, "p", "t", nil)))
	assert.True(t, IsRetryable(NewProviderError(ErrorRateLimited, "p", "r", nil)))
	assert.False(t, IsRetryable(NewProviderError(ErrorAuthentication, "p", "a", nil)))
	assert.False(t, IsRetryable(errors.New("plain")))
}
