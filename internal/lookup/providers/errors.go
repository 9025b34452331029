package providers

import (
	"context"
	"errors"
	"fmt"

	"numlookup/internal/lookup/models"
)

// ErrorCategory defines the normalized failure taxonomy
type ErrorCategory string

const (
	// ErrorTimeout indicates the provider took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorNotConfigured indicates the provider has no credentials
	ErrorNotConfigured ErrorCategory = "not_configured"

	// ErrorBadData indicates the provider returned invalid/malformed data
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorAuthentication indicates credential or permission issues
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorProviderOutage indicates the provider is unavailable
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorNotFound indicates the provider has no record for the number
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorRateLimited indicates too many requests
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorNotImplemented indicates a configured placeholder integration
	ErrorNotImplemented ErrorCategory = "not_implemented"

	// ErrorInternal indicates an unexpected internal error, including an
	// adapter that panicked instead of returning a result
	ErrorInternal ErrorCategory = "internal"
)

// ProviderError wraps provider failures with normalized categorization
type ProviderError struct {
	Category   ErrorCategory
	ProviderID string
	Message    string
	StatusCode int // HTTP status when the provider answered with a non-2xx
	Underlying error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.ProviderID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.ProviderID, e.Category, e.Message)
}

// Unwrap supports error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError creates a new normalized provider error
func NewProviderError(category ErrorCategory, providerID, message string, underlying error) *ProviderError {
	return &ProviderError{
		Category:   category,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
	}
}

// IsRetryable checks if an error is worth retrying on a later query.
// Lookups are never retried within the same query.
func IsRetryable(err error) bool {
	switch GetCategory(err) {
	case ErrorTimeout, ErrorProviderOutage, ErrorRateLimited:
		return true
	}
	return false
}

// GetCategory extracts the error category from an error
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	return ErrorInternal
}

// Failure converts any adapter error into an unavailable result for provider.
// Timeouts and missing credentials use the fixed descriptions "timeout" and
// "not configured"; everything else keeps the provider's message.
func Failure(provider string, err error) models.ProviderResult {
	category := GetCategory(err)
	var msg string
	switch category {
	case ErrorTimeout:
		msg = string(ErrorTimeout)
	case ErrorNotConfigured:
		msg = models.NotConfigured
	default:
		msg = describe(err)
	}
	result := models.NewUnavailable(provider, string(category), msg)

	var pe *ProviderError
	if errors.As(err, &pe) && pe.StatusCode != 0 {
		result = result.WithStatusCode(pe.StatusCode)
	}
	return result
}

func describe(err error) string {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return err.Error()
	}
	if pe.Underlying != nil {
		return fmt.Sprintf("%s: %v", pe.Message, pe.Underlying)
	}
	return pe.Message
}

// NotConfigured is the result every adapter returns when it has no credentials.
func NotConfigured(provider string) models.ProviderResult {
	return models.NewUnavailable(provider, string(ErrorNotConfigured), models.NotConfigured)
}

// Sentinel errors for common cases
var (
	ErrProviderNotFound  = errors.New("provider not found")
	ErrDuplicateProvider = errors.New("provider already registered")
	ErrNotConfigured     = NewProviderError(ErrorNotConfigured, "", models.NotConfigured, nil)
)
