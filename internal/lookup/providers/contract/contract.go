// Package contract holds reusable checks every provider adapter must pass.
package contract

import (
	"context"
	"testing"

	"numlookup/internal/lookup/models"
	"numlookup/internal/lookup/providers"
)

// ContractTest defines a test case for provider contract validation
type ContractTest struct {
	Name          string
	Provider      providers.Provider
	Input         models.QueryKey
	WantAvailable bool
	// WantCategory is checked for unavailable results when set.
	WantCategory providers.ErrorCategory
	ValidateFunc func(result models.ProviderResult) error
}

// ContractSuite is a collection of contract tests for a provider
type ContractSuite struct {
	ProviderName string
	Tests        []ContractTest
}

// Run executes all contract tests in the suite
func (s *ContractSuite) Run(t *testing.T) {
	for _, test := range s.Tests {
		t.Run(test.Name, func(t *testing.T) {
			result := test.Provider.Lookup(context.Background(), test.Input)

			if result.Provider() != s.ProviderName {
				t.Errorf("expected provider %s, got %s", s.ProviderName, result.Provider())
			}
			CheckInvariants(t, result)

			if result.Available() != test.WantAvailable {
				t.Fatalf("expected available=%v, got %v (error %q)", test.WantAvailable, result.Available(), result.ErrorMessage())
			}
			if !result.Available() && test.WantCategory != "" && result.Category() != string(test.WantCategory) {
				t.Errorf("expected category %s, got %s", test.WantCategory, result.Category())
			}

			if test.ValidateFunc != nil {
				if err := test.ValidateFunc(result); err != nil {
					t.Errorf("custom validation failed: %v", err)
				}
			}
		})
	}
}

// CheckInvariants asserts the ProviderResult shape rules.
func CheckInvariants(t *testing.T, result models.ProviderResult) {
	t.Helper()
	if result.Available() {
		if result.ErrorMessage() != "" {
			t.Errorf("available result must not carry an error, got %q", result.ErrorMessage())
		}
		return
	}
	if result.ErrorMessage() == "" {
		t.Error("unavailable result must carry an error")
	}
	if len(result.Fields()) != 0 {
		t.Errorf("unavailable result must not carry fields, got %v", result.Fields())
	}
}

// NotConfiguredTest validates that a provider without credentials answers
// "not configured" without touching the network. Hits reports how many
// requests reached the provider's backend.
type NotConfiguredTest struct {
	Provider providers.Provider
	Hits     func() int
}

// Run executes the not-configured check
func (nt *NotConfiguredTest) Run(t *testing.T) {
	result := nt.Provider.Lookup(context.Background(), "+14155552671")
	CheckInvariants(t, result)

	if result.Available() {
		t.Fatal("expected unconfigured provider to be unavailable")
	}
	if result.ErrorMessage() != models.NotConfigured {
		t.Errorf("expected error %q, got %q", models.NotConfigured, result.ErrorMessage())
	}
	if nt.Hits != nil && nt.Hits() != 0 {
		t.Errorf("expected no network calls, got %d", nt.Hits())
	}
}
