package format

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"numlookup/internal/lookup/models"
)

func ptr[T any](v T) *T { return &v }

func TestText(t *testing.T) {
	bundle := models.Bundle{
		QueryKey: "+919812345678",
		Consolidated: models.ConsolidatedRecord{
			QueriedNumber: "+919812345678",
			Valid:         ptr(false),
			CountryName:   ptr("India"),
			Carrier:       ptr("Acme"),
			LineType:      ptr("mobile"),
		},
		Raw: map[string]models.ProviderResult{
			"numverify":  models.NewAvailable("numverify", map[string]any{"carrier": "Acme"}),
			"twilio":     models.NewUnavailable("twilio", "not_found", "status 404: not found"),
			"whitepages": models.NewUnavailable("whitepages", "not_configured", models.NotConfigured),
		},
		Order: []string{"numverify", "twilio", "whitepages"},
	}

	want := strings.Join([]string{
		"Results for: +919812345678",
		"",
		"International: N/A",
		"Valid: false",
		"Country: India (N/A)",
		"Location/Region: N/A",
		"Carrier: Acme",
		"Line type: mobile",
		"Caller name (CNAM): N/A",
		"",
		"Providers summary:",
		" - numverify: OK",
		" - twilio: NO - status 404: not found",
		" - whitepages: NO - not configured",
		"",
		footer,
	}, "\n")

	assert.Equal(t, want, Text(bundle))
}

func TestTextUnknownValidity(t *testing.T) {
	out := Text(models.Bundle{
		Consolidated: models.ConsolidatedRecord{QueriedNumber: "+1"},
		Raw: map[string]models.ProviderResult{
			"b": models.NewAvailable("b", nil),
			"a": models.NewAvailable("a", nil),
		},
	})
	assert.Contains(t, out, "Valid: unknown\n")
	assert.Contains(t, out, " - a: OK\n - b: OK\n", "providers missing from Order are listed by name")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", MaxTextLength))
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "", Truncate("abc", 0))

	long := strings.Repeat("é", MaxTextLength+10)
	got := Truncate(long, MaxTextLength)
	assert.Equal(t, MaxTextLength, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}
