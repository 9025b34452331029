// Package format renders lookup bundles as plain text for chat-style clients.
package format

import (
	"slices"
	"strings"
	"unicode/utf8"

	"numlookup/internal/lookup/models"
)

// MaxTextLength is the longest message chat front-ends accept.
const MaxTextLength = 4000

const (
	placeholder = "N/A"
	footer      = "Note: results show public, provider-supplied information only. No live location or private data is available."
)

// Text renders bundle as a human-readable summary: the consolidated fields
// followed by one line per provider in priority order.
func Text(bundle models.Bundle) string {
	rec := bundle.Consolidated
	var b strings.Builder

	b.WriteString("Results for: " + rec.QueriedNumber.String() + "\n\n")
	line(&b, "International", str(rec.InternationalFormat))
	line(&b, "Valid", valid(rec.Valid))
	line(&b, "Country", str(rec.CountryName)+" ("+str(rec.CountryCode)+")")
	line(&b, "Location/Region", str(rec.Location))
	line(&b, "Carrier", str(rec.Carrier))
	line(&b, "Line type", str(rec.LineType))
	line(&b, "Caller name (CNAM)", str(rec.CallerName))

	b.WriteString("\nProviders summary:\n")
	for _, name := range providerOrder(bundle) {
		r := bundle.Raw[name]
		status := "NO"
		if r.Available() {
			status = "OK"
		}
		b.WriteString(" - " + name + ": " + status)
		if msg := r.ErrorMessage(); msg != "" {
			b.WriteString(" - " + msg)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + footer)
	return b.String()
}

// Truncate shortens s to at most n characters without splitting a multi-byte
// character.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func line(b *strings.Builder, label, value string) {
	b.WriteString(label + ": " + value + "\n")
}

func str(v *string) string {
	if v == nil || *v == "" {
		return placeholder
	}
	return *v
}

func valid(v *bool) string {
	switch {
	case v == nil:
		return "unknown"
	case *v:
		return "true"
	default:
		return "false"
	}
}

// providerOrder lists the bundle's providers in merge order, then any raw
// results the order does not mention, so nothing is silently dropped.
func providerOrder(bundle models.Bundle) []string {
	names := make([]string, 0, len(bundle.Raw))
	seen := make(map[string]bool, len(bundle.Raw))
	for _, name := range bundle.Order {
		if _, ok := bundle.Raw[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range bundle.Raw {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(names, rest...)
}
