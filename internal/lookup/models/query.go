package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedQuery is returned when a raw query is not "+" followed by one or
// more ASCII digits.
var ErrMalformedQuery = errors.New("phone number must be + followed by digits")

// QueryKey is a normalized phone number in international form, e.g. "+919812345678".
// It is both the provider lookup input and the cache key. Values are only
// produced by ParseQueryKey, so downstream code never re-normalizes.
type QueryKey string

// ParseQueryKey validates and normalizes a raw phone number. Surrounding
// whitespace is trimmed; nothing else is rewritten.
func ParseQueryKey(raw string) (QueryKey, error) {
	s := strings.TrimSpace(raw)
	if len(s) < 2 || s[0] != '+' {
		return "", fmt.Errorf("%q: %w", raw, ErrMalformedQuery)
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", fmt.Errorf("%q: %w", raw, ErrMalformedQuery)
		}
	}
	return QueryKey(s), nil
}

func (k QueryKey) String() string {
	return string(k)
}

// Masked hides the middle digits so numbers can be logged and traced.
func (k QueryKey) Masked() string {
	s := string(k)
	if len(s) <= 7 {
		return s
	}
	return s[:3] + strings.Repeat("*", len(s)-7) + s[len(s)-4:]
}
