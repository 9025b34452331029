package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can tell an absent entry from a failing backend.
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	// ErrNotFound: no live entry exists for the key. Expired entries are
	// reported the same way.
	ErrNotFound = errors.New("not found")
)
