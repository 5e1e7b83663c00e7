package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrSourceUnavailable indicates the transaction source failed or timed
	// out. Recoverable: callers fall back to a zero-valued snapshot tagged
	// as fallback data.
	ErrSourceUnavailable = errors.New("transaction source unavailable")
	// ErrInvalidFilter indicates a filter parameter failed validation.
	ErrInvalidFilter = errors.New("invalid filter")
)
