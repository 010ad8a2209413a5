package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: record does not exist in the store
//   - ErrConflict: a uniqueness constraint was violated
//   - ErrInvalidState: record is in the wrong state for the requested write
//   - ErrOverflow: an aggregate total would exceed its integer range
//   - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrOverflow     = errors.New("aggregate overflow")
	ErrUnavailable  = errors.New("unavailable")
)
