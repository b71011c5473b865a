package sentinel

import "errors"

// Sentinel errors for storage and infrastructure facts. Stores return these
// (optionally wrapped) and services translate them into domain errors:
//   - ErrNotFound: no row matched the lookup or the conditional update
//   - ErrConflict: a unique constraint rejected the write
//   - ErrInvalidState: the row exists but is in the wrong state for the operation
//   - ErrExpired: a time-bounded record is past its deadline
//   - ErrUnavailable: the backing service could not be reached
//
// Validation failures use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrExpired      = errors.New("expired")
	ErrUnavailable  = errors.New("unavailable")
)
