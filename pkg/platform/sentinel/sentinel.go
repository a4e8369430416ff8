package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these, optionally wrapped,
// and services translate them into domain errors.
//
//   - ErrNotFound: record does not exist in the store
//   - ErrConflict: record already exists where a create was requested
//   - ErrInvalidState: record is in the wrong state for the operation (a finalized
//     pending signature, for instance)
//   - ErrUnavailable: backing service temporarily unavailable
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
