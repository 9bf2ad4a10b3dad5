package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Transport, pool and store layers
// return these (optionally wrapped) so services can translate them into
// domain errors.
//
// - ErrUnavailable: the registry or a backing service cannot be reached
// - ErrInvalidState: a session or resource is in the wrong state for the call
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
