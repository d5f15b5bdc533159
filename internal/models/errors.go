package models

import "errors"

// Error taxonomy for ledger and data-access operations.
//
// ErrInvalidArgument and ErrNotFound surface directly to callers as rejected
// operations. ErrUpstreamUnavailable and ErrPersistenceUnavailable are
// internal: the market data service and the failover store convert them into
// fallback paths, and callers only ever see them when every fallback is
// exhausted.
var (
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrNotFound               = errors.New("not found")
	ErrUpstreamUnavailable    = errors.New("upstream unavailable")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)
