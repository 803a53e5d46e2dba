// Package services implements the business logic of the statistics cache:
// cache resolution, aggregation routing, invalidation and refresh sweeps,
// and daily snapshots. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrEntityNotFound indicates that the referenced domain entity (region,
	// polling station, candidate, ...) does not exist. Distinct from a cache
	// miss: a miss recomputes, a missing entity is a caller error.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrUnsupportedStatistic is returned when no aggregation routine is
	// registered for an (entity type, statistic type) pair. This is a
	// configuration error that should never be reached by a correctly wired
	// consumer, but it fails loud rather than returning an empty result.
	ErrUnsupportedStatistic = errors.New("unsupported entity/statistic pair")

	// ErrInvalidScope is returned when the entity id is empty.
	ErrInvalidScope = errors.New("entity id is empty")
)

// ComputationError wraps an aggregation failure that is neither a missing
// entity nor a routing problem: a failed query, a lost connection, a
// serialization fault. The cause is preserved for errors.Is/As.
type ComputationError struct {
	Scope string // cache key of the statistic being computed
	Err   error
}

// Error implements the error interface.
func (e *ComputationError) Error() string {
	return fmt.Sprintf("statistic computation failed for %s: %v", e.Scope, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *ComputationError) Unwrap() error { return e.Err }

// IsComputationError reports whether err is (or wraps) a ComputationError.
func IsComputationError(err error) bool {
	var ce *ComputationError
	return errors.As(err, &ce)
}
