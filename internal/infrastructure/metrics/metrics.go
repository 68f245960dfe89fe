// Package metrics defines the reconciliation metrics surface and its backends.
package metrics

import (
	"time"
)

// Collector defines the interface for collecting reconciliation metrics.
// Implementations can export metrics to various backends (Prometheus, in-memory, etc.).
type Collector interface {
	// Imports
	RecordImport(source string, success bool, inserted, skipped int)

	// Status transitions; result is one of the Result* constants
	RecordTransition(event string, result string)

	// Matching
	RecordShortlist(candidates int)
	RecordAutoReconcile(confirmed, unassigned int, duration time.Duration)

	// Extraction adapter
	RecordExtraction(success bool, duration time.Duration)
	RecordCircuitState(name string, state CircuitState)

	// HTTP
	RecordRequest(method, route string, status int, duration time.Duration)
}

// Transition results.
const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed means the circuit breaker is allowing requests through.
	CircuitClosed CircuitState = iota
	// CircuitOpen means the circuit breaker is blocking requests.
	CircuitOpen
	// CircuitHalfOpen means the circuit breaker is testing if the service has recovered.
	CircuitHalfOpen
)

// String returns the string representation of the circuit state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// NoOpCollector is a no-op implementation of Collector.
// It's used as the default collector when metrics are disabled.
type NoOpCollector struct{}

var _ Collector = NoOpCollector{}

func (NoOpCollector) RecordImport(source string, success bool, inserted, skipped int) {}
func (NoOpCollector) RecordTransition(event string, result string) {}
func (NoOpCollector) RecordShortlist(candidates int) {}
func (NoOpCollector) RecordAutoReconcile(confirmed, unassigned int, duration time.Duration) {}
func (NoOpCollector) RecordExtraction(success bool, duration time.Duration) {}
func (NoOpCollector) RecordCircuitState(name string, state CircuitState) {}
func (NoOpCollector) RecordRequest(method, route string, status int, duration time.Duration) {}
