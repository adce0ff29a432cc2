// Package clients provides the instrumented HTTP client used to reach
// downstream services such as the remote quote feed.
package clients

import "errors"

// Client errors represent failures in the HTTP client layer. They are
// infrastructure failures, distinct from domain errors; callers translate
// them to domain errors at the adapter boundary.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open and
	// requests to the downstream service are being blocked.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded is returned after all retry attempts have been
	// exhausted. The last attempt's error is wrapped for context.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
