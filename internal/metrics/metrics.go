// Package metrics defines the instrumentation points of the ledger service.
// Implementations export to a backend; NoOpCollector is the default.
package metrics

import "time"

type Collector interface {
	// RecordReport records one report computation (cache hits excluded).
	RecordReport(kind string, success bool, duration time.Duration)
	RecordCacheLookup(kind string, hit bool)
	RecordIngest(entity string, success bool)
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
	RecordCircuitState(name string, state CircuitState)
	RecordExport(kind string, success bool, duration time.Duration)
}

// CircuitState mirrors the circuit breaker states.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

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

// NoOpCollector discards everything.
type NoOpCollector struct{}

func (NoOpCollector) RecordReport(string, bool, time.Duration)             {}
func (NoOpCollector) RecordCacheLookup(string, bool)                       {}
func (NoOpCollector) RecordIngest(string, bool)                            {}
func (NoOpCollector) RecordHTTPRequest(string, string, int, time.Duration) {}
func (NoOpCollector) RecordCircuitState(string, CircuitState)              {}
func (NoOpCollector) RecordExport(string, bool, time.Duration)             {}
