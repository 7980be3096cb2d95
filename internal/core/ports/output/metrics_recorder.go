package ports

import "time"

// MetricsRecorder receives supervisor lifecycle events
type MetricsRecorder interface {
	// Setup steps
	ObserveStep(step string, outcome string, d time.Duration)

	// Service lifecycle
	ServiceStarted(service string)
	ServiceExited(service string, exitCode int)
	ServiceReady(service string)
	ServiceRestarted(service string)

	// Dependencies
	ObserveDependency(name string, ok bool, d time.Duration)
}

// Step outcomes reported to ObserveStep
const (
	OutcomeSucceeded = "succeeded"
	OutcomeTolerated = "tolerated"
	OutcomeFailed    = "failed"
)
