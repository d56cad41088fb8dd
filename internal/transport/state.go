// Package transport owns the playable media resource: its load lifecycle,
// retry policy, playback primitives and the event stream other components
// subscribe to. Nothing outside this package touches the underlying medium
// directly.
package transport

// Readiness represents the load lifecycle of the media resource
type Readiness string

// Readiness state constants
const (
	ReadinessIdle    Readiness = "idle"    // No source assigned
	ReadinessLoading Readiness = "loading" // Buffering in progress
	ReadinessReady   Readiness = "ready"   // Enough data buffered to play through
	ReadinessErrored Readiness = "errored" // Load or playback failure, needs retry
)

// String returns the string representation of the readiness state
func (r Readiness) String() string {
	return string(r)
}

// IsValid checks if the readiness state is a known valid value
func (r Readiness) IsValid() bool {
	switch r {
	case ReadinessIdle, ReadinessLoading, ReadinessReady, ReadinessErrored:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a transition from the current state to next is
// valid. Playing and paused are substates of ready and are tracked
// separately on the adapter.
func (r Readiness) CanTransitionTo(next Readiness) bool {
	switch r {
	case ReadinessIdle:
		// From idle, loading is the only way forward
		return next == ReadinessLoading
	case ReadinessLoading:
		return next == ReadinessReady || next == ReadinessErrored || next == ReadinessIdle
	case ReadinessReady:
		// A ready medium can fail mid-playback or be reloaded
		return next == ReadinessErrored || next == ReadinessLoading || next == ReadinessIdle
	case ReadinessErrored:
		// Errors clear back to loading via explicit retry
		return next == ReadinessLoading || next == ReadinessIdle
	default:
		return false
	}
}

// HealthStatus is the synchronous pre-flight diagnostic for the transport
type HealthStatus string

// Health status constants
const (
	HealthNoMedium HealthStatus = "no-medium" // No medium attached
	HealthError    HealthStatus = "error"     // A recorded error is pending
	HealthNotReady HealthStatus = "not-ready" // Source still buffering
	HealthNoSource HealthStatus = "no-source" // Medium attached but no source assigned
	HealthHealthy  HealthStatus = "healthy"   // Safe to play
)

// Health is the result of a transport health check
type Health struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message"`
}

// OK reports whether the transport is safe to play
func (h Health) OK() bool {
	return h.Status == HealthHealthy
}
