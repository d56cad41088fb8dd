package transport

import (
	"sync"
	"time"
)

// RetrySchedule is a small explicit retry state machine: an attempt
// counter with a linearly increasing backoff and a terminal exhausted
// state. It holds no timers itself; callers wait out the returned delay
// on their own clock, which keeps the schedule testable with virtual time.
type RetrySchedule struct {
	maxAttempts int
	step        time.Duration

	mu       sync.Mutex
	attempts int
}

// NewRetrySchedule creates a schedule allowing maxAttempts attempts with
// a backoff of (attempt-1) × step before each
func NewRetrySchedule(maxAttempts int, step time.Duration) *RetrySchedule {
	return &RetrySchedule{maxAttempts: maxAttempts, step: step}
}

// Next claims the next attempt. It returns the backoff to wait before the
// attempt and false once the schedule is exhausted. The first attempt has
// no backoff.
func (r *RetrySchedule) Next() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.attempts >= r.maxAttempts {
		return 0, false
	}
	delay := time.Duration(r.attempts) * r.step
	r.attempts++
	return delay, true
}

// Attempts returns how many attempts have been claimed
func (r *RetrySchedule) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

// Exhausted reports whether the attempt ceiling has been reached
func (r *RetrySchedule) Exhausted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts >= r.maxAttempts
}

// Reset returns the schedule to its initial state
func (r *RetrySchedule) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = 0
}
