package timeline

import (
	"errors"
	"fmt"
)

// Common timeline errors
var (
	// ErrNoSections is returned when a timeline has an empty section list
	ErrNoSections = errors.New("timeline has no sections")

	// ErrTimeOutOfRange is returned by locators when the requested time
	// falls outside every section window
	ErrTimeOutOfRange = errors.New("time is outside the timeline")
)

// ValidationError reports the first offending field of a malformed
// timeline payload. A failed parse never constructs a partial Timeline.
type ValidationError struct {
	TimelineID string // may be empty when the id field itself is invalid
	Field      string
	Reason     string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.TimelineID != "" {
		return fmt.Sprintf("invalid timeline %q: field %s: %s", e.TimelineID, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid timeline: field %s: %s", e.Field, e.Reason)
}

func newValidationError(id, field, reason string) *ValidationError {
	return &ValidationError{TimelineID: id, Field: field, Reason: reason}
}
