package playback

import (
	"sync"
	"time"

	"github.com/naco0406/simplicity/internal/player"
)

// ReturnTransition is the one-shot cross-navigation snapshot left behind
// when a playback session closes, letting the gallery replay its exit
// animation in reverse. It is consumed exactly once and never persisted.
type ReturnTransition struct {
	PresentationID string          `json:"presentation_id"`
	Position       player.Position `json:"position"`
	RecordedAt     time.Time       `json:"recorded_at"`
}

// ReturnMarker is the scratch slot holding at most one pending transition
type ReturnMarker struct {
	mu      sync.Mutex
	pending *ReturnTransition
}

// NewReturnMarker creates an empty marker
func NewReturnMarker() *ReturnMarker {
	return &ReturnMarker{}
}

// Set replaces any pending transition with a new one
func (m *ReturnMarker) Set(t ReturnTransition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = &t
}

// Take consumes the pending transition, clearing the slot. The second
// return value is false when nothing was pending.
func (m *ReturnMarker) Take() (ReturnTransition, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return ReturnTransition{}, false
	}
	t := *m.pending
	m.pending = nil
	return t, true
}
