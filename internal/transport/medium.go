package transport

import "context"

// EventKind identifies a medium event
type EventKind int

const (
	// EventLoading signals the medium started buffering a source
	EventLoading EventKind = iota
	// EventReady signals the medium has enough data to play through
	EventReady
	// EventPosition carries a native position update
	EventPosition
	// EventEnded signals natural end of playback
	EventEnded
	// EventError carries a load or playback failure
	EventError
)

// String returns the string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case EventLoading:
		return "loading"
	case EventReady:
		return "ready"
	case EventPosition:
		return "position"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is published by a medium as its native state changes
type Event struct {
	Kind       EventKind
	PositionMs int64
	Err        error
}

// PlayOptions qualifies a play request
type PlayOptions struct {
	// UserGesture marks the request as directly user-initiated. Mediums
	// enforcing an autoplay policy deny unattended requests with
	// ErrPlaybackNotAllowed.
	UserGesture bool
}

// Medium abstracts the playable media resource the adapter owns: the
// native element in a browser, a decoder pipeline, or the simulated
// medium used by this service. Implementations publish state changes on
// their event channel.
type Medium interface {
	// Load assigns a source and begins buffering. The outcome arrives as
	// an EventReady or EventError on the event channel.
	Load(sourceURL string)

	// Play starts playback. It returns ErrPlaybackNotAllowed when the
	// medium's playback policy denies an unattended request, and
	// ErrNotReady when no playable data is buffered.
	Play(ctx context.Context, opts PlayOptions) error

	// Pause halts playback, keeping the position
	Pause()

	// SeekTo assigns the native position in milliseconds
	SeekTo(positionMs int64)

	// PositionMs returns the native playback position
	PositionMs() int64

	// DurationMs returns the resource duration, 0 before metadata loads
	DurationMs() int64

	// SetVolume assigns the native volume in [0, 1]
	SetVolume(volume float64)

	// SetMuted assigns the native mute flag
	SetMuted(muted bool)

	// SourceURL returns the currently assigned source, empty when none
	SourceURL() string

	// Ready reports whether enough data is buffered to play
	Ready() bool

	// Playing reports whether the medium is currently advancing
	Playing() bool

	// Events returns the channel native state changes are published on.
	// The channel closes when the medium is closed.
	Events() <-chan Event

	// Close tears the medium down and releases its resources
	Close()
}
