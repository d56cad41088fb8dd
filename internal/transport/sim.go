package transport

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const defaultSimTick = 10 * time.Millisecond

// SimOptions configures a simulated medium
type SimOptions struct {
	// DurationMs is the duration the medium reports once loaded
	DurationMs int64

	// LoadDelay is how long a load takes before the ready signal
	LoadDelay time.Duration

	// LoadFailures makes the first N load attempts fail with LoadError
	LoadFailures int

	// LoadError is the error injected while LoadFailures > 0
	LoadError error

	// RequireGesture enforces an autoplay policy: unattended play
	// requests are denied until one request carries a user gesture
	RequireGesture bool

	// TickInterval is the position advancement period while playing
	TickInterval time.Duration
}

// SimMedium is a clock-driven Medium implementation. Its position
// advances on a ticker while playing, it reports ended at the duration,
// and it reproduces the platform behaviors the adapter must survive:
// slow loads, load failures, and autoplay-policy denials. The service
// runs on it in place of a native audio element, and tests drive it with
// a fake clock.
type SimMedium struct {
	clk  clockwork.Clock
	opts SimOptions

	mu           sync.Mutex
	sourceURL    string
	ready        bool
	playing      bool
	positionMs   int64
	durationMs   int64
	volume       float64
	muted        bool
	failuresLeft int
	gestureSeen  bool
	playGen      int
	closed       bool

	events chan Event
	done   chan struct{}
}

// NewSimMedium creates a simulated medium
func NewSimMedium(clk clockwork.Clock, opts SimOptions) *SimMedium {
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaultSimTick
	}
	return &SimMedium{
		clk:          clk,
		opts:         opts,
		volume:       1.0,
		failuresLeft: opts.LoadFailures,
		events:       make(chan Event, eventBufferSize),
		done:         make(chan struct{}),
	}
}

// Load assigns a source and begins the simulated buffering. The outcome
// arrives as an event after the configured load delay.
func (m *SimMedium) Load(sourceURL string) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.sourceURL = sourceURL
	m.ready = false
	m.playing = false
	m.positionMs = 0
	m.playGen++
	m.mu.Unlock()

	m.emit(Event{Kind: EventLoading})

	m.clk.AfterFunc(m.opts.LoadDelay, func() {
		m.mu.Lock()
		if m.closed || m.sourceURL != sourceURL {
			m.mu.Unlock()
			return
		}
		if m.failuresLeft > 0 {
			m.failuresLeft--
			err := m.opts.LoadError
			m.mu.Unlock()
			if err == nil {
				err = ErrNotReady
			}
			m.emit(Event{Kind: EventError, Err: err})
			return
		}
		m.ready = true
		m.durationMs = m.opts.DurationMs
		m.mu.Unlock()
		m.emit(Event{Kind: EventReady})
	})
}

// Play starts advancing the position. It enforces the autoplay policy:
// with RequireGesture set, unattended requests are denied until a request
// carrying a user gesture has been seen.
func (m *SimMedium) Play(_ context.Context, opts PlayOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrMediumClosed
	}
	if !m.ready {
		return ErrNotReady
	}
	if m.opts.RequireGesture && !m.gestureSeen && !opts.UserGesture {
		return ErrPlaybackNotAllowed
	}
	if opts.UserGesture {
		m.gestureSeen = true
	}
	if m.playing {
		return nil
	}

	m.playing = true
	m.playGen++
	go m.run(m.playGen)
	return nil
}

// run advances the position until pause, end of media, or teardown
func (m *SimMedium) run(gen int) {
	ticker := m.clk.NewTicker(m.opts.TickInterval)
	defer ticker.Stop()

	step := m.opts.TickInterval.Milliseconds()
	for {
		select {
		case <-ticker.Chan():
			m.mu.Lock()
			if m.closed || !m.playing || m.playGen != gen {
				m.mu.Unlock()
				return
			}
			m.positionMs += step
			if m.durationMs > 0 && m.positionMs >= m.durationMs {
				m.positionMs = m.durationMs
				m.playing = false
				m.mu.Unlock()
				m.emit(Event{Kind: EventPosition, PositionMs: m.opts.DurationMs})
				m.emit(Event{Kind: EventEnded, PositionMs: m.opts.DurationMs})
				return
			}
			position := m.positionMs
			m.mu.Unlock()
			m.emit(Event{Kind: EventPosition, PositionMs: position})

		case <-m.done:
			return
		}
	}
}

// Pause halts position advancement, keeping the position
func (m *SimMedium) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
	m.playGen++
}

// SeekTo assigns the simulated position
func (m *SimMedium) SeekTo(positionMs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if positionMs < 0 {
		positionMs = 0
	}
	if m.durationMs > 0 && positionMs > m.durationMs {
		positionMs = m.durationMs
	}
	m.positionMs = positionMs
}

// PositionMs returns the simulated position
func (m *SimMedium) PositionMs() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.positionMs
}

// DurationMs returns the configured duration, 0 before loading completes
func (m *SimMedium) DurationMs() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.durationMs
}

// SetVolume assigns the simulated volume
func (m *SimMedium) SetVolume(volume float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = volume
}

// SetMuted assigns the simulated mute flag
func (m *SimMedium) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
}

// SourceURL returns the assigned source
func (m *SimMedium) SourceURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sourceURL
}

// Ready reports whether the simulated buffering has completed
func (m *SimMedium) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// Playing reports whether the position is advancing
func (m *SimMedium) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// FailNext injects a failure into the next n load attempts, for tests and
// fault drills
func (m *SimMedium) FailNext(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failuresLeft = n
	m.opts.LoadError = err
}

// Events returns the native event stream
func (m *SimMedium) Events() <-chan Event {
	return m.events
}

// Close tears the medium down and closes its event channel
func (m *SimMedium) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.playing = false
	m.mu.Unlock()

	close(m.done)
	close(m.events)
}

// emit publishes an event without blocking the simulation. The send
// happens under the lock so it cannot race a concurrent Close.
func (m *SimMedium) emit(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	select {
	case m.events <- ev:
	default:
	}
}
