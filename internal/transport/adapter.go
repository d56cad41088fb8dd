package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/naco0406/simplicity/internal/logger"
)

// Config holds the transport timing and retry tunables
type Config struct {
	// LoadTimeout bounds one load attempt's wait for can-play-through
	LoadTimeout time.Duration

	// MaxLoadAttempts is the retry ceiling for loading a source
	MaxLoadAttempts int

	// BackoffStep is the linear backoff unit between load attempts
	BackoffStep time.Duration

	// ReadyTimeout bounds how long Play waits for readiness
	ReadyTimeout time.Duration

	// ReadyPollInterval is the readiness re-check period inside Play
	ReadyPollInterval time.Duration
}

// DefaultConfig returns the standard transport tunables
func DefaultConfig() Config {
	return Config{
		LoadTimeout:       10 * time.Second,
		MaxLoadAttempts:   3,
		BackoffStep:       1 * time.Second,
		ReadyTimeout:      5 * time.Second,
		ReadyPollInterval: 100 * time.Millisecond,
	}
}

const eventBufferSize = 64

// Adapter wraps a single Medium and owns its load lifecycle, retry
// policy, and playback primitives. It consumes the medium's native events,
// maintains the readiness state machine, and republishes state changes on
// its own event channel for the orchestrator.
type Adapter struct {
	clk   clockwork.Clock
	cfg   Config
	retry *RetrySchedule

	mu         sync.Mutex
	medium     Medium
	readiness  Readiness
	playing    bool
	paused     bool
	positionMs int64
	durationMs int64
	volume     float64
	muted      bool
	lastErr    *Error
	loadResult chan error

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewAdapter creates an adapter owning the given medium and starts
// consuming its events
func NewAdapter(medium Medium, clk clockwork.Clock, cfg Config) *Adapter {
	a := &Adapter{
		clk:       clk,
		cfg:       cfg,
		retry:     NewRetrySchedule(cfg.MaxLoadAttempts, cfg.BackoffStep),
		medium:    medium,
		readiness: ReadinessIdle,
		volume:    1.0,
		events:    make(chan Event, eventBufferSize),
		done:      make(chan struct{}),
	}

	go a.consumeEvents()

	return a
}

// Events returns the adapter's republished event stream. The channel
// closes when the adapter is closed.
func (a *Adapter) Events() <-chan Event {
	return a.events
}

// consumeEvents pulls native medium events into the adapter state machine
func (a *Adapter) consumeEvents() {
	defer close(a.events)

	for ev := range a.medium.Events() {
		switch ev.Kind {
		case EventLoading:
			a.mu.Lock()
			a.setReadinessLocked(ReadinessLoading)
			a.mu.Unlock()

		case EventReady:
			a.mu.Lock()
			a.durationMs = a.medium.DurationMs()
			a.setReadinessLocked(ReadinessReady)
			a.lastErr = nil
			a.signalLoadLocked(nil)
			a.mu.Unlock()

		case EventPosition:
			a.mu.Lock()
			a.positionMs = ev.PositionMs
			a.mu.Unlock()

		case EventEnded:
			a.mu.Lock()
			a.playing = false
			a.paused = false
			a.mu.Unlock()

		case EventError:
			terr := Classify(ev.Err)
			logger.Log.Error().Err(terr).Str("kind", terr.Kind.String()).Msg("Transport medium error")
			a.mu.Lock()
			a.lastErr = terr
			a.playing = false
			a.setReadinessLocked(ReadinessErrored)
			a.signalLoadLocked(terr)
			a.mu.Unlock()
		}

		a.publish(ev)
	}
}

// setReadinessLocked applies a readiness transition, ignoring repeats
// (the native layer fires duplicate ready signals) and logging transitions
// the state machine does not allow
func (a *Adapter) setReadinessLocked(next Readiness) {
	if a.readiness == next {
		return
	}
	if !a.readiness.CanTransitionTo(next) {
		logger.Log.Warn().
			Str("from", a.readiness.String()).
			Str("to", next.String()).
			Msg("Ignoring invalid readiness transition")
		return
	}
	a.readiness = next
}

// signalLoadLocked resolves a pending load attempt, if any
func (a *Adapter) signalLoadLocked(err error) {
	if a.loadResult == nil {
		return
	}
	select {
	case a.loadResult <- err:
	default:
	}
	a.loadResult = nil
}

// publish republishes an event without ever blocking the consumer loop
func (a *Adapter) publish(ev Event) {
	select {
	case a.events <- ev:
	case <-a.done:
	default:
		logger.Log.Warn().Str("event", ev.Kind.String()).Msg("Dropping transport event, subscriber too slow")
	}
}

// Load assigns the source to the medium and blocks until it reports
// enough buffered data to play through, or fails. It retries up to the
// configured ceiling with linearly increasing backoff before surfacing a
// terminal error.
func (a *Adapter) Load(ctx context.Context, sourceURL string) error {
	a.retry.Reset()

	var lastAttemptErr error
	for {
		delay, ok := a.retry.Next()
		if !ok {
			terr := NewError(ErrorKindLoad,
				fmt.Sprintf("source failed to load after %d attempts", a.cfg.MaxLoadAttempts),
				lastAttemptErr)
			terr.Recoverable = false
			a.mu.Lock()
			a.lastErr = terr
			a.setReadinessLocked(ReadinessErrored)
			a.mu.Unlock()
			return terr
		}

		if delay > 0 {
			logger.Log.Info().
				Dur("backoff", delay).
				Int("attempt", a.retry.Attempts()).
				Msg("Retrying source load")
			select {
			case <-a.clk.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			case <-a.done:
				return ErrMediumClosed
			}
		}

		attemptErr := a.loadOnce(ctx, sourceURL)
		if attemptErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastAttemptErr = attemptErr
		logger.Log.Warn().Err(attemptErr).Int("attempt", a.retry.Attempts()).Msg("Source load attempt failed")
	}
}

// loadOnce runs a single bounded load attempt
func (a *Adapter) loadOnce(ctx context.Context, sourceURL string) error {
	result := make(chan error, 1)

	a.mu.Lock()
	// An Errored medium re-enters Loading through the explicit retry
	a.lastErr = nil
	a.setReadinessLocked(ReadinessLoading)
	a.loadResult = result
	a.mu.Unlock()

	a.medium.Load(sourceURL)

	select {
	case err := <-result:
		return err
	case <-a.clk.After(a.cfg.LoadTimeout):
		a.mu.Lock()
		a.loadResult = nil
		a.mu.Unlock()
		return NewError(ErrorKindTimeout, "source loading timed out", nil)
	case <-ctx.Done():
		a.mu.Lock()
		a.loadResult = nil
		a.mu.Unlock()
		return ctx.Err()
	case <-a.done:
		return ErrMediumClosed
	}
}

// Play starts playback. When the medium is not ready yet it waits,
// re-checking periodically up to the configured bound, and fails with a
// descriptive error if readiness never arrives or an error state is
// reached first. An autoplay-policy denial is recorded and returned as the
// distinct autoplay error class.
func (a *Adapter) Play(ctx context.Context, opts PlayOptions) error {
	a.mu.Lock()
	if a.medium == nil {
		a.mu.Unlock()
		return NewError(ErrorKindGeneric, "no medium attached", ErrNoMedium)
	}
	if a.playing {
		a.mu.Unlock()
		logger.Log.Warn().Msg("Play requested while already playing")
		return nil
	}
	a.mu.Unlock()

	if err := a.waitReady(ctx); err != nil {
		return err
	}

	if err := a.medium.Play(ctx, opts); err != nil {
		terr := Classify(err)
		a.mu.Lock()
		a.lastErr = terr
		a.playing = false
		a.mu.Unlock()
		return terr
	}

	a.mu.Lock()
	a.playing = true
	a.paused = false
	a.lastErr = nil
	a.mu.Unlock()
	return nil
}

// waitReady blocks until the medium is ready, polling on the adapter's
// clock so tests can drive it with virtual time
func (a *Adapter) waitReady(ctx context.Context) error {
	var waited time.Duration
	for {
		a.mu.Lock()
		readiness := a.readiness
		lastErr := a.lastErr
		a.mu.Unlock()

		switch {
		case readiness == ReadinessReady:
			return nil
		case lastErr != nil:
			return lastErr
		case readiness == ReadinessErrored:
			return NewError(ErrorKindGeneric, "medium is in an error state", nil)
		}

		if waited >= a.cfg.ReadyTimeout {
			return NewError(ErrorKindTimeout,
				fmt.Sprintf("timed out after %s waiting for source readiness", a.cfg.ReadyTimeout), nil)
		}

		select {
		case <-a.clk.After(a.cfg.ReadyPollInterval):
			waited += a.cfg.ReadyPollInterval
		case <-ctx.Done():
			return ctx.Err()
		case <-a.done:
			return ErrMediumClosed
		}
	}
}

// Pause halts playback. It is a no-op unless currently playing.
func (a *Adapter) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.playing {
		return
	}
	a.medium.Pause()
	a.playing = false
	a.paused = true
}

// SeekTo assigns the native position, clamped to [0, duration]. When the
// medium is not ready the seek is dropped with a warning.
func (a *Adapter) SeekTo(positionMs int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.readiness != ReadinessReady {
		logger.Log.Warn().
			Int64("position_ms", positionMs).
			Str("readiness", a.readiness.String()).
			Msg("Cannot seek, source not ready")
		return
	}

	clamped := positionMs
	if clamped < 0 {
		clamped = 0
	}
	if a.durationMs > 0 && clamped > a.durationMs {
		clamped = a.durationMs
	}

	a.medium.SeekTo(clamped)
	a.positionMs = clamped
}

// SetVolume clamps the volume to [0, 1] and assigns it. Raising the volume
// does not implicitly unmute; that decision stays with the caller.
func (a *Adapter) SetVolume(volume float64) {
	clamped := volume
	if clamped < 0 {
		clamped = 0
	}
	if clamped > 1 {
		clamped = 1
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.medium.SetVolume(clamped)
	a.volume = clamped
}

// ToggleMute flips the mute flag
func (a *Adapter) ToggleMute() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.muted = !a.muted
	a.medium.SetMuted(a.muted)
}

// HealthCheck is the synchronous pre-flight diagnostic gating play and
// toggle requests, so an obviously broken transport fails fast instead of
// wasting an async round-trip
func (a *Adapter) HealthCheck() Health {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case a.medium == nil:
		return Health{Status: HealthNoMedium, Message: "no medium attached"}
	case a.lastErr != nil:
		return Health{Status: HealthError, Message: a.lastErr.Error()}
	case a.readiness != ReadinessReady:
		return Health{Status: HealthNotReady, Message: fmt.Sprintf("source not ready (readiness: %s)", a.readiness)}
	case a.medium.SourceURL() == "":
		return Health{Status: HealthNoSource, Message: "no source assigned"}
	default:
		return Health{Status: HealthHealthy, Message: "transport is healthy"}
	}
}

// ClearError drops the recorded error and resets the retry schedule so a
// subsequent load or play can proceed
func (a *Adapter) ClearError() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastErr = nil
	a.retry.Reset()
}

// SyncWithMedium force-pulls the medium's native state into the adapter,
// used after error recovery to re-derive a consistent view
func (a *Adapter) SyncWithMedium() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.positionMs = a.medium.PositionMs()
	a.durationMs = a.medium.DurationMs()
	a.playing = a.medium.Playing()
	a.paused = !a.playing

	if a.medium.Ready() {
		a.setReadinessLocked(ReadinessReady)
	}
}

// Readiness returns the current lifecycle state
func (a *Adapter) Readiness() Readiness {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.readiness
}

// Playing reports whether the transport is currently playing
func (a *Adapter) Playing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.playing
}

// Paused reports whether the transport is paused
func (a *Adapter) Paused() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.paused
}

// PositionMs returns the last known native position
func (a *Adapter) PositionMs() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.positionMs
}

// DurationMs returns the resource duration in ms
func (a *Adapter) DurationMs() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.durationMs
}

// Volume returns the current volume in [0, 1]
func (a *Adapter) Volume() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.volume
}

// Muted reports the mute flag
func (a *Adapter) Muted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.muted
}

// LastError returns the recorded error, nil when healthy
func (a *Adapter) LastError() *Error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// RetryCount returns how many load attempts have been made
func (a *Adapter) RetryCount() int {
	return a.retry.Attempts()
}

// Close tears down the adapter and its medium. Events arriving from the
// medium after Close are tolerated and dropped.
func (a *Adapter) Close() {
	a.closeOnce.Do(func() {
		close(a.done)
		a.medium.Close()
	})
}
