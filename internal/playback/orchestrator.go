// Package playback composes the playhead store and the transport adapter
// into one playback session per active presentation. The orchestrator is
// the single place where "was this playing before the user navigated" is
// decided and re-applied, and the only surface the outside layers call.
package playback

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/naco0406/simplicity/internal/logger"
	"github.com/naco0406/simplicity/internal/player"
	"github.com/naco0406/simplicity/internal/timeline"
	"github.com/naco0406/simplicity/internal/transport"
)

// Config holds the orchestration timing tunables
type Config struct {
	// AutoStartDelay defers the single autoplay attempt after readiness
	AutoStartDelay time.Duration

	// SettleDelay lets the medium absorb a position discontinuity before
	// resuming after a section-level navigation
	SettleDelay time.Duration

	// SentenceSettleDelay is the shorter settle used for sentence seeks
	SentenceSettleDelay time.Duration

	// PrePlayDelay separates the transport seek from the play request
	PrePlayDelay time.Duration

	// RecoveryDelay defers the single clear-and-resync attempt after a
	// network or timeout class transport error
	RecoveryDelay time.Duration

	// ReconcileTick is the period of the position reconciliation loop
	ReconcileTick time.Duration

	// DriftThresholdMs is the native-vs-logical position gap above which
	// reconciliation pulls the playhead
	DriftThresholdMs int64
}

// DefaultConfig returns the standard orchestration tunables
func DefaultConfig() Config {
	return Config{
		AutoStartDelay:      200 * time.Millisecond,
		SettleDelay:         100 * time.Millisecond,
		SentenceSettleDelay: 50 * time.Millisecond,
		PrePlayDelay:        50 * time.Millisecond,
		RecoveryDelay:       2 * time.Second,
		ReconcileTick:       10 * time.Millisecond,
		DriftThresholdMs:    20,
	}
}

// Orchestrator binds one Store to one Adapter for the lifetime of an
// active presentation
type Orchestrator struct {
	store   *player.Store
	adapter *transport.Adapter
	clk     clockwork.Clock
	cfg     Config

	mu                sync.Mutex
	hasAutoStarted    bool
	needsInteraction  bool
	recoveryScheduled bool
	timers            []clockwork.Timer
	closed            bool

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewOrchestrator creates an orchestrator over an initialized store and a
// transport adapter, and starts its event and reconciliation loops
func NewOrchestrator(store *player.Store, adapter *transport.Adapter, clk clockwork.Clock, cfg Config) *Orchestrator {
	o := &Orchestrator{
		store:   store,
		adapter: adapter,
		clk:     clk,
		cfg:     cfg,
		done:    make(chan struct{}),
	}

	o.wg.Add(2)
	go o.consumeEvents()
	go o.reconcileLoop()

	return o
}

// Start loads the given source and schedules the one autoplay attempt.
// sourceURL is the already-resolved media URL; when empty, the
// timeline's own srcUrl is used. Start returns once the source is ready
// (or terminally failed); sessions typically run it on their own
// goroutine.
func (o *Orchestrator) Start(ctx context.Context, sourceURL string) error {
	tl := o.store.Timeline()
	if tl == nil {
		return timeline.ErrNoSections
	}
	if sourceURL == "" {
		sourceURL = tl.SourceURL
	}

	if err := o.adapter.Load(ctx, sourceURL); err != nil {
		logger.Log.Error().Err(err).Str("timeline_id", tl.ID).Msg("Source load failed")
		return err
	}

	o.scheduleAutoStart()
	return nil
}

// scheduleAutoStart arms the single deferred autoplay attempt. A one-shot
// flag prevents repeated attempts across re-entry.
func (o *Orchestrator) scheduleAutoStart() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.hasAutoStarted || o.closed {
		return
	}
	o.hasAutoStarted = true
	o.scheduleLocked(o.cfg.AutoStartDelay, o.attemptAutoStart)
}

// attemptAutoStart runs the autoplay sequence: health gate, rewind,
// resync, play. A platform denial flips the needs-interaction flag and is
// never retried automatically.
func (o *Orchestrator) attemptAutoStart() {
	if !o.store.AutoplayEnabled() {
		return
	}
	if health := o.adapter.HealthCheck(); !health.OK() {
		logger.Log.Warn().Str("status", string(health.Status)).Str("message", health.Message).Msg("Skipping autoplay, transport unhealthy")
		return
	}

	o.store.SeekToTime(0)
	o.schedule(o.cfg.PrePlayDelay, func() {
		o.adapter.SeekTo(0)
		o.schedule(o.cfg.PrePlayDelay, func() {
			err := o.adapter.Play(context.Background(), transport.PlayOptions{})
			if err != nil {
				o.store.SetPlaying(false)
				if transport.IsAutoplayDenial(err) {
					logger.Log.Info().Msg("Autoplay denied by playback policy, waiting for user interaction")
					o.setNeedsInteraction(true)
					return
				}
				logger.Log.Error().Err(err).Msg("Autoplay attempt failed")
				return
			}
			o.store.SetPlaying(true)
		})
	})
}

// TogglePlayPause flips playback in response to a direct user request.
// The gesture clears any pending needs-interaction state and re-enables
// autoplay for subsequent navigation.
func (o *Orchestrator) TogglePlayPause(ctx context.Context) error {
	if health := o.adapter.HealthCheck(); !health.OK() {
		// An autoplay denial is clearable by this very gesture; anything
		// else means the transport genuinely cannot play.
		if !(health.Status == transport.HealthError && o.adapter.LastError() != nil &&
			o.adapter.LastError().Kind == transport.ErrorKindAutoplay) {
			logger.Log.Warn().Str("status", string(health.Status)).Str("message", health.Message).Msg("Toggle refused, transport unhealthy")
			return o.healthError(health)
		}
		o.adapter.ClearError()
	}

	if o.store.Position().IsPlaying {
		o.adapter.Pause()
		o.store.SetPlaying(false)
		return nil
	}

	o.setNeedsInteraction(false)

	o.adapter.SeekTo(o.store.Position().CurrentTime)
	select {
	case <-o.clk.After(o.cfg.PrePlayDelay):
	case <-ctx.Done():
		return ctx.Err()
	case <-o.done:
		return transport.ErrMediumClosed
	}

	if err := o.adapter.Play(ctx, transport.PlayOptions{UserGesture: true}); err != nil {
		o.store.SetPlaying(false)
		if transport.IsAutoplayDenial(err) {
			o.setNeedsInteraction(true)
		}
		return err
	}

	o.store.SetPlaying(true)
	o.store.SetAutoplayEnabled(true)
	return nil
}

func (o *Orchestrator) healthError(health transport.Health) error {
	if lastErr := o.adapter.LastError(); lastErr != nil {
		return lastErr
	}
	return transport.NewError(transport.ErrorKindGeneric, health.Message, nil)
}

// GoToNext advances one sentence or section, preserving play state
func (o *Orchestrator) GoToNext() {
	o.navigate(o.store.GoToNext, o.cfg.SettleDelay)
}

// GoToPrevious steps back one sentence or section, preserving play state
func (o *Orchestrator) GoToPrevious() {
	o.navigate(o.store.GoToPrevious, o.cfg.SettleDelay)
}

// SeekToSection jumps to the start of a section, preserving play state
func (o *Orchestrator) SeekToSection(index int) {
	o.navigate(func() { o.store.SeekToSection(index) }, o.cfg.SettleDelay)
}

// SeekToSentence jumps to a sentence of the current content section,
// preserving play state
func (o *Orchestrator) SeekToSentence(index int) {
	o.navigate(func() { o.store.SeekToSentence(index) }, o.cfg.SentenceSettleDelay)
}

// SeekToTime moves the playhead to an absolute time, preserving play state
func (o *Orchestrator) SeekToTime(timeMs int64) {
	o.navigate(func() { o.store.SeekToTime(timeMs) }, o.cfg.SentenceSettleDelay)
}

// SetAutoplayEnabled records the autoplay preference
func (o *Orchestrator) SetAutoplayEnabled(enabled bool) {
	o.store.SetAutoplayEnabled(enabled)
}

// SetVolume forwards a clamped volume change to the transport
func (o *Orchestrator) SetVolume(volume float64) {
	o.adapter.SetVolume(volume)
}

// ToggleMute flips the transport mute flag
func (o *Orchestrator) ToggleMute() {
	o.adapter.ToggleMute()
}

// navigate wraps a store mutation so playback survives the discontinuity:
// pause, mutate, resync the transport to the fresh playhead, resume. When
// resuming fails, playback reverts to paused rather than being left stuck.
func (o *Orchestrator) navigate(mutate func(), settle time.Duration) {
	wasPlaying := o.store.Position().IsPlaying

	if wasPlaying {
		o.adapter.Pause()
		o.store.SetPlaying(false)
	}

	mutate()

	if !wasPlaying || !o.store.AutoplayEnabled() {
		return
	}

	o.schedule(settle, func() {
		// Re-read the freshest playhead rather than closing over a
		// snapshot: another navigation may have landed in between
		o.adapter.SeekTo(o.store.Position().CurrentTime)

		o.schedule(o.cfg.PrePlayDelay, func() {
			if err := o.adapter.Play(context.Background(), transport.PlayOptions{}); err != nil {
				logger.Log.Error().Err(err).Msg("Failed to resume playback after navigation")
				o.store.SetPlaying(false)
				if transport.IsAutoplayDenial(err) {
					o.setNeedsInteraction(true)
				}
				return
			}
			o.store.SetPlaying(true)
		})
	})
}

// consumeEvents applies transport events to the logical state and drives
// error recovery
func (o *Orchestrator) consumeEvents() {
	defer o.wg.Done()

	for {
		select {
		case ev, ok := <-o.adapter.Events():
			if !ok {
				return
			}
			o.handleEvent(ev)
		case <-o.done:
			return
		}
	}
}

func (o *Orchestrator) handleEvent(ev transport.Event) {
	switch ev.Kind {
	case transport.EventLoading:
		o.store.SetSourceReady(false)

	case transport.EventReady:
		o.store.SetSourceReady(true)

	case transport.EventEnded:
		o.store.SetPlaying(false)

	case transport.EventError:
		o.store.SetPlaying(false)
		terr := transport.Classify(ev.Err)

		if terr.Kind == transport.ErrorKindAutoplay {
			o.setNeedsInteraction(true)
			return
		}
		if terr.Kind == transport.ErrorKindLoad || terr.Kind == transport.ErrorKindTimeout {
			o.scheduleRecovery()
		}
		// Decode and generic errors surface as-is; the user retries
		// manually

	case transport.EventPosition:
		// Position flows through the reconciliation loop, which owns the
		// drift threshold
	}
}

// scheduleRecovery arms exactly one deferred clear-and-resync attempt for
// the transient error classes
func (o *Orchestrator) scheduleRecovery() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.recoveryScheduled || o.closed {
		return
	}
	o.recoveryScheduled = true

	o.scheduleLocked(o.cfg.RecoveryDelay, func() {
		o.mu.Lock()
		o.recoveryScheduled = false
		o.mu.Unlock()

		logger.Log.Info().Msg("Attempting transport recovery after transient error")
		o.adapter.ClearError()
		o.adapter.SyncWithMedium()
	})
}

// reconcileLoop periodically pulls the native position into the playhead
// when drift exceeds the threshold. The threshold prevents the two
// independently ticking clocks from feeding back into each other.
func (o *Orchestrator) reconcileLoop() {
	defer o.wg.Done()

	ticker := o.clk.NewTicker(o.cfg.ReconcileTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			if !o.adapter.Playing() || o.adapter.Readiness() != transport.ReadinessReady {
				continue
			}
			native := o.adapter.PositionMs()
			drift := native - o.store.Position().CurrentTime
			if drift < 0 {
				drift = -drift
			}
			if drift > o.cfg.DriftThresholdMs {
				o.store.SeekToTime(native)
			}
		case <-o.done:
			return
		}
	}
}

// NeedsInteraction reports whether playback is blocked pending a user
// gesture
func (o *Orchestrator) NeedsInteraction() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.needsInteraction
}

func (o *Orchestrator) setNeedsInteraction(v bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.needsInteraction = v
}

// schedule arms a timer whose callback is suppressed after Close
func (o *Orchestrator) schedule(d time.Duration, fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scheduleLocked(d, fn)
}

func (o *Orchestrator) scheduleLocked(d time.Duration, fn func()) {
	if o.closed {
		return
	}
	timer := o.clk.AfterFunc(d, func() {
		o.mu.Lock()
		closed := o.closed
		o.mu.Unlock()
		if closed {
			// A timer can still fire between Close and Stop; the guard
			// suppresses post-teardown state writes
			return
		}
		fn()
	})
	o.timers = append(o.timers, timer)
}

// Store exposes the playhead store for read-side collaborators
func (o *Orchestrator) Store() *player.Store {
	return o.store
}

// Adapter exposes the transport adapter for read-side collaborators
func (o *Orchestrator) Adapter() *transport.Adapter {
	return o.adapter
}

// Close tears the session down: pending timers are cancelled, one-shot
// flags reset, and late transport events tolerated
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		o.hasAutoStarted = false
		o.needsInteraction = false
		for _, t := range o.timers {
			t.Stop()
		}
		o.timers = nil
		o.mu.Unlock()

		close(o.done)
		o.adapter.Close()
		o.wg.Wait()
		o.store.Reset()
	})
}
