package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonboulle/clockwork"
)

func testConfig() Config {
	return Config{
		LoadTimeout:       10 * time.Second,
		MaxLoadAttempts:   3,
		BackoffStep:       time.Second,
		ReadyTimeout:      5 * time.Second,
		ReadyPollInterval: 100 * time.Millisecond,
	}
}

const simLoadDelay = 10 * time.Millisecond

// newTestAdapter wires a sim medium and adapter onto a fake clock
func newTestAdapter(t *testing.T, opts SimOptions) (*Adapter, *SimMedium, *clockwork.FakeClock) {
	t.Helper()

	clk := clockwork.NewFakeClock()
	if opts.DurationMs == 0 {
		opts.DurationMs = 20000
	}
	if opts.LoadDelay == 0 {
		opts.LoadDelay = simLoadDelay
	}
	medium := NewSimMedium(clk, opts)
	adapter := NewAdapter(medium, clk, testConfig())
	t.Cleanup(adapter.Close)

	return adapter, medium, clk
}

// loadInBackground runs Load on its own goroutine and returns its result
// channel so the test can drive the fake clock meanwhile
func loadInBackground(a *Adapter, url string) <-chan error {
	result := make(chan error, 1)
	go func() {
		result <- a.Load(context.Background(), url)
	}()
	return result
}

// driveClock keeps nudging the fake clock forward until the background
// operation reports back. Timer callbacks fire on their own goroutines, so
// the small real-time sleep between steps lets them run before the next
// advance.
func driveClock(t *testing.T, clk *clockwork.FakeClock, result <-chan error) error {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case err := <-result:
			return err
		case <-deadline:
			t.Fatal("operation did not finish")
			return nil
		default:
			clk.Advance(10 * time.Millisecond)
			time.Sleep(time.Millisecond)
		}
	}
}

func TestAdapter_LoadSuccess(t *testing.T) {
	adapter, _, clk := newTestAdapter(t, SimOptions{})

	result := loadInBackground(adapter, "narration.mp3")

	require.NoError(t, driveClock(t, clk, result))
	assert.Equal(t, ReadinessReady, adapter.Readiness())
	assert.Equal(t, int64(20000), adapter.DurationMs())
	assert.Equal(t, 1, adapter.RetryCount())
	assert.True(t, adapter.HealthCheck().OK())
}

func TestAdapter_LoadRetriesThenSucceeds(t *testing.T) {
	adapter, _, clk := newTestAdapter(t, SimOptions{
		LoadFailures: 2,
		LoadError:    errors.New("network unreachable"),
	})

	result := loadInBackground(adapter, "narration.mp3")

	// Two failed attempts, two backoffs, then success on the third
	require.NoError(t, driveClock(t, clk, result))
	assert.Equal(t, ReadinessReady, adapter.Readiness())
	assert.Equal(t, 3, adapter.RetryCount())
	assert.Nil(t, adapter.LastError())
}

func TestAdapter_LoadExhaustsRetries(t *testing.T) {
	adapter, _, clk := newTestAdapter(t, SimOptions{
		LoadFailures: 3,
		LoadError:    errors.New("network unreachable"),
	})

	result := loadInBackground(adapter, "narration.mp3")

	err := driveClock(t, clk, result)
	require.Error(t, err)

	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, ErrorKindLoad, terr.Kind)
	assert.False(t, terr.Recoverable)
	assert.Contains(t, terr.Message, "after 3 attempts")

	assert.Equal(t, ReadinessErrored, adapter.Readiness())
	require.NotNil(t, adapter.LastError())
	assert.Equal(t, HealthError, adapter.HealthCheck().Status)
}

func TestAdapter_PlayAutoplayDenial(t *testing.T) {
	adapter, _, clk := newTestAdapter(t, SimOptions{RequireGesture: true})

	result := loadInBackground(adapter, "narration.mp3")
	require.NoError(t, driveClock(t, clk, result))

	// Unattended play is denied with the distinct autoplay class
	err := adapter.Play(context.Background(), PlayOptions{})
	require.Error(t, err)
	assert.True(t, IsAutoplayDenial(err))
	assert.False(t, adapter.Playing())

	// A user gesture clears the way
	require.NoError(t, adapter.Play(context.Background(), PlayOptions{UserGesture: true}))
	assert.True(t, adapter.Playing())
	assert.Nil(t, adapter.LastError())
}

func TestAdapter_PlayWaitsForReadiness(t *testing.T) {
	adapter, _, clk := newTestAdapter(t, SimOptions{})

	// Play before any load: readiness never arrives, Play times out
	result := make(chan error, 1)
	go func() {
		result <- adapter.Play(context.Background(), PlayOptions{UserGesture: true})
	}()

	err := driveClock(t, clk, result)
	require.Error(t, err)

	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, ErrorKindTimeout, terr.Kind)
}

func TestAdapter_PauseAndSeek(t *testing.T) {
	adapter, medium, clk := newTestAdapter(t, SimOptions{})

	// Seeks before readiness are dropped
	adapter.SeekTo(5000)
	assert.Equal(t, int64(0), medium.PositionMs())

	result := loadInBackground(adapter, "narration.mp3")
	require.NoError(t, driveClock(t, clk, result))

	adapter.SeekTo(5000)
	assert.Equal(t, int64(5000), medium.PositionMs())
	assert.Equal(t, int64(5000), adapter.PositionMs())

	// Clamped to the resource bounds
	adapter.SeekTo(-100)
	assert.Equal(t, int64(0), adapter.PositionMs())
	adapter.SeekTo(99999)
	assert.Equal(t, int64(20000), adapter.PositionMs())

	// Pause is a no-op unless playing
	adapter.Pause()
	assert.False(t, adapter.Paused())

	require.NoError(t, adapter.Play(context.Background(), PlayOptions{UserGesture: true}))
	adapter.Pause()
	assert.False(t, adapter.Playing())
	assert.True(t, adapter.Paused())
}

func TestAdapter_VolumeAndMute(t *testing.T) {
	adapter, _, _ := newTestAdapter(t, SimOptions{})

	assert.InDelta(t, 1.0, adapter.Volume(), 0.001)

	adapter.SetVolume(0.5)
	assert.InDelta(t, 0.5, adapter.Volume(), 0.001)

	// Clamped to [0, 1]
	adapter.SetVolume(-0.5)
	assert.InDelta(t, 0.0, adapter.Volume(), 0.001)
	adapter.SetVolume(1.5)
	assert.InDelta(t, 1.0, adapter.Volume(), 0.001)

	// Raising the volume does not implicitly unmute
	adapter.ToggleMute()
	require.True(t, adapter.Muted())
	adapter.SetVolume(0.8)
	assert.True(t, adapter.Muted())

	adapter.ToggleMute()
	assert.False(t, adapter.Muted())
}

func TestAdapter_HealthCheckStates(t *testing.T) {
	adapter, _, clk := newTestAdapter(t, SimOptions{LoadFailures: 1, LoadError: errors.New("network down")})

	// Fresh adapter: not ready
	assert.Equal(t, HealthNotReady, adapter.HealthCheck().Status)

	// First attempt fails, the retry brings the resource up
	result := loadInBackground(adapter, "narration.mp3")
	require.NoError(t, driveClock(t, clk, result))

	assert.Equal(t, HealthHealthy, adapter.HealthCheck().Status)
}

func TestAdapter_ClearErrorAndSync(t *testing.T) {
	adapter, medium, clk := newTestAdapter(t, SimOptions{
		LoadFailures: 3,
		LoadError:    errors.New("network unreachable"),
	})

	result := loadInBackground(adapter, "narration.mp3")
	require.Error(t, driveClock(t, clk, result))

	adapter.ClearError()
	assert.Nil(t, adapter.LastError())
	assert.Equal(t, 0, adapter.RetryCount())

	// Recovery: the medium succeeds now, a fresh load brings readiness back
	medium.FailNext(0, nil)
	result = loadInBackground(adapter, "narration.mp3")
	require.NoError(t, driveClock(t, clk, result))

	adapter.SyncWithMedium()
	assert.Equal(t, ReadinessReady, adapter.Readiness())
}

func TestAdapter_EventsRepublished(t *testing.T) {
	adapter, _, clk := newTestAdapter(t, SimOptions{})

	result := loadInBackground(adapter, "narration.mp3")
	require.NoError(t, driveClock(t, clk, result))

	var kinds []EventKind
	timeout := time.After(2 * time.Second)
	for len(kinds) < 2 {
		select {
		case ev := <-adapter.Events():
			kinds = append(kinds, ev.Kind)
		case <-timeout:
			t.Fatalf("expected loading and ready events, got %v", kinds)
		}
	}

	assert.Equal(t, []EventKind{EventLoading, EventReady}, kinds)
}
