package playback

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/naco0406/simplicity/internal/logger"
	"github.com/naco0406/simplicity/internal/player"
	"github.com/naco0406/simplicity/internal/timeline"
	"github.com/naco0406/simplicity/internal/transport"
)

// MediumFactory constructs the playable medium for a resolved source
// URL. durationMs is the timeline's total duration, which simulated
// media use as their reported length.
type MediumFactory func(sourceURL string, durationMs int64) transport.Medium

// Session is one active playback of a presentation
type Session struct {
	ID             uuid.UUID
	PresentationID string
	CreatedAt      time.Time

	orch *Orchestrator
}

// Orchestrator returns the session's playback orchestrator
func (s *Session) Orchestrator() *Orchestrator {
	return s.orch
}

// TransportState is the transport slice of a session snapshot
type TransportState struct {
	Readiness  string           `json:"readiness"`
	Playing    bool             `json:"playing"`
	Paused     bool             `json:"paused"`
	PositionMs int64            `json:"position_ms"`
	DurationMs int64            `json:"duration_ms"`
	Volume     float64          `json:"volume"`
	Muted      bool             `json:"muted"`
	Health     transport.Health `json:"health"`
	RetryCount int              `json:"retry_count"`
	LastError  string           `json:"last_error,omitempty"`
}

// Snapshot is the read-side view of a session handed to the UI layer
type Snapshot struct {
	SessionID        uuid.UUID        `json:"session_id"`
	PresentationID   string           `json:"presentation_id"`
	Position         player.Position  `json:"position"`
	SectionKind      string           `json:"section_kind,omitempty"`
	SectionTitle     string           `json:"section_title,omitempty"`
	SentenceText     string           `json:"sentence_text,omitempty"`
	OverallProgress  float64          `json:"overall_progress"`
	SectionProgress  float64          `json:"section_progress"`
	IsFirst          bool             `json:"is_first"`
	IsLast           bool             `json:"is_last"`
	AutoplayEnabled  bool             `json:"autoplay_enabled"`
	NeedsInteraction bool             `json:"needs_interaction"`
	Transport        TransportState   `json:"transport"`
}

// Snapshot captures the current logical and transport state
func (s *Session) Snapshot() Snapshot {
	store := s.orch.Store()
	adapter := s.orch.Adapter()

	snap := Snapshot{
		SessionID:        s.ID,
		PresentationID:   s.PresentationID,
		Position:         store.Position(),
		OverallProgress:  store.OverallProgress(),
		SectionProgress:  store.SectionProgress(),
		IsFirst:          store.IsFirst(),
		IsLast:           store.IsLast(),
		AutoplayEnabled:  store.AutoplayEnabled(),
		NeedsInteraction: s.orch.NeedsInteraction(),
		Transport: TransportState{
			Readiness:  adapter.Readiness().String(),
			Playing:    adapter.Playing(),
			Paused:     adapter.Paused(),
			PositionMs: adapter.PositionMs(),
			DurationMs: adapter.DurationMs(),
			Volume:     adapter.Volume(),
			Muted:      adapter.Muted(),
			Health:     adapter.HealthCheck(),
			RetryCount: adapter.RetryCount(),
		},
	}

	if lastErr := adapter.LastError(); lastErr != nil {
		snap.Transport.LastError = lastErr.Error()
	}

	if section := store.CurrentSection(); section != nil {
		snap.SectionKind = section.Kind().String()
		snap.SectionTitle = section.Meta().Title
	}
	if sentence := store.CurrentSentence(); sentence != nil {
		snap.SentenceText = sentence.Text
	}

	return snap
}

// Manager holds at most one playback session per presentation, plus the
// one-shot gallery-return marker
type Manager struct {
	clk          clockwork.Clock
	factory      MediumFactory
	transportCfg transport.Config
	orchCfg      Config

	mu       sync.RWMutex
	sessions map[string]*Session
	marker   *ReturnMarker
}

// NewManager creates a session manager
func NewManager(clk clockwork.Clock, factory MediumFactory, transportCfg transport.Config, orchCfg Config) *Manager {
	return &Manager{
		clk:          clk,
		factory:      factory,
		transportCfg: transportCfg,
		orchCfg:      orchCfg,
		sessions:     make(map[string]*Session),
		marker:       NewReturnMarker(),
	}
}

// Create starts a playback session for a presentation. Any previous
// session for the same presentation is closed and replaced. Loading and
// the autoplay attempt run in the background; callers observe progress
// through snapshots.
func (m *Manager) Create(presentationID string, tl *timeline.Timeline, sourceURL string) *Session {
	store := player.NewStore()
	store.Initialize(tl)

	medium := m.factory(sourceURL, tl.TotalDuration)
	adapter := transport.NewAdapter(medium, m.clk, m.transportCfg)
	orch := NewOrchestrator(store, adapter, m.clk, m.orchCfg)

	session := &Session{
		ID:             uuid.New(),
		PresentationID: presentationID,
		CreatedAt:      m.clk.Now(),
		orch:           orch,
	}

	m.mu.Lock()
	previous := m.sessions[presentationID]
	m.sessions[presentationID] = session
	m.mu.Unlock()

	if previous != nil {
		logger.Log.Info().Str("presentation_id", presentationID).Msg("Replacing existing playback session")
		previous.orch.Close()
	}

	go func() {
		if err := orch.Start(context.Background(), sourceURL); err != nil {
			logger.Log.Error().Err(err).Str("presentation_id", presentationID).Msg("Playback session failed to start")
		}
	}()

	return session
}

// Get retrieves the active session for a presentation
func (m *Manager) Get(presentationID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[presentationID]
	return session, ok
}

// Close tears down the session for a presentation and records the
// one-shot return transition for the gallery. It reports whether a
// session existed.
func (m *Manager) Close(presentationID string) bool {
	m.mu.Lock()
	session, ok := m.sessions[presentationID]
	if ok {
		delete(m.sessions, presentationID)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}

	m.marker.Set(ReturnTransition{
		PresentationID: presentationID,
		Position:       session.orch.Store().Position(),
		RecordedAt:     m.clk.Now(),
	})
	session.orch.Close()
	return true
}

// TakeReturnTransition consumes the pending gallery-return marker
func (m *Manager) TakeReturnTransition() (ReturnTransition, bool) {
	return m.marker.Take()
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown closes every active session
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.orch.Close()
	}
}
