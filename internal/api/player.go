package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/naco0406/simplicity/internal/catalog"
	"github.com/naco0406/simplicity/internal/db"
	"github.com/naco0406/simplicity/internal/logger"
	"github.com/naco0406/simplicity/internal/media"
	"github.com/naco0406/simplicity/internal/playback"
	"github.com/naco0406/simplicity/internal/transport"
)

// Request/Response DTOs

// SeekTimeRequest represents a seek to an absolute timeline position
type SeekTimeRequest struct {
	TimeMs *int64 `json:"time_ms" binding:"required"`
}

// SeekIndexRequest represents a seek to a section or sentence index
type SeekIndexRequest struct {
	Index *int `json:"index" binding:"required"`
}

// VolumeRequest represents a volume change
type VolumeRequest struct {
	Volume *float64 `json:"volume" binding:"required"`
}

// AutoplayRequest represents an autoplay preference change
type AutoplayRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SessionResponse wraps a playback snapshot
type SessionResponse struct {
	Session playback.Snapshot `json:"session"`
}

// ReturnTransitionResponse represents the consumed gallery-return marker
type ReturnTransitionResponse struct {
	PresentationID string    `json:"presentation_id"`
	TimeMs         int64     `json:"time_ms"`
	SectionIndex   int       `json:"section_index"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// PlayerHandler handles playback session API requests
type PlayerHandler struct {
	catalog  *catalog.Service
	resolver *media.Resolver
	sessions *playback.Manager
}

// NewPlayerHandler creates a new player handler instance
func NewPlayerHandler(catalogService *catalog.Service, resolver *media.Resolver, sessions *playback.Manager) *PlayerHandler {
	return &PlayerHandler{
		catalog:  catalogService,
		resolver: resolver,
		sessions: sessions,
	}
}

// CreateSession handles POST /api/presentations/:id/session
func (h *PlayerHandler) CreateSession(c *gin.Context) {
	id, ok := parsePresentationID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	_, tl, err := h.catalog.GetTimeline(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrPresentationNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Presentation not found",
			})
			return
		}

		logger.Log.Error().
			Err(err).
			Str("presentation_id", id.String()).
			Msg("Failed to load presentation for playback")

		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "invalid_timeline",
			Message: err.Error(),
		})
		return
	}

	sourceURL, err := h.resolver.Resolve(ctx, tl.SourceURL)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("presentation_id", id.String()).
			Str("src_url", tl.SourceURL).
			Msg("Failed to resolve media source")

		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "unresolvable_source",
			Message: "Failed to resolve media source: " + err.Error(),
		})
		return
	}

	session := h.sessions.Create(id.String(), tl, sourceURL)

	logger.Log.Info().
		Str("presentation_id", id.String()).
		Str("session_id", session.ID.String()).
		Msg("Playback session created")

	c.JSON(http.StatusCreated, SessionResponse{Session: session.Snapshot()})
}

// GetSession handles GET /api/presentations/:id/session
func (h *PlayerHandler) GetSession(c *gin.Context) {
	session, ok := h.activeSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Session: session.Snapshot()})
}

// CloseSession handles DELETE /api/presentations/:id/session
func (h *PlayerHandler) CloseSession(c *gin.Context) {
	id, ok := parsePresentationID(c)
	if !ok {
		return
	}

	if !h.sessions.Close(id.String()) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "no_session",
			Message: "No active session for this presentation",
		})
		return
	}

	logger.Log.Info().
		Str("presentation_id", id.String()).
		Msg("Playback session closed")

	c.Status(http.StatusNoContent)
}

// TogglePlayPause handles POST /api/presentations/:id/session/toggle
func (h *PlayerHandler) TogglePlayPause(c *gin.Context) {
	session, ok := h.activeSession(c)
	if !ok {
		return
	}

	if err := session.Orchestrator().TogglePlayPause(c.Request.Context()); err != nil {
		if transport.IsAutoplayDenial(err) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "interaction_required",
				Message: "Playback was blocked and needs another attempt",
			})
			return
		}

		logger.Log.Warn().
			Err(err).
			Str("presentation_id", session.PresentationID).
			Msg("Toggle play/pause failed")

		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "playback_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SessionResponse{Session: session.Snapshot()})
}

// GoToNext handles POST /api/presentations/:id/session/next
func (h *PlayerHandler) GoToNext(c *gin.Context) {
	session, ok := h.activeSession(c)
	if !ok {
		return
	}
	session.Orchestrator().GoToNext()
	c.JSON(http.StatusOK, SessionResponse{Session: session.Snapshot()})
}

// GoToPrevious handles POST /api/presentations/:id/session/previous
func (h *PlayerHandler) GoToPrevious(c *gin.Context) {
	session, ok := h.activeSession(c)
	if !ok {
		return
	}
	session.Orchestrator().GoToPrevious()
	c.JSON(http.StatusOK, SessionResponse{Session: session.Snapshot()})
}

// SeekToTime handles POST /api/presentations/:id/session/seek/time
func (h *PlayerHandler) SeekToTime(c *gin.Context) {
	session, ok := h.activeSession(c)
	if !ok {
		return
	}

	var req SeekTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	session.Orchestrator().SeekToTime(*req.TimeMs)
	c.JSON(http.StatusOK, SessionResponse{Session: session.Snapshot()})
}

// SeekToSection handles POST /api/presentations/:id/session/seek/section
func (h *PlayerHandler) SeekToSection(c *gin.Context) {
	session, ok := h.activeSession(c)
	if !ok {
		return
	}

	var req SeekIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	session.Orchestrator().SeekToSection(*req.Index)
	c.JSON(http.StatusOK, SessionResponse{Session: session.Snapshot()})
}

// SeekToSentence handles POST /api/presentations/:id/session/seek/sentence
func (h *PlayerHandler) SeekToSentence(c *gin.Context) {
	session, ok := h.activeSession(c)
	if !ok {
		return
	}

	var req SeekIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	session.Orchestrator().SeekToSentence(*req.Index)
	c.JSON(http.StatusOK, SessionResponse{Session: session.Snapshot()})
}

// SetVolume handles PUT /api/presentations/:id/session/volume
func (h *PlayerHandler) SetVolume(c *gin.Context) {
	session, ok := h.activeSession(c)
	if !ok {
		return
	}

	var req VolumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	session.Orchestrator().SetVolume(*req.Volume)
	c.JSON(http.StatusOK, SessionResponse{Session: session.Snapshot()})
}

// ToggleMute handles POST /api/presentations/:id/session/mute
func (h *PlayerHandler) ToggleMute(c *gin.Context) {
	session, ok := h.activeSession(c)
	if !ok {
		return
	}
	session.Orchestrator().ToggleMute()
	c.JSON(http.StatusOK, SessionResponse{Session: session.Snapshot()})
}

// SetAutoplay handles PUT /api/presentations/:id/session/autoplay
func (h *PlayerHandler) SetAutoplay(c *gin.Context) {
	session, ok := h.activeSession(c)
	if !ok {
		return
	}

	var req AutoplayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	session.Orchestrator().SetAutoplayEnabled(*req.Enabled)
	c.JSON(http.StatusOK, SessionResponse{Session: session.Snapshot()})
}

// TakeReturnTransition handles POST /api/player/return-transition. The
// marker is consumed on read, so a second call returns 404.
func (h *PlayerHandler) TakeReturnTransition(c *gin.Context) {
	rt, ok := h.sessions.TakeReturnTransition()
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "no_transition",
			Message: "No pending return transition",
		})
		return
	}

	c.JSON(http.StatusOK, ReturnTransitionResponse{
		PresentationID: rt.PresentationID,
		TimeMs:         rt.Position.CurrentTime,
		SectionIndex:   rt.Position.SectionIndex,
		RecordedAt:     rt.RecordedAt,
	})
}

// parsePresentationID validates the :id path parameter, writing the
// error response itself on failure
func parsePresentationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid presentation ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}

// activeSession resolves the :id parameter to its live session, writing
// the error response itself on failure
func (h *PlayerHandler) activeSession(c *gin.Context) (*playback.Session, bool) {
	id, ok := parsePresentationID(c)
	if !ok {
		return nil, false
	}

	session, ok := h.sessions.Get(id.String())
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "no_session",
			Message: "No active session for this presentation",
		})
		return nil, false
	}
	return session, true
}

// SetupPlayerRoutes registers playback session routes
func SetupPlayerRoutes(apiGroup *gin.RouterGroup, catalogService *catalog.Service, resolver *media.Resolver, sessions *playback.Manager) {
	handler := NewPlayerHandler(catalogService, resolver, sessions)

	// Session lifecycle
	apiGroup.POST("/presentations/:id/session", handler.CreateSession)
	apiGroup.GET("/presentations/:id/session", handler.GetSession)
	apiGroup.DELETE("/presentations/:id/session", handler.CloseSession)

	// Playback controls
	apiGroup.POST("/presentations/:id/session/toggle", handler.TogglePlayPause)
	apiGroup.POST("/presentations/:id/session/next", handler.GoToNext)
	apiGroup.POST("/presentations/:id/session/previous", handler.GoToPrevious)
	apiGroup.POST("/presentations/:id/session/seek/time", handler.SeekToTime)
	apiGroup.POST("/presentations/:id/session/seek/section", handler.SeekToSection)
	apiGroup.POST("/presentations/:id/session/seek/sentence", handler.SeekToSentence)

	// Transport settings
	apiGroup.PUT("/presentations/:id/session/volume", handler.SetVolume)
	apiGroup.POST("/presentations/:id/session/mute", handler.ToggleMute)
	apiGroup.PUT("/presentations/:id/session/autoplay", handler.SetAutoplay)

	// Gallery return marker
	apiGroup.POST("/player/return-transition", handler.TakeReturnTransition)
}
