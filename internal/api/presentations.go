package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/naco0406/simplicity/internal/catalog"
	"github.com/naco0406/simplicity/internal/db"
	"github.com/naco0406/simplicity/internal/logger"
	"github.com/naco0406/simplicity/internal/models"
	"github.com/naco0406/simplicity/internal/timeline"
)

// PresentationResponse represents a presentation card in API responses
type PresentationResponse struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle,omitempty"`
	Speaker     string    `json:"speaker,omitempty"`
	Role        string    `json:"role,omitempty"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PresentationDetailResponse embeds the timeline payload alongside the card
type PresentationDetailResponse struct {
	PresentationResponse
	Timeline json.RawMessage `json:"timeline"`
}

// PresentationListResponse represents the gallery listing
type PresentationListResponse struct {
	Presentations []*PresentationResponse `json:"presentations"`
}

// PresentationHandler handles presentation catalog requests
type PresentationHandler struct {
	catalog *catalog.Service
}

// NewPresentationHandler creates a new presentation handler instance
func NewPresentationHandler(catalogService *catalog.Service) *PresentationHandler {
	return &PresentationHandler{catalog: catalogService}
}

// toPresentationResponse converts a presentation model to API response format
func toPresentationResponse(p *models.Presentation) *PresentationResponse {
	return &PresentationResponse{
		ID:          p.ID.String(),
		Slug:        p.Slug,
		Title:       p.Title,
		Subtitle:    p.Subtitle,
		Speaker:     p.Speaker,
		Role:        p.Role,
		Description: p.Description,
		Image:       p.Image,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ListPresentations handles GET /api/presentations
func (h *PresentationHandler) ListPresentations(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	presentations, err := h.catalog.List(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list presentations")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve presentation list",
		})
		return
	}

	responses := make([]*PresentationResponse, len(presentations))
	for i, p := range presentations {
		responses[i] = toPresentationResponse(p)
	}

	c.JSON(http.StatusOK, PresentationListResponse{
		Presentations: responses,
	})
}

// GetPresentation handles GET /api/presentations/:id
func (h *PresentationHandler) GetPresentation(c *gin.Context) {
	idStr := c.Param("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid presentation ID format",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	p, _, err := h.catalog.GetTimeline(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrPresentationNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Presentation not found",
			})
			return
		}

		var vErr *timeline.ValidationError
		if errors.As(err, &vErr) {
			logger.Log.Error().
				Err(err).
				Str("presentation_id", id.String()).
				Msg("Stored timeline failed validation")

			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error:   "invalid_timeline",
				Message: err.Error(),
			})
			return
		}

		logger.Log.Error().
			Err(err).
			Str("presentation_id", id.String()).
			Msg("Failed to get presentation by ID")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve presentation",
		})
		return
	}

	c.JSON(http.StatusOK, PresentationDetailResponse{
		PresentationResponse: *toPresentationResponse(p),
		Timeline:             json.RawMessage(p.Timeline),
	})
}

// SetupPresentationRoutes registers presentation catalog routes
func SetupPresentationRoutes(apiGroup *gin.RouterGroup, catalogService *catalog.Service) {
	handler := NewPresentationHandler(catalogService)

	apiGroup.GET("/presentations", handler.ListPresentations)
	apiGroup.GET("/presentations/:id", handler.GetPresentation)
}
