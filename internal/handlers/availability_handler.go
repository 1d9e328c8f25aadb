package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mentorbook/mentorbook-api/internal/middleware"
	"github.com/mentorbook/mentorbook-api/internal/models"
	"github.com/mentorbook/mentorbook-api/internal/services"
)

// AvailabilityHandler handles offering availability HTTP requests
type AvailabilityHandler struct {
	service services.AvailabilityServiceInterface
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(service services.AvailabilityServiceInterface) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// GetAvailability handles GET /api/v1/offerings/:id/availability
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	actor, offeringID, ok := actorAndID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetAvailability(c.Request.Context(), actor, offeringID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateMentoringBlock handles PATCH /api/v1/offerings/:id/mentoring
func (h *AvailabilityHandler) UpdateMentoringBlock(c *gin.Context) {
	actor, offeringID, ok := actorAndID(c)
	if !ok {
		return
	}

	var req models.UpdateMentoringBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	block, err := h.service.SetMentoringBlock(c.Request.Context(), actor, offeringID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"mentoringBlock": block})
}

// UpdateAvailability handles PATCH /api/v1/offerings/:id/availability
func (h *AvailabilityHandler) UpdateAvailability(c *gin.Context) {
	actor, offeringID, ok := actorAndID(c)
	if !ok {
		return
	}

	var req models.UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.service.UpdateAvailability(c.Request.Context(), actor, offeringID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PreviewSlots handles GET /api/v1/offerings/:id/slots?date=2026-02-14
func (h *AvailabilityHandler) PreviewSlots(c *gin.Context) {
	actor, offeringID, ok := actorAndID(c)
	if !ok {
		return
	}

	date := c.Query("date")
	if date == "" {
		respondError(c, http.StatusBadRequest, "Missing date parameter", nil)
		return
	}

	resp, err := h.service.PreviewSlots(c.Request.Context(), actor, offeringID, date)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// actorAndID pulls the authenticated actor and the :id route param.
// Responds and returns false when either is missing or malformed.
func actorAndID(c *gin.Context) (models.Actor, uuid.UUID, bool) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return models.Actor{}, uuid.Nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid id", err)
		return models.Actor{}, uuid.Nil, false
	}

	return actor, id, true
}
