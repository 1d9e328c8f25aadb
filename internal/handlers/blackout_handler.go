package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mentorbook/mentorbook-api/internal/middleware"
	"github.com/mentorbook/mentorbook-api/internal/models"
	"github.com/mentorbook/mentorbook-api/internal/services"
)

// BlackoutHandler handles mentor blackout HTTP requests
type BlackoutHandler struct {
	service services.BlackoutServiceInterface
}

// NewBlackoutHandler creates a new blackout handler
func NewBlackoutHandler(service services.BlackoutServiceInterface) *BlackoutHandler {
	return &BlackoutHandler{service: service}
}

// Create handles POST /api/v1/mentor-blackouts
func (h *BlackoutHandler) Create(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var req models.CreateBlackoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	blackout, err := h.service.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, blackout)
}

// Delete handles DELETE /api/v1/mentor-blackouts/:id
func (h *BlackoutHandler) Delete(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// List handles GET /api/v1/mentor-blackouts?mentorId=...&from=...&to=...
func (h *BlackoutHandler) List(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	// Mentors default to their own calendar; admins must name one
	mentorID := actor.ID
	if raw := c.Query("mentorId"); raw != "" {
		mentorID, err = uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid mentorId", err)
			return
		}
	}

	resp, err := h.service.List(c.Request.Context(), actor, mentorID, c.Query("from"), c.Query("to"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
