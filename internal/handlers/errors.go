package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mentorbook/mentorbook-api/internal/schedule"
	apperrors "github.com/mentorbook/mentorbook-api/pkg/errors"
)

// attachError attaches err to the gin context so the observability middleware
// can include the reason in the request log. c.Error() returns *gin.Error (not
// the error interface), so we suppress errcheck here intentionally.
func attachError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err) //nolint:errcheck
	}
}

// statusReasons are the codes attached to failures raised directly at the
// HTTP layer, before a service error is available.
var statusReasons = map[int]string{
	http.StatusBadRequest:   "invalid",
	http.StatusUnauthorized: "unauthorized",
	http.StatusForbidden:    "access_denied",
	http.StatusNotFound:     "not_found",
}

// respondError sends an error JSON response and attaches the error to the gin
// context so the observability middleware can include the reason in the log.
func respondError(c *gin.Context, status int, message string, err error) {
	attachError(c, err)
	reason, ok := statusReasons[status]
	if !ok {
		reason = "error"
	}
	c.JSON(status, gin.H{"error": message, "reason": reason})
}

// respondValidationError sends the canonical 400 body for request-binding
// failures, with per-field details.
func respondValidationError(c *gin.Context, err error) {
	attachError(c, err)
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Validation failed",
		"reason":  "validation_failed",
		"details": ParseValidationErrors(err),
	})
}

// respondServiceError maps a service error to its HTTP status via the
// pkg/errors sentinels. The wrapped message is returned as-is alongside a
// stable machine-readable reason code; services phrase their errors for
// clients, the code is what clients branch on.
func respondServiceError(c *gin.Context, err error) {
	attachError(c, err)

	var status int
	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case apperrors.Is(err, apperrors.ErrAccessDenied):
		status = http.StatusForbidden
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		status = http.StatusUnauthorized
	case apperrors.Is(err, apperrors.ErrConflict):
		status = http.StatusConflict
	case apperrors.Is(err, apperrors.ErrInvalidInput):
		status = http.StatusBadRequest
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "reason": "internal"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error(), "reason": reasonCode(err)})
}

// reasonCode maps an error chain to its stable reason code. Schedule
// rejections keep their specific calculator codes; everything else maps by
// sentinel.
func reasonCode(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case apperrors.Is(err, apperrors.ErrAccessDenied):
		return "access_denied"
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		return "unauthorized"
	case apperrors.Is(err, apperrors.ErrConflict):
		return "conflict"
	case apperrors.Is(err, apperrors.ErrLeadTime):
		return "lead_time_violation"
	}
	return schedule.RejectionReason(err)
}
