package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shopfront/internal/auth"
	"shopfront/internal/domain"
)

// writeError maps domain errors onto status codes. Client-safe messages come
// from domain.Error and validation failures; everything else is logged and
// reported as a 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("request_id", requestID(c)).Error("unexpected error")
		c.AbortWithStatusJSON(status, gin.H{"message": "Internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"message": messageFor(err, status)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidID), errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error, status int) string {
	var safe *domain.Error
	if errors.As(err, &safe) {
		return safe.Message
	}
	var denied *auth.AuthzError
	if errors.As(err, &denied) {
		return "Access is restricted to " + denied.Policy + " accounts"
	}
	var invalid *domain.ValidationError
	if errors.As(err, &invalid) {
		return invalid.Error()
	}
	switch status {
	case http.StatusUnauthorized:
		return "Unauthorized..."
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusConflict:
		return "Already exists"
	default:
		if errors.Is(err, domain.ErrInvalidID) {
			return "Invalid id"
		}
		return "Invalid request"
	}
}
