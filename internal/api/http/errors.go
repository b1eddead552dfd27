package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/msgslot/internal/slot"
)

// StatusFor maps a device error to an HTTP status code.
func StatusFor(err error) int {
	switch slot.Kind(err) {
	case "ok":
		return http.StatusOK
	case "invalid_argument", "empty_message", "message_too_large":
		return http.StatusBadRequest
	case "no_message", "unknown_handle":
		return http.StatusNotFound
	case "buffer_too_small":
		return http.StatusRequestEntityTooLarge
	case "resource_exhausted":
		return http.StatusServiceUnavailable
	case "closed":
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// RespondError aborts c with the standard failure body for err.
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(StatusFor(err), gin.H{
		"success": false,
		"error":   err.Error(),
		"errno":   slot.Errno(err),
		"kind":    slot.Kind(err),
	})
}
