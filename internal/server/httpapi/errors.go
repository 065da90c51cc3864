package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mpc180222/messagely/internal/common"
)

// statusForError maps the sentinel taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError emits the structured failure shape and aborts the request.
// Internal errors are not echoed to the client.
func writeError(c *gin.Context, err error) {
	status := statusForError(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = common.ErrorInternal.Error()
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"status":  status,
			"message": message,
		},
	})
}
