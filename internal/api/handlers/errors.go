package handlers

import (
	"context"
	"errors"
	"net/http"

	"ridecare-backend/internal/state"
	"ridecare-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// storeError maps a state store failure to a response.
func storeError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, state.ErrClosed):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Service is shutting down", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, message, err)
	default:
		utils.ErrorResponse(c, http.StatusInternalServerError, message, err)
	}
}
