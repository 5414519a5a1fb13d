package handlers

import (
	"net/http"

	"ridecare-backend/internal/state"
	"ridecare-backend/internal/websocket"
	"ridecare-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StateHandler struct {
	store  *state.Store
	hub    *websocket.Hub
	logger *zap.Logger
}

func NewStateHandler(store *state.Store, hub *websocket.Hub, logger *zap.Logger) *StateHandler {
	return &StateHandler{store: store, hub: hub, logger: logger}
}

// GetState returns the full snapshot views render from
func (h *StateHandler) GetState(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "State retrieved successfully", h.store.Snapshot())
}

// StreamState upgrades to a websocket that receives a snapshot per change
func (h *StateHandler) StreamState(c *gin.Context) {
	if err := h.hub.ServeWS(c.Writer, c.Request); err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		if !c.Writer.Written() {
			utils.ErrorResponse(c, http.StatusServiceUnavailable, "State stream unavailable", err)
		}
	}
}
