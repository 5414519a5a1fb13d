package handlers

import (
	"errors"
	"net/http"

	"ridecare-backend/internal/models"
	"ridecare-backend/internal/state"
	"ridecare-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	store *state.Store
}

type ThemeRequest struct {
	Theme models.Theme `json:"theme"`
}

func NewSettingsHandler(store *state.Store) *SettingsHandler {
	return &SettingsHandler{store: store}
}

func (h *SettingsHandler) GetTheme(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Theme retrieved successfully", ThemeRequest{Theme: h.store.Snapshot().Theme})
}

func (h *SettingsHandler) UpdateTheme(c *gin.Context) {
	var req ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.store.UpdateTheme(c.Request.Context(), req.Theme); err != nil {
		if errors.Is(err, state.ErrInvalidTheme) {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid theme", err)
			return
		}
		storeError(c, "Failed to update theme", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Theme updated successfully", req)
}
