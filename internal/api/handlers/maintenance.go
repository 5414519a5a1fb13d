package handlers

import (
	"net/http"

	"ridecare-backend/internal/models"
	"ridecare-backend/internal/state"
	"ridecare-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type MaintenanceHandler struct {
	store     *state.Store
	validator *validator.Validate
}

type RemoveAlertRequest struct {
	VehicleID string                 `form:"vehicleId" validate:"required"`
	Type      models.MaintenanceType `form:"type" validate:"required,oneof=oil_change tire_pressure brake_check"`
}

func NewMaintenanceHandler(store *state.Store) *MaintenanceHandler {
	return &MaintenanceHandler{
		store:     store,
		validator: validator.New(),
	}
}

// GetLogs lists maintenance logs, optionally for one vehicle
func (h *MaintenanceHandler) GetLogs(c *gin.Context) {
	logs := h.store.Snapshot().MaintenanceLogs
	if vehicleID := c.Query("vehicleId"); vehicleID != "" {
		filtered := make([]models.MaintenanceLog, 0, len(logs))
		for _, l := range logs {
			if l.VehicleID == vehicleID {
				filtered = append(filtered, l)
			}
		}
		logs = filtered
	}

	utils.SuccessResponse(c, http.StatusOK, "Maintenance logs retrieved successfully", logs)
}

// CreateLog records a maintenance event
func (h *MaintenanceHandler) CreateLog(c *gin.Context) {
	var req models.MaintenanceLogInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	log, err := h.store.AddMaintenanceLog(c.Request.Context(), req)
	if err != nil {
		storeError(c, "Failed to create maintenance log", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Maintenance log created successfully", log)
}

// GetAlerts lists alerts; ?unread=true keeps only unread ones
func (h *MaintenanceHandler) GetAlerts(c *gin.Context) {
	alerts := h.store.Snapshot().MaintenanceAlerts
	if c.Query("unread") == "true" {
		filtered := make([]models.MaintenanceAlert, 0, len(alerts))
		for _, a := range alerts {
			if !a.IsRead {
				filtered = append(filtered, a)
			}
		}
		alerts = filtered
	}

	utils.SuccessResponse(c, http.StatusOK, "Maintenance alerts retrieved successfully", alerts)
}

// CreateAlert stores an alert, replacing the pair's previous one
func (h *MaintenanceHandler) CreateAlert(c *gin.Context) {
	var req models.MaintenanceAlertInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	alert, err := h.store.AddMaintenanceAlert(c.Request.Context(), req)
	if err != nil {
		storeError(c, "Failed to create maintenance alert", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Maintenance alert created successfully", alert)
}

// RemoveAlert dismisses the alert of a (vehicle, type) pair
func (h *MaintenanceHandler) RemoveAlert(c *gin.Context) {
	var req RemoveAlertRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	if err := h.store.RemoveMaintenanceAlert(c.Request.Context(), req.VehicleID, req.Type); err != nil {
		storeError(c, "Failed to remove maintenance alert", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Maintenance alert removed successfully", nil)
}

// MarkAlertAsRead flags an alert as read
func (h *MaintenanceHandler) MarkAlertAsRead(c *gin.Context) {
	alert, err := h.store.MarkAlertAsRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		storeError(c, "Failed to update maintenance alert", err)
		return
	}
	if alert == nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Maintenance alert not found", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Maintenance alert marked as read", alert)
}
