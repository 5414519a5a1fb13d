package handlers

import (
	"net/http"

	"ridecare-backend/internal/models"
	"ridecare-backend/internal/state"
	"ridecare-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type VehicleHandler struct {
	store     *state.Store
	validator *validator.Validate
}

type VehiclesResponse struct {
	Vehicles       []models.Vehicle `json:"vehicles"`
	CurrentVehicle *models.Vehicle  `json:"currentVehicle"`
}

func NewVehicleHandler(store *state.Store) *VehicleHandler {
	return &VehicleHandler{
		store:     store,
		validator: validator.New(),
	}
}

// GetVehicles lists vehicles and the current one
func (h *VehicleHandler) GetVehicles(c *gin.Context) {
	snap := h.store.Snapshot()
	utils.SuccessResponse(c, http.StatusOK, "Vehicles retrieved successfully", VehiclesResponse{
		Vehicles:       snap.Vehicles,
		CurrentVehicle: snap.CurrentVehicle,
	})
}

// CreateVehicle creates a new vehicle
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var req models.VehicleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	vehicle, err := h.store.AddVehicle(c.Request.Context(), req)
	if err != nil {
		storeError(c, "Failed to create vehicle", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Vehicle created successfully", vehicle)
}

// UpdateVehicle merges the given fields into a vehicle
func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	vehicleID := c.Param("id")

	var req models.VehiclePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	vehicle, err := h.store.UpdateVehicle(c.Request.Context(), vehicleID, req)
	if err != nil {
		storeError(c, "Failed to update vehicle", err)
		return
	}
	if vehicle == nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Vehicle not found", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle updated successfully", vehicle)
}

// SelectVehicle makes a vehicle the current one
func (h *VehicleHandler) SelectVehicle(c *gin.Context) {
	vehicle, err := h.store.SelectVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		storeError(c, "Failed to select vehicle", err)
		return
	}
	if vehicle == nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Vehicle not found", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle selected successfully", vehicle)
}
