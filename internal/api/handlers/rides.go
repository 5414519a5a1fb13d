package handlers

import (
	"net/http"
	"time"

	"ridecare-backend/internal/models"
	"ridecare-backend/internal/state"
	"ridecare-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type RideHandler struct {
	store     *state.Store
	validator *validator.Validate
	now       func() time.Time
}

type StartRideRequest struct {
	VehicleID string `json:"vehicleId"`
}

func NewRideHandler(store *state.Store) *RideHandler {
	return &RideHandler{
		store:     store,
		validator: validator.New(),
		now:       time.Now,
	}
}

// GetRides lists every ride, finished or not
func (h *RideHandler) GetRides(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Rides retrieved successfully", h.store.Snapshot().Rides)
}

// StartRide opens a ride; without a vehicleId the current vehicle is used
func (h *RideHandler) StartRide(c *gin.Context) {
	var req StartRideRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
			return
		}
	}

	if req.VehicleID == "" {
		current := h.store.Snapshot().CurrentVehicle
		if current == nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "vehicleId is required when no vehicle is selected", nil)
			return
		}
		req.VehicleID = current.ID
	}

	ride, err := h.store.StartRide(c.Request.Context(), req.VehicleID)
	if err != nil {
		storeError(c, "Failed to start ride", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Ride started successfully", ride)
}

// AddSpeedData records one speed sample; a missing timestamp is set to now
func (h *RideHandler) AddSpeedData(c *gin.Context) {
	var req models.SpeedData
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}
	if req.Timestamp == 0 {
		req.Timestamp = h.now().UnixMilli()
	}

	ride, err := h.store.AddSpeedData(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		storeError(c, "Failed to record speed", err)
		return
	}
	if ride == nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Ride not found or already ended", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Speed recorded successfully", ride)
}

// EndRide finalizes a ride and computes its averages
func (h *RideHandler) EndRide(c *gin.Context) {
	ride, err := h.store.EndRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		storeError(c, "Failed to end ride", err)
		return
	}
	if ride == nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Ride not found", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Ride ended successfully", ride)
}
