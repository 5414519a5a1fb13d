package models

import "time"

type MaintenanceType string

// Constants for maintenance types
const (
	MaintenanceTypeOilChange    MaintenanceType = "oil_change"
	MaintenanceTypeTirePressure MaintenanceType = "tire_pressure"
	MaintenanceTypeBrakeCheck   MaintenanceType = "brake_check"
	MaintenanceTypeOther        MaintenanceType = "other"
)

type MaintenanceLog struct {
	ID          string          `json:"id" validate:"required"`
	VehicleID   string          `json:"vehicleId" validate:"required"`
	Type        MaintenanceType `json:"type" validate:"required,oneof=oil_change tire_pressure brake_check other"`
	Description string          `json:"description"`
	Date        string          `json:"date" validate:"required"`
	CreatedAt   time.Time       `json:"createdAt" validate:"required"`
}

type MaintenanceLogInput struct {
	VehicleID   string          `json:"vehicleId" validate:"required"`
	Type        MaintenanceType `json:"type" validate:"required,oneof=oil_change tire_pressure brake_check other"`
	Description string          `json:"description" validate:"max=500"`
	Date        string          `json:"date" validate:"required"`
}
