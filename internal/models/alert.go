package models

import "time"

// MaintenanceAlert is a pending reminder for one (vehicle, type) pair.
type MaintenanceAlert struct {
	ID        string          `json:"id" validate:"required"`
	VehicleID string          `json:"vehicleId" validate:"required"`
	Type      MaintenanceType `json:"type" validate:"required,oneof=oil_change tire_pressure brake_check"`
	Message   string          `json:"message" validate:"required"`
	DueDate   string          `json:"dueDate"`
	IsRead    bool            `json:"isRead"`
	CreatedAt time.Time       `json:"createdAt" validate:"required"`
}

type MaintenanceAlertInput struct {
	VehicleID string          `json:"vehicleId" validate:"required"`
	Type      MaintenanceType `json:"type" validate:"required,oneof=oil_change tire_pressure brake_check"`
	Message   string          `json:"message" validate:"required,max=280"`
	DueDate   string          `json:"dueDate"`
	IsRead    bool            `json:"isRead"`
}

// Matches reports whether the alert belongs to the given pair.
func (a MaintenanceAlert) Matches(vehicleID string, t MaintenanceType) bool {
	return a.VehicleID == vehicleID && a.Type == t
}
