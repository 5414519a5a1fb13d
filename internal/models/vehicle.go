package models

import "time"

type VehicleType string

const (
	VehicleTypeSedan VehicleType = "Sedan"
	VehicleTypeSUV   VehicleType = "SUV"
	VehicleTypeTruck VehicleType = "Truck"
	VehicleTypeVan   VehicleType = "Van"
)

type Vehicle struct {
	ID                string      `json:"id" validate:"required"`
	UserID            string      `json:"userId"`
	VehicleType       VehicleType `json:"vehicleType" validate:"required,oneof=Sedan SUV Truck Van"`
	Model             string      `json:"model" validate:"required"`
	YearOfManufacture string      `json:"yearOfManufacture" validate:"required"`
	TireCondition     string      `json:"tireCondition"`
	BrakeCondition    string      `json:"brakeCondition"`
	LastOilChangeDate string      `json:"lastOilChangeDate"`
	CreatedAt         time.Time   `json:"createdAt" validate:"required"`
}

// VehicleInput is what a caller supplies to add a vehicle.
type VehicleInput struct {
	VehicleType       VehicleType `json:"vehicleType" validate:"required,oneof=Sedan SUV Truck Van"`
	Model             string      `json:"model" validate:"required"`
	YearOfManufacture string      `json:"yearOfManufacture" validate:"required,numeric,len=4"`
	TireCondition     string      `json:"tireCondition"`
	BrakeCondition    string      `json:"brakeCondition"`
	LastOilChangeDate string      `json:"lastOilChangeDate"`
}

// VehiclePatch is a partial update; nil fields are left untouched.
type VehiclePatch struct {
	VehicleType       *VehicleType `json:"vehicleType,omitempty" validate:"omitempty,oneof=Sedan SUV Truck Van"`
	Model             *string      `json:"model,omitempty" validate:"omitempty,min=1"`
	YearOfManufacture *string      `json:"yearOfManufacture,omitempty" validate:"omitempty,numeric,len=4"`
	TireCondition     *string      `json:"tireCondition,omitempty"`
	BrakeCondition    *string      `json:"brakeCondition,omitempty"`
	LastOilChangeDate *string      `json:"lastOilChangeDate,omitempty"`
}

// Apply merges the set fields of p into v.
func (p VehiclePatch) Apply(v Vehicle) Vehicle {
	if p.VehicleType != nil {
		v.VehicleType = *p.VehicleType
	}
	if p.Model != nil {
		v.Model = *p.Model
	}
	if p.YearOfManufacture != nil {
		v.YearOfManufacture = *p.YearOfManufacture
	}
	if p.TireCondition != nil {
		v.TireCondition = *p.TireCondition
	}
	if p.BrakeCondition != nil {
		v.BrakeCondition = *p.BrakeCondition
	}
	if p.LastOilChangeDate != nil {
		v.LastOilChangeDate = *p.LastOilChangeDate
	}
	return v
}
