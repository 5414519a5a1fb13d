package models

import "time"

type SpeedUnit string

const (
	SpeedUnitKmh SpeedUnit = "km/h"
	SpeedUnitMph SpeedUnit = "mph"
)

type User struct {
	ID               string    `json:"id" validate:"required"`
	FirstName        string    `json:"firstName" validate:"required"`
	Surname          string    `json:"surname" validate:"required"`
	Username         string    `json:"username" validate:"required"`
	Age              Age       `json:"age" validate:"required,min=18,max=100"`
	EmergencyContact string    `json:"emergencyContact" validate:"required"`
	SpeedUnit        SpeedUnit `json:"speedUnit" validate:"required,oneof=km/h mph"`
	PasswordHash     string    `json:"passwordHash,omitempty"`
	CreatedAt        time.Time `json:"createdAt" validate:"required"`
}

// Profile is the sign-up payload: a User without the fields the store assigns.
type Profile struct {
	FirstName        string    `json:"firstName" validate:"required,min=1,max=50"`
	Surname          string    `json:"surname" validate:"required,min=1,max=50"`
	Username         string    `json:"username" validate:"required,min=3,max=50"`
	Age              Age       `json:"age" validate:"required,min=18,max=100"`
	EmergencyContact string    `json:"emergencyContact" validate:"required"`
	SpeedUnit        SpeedUnit `json:"speedUnit" validate:"required,oneof=km/h mph"`
	Password         string    `json:"password,omitempty" validate:"omitempty,min=6"`
}

// Public returns a copy safe to hand to API clients.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}
