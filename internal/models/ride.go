package models

import "time"

// SpeedData is one immutable sample of a ride.
type SpeedData struct {
	Timestamp        int64   `json:"timestamp" validate:"min=0"` // ms since epoch
	UserSpeed        float64 `json:"userSpeed" validate:"min=0"`
	RecommendedSpeed float64 `json:"recommendedSpeed" validate:"min=0"`
}

type Ride struct {
	ID                      string      `json:"id" validate:"required"`
	UserID                  string      `json:"userId"`
	VehicleID               string      `json:"vehicleId" validate:"required"`
	StartTime               time.Time   `json:"startTime" validate:"required"`
	EndTime                 *time.Time  `json:"endTime,omitempty"`
	SpeedData               []SpeedData `json:"speedData" validate:"dive"`
	Points                  int         `json:"points"`
	AverageSpeed            float64     `json:"averageSpeed"`
	RecommendedAverageSpeed float64     `json:"recommendedAverageSpeed"`
}

// Finalized reports whether the ride has been ended.
func (r Ride) Finalized() bool {
	return r.EndTime != nil
}
