package state

import (
	"testing"

	"ridecare-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCalculatePoints(t *testing.T) {
	tests := []struct {
		name        string
		user, rec   float64
		start, want int
	}{
		{"exact match", 60, 60, 0, 10},
		{"within band above", 65, 60, 5, 15},
		{"within band below", 55, 60, 0, 10},
		{"speeding by 20", 80, 60, 0, -20},
		{"speeding by 7 rounds down", 67, 60, 100, 95},
		{"speeding by 9.9", 69.9, 60, 0, -5},
		{"under speed beyond band", 50, 65, 40, 40},
		{"just outside band below", 54, 60, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculatePoints(models.SpeedData{UserSpeed: tt.user, RecommendedSpeed: tt.rec}, tt.start)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAverages(t *testing.T) {
	avg, rec := Averages([]models.SpeedData{
		{UserSpeed: 60, RecommendedSpeed: 50},
		{UserSpeed: 70, RecommendedSpeed: 50},
	})
	assert.Equal(t, 65.0, avg)
	assert.Equal(t, 50.0, rec)

	avg, rec = Averages(nil)
	assert.Zero(t, avg)
	assert.Zero(t, rec)
}
