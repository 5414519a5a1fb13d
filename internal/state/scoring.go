package state

import (
	"math"

	"ridecare-backend/internal/models"
)

// SpeedTolerance is the band, in speed units, within which a sample earns points.
const SpeedTolerance = 5

// CalculatePoints returns the ride total after one more sample: +10 inside the
// tolerance band, -5 per full 5 units when speeding, unchanged when too slow.
func CalculatePoints(sample models.SpeedData, currentPoints int) int {
	diff := math.Abs(sample.UserSpeed - sample.RecommendedSpeed)
	if diff <= SpeedTolerance {
		return currentPoints + 10
	}
	if sample.UserSpeed > sample.RecommendedSpeed {
		return currentPoints - int(math.Floor(diff/SpeedTolerance))*SpeedTolerance
	}
	return currentPoints
}

// Averages returns the mean user and recommended speed; 0, 0 for no samples.
func Averages(samples []models.SpeedData) (avgSpeed, avgRecommended float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	var sumUser, sumRec float64
	for _, s := range samples {
		sumUser += s.UserSpeed
		sumRec += s.RecommendedSpeed
	}
	n := float64(len(samples))
	return sumUser / n, sumRec / n
}
