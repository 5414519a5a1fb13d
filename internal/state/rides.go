package state

import (
	"context"
	"fmt"

	"ridecare-backend/internal/models"

	"go.uber.org/zap"
)

// StartRide opens a ride on vehicleID with no samples and zero scores.
func (s *Store) StartRide(ctx context.Context, vehicleID string) (*models.Ride, error) {
	var (
		out *models.Ride
		err error
	)
	if serr := s.submit(ctx, func(ctx context.Context) {
		out, err = s.startRide(ctx, vehicleID)
	}); serr != nil {
		return nil, serr
	}
	return out, err
}

func (s *Store) startRide(ctx context.Context, vehicleID string) (*models.Ride, error) {
	ride := models.Ride{
		ID:        s.newID(),
		UserID:    s.currentUserID(),
		VehicleID: vehicleID,
		StartTime: s.now(),
		SpeedData: []models.SpeedData{},
	}

	next := s.st
	next.rides = append(append(make([]models.Ride, 0, len(s.st.rides)+1), s.st.rides...), ride)

	entry, err := slotEntry(SlotRides, next.rides)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, entry); err != nil {
		s.logger.Error("error starting ride", zap.String("vehicleId", vehicleID), zap.Error(err))
		return nil, fmt.Errorf("failed to save ride: %w", err)
	}
	s.commit(next)

	out := cloneRide(ride)
	return &out, nil
}

// AddSpeedData appends sample to the ride and rescores it. Unknown or
// already ended rides are left alone and nil is returned. A storage failure
// is logged; the sample stays in memory.
func (s *Store) AddSpeedData(ctx context.Context, rideID string, sample models.SpeedData) (*models.Ride, error) {
	var out *models.Ride
	if err := s.submit(ctx, func(ctx context.Context) {
		idx := indexRide(s.st.rides, rideID)
		if idx < 0 || s.st.rides[idx].Finalized() {
			return
		}

		ride := cloneRide(s.st.rides[idx])
		ride.SpeedData = append(ride.SpeedData, sample)
		ride.Points = CalculatePoints(sample, ride.Points)

		next := s.st
		next.rides = replaceRide(s.st.rides, idx, ride)
		s.commit(next)

		r := cloneRide(ride)
		out = &r

		entry, err := slotEntry(SlotRides, next.rides)
		if err == nil {
			err = s.persist(ctx, entry)
		}
		if err != nil {
			s.logger.Error("error adding speed data", zap.String("rideId", rideID), zap.Error(err))
		}
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// EndRide stamps the end time and computes the averages once. Ending an
// unknown ride returns nil; ending a finished ride returns it unchanged.
func (s *Store) EndRide(ctx context.Context, rideID string) (*models.Ride, error) {
	var (
		out *models.Ride
		err error
	)
	if serr := s.submit(ctx, func(ctx context.Context) {
		out, err = s.endRide(ctx, rideID)
	}); serr != nil {
		return nil, serr
	}
	return out, err
}

func (s *Store) endRide(ctx context.Context, rideID string) (*models.Ride, error) {
	idx := indexRide(s.st.rides, rideID)
	if idx < 0 {
		return nil, nil
	}
	if s.st.rides[idx].Finalized() {
		r := cloneRide(s.st.rides[idx])
		return &r, nil
	}

	ride := cloneRide(s.st.rides[idx])
	end := s.now()
	ride.EndTime = &end
	ride.AverageSpeed, ride.RecommendedAverageSpeed = Averages(ride.SpeedData)

	next := s.st
	next.rides = replaceRide(s.st.rides, idx, ride)

	entry, err := slotEntry(SlotRides, next.rides)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, entry); err != nil {
		s.logger.Error("error ending ride", zap.String("rideId", rideID), zap.Error(err))
		return nil, fmt.Errorf("failed to save ride: %w", err)
	}
	s.commit(next)

	out := cloneRide(ride)
	return &out, nil
}

func indexRide(rides []models.Ride, id string) int {
	for i := range rides {
		if rides[i].ID == id {
			return i
		}
	}
	return -1
}

func replaceRide(rides []models.Ride, idx int, ride models.Ride) []models.Ride {
	out := append([]models.Ride{}, rides...)
	out[idx] = ride
	return out
}
