package state

import (
	"context"
	"fmt"

	"ridecare-backend/internal/models"
	"ridecare-backend/pkg/storage"

	"go.uber.org/zap"
)

// AddVehicle appends a vehicle owned by the current user (empty owner when
// nobody is signed in). The first vehicle becomes the current one.
func (s *Store) AddVehicle(ctx context.Context, in models.VehicleInput) (*models.Vehicle, error) {
	var (
		out *models.Vehicle
		err error
	)
	if serr := s.submit(ctx, func(ctx context.Context) {
		out, err = s.addVehicle(ctx, in)
	}); serr != nil {
		return nil, serr
	}
	return out, err
}

func (s *Store) addVehicle(ctx context.Context, in models.VehicleInput) (*models.Vehicle, error) {
	vehicle := models.Vehicle{
		ID:                s.newID(),
		UserID:            s.currentUserID(),
		VehicleType:       in.VehicleType,
		Model:             in.Model,
		YearOfManufacture: in.YearOfManufacture,
		TireCondition:     in.TireCondition,
		BrakeCondition:    in.BrakeCondition,
		LastOilChangeDate: in.LastOilChangeDate,
		CreatedAt:         s.now(),
	}

	next := s.st
	next.vehicles = append(append(make([]models.Vehicle, 0, len(s.st.vehicles)+1), s.st.vehicles...), vehicle)

	entries := make([]storage.Entry, 0, 2)
	e, err := slotEntry(SlotVehicles, next.vehicles)
	if err != nil {
		return nil, err
	}
	entries = append(entries, e)

	if next.currentVehicle == nil {
		current := vehicle
		next.currentVehicle = &current
		e, err := slotEntry(SlotCurrentVehicle, current)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := s.persist(ctx, entries...); err != nil {
		s.logger.Error("error adding vehicle", zap.Error(err))
		return nil, fmt.Errorf("failed to save vehicle: %w", err)
	}
	s.commit(next)

	return &vehicle, nil
}

// UpdateVehicle merges patch into the vehicle with the given id. An unknown
// id is a no-op and returns nil, nil.
func (s *Store) UpdateVehicle(ctx context.Context, id string, patch models.VehiclePatch) (*models.Vehicle, error) {
	var (
		out *models.Vehicle
		err error
	)
	if serr := s.submit(ctx, func(ctx context.Context) {
		out, err = s.updateVehicle(ctx, id, patch)
	}); serr != nil {
		return nil, serr
	}
	return out, err
}

func (s *Store) updateVehicle(ctx context.Context, id string, patch models.VehiclePatch) (*models.Vehicle, error) {
	next := s.st
	updated, entries, ok, err := planVehicleUpdate(&next, id, patch)
	if err != nil || !ok {
		return nil, err
	}

	if err := s.persist(ctx, entries...); err != nil {
		s.logger.Error("error updating vehicle", zap.String("vehicleId", id), zap.Error(err))
		return nil, fmt.Errorf("failed to save vehicle: %w", err)
	}
	s.commit(next)

	return &updated, nil
}

// planVehicleUpdate applies patch to next and returns the slot writes it
// needs. ok is false when no vehicle has the id.
func planVehicleUpdate(next *appState, id string, patch models.VehiclePatch) (models.Vehicle, []storage.Entry, bool, error) {
	idx := indexVehicle(next.vehicles, id)
	if idx < 0 {
		return models.Vehicle{}, nil, false, nil
	}

	updated := patch.Apply(next.vehicles[idx])
	vehicles := append([]models.Vehicle{}, next.vehicles...)
	vehicles[idx] = updated
	next.vehicles = vehicles

	entries := make([]storage.Entry, 0, 2)
	e, err := slotEntry(SlotVehicles, vehicles)
	if err != nil {
		return models.Vehicle{}, nil, false, err
	}
	entries = append(entries, e)

	if next.currentVehicle != nil && next.currentVehicle.ID == id {
		current := updated
		next.currentVehicle = &current
		e, err := slotEntry(SlotCurrentVehicle, current)
		if err != nil {
			return models.Vehicle{}, nil, false, err
		}
		entries = append(entries, e)
	}
	return updated, entries, true, nil
}

// SelectVehicle makes the vehicle with the given id current, storing a copy
// of the record. An unknown id is a no-op. A storage failure is logged and
// the selection is kept in memory.
func (s *Store) SelectVehicle(ctx context.Context, id string) (*models.Vehicle, error) {
	var out *models.Vehicle
	if err := s.submit(ctx, func(ctx context.Context) {
		v, ok := findVehicle(s.st.vehicles, id)
		if !ok {
			return
		}

		current := v
		next := s.st
		next.currentVehicle = &current
		s.commit(next)
		out = &v

		e, err := slotEntry(SlotCurrentVehicle, v)
		if err == nil {
			err = s.persist(ctx, e)
		}
		if err != nil {
			s.logger.Error("error selecting vehicle", zap.String("vehicleId", id), zap.Error(err))
		}
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) currentUserID() string {
	if s.st.currentUser == nil {
		return ""
	}
	return s.st.currentUser.ID
}

func indexVehicle(vehicles []models.Vehicle, id string) int {
	for i := range vehicles {
		if vehicles[i].ID == id {
			return i
		}
	}
	return -1
}

func findVehicle(vehicles []models.Vehicle, id string) (models.Vehicle, bool) {
	if i := indexVehicle(vehicles, id); i >= 0 {
		return vehicles[i], true
	}
	return models.Vehicle{}, false
}
