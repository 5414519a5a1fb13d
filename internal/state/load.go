package state

import (
	"context"
	"errors"
	"fmt"

	"ridecare-backend/internal/models"
	"ridecare-backend/pkg/storage"

	"go.uber.org/zap"
)

// Load reads every slot in order. A slot that cannot be read, parsed or
// validated is logged and left at its default; Load itself only fails when
// the store is closed or ctx ends before the worker picks it up. The
// loading flag is cleared once, by the first Load.
func (s *Store) Load(ctx context.Context) error {
	return s.submit(ctx, func(ctx context.Context) {
		if s.loaded {
			return
		}

		next := defaultState()
		var storedCurrent *models.Vehicle

		for _, slot := range Slots {
			raw, err := s.backend.Get(ctx, slot)
			if err != nil {
				if !errors.Is(err, storage.ErrNotFound) {
					s.logger.Error("error loading slot", zap.String("slot", slot), zap.Error(err))
				}
				continue
			}

			if err := s.loadSlot(slot, raw, &next, &storedCurrent); err != nil {
				s.logger.Error("discarding unreadable slot", zap.String("slot", slot), zap.Error(err))
			}
		}

		if storedCurrent != nil {
			if v, ok := findVehicle(next.vehicles, storedCurrent.ID); ok {
				next.currentVehicle = &v
			} else {
				s.logger.Warn("current vehicle not in vehicle list, clearing",
					zap.String("vehicleId", storedCurrent.ID))
			}
		}

		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		s.loaded = true

		s.commit(next)
		s.logger.Info("state loaded",
			zap.Bool("authenticated", next.currentUser != nil),
			zap.Int("vehicles", len(next.vehicles)),
			zap.Int("rides", len(next.rides)))
	})
}

func (s *Store) loadSlot(slot, raw string, next *appState, current **models.Vehicle) error {
	switch slot {
	case SlotUser:
		var u models.User
		if err := s.decodeStruct(raw, &u); err != nil {
			return err
		}
		next.currentUser = &u

	case SlotVehicles:
		var vs []models.Vehicle
		if err := decodeList(s, raw, &vs); err != nil {
			return err
		}
		next.vehicles = vs

	case SlotRides:
		var rs []models.Ride
		if err := decodeList(s, raw, &rs); err != nil {
			return err
		}
		for i := range rs {
			if rs[i].SpeedData == nil {
				rs[i].SpeedData = []models.SpeedData{}
			}
		}
		next.rides = rs

	case SlotMaintenanceLogs:
		var ls []models.MaintenanceLog
		if err := decodeList(s, raw, &ls); err != nil {
			return err
		}
		next.maintenanceLogs = ls

	case SlotMaintenanceAlerts:
		var as []models.MaintenanceAlert
		if err := decodeList(s, raw, &as); err != nil {
			return err
		}
		next.maintenanceAlerts = dedupeAlerts(as)

	case SlotTheme:
		var t models.Theme
		if err := decodeSlot(raw, &t); err != nil {
			return err
		}
		if !t.Valid() {
			return fmt.Errorf("unknown theme %q", t)
		}
		next.theme = t

	case SlotCurrentVehicle:
		var v models.Vehicle
		if err := s.decodeStruct(raw, &v); err != nil {
			return err
		}
		*current = &v
	}
	return nil
}

func (s *Store) decodeStruct(raw string, dst interface{}) error {
	if err := decodeSlot(raw, dst); err != nil {
		return err
	}
	return s.validate.Struct(dst)
}

func decodeList[T any](s *Store, raw string, dst *[]T) error {
	if err := decodeSlot(raw, dst); err != nil {
		return err
	}
	if *dst == nil {
		*dst = []T{}
	}
	for i := range *dst {
		if err := s.validate.Struct(&(*dst)[i]); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// dedupeAlerts keeps the last alert of each (vehicle, type) pair.
func dedupeAlerts(alerts []models.MaintenanceAlert) []models.MaintenanceAlert {
	type pair struct {
		vehicleID string
		t         models.MaintenanceType
	}
	last := make(map[pair]int, len(alerts))
	for i, a := range alerts {
		last[pair{a.VehicleID, a.Type}] = i
	}
	out := make([]models.MaintenanceAlert, 0, len(last))
	for i, a := range alerts {
		if last[pair{a.VehicleID, a.Type}] == i {
			out = append(out, a)
		}
	}
	return out
}
