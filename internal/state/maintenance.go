package state

import (
	"context"
	"fmt"

	"ridecare-backend/internal/models"
	"ridecare-backend/pkg/storage"

	"go.uber.org/zap"
)

// AddMaintenanceLog records a maintenance event. An oil change also sets the
// vehicle's last oil change date and clears the vehicle's oil change alert.
// All touched slots are written in one SetMany; memory changes only if that
// write succeeds.
func (s *Store) AddMaintenanceLog(ctx context.Context, in models.MaintenanceLogInput) (*models.MaintenanceLog, error) {
	var (
		out *models.MaintenanceLog
		err error
	)
	if serr := s.submit(ctx, func(ctx context.Context) {
		out, err = s.addMaintenanceLog(ctx, in)
	}); serr != nil {
		return nil, serr
	}
	return out, err
}

func (s *Store) addMaintenanceLog(ctx context.Context, in models.MaintenanceLogInput) (*models.MaintenanceLog, error) {
	log := models.MaintenanceLog{
		ID:          s.newID(),
		VehicleID:   in.VehicleID,
		Type:        in.Type,
		Description: in.Description,
		Date:        in.Date,
		CreatedAt:   s.now(),
	}

	next := s.st
	next.maintenanceLogs = append(append(make([]models.MaintenanceLog, 0, len(s.st.maintenanceLogs)+1), s.st.maintenanceLogs...), log)

	entry, err := slotEntry(SlotMaintenanceLogs, next.maintenanceLogs)
	if err != nil {
		return nil, err
	}
	entries := []storage.Entry{entry}

	if in.Type == models.MaintenanceTypeOilChange {
		date := in.Date
		_, vehicleEntries, _, err := planVehicleUpdate(&next, in.VehicleID, models.VehiclePatch{LastOilChangeDate: &date})
		if err != nil {
			return nil, err
		}
		entries = append(entries, vehicleEntries...)

		if alerts, removed := withoutAlert(next.maintenanceAlerts, in.VehicleID, models.MaintenanceTypeOilChange); removed {
			next.maintenanceAlerts = alerts
			entry, err := slotEntry(SlotMaintenanceAlerts, alerts)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
	}

	if err := s.persist(ctx, entries...); err != nil {
		s.logger.Error("error adding maintenance log",
			zap.String("vehicleId", in.VehicleID),
			zap.String("type", string(in.Type)),
			zap.Bool("atomic", s.backend.Atomic()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to save maintenance log: %w", err)
	}
	s.commit(next)

	return &log, nil
}

// AddMaintenanceAlert stores an alert, replacing any existing alert for the
// same (vehicle, type) pair.
func (s *Store) AddMaintenanceAlert(ctx context.Context, in models.MaintenanceAlertInput) (*models.MaintenanceAlert, error) {
	var (
		out *models.MaintenanceAlert
		err error
	)
	if serr := s.submit(ctx, func(ctx context.Context) {
		out, err = s.addMaintenanceAlert(ctx, in)
	}); serr != nil {
		return nil, serr
	}
	return out, err
}

func (s *Store) addMaintenanceAlert(ctx context.Context, in models.MaintenanceAlertInput) (*models.MaintenanceAlert, error) {
	alert := models.MaintenanceAlert{
		ID:        s.newID(),
		VehicleID: in.VehicleID,
		Type:      in.Type,
		Message:   in.Message,
		DueDate:   in.DueDate,
		IsRead:    in.IsRead,
		CreatedAt: s.now(),
	}

	alerts, _ := withoutAlert(s.st.maintenanceAlerts, in.VehicleID, in.Type)
	next := s.st
	next.maintenanceAlerts = append(alerts, alert)

	entry, err := slotEntry(SlotMaintenanceAlerts, next.maintenanceAlerts)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, entry); err != nil {
		s.logger.Error("error adding maintenance alert", zap.String("vehicleId", in.VehicleID), zap.Error(err))
		return nil, fmt.Errorf("failed to save maintenance alert: %w", err)
	}
	s.commit(next)

	return &alert, nil
}

// RemoveMaintenanceAlert drops the alert of the (vehicle, type) pair. It is
// idempotent: with no matching alert nothing is written.
func (s *Store) RemoveMaintenanceAlert(ctx context.Context, vehicleID string, t models.MaintenanceType) error {
	return s.submit(ctx, func(ctx context.Context) {
		alerts, removed := withoutAlert(s.st.maintenanceAlerts, vehicleID, t)
		if !removed {
			return
		}

		next := s.st
		next.maintenanceAlerts = alerts
		s.commit(next)

		entry, err := slotEntry(SlotMaintenanceAlerts, alerts)
		if err == nil {
			err = s.persist(ctx, entry)
		}
		if err != nil {
			s.logger.Error("error removing maintenance alert",
				zap.String("vehicleId", vehicleID), zap.String("type", string(t)), zap.Error(err))
		}
	})
}

// MarkAlertAsRead flags one alert as read. Unknown ids return nil.
func (s *Store) MarkAlertAsRead(ctx context.Context, alertID string) (*models.MaintenanceAlert, error) {
	var out *models.MaintenanceAlert
	if err := s.submit(ctx, func(ctx context.Context) {
		idx := -1
		for i := range s.st.maintenanceAlerts {
			if s.st.maintenanceAlerts[i].ID == alertID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}

		alerts := append([]models.MaintenanceAlert{}, s.st.maintenanceAlerts...)
		alerts[idx].IsRead = true
		next := s.st
		next.maintenanceAlerts = alerts
		s.commit(next)

		a := alerts[idx]
		out = &a

		entry, err := slotEntry(SlotMaintenanceAlerts, alerts)
		if err == nil {
			err = s.persist(ctx, entry)
		}
		if err != nil {
			s.logger.Error("error marking alert as read", zap.String("alertId", alertID), zap.Error(err))
		}
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// withoutAlert returns a new slice without the pair's alert.
func withoutAlert(alerts []models.MaintenanceAlert, vehicleID string, t models.MaintenanceType) ([]models.MaintenanceAlert, bool) {
	out := make([]models.MaintenanceAlert, 0, len(alerts))
	removed := false
	for _, a := range alerts {
		if a.Matches(vehicleID, t) {
			removed = true
			continue
		}
		out = append(out, a)
	}
	return out, removed
}
