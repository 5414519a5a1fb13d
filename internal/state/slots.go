package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ridecare-backend/pkg/storage"
)

// Slot names of the durable store, in load order.
const (
	SlotUser              = "user"
	SlotVehicles          = "vehicles"
	SlotRides             = "rides"
	SlotMaintenanceLogs   = "maintenanceLogs"
	SlotMaintenanceAlerts = "maintenanceAlerts"
	SlotTheme             = "theme"
	SlotCurrentVehicle    = "currentVehicle"
)

var Slots = []string{
	SlotUser,
	SlotVehicles,
	SlotRides,
	SlotMaintenanceLogs,
	SlotMaintenanceAlerts,
	SlotTheme,
	SlotCurrentVehicle,
}

var errTrailingData = errors.New("unexpected data after JSON value")

// decodeSlot parses raw strictly: unknown fields and trailing data are errors.
func decodeSlot(raw string, dst interface{}) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingData
	}
	return nil
}

func slotEntry(slot string, v interface{}) (storage.Entry, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return storage.Entry{}, fmt.Errorf("failed to encode slot %s: %w", slot, err)
	}
	return storage.Entry{Key: slot, Value: string(data)}, nil
}
