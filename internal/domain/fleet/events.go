package fleet

import "time"

type VehicleRegistered struct {
	VehicleID VehicleID
	Plate     string
	At        time.Time
}

func (e VehicleRegistered) EventName() string     { return "fleet.vehicle_registered" }
func (e VehicleRegistered) AggregateID() string   { return string(e.VehicleID) }
func (e VehicleRegistered) OccurredAt() time.Time { return e.At }

type VehicleActivated struct {
	VehicleID VehicleID
	At        time.Time
}

func (e VehicleActivated) EventName() string     { return "fleet.vehicle_activated" }
func (e VehicleActivated) AggregateID() string   { return string(e.VehicleID) }
func (e VehicleActivated) OccurredAt() time.Time { return e.At }

type VehicleRetiredEvent struct {
	VehicleID VehicleID
	At        time.Time
}

func (e VehicleRetiredEvent) EventName() string     { return "fleet.vehicle_retired" }
func (e VehicleRetiredEvent) AggregateID() string   { return string(e.VehicleID) }
func (e VehicleRetiredEvent) OccurredAt() time.Time { return e.At }
