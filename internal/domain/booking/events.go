package booking

import (
	"time"

	"fleetrent/internal/domain/fleet"
	"fleetrent/internal/domain/member"
	"fleetrent/internal/domain/shared/interval"
	"fleetrent/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID BookingID
	VehicleID fleet.VehicleID
	MemberID  member.MemberID
	Interval  interval.Interval
	Total     money.Money
	At        time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID BookingID
	VehicleID fleet.VehicleID
	Interval  interval.Interval
	Total     money.Money
	At        time.Time
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID
	VehicleID fleet.VehicleID
	Reason    string
	At        time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type VehiclePickedUp struct {
	BookingID BookingID
	At        time.Time
}

func (e VehiclePickedUp) EventName() string     { return "booking.picked_up" }
func (e VehiclePickedUp) AggregateID() string   { return string(e.BookingID) }
func (e VehiclePickedUp) OccurredAt() time.Time { return e.At }

type VehicleReturned struct {
	BookingID BookingID
	At        time.Time
}

func (e VehicleReturned) EventName() string     { return "booking.returned" }
func (e VehicleReturned) AggregateID() string   { return string(e.BookingID) }
func (e VehicleReturned) OccurredAt() time.Time { return e.At }

type NoShowRecorded struct {
	BookingID BookingID
	At        time.Time
}

func (e NoShowRecorded) EventName() string     { return "booking.no_show" }
func (e NoShowRecorded) AggregateID() string   { return string(e.BookingID) }
func (e NoShowRecorded) OccurredAt() time.Time { return e.At }
