package booking

import (
	"context"
	"errors"
	"time"

	"fleetrent/internal/domain/fleet"
	"fleetrent/internal/domain/member"
	"fleetrent/internal/domain/pricing"
	"fleetrent/internal/domain/shared/events"
	"fleetrent/internal/domain/shared/interval"
)

var (
	ErrBookingNotFound = errors.New("booking: not found")
	ErrInvalidState    = errors.New("booking: invalid state transition")
	ErrMemberRequired  = errors.New("booking: member id required")
	// ErrConflict is returned by repositories when an insert would overlap an
	// existing blocking booking for the same vehicle. It is the commit-time
	// backstop behind the advisory availability check.
	ErrConflict = errors.New("booking: overlapping booking exists")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusNoShow    Status = "NO_SHOW"
)

// BlockingStatuses are the states that make a booking count against vehicle
// availability. Cancelled, Completed and NoShow bookings release the interval.
func BlockingStatuses() []Status {
	return []Status{StatusPending, StatusConfirmed, StatusActive}
}

// Blocks reports whether a booking in this status reserves its interval.
func (s Status) Blocks() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusActive:
		return true
	}
	return false
}

type Booking struct {
	ID        BookingID
	VehicleID fleet.VehicleID
	MemberID  member.MemberID
	Interval  interval.Interval
	Status    Status
	Cost      pricing.CostBreakdown
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// Insert atomically verifies the overlap invariant and stores the booking.
	// Implementations must hold the check and the write in one critical
	// section or transaction and return ErrConflict on violation.
	Insert(ctx context.Context, booking *Booking) error
	Save(ctx context.Context, booking *Booking) error
	ListByMember(ctx context.Context, memberID member.MemberID) ([]*Booking, error)
	ListByVehicle(ctx context.Context, vehicleID fleet.VehicleID, statuses []Status) ([]*Booking, error)
	// OverlappingExists answers the advisory availability question without
	// taking any lock; the authoritative check happens in Insert.
	OverlappingExists(ctx context.Context, vehicleID fleet.VehicleID, iv interval.Interval, statuses []Status) (bool, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
	// Revenue sums booking totals in the given statuses, keyed by currency.
	Revenue(ctx context.Context, statuses []Status) (map[string]int64, error)
}

type CreateParams struct {
	ID        BookingID
	VehicleID fleet.VehicleID
	MemberID  member.MemberID
	Interval  interval.Interval
	Cost      pricing.CostBreakdown
	CreatedAt time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if params.MemberID == "" {
		return nil, ErrMemberRequired
	}
	if err := params.Interval.Validate(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:        params.ID,
		VehicleID: params.VehicleID,
		MemberID:  params.MemberID,
		Interval:  params.Interval,
		Cost:      params.Cost,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Record(BookingRequested{BookingID: b.ID, VehicleID: b.VehicleID, MemberID: b.MemberID, Interval: b.Interval, Total: b.Cost.Total, At: now})
	return b, nil
}

func (b *Booking) Confirm(now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.Status = StatusConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, VehicleID: b.VehicleID, Interval: b.Interval, Total: b.Cost.Total, At: b.UpdatedAt})
	return nil
}

// Pickup marks the rental as started.
func (b *Booking) Pickup(now time.Time) error {
	if b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	b.Status = StatusActive
	b.UpdatedAt = now.UTC()
	b.Record(VehiclePickedUp{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

// Return completes an active rental.
func (b *Booking) Return(now time.Time) error {
	if b.Status != StatusActive {
		return ErrInvalidState
	}
	b.Status = StatusCompleted
	b.UpdatedAt = now.UTC()
	b.Record(VehicleReturned{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

// Cancel releases the interval. Bookings are never deleted, only transitioned.
func (b *Booking) Cancel(reason string, now time.Time) error {
	switch b.Status {
	case StatusPending, StatusConfirmed:
	default:
		return ErrInvalidState
	}
	b.Status = StatusCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, VehicleID: b.VehicleID, Reason: reason, At: b.UpdatedAt})
	return nil
}

func (b *Booking) MarkNoShow(now time.Time) error {
	if b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	b.Status = StatusNoShow
	b.UpdatedAt = now.UTC()
	b.Record(NoShowRecorded{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}
