package booking

import (
	"context"
	"time"

	"fleetrent/internal/app/commands"
	"fleetrent/internal/app/outbox"
	"fleetrent/internal/app/uow"
	domainbooking "fleetrent/internal/domain/booking"
)

const (
	confirmBookingKey = "booking.confirm"
	pickupBookingKey  = "booking.pickup"
	returnBookingKey  = "booking.return"
	noShowBookingKey  = "booking.no_show"
)

// loyaltyAwardDivisor converts spend into points: one point per whole
// currency unit of the rental total.
const loyaltyAwardDivisor = 100

type ConfirmBookingCommand struct {
	BookingID string
}

func (c ConfirmBookingCommand) Key() string { return confirmBookingKey }

type PickupCommand struct {
	BookingID string
}

func (c PickupCommand) Key() string { return pickupBookingKey }

type ReturnCommand struct {
	BookingID string
}

func (c ReturnCommand) Key() string { return returnBookingKey }

type MarkNoShowCommand struct {
	BookingID string
}

func (c MarkNoShowCommand) Key() string { return noShowBookingKey }

type TransitionResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// TransitionHandler applies the post-creation lifecycle transitions. Each
// command maps to exactly one aggregate method; the repository Save carries
// the optimistic version check.
type TransitionHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *TransitionHandler) Confirm(ctx context.Context, cmd ConfirmBookingCommand) (*TransitionResult, error) {
	return h.apply(ctx, cmd.BookingID, func(b *domainbooking.Booking, now time.Time) error {
		return b.Confirm(now)
	}, nil)
}

func (h *TransitionHandler) Pickup(ctx context.Context, cmd PickupCommand) (*TransitionResult, error) {
	return h.apply(ctx, cmd.BookingID, func(b *domainbooking.Booking, now time.Time) error {
		return b.Pickup(now)
	}, nil)
}

// Return completes the rental and credits loyalty points to the member.
func (h *TransitionHandler) Return(ctx context.Context, cmd ReturnCommand) (*TransitionResult, error) {
	award := func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, now time.Time) error {
		mem, err := unit.Members().ByID(ctx, b.MemberID)
		if err != nil {
			// Loyalty is best effort; a missing profile must not block a return.
			return nil
		}
		mem.AwardPoints(b.Cost.Total.Amount/loyaltyAwardDivisor, now)
		return unit.Members().Save(ctx, mem)
	}
	return h.apply(ctx, cmd.BookingID, func(b *domainbooking.Booking, now time.Time) error {
		return b.Return(now)
	}, award)
}

func (h *TransitionHandler) MarkNoShow(ctx context.Context, cmd MarkNoShowCommand) (*TransitionResult, error) {
	return h.apply(ctx, cmd.BookingID, func(b *domainbooking.Booking, now time.Time) error {
		return b.MarkNoShow(now)
	}, nil)
}

type followUp func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, now time.Time) error

func (h *TransitionHandler) apply(ctx context.Context, id string, transition func(*domainbooking.Booking, time.Time) error, after followUp) (*TransitionResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, ErrUnitOfWorkRequired
	}
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(id))
	if err != nil {
		return nil, err
	}
	now := nowOrDefault(h.Now)
	if err := transition(b, now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if after != nil {
		if err := after(ctx, unit, b, now); err != nil {
			return nil, err
		}
	}
	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, encoderOrDefault(h.Encoder), pending); err != nil {
		return nil, err
	}
	return &TransitionResult{BookingID: string(b.ID), Status: string(b.Status)}, nil
}

// Typed adapters for bus registration.

func (h *TransitionHandler) ConfirmHandler() commands.Handler[ConfirmBookingCommand, *TransitionResult] {
	return commands.HandlerFunc[ConfirmBookingCommand, *TransitionResult](h.Confirm)
}

func (h *TransitionHandler) PickupHandler() commands.Handler[PickupCommand, *TransitionResult] {
	return commands.HandlerFunc[PickupCommand, *TransitionResult](h.Pickup)
}

func (h *TransitionHandler) ReturnHandler() commands.Handler[ReturnCommand, *TransitionResult] {
	return commands.HandlerFunc[ReturnCommand, *TransitionResult](h.Return)
}

func (h *TransitionHandler) NoShowHandler() commands.Handler[MarkNoShowCommand, *TransitionResult] {
	return commands.HandlerFunc[MarkNoShowCommand, *TransitionResult](h.MarkNoShow)
}
