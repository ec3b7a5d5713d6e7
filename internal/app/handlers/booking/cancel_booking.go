package booking

import (
	"context"
	"errors"
	"time"

	"fleetrent/internal/app/commands"
	"fleetrent/internal/app/outbox"
	"fleetrent/internal/app/uow"
	domainbooking "fleetrent/internal/domain/booking"
	domainmember "fleetrent/internal/domain/member"
)

const cancelBookingKey = "booking.cancel"

var ErrNotBookingOwner = errors.New("booking: not the booking owner")

type CancelBookingCommand struct {
	BookingID string
	// MemberID is the caller; empty means an administrative cancellation.
	MemberID string
	Reason   string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

type CancelBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, ErrUnitOfWorkRequired
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if cmd.MemberID != "" && b.MemberID != domainmember.MemberID(cmd.MemberID) {
		return nil, ErrNotBookingOwner
	}

	now := nowOrDefault(h.Now)
	if err := b.Cancel(cmd.Reason, now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}

	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, encoderOrDefault(h.Encoder), pending); err != nil {
		return nil, err
	}

	return &CancelBookingResult{BookingID: string(b.ID), Status: string(b.Status)}, nil
}

func nowOrDefault(fn func() time.Time) time.Time {
	if fn != nil {
		return fn().UTC()
	}
	return time.Now().UTC()
}

func encoderOrDefault(enc outbox.EventEncoder) outbox.EventEncoder {
	if enc != nil {
		return enc
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
