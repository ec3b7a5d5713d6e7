package me

import (
	"context"
	"time"

	"fleetrent/internal/app/queries"
	"fleetrent/internal/app/support"
	"fleetrent/internal/app/uow"
	domainmember "fleetrent/internal/domain/member"
)

const memberBookingsKey = "me.bookings"

type MemberBookingsQuery struct {
	MemberID string
	// Status filters to one lifecycle state; empty returns everything.
	Status string
}

func (q MemberBookingsQuery) Key() string { return memberBookingsKey }

type BookingView struct {
	BookingID string    `json:"booking_id"`
	VehicleID string    `json:"vehicle_id"`
	Pickup    time.Time `json:"pickup"`
	Return    time.Time `json:"return"`
	Status    string    `json:"status"`
	Days      int       `json:"days"`
	Total     int64     `json:"total_cents"`
	Deposit   int64     `json:"deposit_cents"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

type MemberBookingsResult struct {
	Items  []BookingView `json:"items"`
	Points int64         `json:"loyalty_points"`
}

type MemberBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *MemberBookingsHandler) Handle(ctx context.Context, q MemberBookingsQuery) (MemberBookingsResult, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return MemberBookingsResult{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	mem, err := unit.Members().ByID(execCtx, domainmember.MemberID(q.MemberID))
	if err != nil {
		return MemberBookingsResult{}, err
	}

	bookings, err := unit.Bookings().ListByMember(execCtx, mem.ID)
	if err != nil {
		return MemberBookingsResult{}, err
	}

	items := make([]BookingView, 0, len(bookings))
	for _, b := range bookings {
		if q.Status != "" && string(b.Status) != q.Status {
			continue
		}
		items = append(items, BookingView{
			BookingID: string(b.ID),
			VehicleID: string(b.VehicleID),
			Pickup:    b.Interval.Start,
			Return:    b.Interval.End,
			Status:    string(b.Status),
			Days:      b.Cost.Days,
			Total:     b.Cost.Total.Amount,
			Deposit:   b.Cost.Deposit.Amount,
			Currency:  b.Cost.Total.Currency,
			CreatedAt: b.CreatedAt,
		})
	}
	return MemberBookingsResult{Items: items, Points: mem.LoyaltyPoints}, nil
}

var _ queries.Handler[MemberBookingsQuery, MemberBookingsResult] = (*MemberBookingsHandler)(nil)
