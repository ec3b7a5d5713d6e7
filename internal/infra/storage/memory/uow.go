package memory

import (
	"context"
	"errors"

	"fleetrent/internal/app/uow"
	domainbooking "fleetrent/internal/domain/booking"
	domainfleet "fleetrent/internal/domain/fleet"
	domainmember "fleetrent/internal/domain/member"
)

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	FleetRepo   domainfleet.Repository
	BookingRepo domainbooking.Repository
	MemberRepo  domainmember.Repository
}

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports; the booking repository
// still guarantees atomic inserts on its own lock.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.FleetRepo == nil || f.BookingRepo == nil || f.MemberRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		fleet:    f.FleetRepo,
		bookings: f.BookingRepo,
		members:  f.MemberRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	fleet    domainfleet.Repository
	bookings domainbooking.Repository
	members  domainmember.Repository
}

func (u *Unit) Fleet() domainfleet.Repository { return u.fleet }

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Members() domainmember.Repository { return u.members }

func (u *Unit) Commit(ctx context.Context) error { return nil }

func (u *Unit) Rollback(ctx context.Context) error { return nil }

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
