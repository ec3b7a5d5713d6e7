package uow

import (
	"context"

	domainbooking "fleetrent/internal/domain/booking"
	domainfleet "fleetrent/internal/domain/fleet"
	domainmember "fleetrent/internal/domain/member"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Fleet() domainfleet.Repository
	Bookings() domainbooking.Repository
	Members() domainmember.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
