package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type unitOfWorkKey struct{}

// ContextInjector is implemented by units whose storage session has to ride
// the context. The Mongo unit binds its session this way so repository calls
// made through the bound context join the booking transaction; the memory
// unit has no session and skips it.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}

// BindContext attaches unit to ctx for the duration of a command or query.
// Session-backed units inject their session first, so the overlap re-check
// and the booking insert observe the same transactional snapshot.
func BindContext(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(ContextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ContextWithUnitOfWork(ctx, unit)
}

// ContextWithUnitOfWork stores unit in ctx without session injection. Most
// callers want BindContext; this exists for tests and for re-carrying a unit
// whose session is already bound.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, unitOfWorkKey{}, unit)
}

// FromContext retrieves the unit of work bound to ctx, if any.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(unitOfWorkKey{}).(UnitOfWork)
	return unit, ok
}
