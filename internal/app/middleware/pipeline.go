package middleware

import (
	"context"

	"fleetrent/internal/app/commands"
	"fleetrent/internal/app/queries"
)

// CommandMiddleware wraps the command bus. The wired chain is
// validation -> idempotency -> transaction -> outbox flush, so a replayed
// booking command short-circuits before a transaction is ever opened, and
// recorded events only leave the process after the commit.
type CommandMiddleware func(next commands.Bus) commands.Bus

// QueryMiddleware wraps the query bus the same way.
type QueryMiddleware func(next queries.Bus) queries.Bus

// ChainCommands applies middleware around base, outermost first: the first
// element sees the command before any other.
func ChainCommands(base commands.Bus, chain ...CommandMiddleware) commands.Bus {
	bus := base
	for i := len(chain) - 1; i >= 0; i-- {
		bus = chain[i](bus)
	}
	return bus
}

// ChainQueries applies middleware around base, outermost first.
func ChainQueries(base queries.Bus, chain ...QueryMiddleware) queries.Bus {
	bus := base
	for i := len(chain) - 1; i >= 0; i-- {
		bus = chain[i](bus)
	}
	return bus
}

// dispatchFunc adapts a closure to commands.Bus so each middleware stays a
// single function instead of a struct per concern.
type dispatchFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f dispatchFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

// continueCommand hands the command to the rest of the chain.
func continueCommand(next commands.Bus) dispatchFunc {
	return func(ctx context.Context, cmd commands.Command) (any, error) {
		return next.Dispatch(ctx, cmd)
	}
}

type askFunc func(ctx context.Context, q queries.Query) (any, error)

func (f askFunc) Ask(ctx context.Context, q queries.Query) (any, error) {
	return f(ctx, q)
}

func continueQuery(next queries.Bus) askFunc {
	return func(ctx context.Context, q queries.Query) (any, error) {
		return next.Ask(ctx, q)
	}
}
