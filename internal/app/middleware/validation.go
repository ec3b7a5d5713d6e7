package middleware

import (
	"context"

	"fleetrent/internal/app/commands"
	"fleetrent/internal/app/queries"
)

// SelfValidating is implemented by messages that can check their own shape:
// required IDs, well-formed references. Domain rules (interval ordering,
// blocking statuses, plate normalization) stay in the aggregates; this
// rejects the plainly malformed command before an idempotency record or a
// transaction is created for it.
type SelfValidating interface {
	Validate() error
}

// Validation rejects self-validating commands whose shape check fails.
// Commands that do not implement SelfValidating pass through untouched.
func Validation() CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		nextFn := continueCommand(next)
		return dispatchFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if v, ok := cmd.(SelfValidating); ok {
				if err := v.Validate(); err != nil {
					return nil, err
				}
			}
			return nextFn(ctx, cmd)
		})
	}
}

// QueryValidation is the query-side counterpart.
func QueryValidation() QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		nextFn := continueQuery(next)
		return askFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if v, ok := q.(SelfValidating); ok {
				if err := v.Validate(); err != nil {
					return nil, err
				}
			}
			return nextFn(ctx, q)
		})
	}
}
