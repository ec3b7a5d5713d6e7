package middleware

import (
	"context"

	"fleetrent/internal/app/commands"
	"fleetrent/internal/app/uow"
)

// TxOptionsProvider lets callers pick transaction options per command, for
// example marking pure-read commands read-only.
type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// Transaction opens one unit of work per dispatched command and commits it
// only when the handler succeeds. The unit rides the context via
// uow.BindContext, so the handler, the repositories and the outbox record
// all share the same transaction; a failed handler rolls everything back,
// including any booking guard updates already applied.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := continueCommand(next)
		return dispatchFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			unit, err := factory.Begin(ctx, opts)
			if err != nil {
				return nil, err
			}
			execCtx := uow.BindContext(ctx, unit)
			committed := false
			defer func() {
				if !committed {
					_ = unit.Rollback(execCtx)
				}
			}()

			res, err := nextFn(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				return nil, err
			}
			committed = true
			return res, nil
		})
	}
}
