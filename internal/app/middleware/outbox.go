package middleware

import (
	"context"

	"fleetrent/internal/app/commands"
	"fleetrent/internal/app/outbox"
)

// OutboxFlush drains staged event records once the command succeeded.
// Running inside the Transaction wrapper, the flush shares the command's
// unit of work, so booking events persist or vanish with the booking itself.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := continueCommand(next)
		return dispatchFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
