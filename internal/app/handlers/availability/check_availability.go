package availability

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fleetrent/internal/app/queries"
	"fleetrent/internal/app/support"
	"fleetrent/internal/app/uow"
	domainbooking "fleetrent/internal/domain/booking"
	domainfleet "fleetrent/internal/domain/fleet"
	domaininterval "fleetrent/internal/domain/shared/interval"
)

const checkAvailabilityKey = "availability.check"

type CheckAvailabilityQuery struct {
	VehicleID string
	Pickup    time.Time
	Return    time.Time
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityResult struct {
	VehicleID string `json:"vehicle_id"`
	Available bool   `json:"available"`
}

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

// Handle answers whether the vehicle is free for the requested interval. The
// vehicle's own flag gates everything; otherwise any blocking booking whose
// interval overlaps (inclusive bounds) makes the vehicle unavailable.
//
// Persistence faults are deliberately swallowed: the caller gets "unavailable"
// rather than an error, so an outage can never let a double-booking through.
// An invalid interval is a caller mistake and is still surfaced.
func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (CheckAvailabilityResult, error) {
	result := CheckAvailabilityResult{VehicleID: q.VehicleID}

	iv, err := domaininterval.New(q.Pickup, q.Return)
	if err != nil {
		return result, err
	}

	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		h.logFailure("begin unit", q.VehicleID, err)
		return result, nil
	}
	if cleanup != nil {
		defer cleanup()
	}

	vehicle, err := unit.Fleet().ByID(execCtx, domainfleet.VehicleID(q.VehicleID))
	if err != nil {
		if !errors.Is(err, domainfleet.ErrVehicleNotFound) {
			h.logFailure("load vehicle", q.VehicleID, err)
		}
		return result, nil
	}
	if !vehicle.Available || vehicle.State != domainfleet.VehicleActive {
		return result, nil
	}

	overlapping, err := unit.Bookings().OverlappingExists(execCtx, vehicle.ID, iv, domainbooking.BlockingStatuses())
	if err != nil {
		h.logFailure("overlap query", q.VehicleID, err)
		return result, nil
	}

	result.Available = !overlapping
	return result, nil
}

func (h *CheckAvailabilityHandler) logFailure(stage, vehicleID string, err error) {
	if h.Logger != nil {
		h.Logger.Error("availability check degraded to unavailable", "stage", stage, "vehicle_id", vehicleID, "error", err)
	}
}

var _ queries.Handler[CheckAvailabilityQuery, CheckAvailabilityResult] = (*CheckAvailabilityHandler)(nil)
