package fleet

import (
	"context"
	"time"

	"fleetrent/internal/app/queries"
	"fleetrent/internal/app/support"
	"fleetrent/internal/app/uow"
	domainfleet "fleetrent/internal/domain/fleet"
)

const getVehicleKey = "fleet.get"

type GetVehicleQuery struct {
	VehicleID string
}

func (q GetVehicleQuery) Key() string { return getVehicleKey }

type VehicleDetails struct {
	VehicleSummary
	Plate      string    `json:"plate"`
	HourlyRate int64     `json:"hourly_rate_cents"`
	State      string    `json:"state"`
	Available  bool      `json:"available"`
	Photos     []string  `json:"photos"`
	Mileage    int64     `json:"mileage"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type GetVehicleHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetVehicleHandler) Handle(ctx context.Context, q GetVehicleQuery) (*VehicleDetails, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	vehicle, err := unit.Fleet().ByID(execCtx, domainfleet.VehicleID(q.VehicleID))
	if err != nil {
		return nil, err
	}
	return &VehicleDetails{
		VehicleSummary: summarize(vehicle),
		Plate:          vehicle.Plate,
		HourlyRate:     vehicle.HourlyRate.Amount,
		State:          string(vehicle.State),
		Available:      vehicle.Available,
		Photos:         append([]string(nil), vehicle.Photos...),
		Mileage:        vehicle.Mileage,
		CreatedAt:      vehicle.CreatedAt,
		UpdatedAt:      vehicle.UpdatedAt,
	}, nil
}

var _ queries.Handler[GetVehicleQuery, *VehicleDetails] = (*GetVehicleHandler)(nil)
