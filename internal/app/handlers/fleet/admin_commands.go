package fleet

import (
	"context"
	"errors"
	"time"

	"fleetrent/internal/app/commands"
	"fleetrent/internal/app/outbox"
	"fleetrent/internal/app/uow"
	domainfleet "fleetrent/internal/domain/fleet"
	"fleetrent/internal/domain/shared/money"
)

const (
	registerVehicleKey = "fleet.register"
	updateVehicleKey   = "fleet.update"
	retireVehicleKey   = "fleet.retire"
)

var ErrUnitOfWorkRequired = errors.New("fleet: unit of work required")

type RegisterVehicleCommand struct {
	CommandID    string
	Plate        string
	Make         string
	Model        string
	Year         int
	Category     string
	Location     string
	Fuel         string
	Transmission string
	Seats        int
	DailyRate    int64
	HourlyRate   int64
	Deposit      int64
	Currency     string
	Mileage      int64
	Photos       []string
	// Activate publishes the vehicle immediately instead of leaving it in draft.
	Activate bool
}

func (c RegisterVehicleCommand) Key() string { return registerVehicleKey }

type RegisterVehicleResult struct {
	VehicleID string `json:"vehicle_id"`
	State     string `json:"state"`
}

type UpdateVehicleCommand struct {
	VehicleID  string
	DailyRate  *int64
	HourlyRate *int64
	Deposit    *int64
	Currency   string
	Available  *bool
	Location   *string
	Mileage    *int64
	// AddPhoto appends an already-uploaded photo URL.
	AddPhoto *string
}

func (c UpdateVehicleCommand) Key() string { return updateVehicleKey }

type RetireVehicleCommand struct {
	VehicleID string
}

func (c RetireVehicleCommand) Key() string { return retireVehicleKey }

type VehicleStateResult struct {
	VehicleID string `json:"vehicle_id"`
	State     string `json:"state"`
	Available bool   `json:"available"`
}

// AdminHandler owns the operator-facing fleet commands. All of them run inside
// the transaction middleware and publish lifecycle events through the outbox.
type AdminHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *AdminHandler) Register(ctx context.Context, cmd RegisterVehicleCommand) (*RegisterVehicleResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, ErrUnitOfWorkRequired
	}
	currency := currencyOrDefault(cmd.Currency)
	daily, err := money.New(cmd.DailyRate, currency)
	if err != nil {
		return nil, err
	}
	hourly, err := money.New(cmd.HourlyRate, currency)
	if err != nil {
		return nil, err
	}
	deposit, err := money.New(cmd.Deposit, currency)
	if err != nil {
		return nil, err
	}

	now := h.now()
	vehicle, err := domainfleet.NewVehicle(domainfleet.CreateParams{
		ID:           domainfleet.VehicleID(cmd.CommandID),
		Plate:        cmd.Plate,
		Make:         cmd.Make,
		Model:        cmd.Model,
		Year:         cmd.Year,
		Category:     domainfleet.Category(cmd.Category),
		Location:     cmd.Location,
		Fuel:         domainfleet.FuelType(cmd.Fuel),
		Transmission: domainfleet.Transmission(cmd.Transmission),
		Seats:        cmd.Seats,
		DailyRate:    daily,
		HourlyRate:   hourly,
		Deposit:      deposit,
		Mileage:      cmd.Mileage,
		Photos:       cmd.Photos,
		Now:          now,
	})
	if err != nil {
		return nil, err
	}
	if cmd.Activate {
		if err := vehicle.Activate(now); err != nil {
			return nil, err
		}
	}
	if err := unit.Fleet().Save(ctx, vehicle); err != nil {
		return nil, err
	}
	if err := h.recordEvents(ctx, vehicle); err != nil {
		return nil, err
	}
	return &RegisterVehicleResult{VehicleID: string(vehicle.ID), State: string(vehicle.State)}, nil
}

func (h *AdminHandler) Update(ctx context.Context, cmd UpdateVehicleCommand) (*VehicleStateResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, ErrUnitOfWorkRequired
	}
	vehicle, err := unit.Fleet().ByID(ctx, domainfleet.VehicleID(cmd.VehicleID))
	if err != nil {
		return nil, err
	}
	now := h.now()

	if cmd.DailyRate != nil || cmd.HourlyRate != nil || cmd.Deposit != nil {
		currency := cmd.Currency
		if currency == "" {
			currency = vehicle.DailyRate.Currency
		}
		daily := pickRate(cmd.DailyRate, vehicle.DailyRate, currency)
		hourly := pickRate(cmd.HourlyRate, vehicle.HourlyRate, currency)
		deposit := pickRate(cmd.Deposit, vehicle.Deposit, currency)
		if err := vehicle.UpdateRates(daily, hourly, deposit, now); err != nil {
			return nil, err
		}
	}
	if cmd.Available != nil {
		vehicle.SetAvailable(*cmd.Available, now)
	}
	if cmd.Location != nil {
		vehicle.Location = *cmd.Location
		vehicle.UpdatedAt = now
	}
	if cmd.Mileage != nil {
		vehicle.Mileage = *cmd.Mileage
		vehicle.UpdatedAt = now
	}
	if cmd.AddPhoto != nil {
		vehicle.AddPhoto(*cmd.AddPhoto, now)
	}

	if err := unit.Fleet().Save(ctx, vehicle); err != nil {
		return nil, err
	}
	if err := h.recordEvents(ctx, vehicle); err != nil {
		return nil, err
	}
	return stateResult(vehicle), nil
}

func (h *AdminHandler) Retire(ctx context.Context, cmd RetireVehicleCommand) (*VehicleStateResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, ErrUnitOfWorkRequired
	}
	vehicle, err := unit.Fleet().ByID(ctx, domainfleet.VehicleID(cmd.VehicleID))
	if err != nil {
		return nil, err
	}
	if err := vehicle.Retire(h.now()); err != nil {
		return nil, err
	}
	if err := unit.Fleet().Save(ctx, vehicle); err != nil {
		return nil, err
	}
	if err := h.recordEvents(ctx, vehicle); err != nil {
		return nil, err
	}
	return stateResult(vehicle), nil
}

func (h *AdminHandler) recordEvents(ctx context.Context, vehicle *domainfleet.Vehicle) error {
	pending := vehicle.PendingEvents()
	vehicle.ClearEvents()
	enc := h.Encoder
	if enc == nil {
		enc = outbox.JSONEventEncoder{}
	}
	return outbox.RecordDomainEvents(ctx, h.Outbox, enc, pending)
}

func (h *AdminHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func pickRate(override *int64, current money.Money, currency string) money.Money {
	if override == nil {
		return current
	}
	return money.Money{Amount: *override, Currency: currency}
}

func stateResult(v *domainfleet.Vehicle) *VehicleStateResult {
	return &VehicleStateResult{VehicleID: string(v.ID), State: string(v.State), Available: v.Available}
}

func currencyOrDefault(currency string) string {
	if currency == "" {
		return "USD"
	}
	return currency
}

// Typed adapters for bus registration.

func (h *AdminHandler) RegisterHandler() commands.Handler[RegisterVehicleCommand, *RegisterVehicleResult] {
	return commands.HandlerFunc[RegisterVehicleCommand, *RegisterVehicleResult](h.Register)
}

func (h *AdminHandler) UpdateHandler() commands.Handler[UpdateVehicleCommand, *VehicleStateResult] {
	return commands.HandlerFunc[UpdateVehicleCommand, *VehicleStateResult](h.Update)
}

func (h *AdminHandler) RetireHandler() commands.Handler[RetireVehicleCommand, *VehicleStateResult] {
	return commands.HandlerFunc[RetireVehicleCommand, *VehicleStateResult](h.Retire)
}
