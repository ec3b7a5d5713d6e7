package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"fleetrent/internal/app/commands"
	"fleetrent/internal/app/middleware"
	"fleetrent/internal/app/outbox"
	"fleetrent/internal/app/policies"
	"fleetrent/internal/app/uow"
	domainbooking "fleetrent/internal/domain/booking"
	domainfleet "fleetrent/internal/domain/fleet"
	domainmember "fleetrent/internal/domain/member"
	domainpricing "fleetrent/internal/domain/pricing"
	domaininterval "fleetrent/internal/domain/shared/interval"
)

const createBookingKey = "booking.create"

type CreateBookingCommand struct {
	CommandID       string
	VehicleID       string
	MemberID        string
	Pickup          time.Time
	Return          time.Time
	InsuranceTier   string
	IncludeTax      bool
	RedeemPoints    int64
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &CreateBookingResult{} }

// Validate checks the command shape; the interval and the member's points
// are validated in the handler against the clock and the stored member.
func (c CreateBookingCommand) Validate() error {
	if strings.TrimSpace(c.CommandID) == "" {
		return ErrCommandIDRequired
	}
	if strings.TrimSpace(c.VehicleID) == "" {
		return ErrVehicleIDRequired
	}
	if strings.TrimSpace(c.MemberID) == "" {
		return ErrMemberIDRequired
	}
	if c.RedeemPoints < 0 {
		return ErrNegativeRedeem
	}
	return nil
}

type CreateBookingResult struct {
	BookingID string `json:"booking_id"`
	Total     int64  `json:"total_cents"`
	Currency  string `json:"currency"`
}

var (
	ErrUnitOfWorkRequired = errors.New("booking: unit of work required")
	ErrCommandIDRequired  = errors.New("booking: command id required")
	ErrVehicleIDRequired  = errors.New("booking: vehicle id required")
	ErrMemberIDRequired   = errors.New("booking: member id required")
	ErrNegativeRedeem     = errors.New("booking: redeem points must not be negative")
)

type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Estimator  policies.EstimatorPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

// Handle validates the requested interval, prices the rental and inserts the
// booking. The overlap invariant is enforced twice: the vehicle flag check
// here is advisory, the repository Insert is the authoritative check-and-act
// inside the surrounding transaction.
func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		// Same binding the transaction middleware performs: session-backed
		// units must see their session in ctx or the overlap re-check and
		// the insert would run outside the transaction.
		ctx = uow.BindContext(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	iv, err := domaininterval.New(cmd.Pickup, cmd.Return)
	if err != nil {
		return nil, err
	}
	now := h.now()
	if err := domainbooking.ValidateInterval(iv, now); err != nil {
		return nil, err
	}

	vehicle, err := unit.Fleet().ByID(ctx, domainfleet.VehicleID(cmd.VehicleID))
	if err != nil {
		return nil, err
	}
	if !vehicle.Available || vehicle.State != domainfleet.VehicleActive {
		return nil, domainfleet.ErrVehicleUnavailable
	}

	var mem *domainmember.Member
	if cmd.RedeemPoints > 0 {
		mem, err = unit.Members().ByID(ctx, domainmember.MemberID(cmd.MemberID))
		if err != nil {
			return nil, err
		}
		if err := mem.RedeemPoints(cmd.RedeemPoints, now); err != nil {
			return nil, err
		}
	}

	cost, err := h.Estimator.Estimate(ctx, domainpricing.EstimateInput{
		Vehicle:      vehicle,
		Interval:     iv,
		Tier:         domainpricing.InsuranceTier(cmd.InsuranceTier),
		IncludeTax:   cmd.IncludeTax,
		RedeemPoints: cmd.RedeemPoints,
	})
	if err != nil {
		return nil, err
	}

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(cmd.CommandID),
		VehicleID: vehicle.ID,
		MemberID:  domainmember.MemberID(cmd.MemberID),
		Interval:  iv,
		Cost:      cost,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().Insert(ctx, b); err != nil {
		return nil, err
	}
	if mem != nil {
		if err := unit.Members().Save(ctx, mem); err != nil {
			return nil, err
		}
	}

	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &CreateBookingResult{
		BookingID: string(b.ID),
		Total:     b.Cost.Total.Amount,
		Currency:  b.Cost.Total.Currency,
	}, nil
}

func (h *CreateBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CreateBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CreateBookingCommand, *CreateBookingResult] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateBookingCommand)(nil)
