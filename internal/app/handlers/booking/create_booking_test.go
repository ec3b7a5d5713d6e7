package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetrent/internal/app/policies"
	"fleetrent/internal/app/uow"
	domainbooking "fleetrent/internal/domain/booking"
	domainfleet "fleetrent/internal/domain/fleet"
	domainmember "fleetrent/internal/domain/member"
	"fleetrent/internal/domain/pricing"
	domaininterval "fleetrent/internal/domain/shared/interval"
	"fleetrent/internal/domain/shared/money"
	"fleetrent/internal/infra/storage/memory"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	factory  memory.Factory
	vehicles *memory.VehicleRepository
	bookings *memory.BookingRepository
	members  *memory.MemberRepository
	outbox   *memory.Outbox
	handler  *CreateBookingHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		vehicles: memory.NewVehicleRepository(),
		bookings: memory.NewBookingRepository(),
		members:  memory.NewMemberRepository(),
		outbox:   memory.NewOutbox(),
	}
	env.factory = memory.Factory{
		FleetRepo:   env.vehicles,
		BookingRepo: env.bookings,
		MemberRepo:  env.members,
	}
	env.handler = &CreateBookingHandler{
		UoWFactory: env.factory,
		Estimator: policies.StaticEstimator{Engine: pricing.Estimator{
			Rates:           pricing.DefaultRateTable(),
			TaxRateBps:      1800,
			PointValueCents: 100,
			Currency:        "USD",
		}},
		Outbox: env.outbox,
		Now:    func() time.Time { return testNow },
	}
	return env
}

func (env *testEnv) addVehicle(t *testing.T, id string, activate bool) *domainfleet.Vehicle {
	t.Helper()
	v, err := domainfleet.NewVehicle(domainfleet.CreateParams{
		ID:           domainfleet.VehicleID(id),
		Plate:        "TEST " + id,
		Make:         "Toyota",
		Model:        "Yaris",
		Year:         2022,
		Category:     domainfleet.CategoryEconomy,
		Location:     "downtown",
		Fuel:         domainfleet.FuelHybrid,
		Transmission: domainfleet.TransmissionAutomatic,
		Seats:        5,
		DailyRate:    money.Must(18000, "USD"),
		HourlyRate:   money.Must(2000, "USD"),
		Deposit:      money.Must(50000, "USD"),
		Now:          testNow,
	})
	require.NoError(t, err)
	if activate {
		require.NoError(t, v.Activate(testNow))
	}
	v.ClearEvents()
	require.NoError(t, env.vehicles.Save(context.Background(), v))
	return v
}

func (env *testEnv) addMember(t *testing.T, id string, points int64) {
	t.Helper()
	mem, err := domainmember.NewMember(domainmember.CreateParams{
		ID:           domainmember.MemberID(id),
		Email:        id + "@example.com",
		Name:         "Test Member",
		PasswordHash: "x",
		CreatedAt:    testNow,
	})
	require.NoError(t, err)
	mem.LoyaltyPoints = points
	require.NoError(t, env.members.Save(context.Background(), mem))
}

// contextWithUnit opens a unit of work the way the transaction middleware
// would, so handlers that require one can run in tests.
func contextWithUnit(t *testing.T, env *testEnv) context.Context {
	t.Helper()
	unit, err := env.factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	return uow.ContextWithUnitOfWork(context.Background(), unit)
}

func createCmd(vehicleID string) CreateBookingCommand {
	return CreateBookingCommand{
		CommandID:  "bk-test-1",
		VehicleID:  vehicleID,
		MemberID:   "mem-1",
		Pickup:     testNow.AddDate(0, 0, 1),
		Return:     testNow.AddDate(0, 0, 4),
		IncludeTax: true,
	}
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		env := newTestEnv(t)
		env.addVehicle(t, "veh-1", true)

		result, err := env.handler.Handle(ctx, createCmd("veh-1"))
		require.NoError(t, err)
		assert.Equal(t, "bk-test-1", result.BookingID)
		// 3 days at 180.00 plus 18% tax.
		assert.Equal(t, int64(63720), result.Total)
		assert.Equal(t, "USD", result.Currency)

		stored, err := env.bookings.ByID(ctx, "bk-test-1")
		require.NoError(t, err)
		assert.Equal(t, domainbooking.StatusPending, stored.Status)

		records := env.outbox.Pending()
		require.Len(t, records, 1)
		assert.Equal(t, "booking.requested", records[0].Name)
	})

	t.Run("ConflictOnOverlap", func(t *testing.T) {
		env := newTestEnv(t)
		env.addVehicle(t, "veh-1", true)

		_, err := env.handler.Handle(ctx, createCmd("veh-1"))
		require.NoError(t, err)

		second := createCmd("veh-1")
		second.CommandID = "bk-test-2"
		second.Pickup = testNow.AddDate(0, 0, 2)
		second.Return = testNow.AddDate(0, 0, 5)
		_, err = env.handler.Handle(ctx, second)
		assert.ErrorIs(t, err, domainbooking.ErrConflict)
	})

	t.Run("ConflictOnTouchingBoundary", func(t *testing.T) {
		env := newTestEnv(t)
		env.addVehicle(t, "veh-1", true)

		_, err := env.handler.Handle(ctx, createCmd("veh-1"))
		require.NoError(t, err)

		// Pickup at the exact instant the first rental ends.
		second := createCmd("veh-1")
		second.CommandID = "bk-test-2"
		second.Pickup = testNow.AddDate(0, 0, 4)
		second.Return = testNow.AddDate(0, 0, 6)
		_, err = env.handler.Handle(ctx, second)
		assert.ErrorIs(t, err, domainbooking.ErrConflict)
	})

	t.Run("VehicleNotFound", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.handler.Handle(ctx, createCmd("missing"))
		assert.ErrorIs(t, err, domainfleet.ErrVehicleNotFound)
	})

	t.Run("DraftVehicleUnavailable", func(t *testing.T) {
		env := newTestEnv(t)
		env.addVehicle(t, "veh-1", false)
		_, err := env.handler.Handle(ctx, createCmd("veh-1"))
		assert.ErrorIs(t, err, domainfleet.ErrVehicleUnavailable)
	})

	t.Run("FlaggedUnavailable", func(t *testing.T) {
		env := newTestEnv(t)
		v := env.addVehicle(t, "veh-1", true)
		v.SetAvailable(false, testNow)
		require.NoError(t, env.vehicles.Save(ctx, v))

		_, err := env.handler.Handle(ctx, createCmd("veh-1"))
		assert.ErrorIs(t, err, domainfleet.ErrVehicleUnavailable)
	})

	t.Run("InvalidInterval", func(t *testing.T) {
		env := newTestEnv(t)
		env.addVehicle(t, "veh-1", true)

		cmd := createCmd("veh-1")
		cmd.Pickup, cmd.Return = cmd.Return, cmd.Pickup
		_, err := env.handler.Handle(ctx, cmd)
		assert.ErrorIs(t, err, domaininterval.ErrInvalidInterval)
	})

	t.Run("PastPickup", func(t *testing.T) {
		env := newTestEnv(t)
		env.addVehicle(t, "veh-1", true)

		cmd := createCmd("veh-1")
		cmd.Pickup = testNow.Add(-2 * time.Hour)
		cmd.Return = testNow.AddDate(0, 0, 2)
		_, err := env.handler.Handle(ctx, cmd)
		assert.ErrorIs(t, err, domainbooking.ErrPastPickup)
	})

	t.Run("RedeemPointsDiscountsTotal", func(t *testing.T) {
		env := newTestEnv(t)
		env.addVehicle(t, "veh-1", true)
		env.addMember(t, "mem-1", 100)

		cmd := createCmd("veh-1")
		cmd.RedeemPoints = 50
		result, err := env.handler.Handle(ctx, cmd)
		require.NoError(t, err)
		assert.Equal(t, int64(58720), result.Total)

		mem, err := env.members.ByID(ctx, "mem-1")
		require.NoError(t, err)
		assert.Equal(t, int64(50), mem.LoyaltyPoints)
	})

	t.Run("InsufficientPoints", func(t *testing.T) {
		env := newTestEnv(t)
		env.addVehicle(t, "veh-1", true)
		env.addMember(t, "mem-1", 10)

		cmd := createCmd("veh-1")
		cmd.RedeemPoints = 50
		_, err := env.handler.Handle(ctx, cmd)
		assert.ErrorIs(t, err, domainmember.ErrInsufficientPoints)

		mem, err := env.members.ByID(ctx, "mem-1")
		require.NoError(t, err)
		assert.Equal(t, int64(10), mem.LoyaltyPoints, "failed booking must not burn points")
	})
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*testEnv, *CancelBookingHandler) {
		env := newTestEnv(t)
		env.addVehicle(t, "veh-1", true)
		_, err := env.handler.Handle(ctx, createCmd("veh-1"))
		require.NoError(t, err)
		env.outbox.Flush(ctx)

		cancel := &CancelBookingHandler{
			UoWFactory: env.factory,
			Outbox:     env.outbox,
			Now:        func() time.Time { return testNow },
		}
		return env, cancel
	}

	t.Run("OwnerCancels", func(t *testing.T) {
		env, cancel := setup(t)
		execCtx := contextWithUnit(t, env)

		result, err := cancel.Handle(execCtx, CancelBookingCommand{BookingID: "bk-test-1", MemberID: "mem-1"})
		require.NoError(t, err)
		assert.Equal(t, string(domainbooking.StatusCancelled), result.Status)

		records := env.outbox.Pending()
		require.Len(t, records, 1)
		assert.Equal(t, "booking.cancelled", records[0].Name)
	})

	t.Run("StrangerRejected", func(t *testing.T) {
		env, cancel := setup(t)
		execCtx := contextWithUnit(t, env)

		_, err := cancel.Handle(execCtx, CancelBookingCommand{BookingID: "bk-test-1", MemberID: "mem-2"})
		assert.ErrorIs(t, err, ErrNotBookingOwner)
	})

	t.Run("AdminCancelsAnyBooking", func(t *testing.T) {
		env, cancel := setup(t)
		execCtx := contextWithUnit(t, env)

		_, err := cancel.Handle(execCtx, CancelBookingCommand{BookingID: "bk-test-1", Reason: "maintenance"})
		require.NoError(t, err)
	})

	t.Run("CancelledIntervalReleased", func(t *testing.T) {
		env, cancel := setup(t)
		execCtx := contextWithUnit(t, env)

		_, err := cancel.Handle(execCtx, CancelBookingCommand{BookingID: "bk-test-1", MemberID: "mem-1"})
		require.NoError(t, err)

		retry := createCmd("veh-1")
		retry.CommandID = "bk-test-2"
		_, err = env.handler.Handle(ctx, retry)
		require.NoError(t, err)
	})
}

func TestTransitions(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*testEnv, *TransitionHandler, context.Context) {
		env := newTestEnv(t)
		env.addVehicle(t, "veh-1", true)
		env.addMember(t, "mem-1", 0)
		_, err := env.handler.Handle(ctx, createCmd("veh-1"))
		require.NoError(t, err)
		env.outbox.Flush(ctx)

		th := &TransitionHandler{
			UoWFactory: env.factory,
			Outbox:     env.outbox,
			Now:        func() time.Time { return testNow },
		}
		return env, th, contextWithUnit(t, env)
	}

	t.Run("FullLifecycleAwardsPoints", func(t *testing.T) {
		env, th, execCtx := setup(t)

		_, err := th.Confirm(execCtx, ConfirmBookingCommand{BookingID: "bk-test-1"})
		require.NoError(t, err)
		_, err = th.Pickup(execCtx, PickupCommand{BookingID: "bk-test-1"})
		require.NoError(t, err)
		result, err := th.Return(execCtx, ReturnCommand{BookingID: "bk-test-1"})
		require.NoError(t, err)
		assert.Equal(t, string(domainbooking.StatusCompleted), result.Status)

		// One point per whole currency unit of the 637.20 total.
		mem, err := env.members.ByID(ctx, "mem-1")
		require.NoError(t, err)
		assert.Equal(t, int64(637), mem.LoyaltyPoints)
	})

	t.Run("NoShowFromConfirmed", func(t *testing.T) {
		_, th, execCtx := setup(t)

		_, err := th.Confirm(execCtx, ConfirmBookingCommand{BookingID: "bk-test-1"})
		require.NoError(t, err)
		result, err := th.MarkNoShow(execCtx, MarkNoShowCommand{BookingID: "bk-test-1"})
		require.NoError(t, err)
		assert.Equal(t, string(domainbooking.StatusNoShow), result.Status)
	})

	t.Run("InvalidTransition", func(t *testing.T) {
		_, th, execCtx := setup(t)

		_, err := th.Pickup(execCtx, PickupCommand{BookingID: "bk-test-1"})
		assert.ErrorIs(t, err, domainbooking.ErrInvalidState)
	})

	t.Run("UnknownBooking", func(t *testing.T) {
		_, th, execCtx := setup(t)

		_, err := th.Confirm(execCtx, ConfirmBookingCommand{BookingID: "missing"})
		assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	})
}

// sessionBindingFactory wraps the memory factory with units that demand
// context injection, the way the Mongo unit carries its session.
type sessionBindingFactory struct {
	inner    memory.Factory
	injected *bool
}

func (f sessionBindingFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := f.inner.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return sessionBindingUnit{UnitOfWork: unit, injected: f.injected}, nil
}

type sessionBindingUnit struct {
	uow.UnitOfWork
	injected *bool
}

func (u sessionBindingUnit) InjectContext(ctx context.Context) context.Context {
	*u.injected = true
	return ctx
}

func TestCreateBookingSelfManagedUnit(t *testing.T) {
	env := newTestEnv(t)
	env.addVehicle(t, "veh-1", true)
	injected := false
	env.handler.UoWFactory = sessionBindingFactory{inner: env.factory, injected: &injected}

	result, err := env.handler.Handle(context.Background(), createCmd("veh-1"))
	require.NoError(t, err)
	assert.True(t, injected, "self-managed unit must bind its session before repository calls")

	stored, err := env.bookings.ByID(context.Background(), domainbooking.BookingID(result.BookingID))
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, stored.Status)
}

func TestCreateBookingCommandValidate(t *testing.T) {
	base := createCmd("veh-1")

	t.Run("WellFormed", func(t *testing.T) {
		assert.NoError(t, base.Validate())
	})

	t.Run("MissingCommandID", func(t *testing.T) {
		cmd := base
		cmd.CommandID = "  "
		assert.ErrorIs(t, cmd.Validate(), ErrCommandIDRequired)
	})

	t.Run("MissingVehicleID", func(t *testing.T) {
		cmd := base
		cmd.VehicleID = ""
		assert.ErrorIs(t, cmd.Validate(), ErrVehicleIDRequired)
	})

	t.Run("MissingMemberID", func(t *testing.T) {
		cmd := base
		cmd.MemberID = ""
		assert.ErrorIs(t, cmd.Validate(), ErrMemberIDRequired)
	})

	t.Run("NegativeRedeem", func(t *testing.T) {
		cmd := base
		cmd.RedeemPoints = -1
		assert.ErrorIs(t, cmd.Validate(), ErrNegativeRedeem)
	})
}
