package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetrent/internal/app/uow"
	domainbooking "fleetrent/internal/domain/booking"
	domainfleet "fleetrent/internal/domain/fleet"
	domainmember "fleetrent/internal/domain/member"
	domaininterval "fleetrent/internal/domain/shared/interval"
	"fleetrent/internal/domain/shared/money"
	"fleetrent/internal/infra/storage/memory"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2026, 9, d, 10, 0, 0, 0, time.UTC)
}

func newFixtures(t *testing.T) (memory.Factory, *memory.VehicleRepository, *memory.BookingRepository) {
	t.Helper()
	vehicles := memory.NewVehicleRepository()
	bookings := memory.NewBookingRepository()
	factory := memory.Factory{
		FleetRepo:   vehicles,
		BookingRepo: bookings,
		MemberRepo:  memory.NewMemberRepository(),
	}
	return factory, vehicles, bookings
}

func addVehicle(t *testing.T, repo *memory.VehicleRepository, id string, activate, available bool) {
	t.Helper()
	v, err := domainfleet.NewVehicle(domainfleet.CreateParams{
		ID:           domainfleet.VehicleID(id),
		Plate:        "TEST " + id,
		Make:         "Kia",
		Model:        "Sportage",
		Year:         2023,
		Category:     domainfleet.CategorySUV,
		Location:     "downtown",
		Fuel:         domainfleet.FuelDiesel,
		Transmission: domainfleet.TransmissionAutomatic,
		Seats:        5,
		DailyRate:    money.Must(8200, "USD"),
		HourlyRate:   money.Must(1500, "USD"),
		Deposit:      money.Must(40000, "USD"),
		Now:          testNow,
	})
	require.NoError(t, err)
	if activate {
		require.NoError(t, v.Activate(testNow))
	}
	if !available {
		v.SetAvailable(false, testNow)
	}
	v.ClearEvents()
	require.NoError(t, repo.Save(context.Background(), v))
}

func addBooking(t *testing.T, repo *memory.BookingRepository, id, vehicleID string, startDay, endDay int) *domainbooking.Booking {
	t.Helper()
	iv, err := domaininterval.New(day(startDay), day(endDay))
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(id),
		VehicleID: domainfleet.VehicleID(vehicleID),
		MemberID:  domainmember.MemberID("mem-1"),
		Interval:  iv,
		CreatedAt: testNow,
	})
	require.NoError(t, err)
	b.ClearEvents()
	require.NoError(t, repo.Insert(context.Background(), b))
	return b
}

func TestCheckAvailability(t *testing.T) {
	ctx := context.Background()

	t.Run("FreeVehicleAvailable", func(t *testing.T) {
		factory, vehicles, _ := newFixtures(t)
		addVehicle(t, vehicles, "veh-1", true, true)
		h := &CheckAvailabilityHandler{UoWFactory: factory}

		result, err := h.Handle(ctx, CheckAvailabilityQuery{VehicleID: "veh-1", Pickup: day(10), Return: day(12)})
		require.NoError(t, err)
		assert.True(t, result.Available)
	})

	t.Run("OverlapBlocks", func(t *testing.T) {
		factory, vehicles, bookings := newFixtures(t)
		addVehicle(t, vehicles, "veh-1", true, true)
		addBooking(t, bookings, "bk-1", "veh-1", 10, 12)
		h := &CheckAvailabilityHandler{UoWFactory: factory}

		result, err := h.Handle(ctx, CheckAvailabilityQuery{VehicleID: "veh-1", Pickup: day(11), Return: day(13)})
		require.NoError(t, err)
		assert.False(t, result.Available)
	})

	t.Run("TouchingBoundaryBlocks", func(t *testing.T) {
		factory, vehicles, bookings := newFixtures(t)
		addVehicle(t, vehicles, "veh-1", true, true)
		addBooking(t, bookings, "bk-1", "veh-1", 10, 12)
		h := &CheckAvailabilityHandler{UoWFactory: factory}

		result, err := h.Handle(ctx, CheckAvailabilityQuery{VehicleID: "veh-1", Pickup: day(12), Return: day(14)})
		require.NoError(t, err)
		assert.False(t, result.Available)
	})

	t.Run("CancelledBookingDoesNotBlock", func(t *testing.T) {
		factory, vehicles, bookings := newFixtures(t)
		addVehicle(t, vehicles, "veh-1", true, true)
		b := addBooking(t, bookings, "bk-1", "veh-1", 10, 12)
		require.NoError(t, b.Cancel("", testNow))
		b.ClearEvents()
		require.NoError(t, bookings.Save(ctx, b))
		h := &CheckAvailabilityHandler{UoWFactory: factory}

		result, err := h.Handle(ctx, CheckAvailabilityQuery{VehicleID: "veh-1", Pickup: day(10), Return: day(12)})
		require.NoError(t, err)
		assert.True(t, result.Available)
	})

	t.Run("FlaggedUnavailable", func(t *testing.T) {
		factory, vehicles, _ := newFixtures(t)
		addVehicle(t, vehicles, "veh-1", true, false)
		h := &CheckAvailabilityHandler{UoWFactory: factory}

		result, err := h.Handle(ctx, CheckAvailabilityQuery{VehicleID: "veh-1", Pickup: day(10), Return: day(12)})
		require.NoError(t, err)
		assert.False(t, result.Available)
	})

	t.Run("DraftVehicleUnavailable", func(t *testing.T) {
		factory, vehicles, _ := newFixtures(t)
		addVehicle(t, vehicles, "veh-1", false, true)
		h := &CheckAvailabilityHandler{UoWFactory: factory}

		result, err := h.Handle(ctx, CheckAvailabilityQuery{VehicleID: "veh-1", Pickup: day(10), Return: day(12)})
		require.NoError(t, err)
		assert.False(t, result.Available)
	})

	t.Run("UnknownVehicleUnavailable", func(t *testing.T) {
		factory, _, _ := newFixtures(t)
		h := &CheckAvailabilityHandler{UoWFactory: factory}

		result, err := h.Handle(ctx, CheckAvailabilityQuery{VehicleID: "missing", Pickup: day(10), Return: day(12)})
		require.NoError(t, err)
		assert.False(t, result.Available)
	})

	t.Run("InvalidIntervalSurfaced", func(t *testing.T) {
		factory, vehicles, _ := newFixtures(t)
		addVehicle(t, vehicles, "veh-1", true, true)
		h := &CheckAvailabilityHandler{UoWFactory: factory}

		_, err := h.Handle(ctx, CheckAvailabilityQuery{VehicleID: "veh-1", Pickup: day(12), Return: day(10)})
		assert.ErrorIs(t, err, domaininterval.ErrInvalidInterval)
	})

	t.Run("FactoryFaultDegradesToUnavailable", func(t *testing.T) {
		h := &CheckAvailabilityHandler{UoWFactory: failingFactory{}}

		result, err := h.Handle(ctx, CheckAvailabilityQuery{VehicleID: "veh-1", Pickup: day(10), Return: day(12)})
		require.NoError(t, err, "store faults must not surface to callers")
		assert.False(t, result.Available)
	})

	t.Run("OverlapQueryFaultDegradesToUnavailable", func(t *testing.T) {
		_, vehicles, _ := newFixtures(t)
		addVehicle(t, vehicles, "veh-1", true, true)
		factory := memory.Factory{
			FleetRepo:   vehicles,
			BookingRepo: failingBookingRepo{},
			MemberRepo:  memory.NewMemberRepository(),
		}
		h := &CheckAvailabilityHandler{UoWFactory: factory}

		result, err := h.Handle(ctx, CheckAvailabilityQuery{VehicleID: "veh-1", Pickup: day(10), Return: day(12)})
		require.NoError(t, err)
		assert.False(t, result.Available)
	})
}

var errStoreDown = errors.New("store down")

type failingFactory struct{}

func (failingFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	return nil, errStoreDown
}

type failingBookingRepo struct{}

func (failingBookingRepo) ByID(context.Context, domainbooking.BookingID) (*domainbooking.Booking, error) {
	return nil, errStoreDown
}

func (failingBookingRepo) Insert(context.Context, *domainbooking.Booking) error { return errStoreDown }

func (failingBookingRepo) Save(context.Context, *domainbooking.Booking) error { return errStoreDown }

func (failingBookingRepo) ListByMember(context.Context, domainmember.MemberID) ([]*domainbooking.Booking, error) {
	return nil, errStoreDown
}

func (failingBookingRepo) ListByVehicle(context.Context, domainfleet.VehicleID, []domainbooking.Status) ([]*domainbooking.Booking, error) {
	return nil, errStoreDown
}

func (failingBookingRepo) OverlappingExists(context.Context, domainfleet.VehicleID, domaininterval.Interval, []domainbooking.Status) (bool, error) {
	return false, errStoreDown
}

func (failingBookingRepo) CountByStatus(context.Context) (map[domainbooking.Status]int, error) {
	return nil, errStoreDown
}

func (failingBookingRepo) Revenue(context.Context, []domainbooking.Status) (map[string]int64, error) {
	return nil, errStoreDown
}
