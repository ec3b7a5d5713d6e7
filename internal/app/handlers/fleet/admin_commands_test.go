package fleet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appuow "fleetrent/internal/app/uow"
	domainfleet "fleetrent/internal/domain/fleet"
	"fleetrent/internal/infra/storage/memory"
)

func adminSetup(t *testing.T) (*fleetFixtures, *AdminHandler, context.Context, *memory.Outbox) {
	t.Helper()
	fx := newFleetFixtures(t)
	box := memory.NewOutbox()
	h := &AdminHandler{
		UoWFactory: fx.factory,
		Outbox:     box,
		Now:        func() time.Time { return testNow },
	}
	unit, err := fx.factory.Begin(context.Background(), appuow.TxOptions{})
	require.NoError(t, err)
	ctx := appuow.ContextWithUnitOfWork(context.Background(), unit)
	return fx, h, ctx, box
}

func registerCmd(id string, activate bool) RegisterVehicleCommand {
	return RegisterVehicleCommand{
		CommandID:    id,
		Plate:        "AB12 CDE",
		Make:         "Ford",
		Model:        "Focus",
		Year:         2021,
		Category:     "compact",
		Location:     "downtown",
		Fuel:         "petrol",
		Transmission: "manual",
		Seats:        5,
		DailyRate:    5900,
		HourlyRate:   1100,
		Deposit:      25000,
		Mileage:      41870,
		Activate:     activate,
	}
}

func TestRegisterVehicle(t *testing.T) {
	t.Run("DraftByDefault", func(t *testing.T) {
		fx, h, ctx, box := adminSetup(t)

		result, err := h.Register(ctx, registerCmd("veh-1", false))
		require.NoError(t, err)
		assert.Equal(t, "veh-1", result.VehicleID)
		assert.Equal(t, string(domainfleet.VehicleDraft), result.State)

		stored, err := fx.vehicles.ByID(ctx, "veh-1")
		require.NoError(t, err)
		assert.Equal(t, "USD", stored.DailyRate.Currency, "currency defaults when omitted")

		records := box.Pending()
		require.Len(t, records, 1)
		assert.Equal(t, "fleet.vehicle_registered", records[0].Name)
	})

	t.Run("ActivateOnRegister", func(t *testing.T) {
		_, h, ctx, box := adminSetup(t)

		result, err := h.Register(ctx, registerCmd("veh-1", true))
		require.NoError(t, err)
		assert.Equal(t, string(domainfleet.VehicleActive), result.State)
		assert.Len(t, box.Pending(), 2)
	})

	t.Run("RejectsMissingPlate", func(t *testing.T) {
		_, h, ctx, _ := adminSetup(t)

		cmd := registerCmd("veh-1", false)
		cmd.Plate = ""
		_, err := h.Register(ctx, cmd)
		assert.ErrorIs(t, err, domainfleet.ErrPlateRequired)
	})

	t.Run("RequiresUnitOfWork", func(t *testing.T) {
		_, h, _, _ := adminSetup(t)

		_, err := h.Register(context.Background(), registerCmd("veh-1", false))
		assert.ErrorIs(t, err, ErrUnitOfWorkRequired)
	})
}

func TestUpdateVehicle(t *testing.T) {
	newRate := int64(6500)
	unavailable := false
	photo := "https://cdn.example.com/veh-1/front.jpg"

	t.Run("UpdatesRates", func(t *testing.T) {
		fx, h, ctx, _ := adminSetup(t)
		_, err := h.Register(ctx, registerCmd("veh-1", true))
		require.NoError(t, err)

		result, err := h.Update(ctx, UpdateVehicleCommand{VehicleID: "veh-1", DailyRate: &newRate})
		require.NoError(t, err)
		assert.Equal(t, "veh-1", result.VehicleID)

		stored, err := fx.vehicles.ByID(ctx, "veh-1")
		require.NoError(t, err)
		assert.Equal(t, newRate, stored.DailyRate.Amount)
		assert.Equal(t, int64(1100), stored.HourlyRate.Amount, "untouched rates keep their value")
	})

	t.Run("TogglesAvailability", func(t *testing.T) {
		_, h, ctx, _ := adminSetup(t)
		_, err := h.Register(ctx, registerCmd("veh-1", true))
		require.NoError(t, err)

		result, err := h.Update(ctx, UpdateVehicleCommand{VehicleID: "veh-1", Available: &unavailable})
		require.NoError(t, err)
		assert.False(t, result.Available)
	})

	t.Run("AppendsPhoto", func(t *testing.T) {
		fx, h, ctx, _ := adminSetup(t)
		_, err := h.Register(ctx, registerCmd("veh-1", true))
		require.NoError(t, err)

		_, err = h.Update(ctx, UpdateVehicleCommand{VehicleID: "veh-1", AddPhoto: &photo})
		require.NoError(t, err)

		stored, err := fx.vehicles.ByID(ctx, "veh-1")
		require.NoError(t, err)
		assert.Equal(t, []string{photo}, stored.Photos)
	})

	t.Run("UnknownVehicle", func(t *testing.T) {
		_, h, ctx, _ := adminSetup(t)
		_, err := h.Update(ctx, UpdateVehicleCommand{VehicleID: "missing", DailyRate: &newRate})
		assert.ErrorIs(t, err, domainfleet.ErrVehicleNotFound)
	})
}

func TestRetireVehicle(t *testing.T) {
	t.Run("ActiveVehicleRetires", func(t *testing.T) {
		_, h, ctx, _ := adminSetup(t)
		_, err := h.Register(ctx, registerCmd("veh-1", true))
		require.NoError(t, err)

		result, err := h.Retire(ctx, RetireVehicleCommand{VehicleID: "veh-1"})
		require.NoError(t, err)
		assert.Equal(t, string(domainfleet.VehicleRetired), result.State)
	})

	t.Run("RetiredVehicleStaysRetired", func(t *testing.T) {
		_, h, ctx, _ := adminSetup(t)
		_, err := h.Register(ctx, registerCmd("veh-1", true))
		require.NoError(t, err)
		_, err = h.Retire(ctx, RetireVehicleCommand{VehicleID: "veh-1"})
		require.NoError(t, err)

		_, err = h.Retire(ctx, RetireVehicleCommand{VehicleID: "veh-1"})
		assert.ErrorIs(t, err, domainfleet.ErrInvalidState)
	})
}
