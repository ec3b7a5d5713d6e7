package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "fleetrent/internal/domain/booking"
	domainfleet "fleetrent/internal/domain/fleet"
	"fleetrent/internal/domain/pricing"
	domaininterval "fleetrent/internal/domain/shared/interval"
	"fleetrent/internal/domain/shared/money"
)

func mkInterval(t *testing.T, startDay, endDay int) domaininterval.Interval {
	t.Helper()
	iv, err := domaininterval.New(
		time.Date(2026, 9, startDay, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 9, endDay, 10, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return iv
}

func mkBooking(t *testing.T, id string, vehicleID string, iv domaininterval.Interval) *domainbooking.Booking {
	t.Helper()
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(id),
		VehicleID: domainfleet.VehicleID(vehicleID),
		MemberID:  "mem-1",
		Interval:  iv,
		Cost:      pricing.CostBreakdown{Total: money.Must(36000, "USD")},
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	b.ClearEvents()
	return b
}

func mkVehicle(t *testing.T, id, location string, category domainfleet.Category, dailyCents int64) *domainfleet.Vehicle {
	t.Helper()
	now := time.Now()
	v, err := domainfleet.NewVehicle(domainfleet.CreateParams{
		ID:           domainfleet.VehicleID(id),
		Plate:        "TEST " + id,
		Make:         "Make",
		Model:        "Model",
		Year:         2023,
		Category:     category,
		Location:     location,
		Fuel:         domainfleet.FuelPetrol,
		Transmission: domainfleet.TransmissionManual,
		Seats:        5,
		DailyRate:    money.Must(dailyCents, "USD"),
		HourlyRate:   money.Must(dailyCents/10, "USD"),
		Deposit:      money.Must(20000, "USD"),
		Now:          now,
	})
	require.NoError(t, err)
	require.NoError(t, v.Activate(now))
	v.ClearEvents()
	return v
}

func TestBookingInsertConflict(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, mkBooking(t, "bk-1", "veh-1", mkInterval(t, 10, 12))))

	t.Run("OverlapRejected", func(t *testing.T) {
		err := repo.Insert(ctx, mkBooking(t, "bk-2", "veh-1", mkInterval(t, 11, 13)))
		assert.ErrorIs(t, err, domainbooking.ErrConflict)
	})

	t.Run("TouchingBoundaryRejected", func(t *testing.T) {
		err := repo.Insert(ctx, mkBooking(t, "bk-3", "veh-1", mkInterval(t, 12, 14)))
		assert.ErrorIs(t, err, domainbooking.ErrConflict)
	})

	t.Run("DisjointAccepted", func(t *testing.T) {
		require.NoError(t, repo.Insert(ctx, mkBooking(t, "bk-4", "veh-1", mkInterval(t, 20, 22))))
	})

	t.Run("OtherVehicleUnaffected", func(t *testing.T) {
		require.NoError(t, repo.Insert(ctx, mkBooking(t, "bk-5", "veh-2", mkInterval(t, 10, 12))))
	})

	t.Run("CancelledBookingReleasesInterval", func(t *testing.T) {
		b := mkBooking(t, "bk-6", "veh-3", mkInterval(t, 10, 12))
		require.NoError(t, repo.Insert(ctx, b))
		require.NoError(t, b.Cancel("", time.Now()))
		require.NoError(t, repo.Save(ctx, b))

		require.NoError(t, repo.Insert(ctx, mkBooking(t, "bk-7", "veh-3", mkInterval(t, 10, 12))))
	})
}

func TestConcurrentInsertSingleWinner(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	iv := mkInterval(t, 10, 12)

	const numGoroutines = 20
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			b := mkBooking(t, fmt.Sprintf("bk-%d", id), "veh-1", iv)
			results <- repo.Insert(ctx, b)
		}(i)
	}

	wg.Wait()
	close(results)

	successCount := 0
	conflictCount := 0
	for err := range results {
		if err == nil {
			successCount++
		} else {
			assert.ErrorIs(t, err, domainbooking.ErrConflict)
			conflictCount++
		}
	}

	assert.Equal(t, 1, successCount, "exactly one insert must win the interval")
	assert.Equal(t, numGoroutines-1, conflictCount)

	exists, err := repo.OverlappingExists(ctx, "veh-1", iv, domainbooking.BlockingStatuses())
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBookingQueries(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	first := mkBooking(t, "bk-1", "veh-1", mkInterval(t, 10, 12))
	second := mkBooking(t, "bk-2", "veh-1", mkInterval(t, 14, 16))
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	require.NoError(t, repo.Insert(ctx, first))
	require.NoError(t, repo.Insert(ctx, second))

	t.Run("ByID", func(t *testing.T) {
		got, err := repo.ByID(ctx, "bk-1")
		require.NoError(t, err)
		assert.Equal(t, first.Interval, got.Interval)

		_, err = repo.ByID(ctx, "missing")
		assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	})

	t.Run("ListByMemberNewestFirst", func(t *testing.T) {
		got, err := repo.ListByMember(ctx, "mem-1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, domainbooking.BookingID("bk-2"), got[0].ID)
	})

	t.Run("ListByVehicleByStart", func(t *testing.T) {
		got, err := repo.ListByVehicle(ctx, "veh-1", nil)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, domainbooking.BookingID("bk-1"), got[0].ID)
	})

	t.Run("CountByStatus", func(t *testing.T) {
		counts, err := repo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, counts[domainbooking.StatusPending])
	})

	t.Run("RevenueByCurrency", func(t *testing.T) {
		completed := mkBooking(t, "bk-3", "veh-2", mkInterval(t, 10, 12))
		now := time.Now()
		require.NoError(t, completed.Confirm(now))
		require.NoError(t, completed.Pickup(now))
		require.NoError(t, completed.Return(now))
		completed.ClearEvents()
		require.NoError(t, repo.Save(ctx, completed))

		revenue, err := repo.Revenue(ctx, []domainbooking.Status{domainbooking.StatusCompleted})
		require.NoError(t, err)
		assert.Equal(t, int64(36000), revenue["USD"])
	})
}

func TestVehicleSearch(t *testing.T) {
	repo := NewVehicleRepository()
	ctx := context.Background()

	expensive := mkVehicle(t, "veh-lux", "airport", domainfleet.CategoryLuxury, 18000)
	cheap := mkVehicle(t, "veh-eco", "downtown", domainfleet.CategoryEconomy, 4500)
	mid := mkVehicle(t, "veh-suv", "downtown", domainfleet.CategorySUV, 8200)
	for _, v := range []*domainfleet.Vehicle{expensive, cheap, mid} {
		require.NoError(t, repo.Save(ctx, v))
	}

	t.Run("OrderedByDailyRateAscending", func(t *testing.T) {
		got, err := repo.Search(ctx, domainfleet.SearchParams{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, domainfleet.VehicleID("veh-eco"), got[0].ID)
		assert.Equal(t, domainfleet.VehicleID("veh-suv"), got[1].ID)
		assert.Equal(t, domainfleet.VehicleID("veh-lux"), got[2].ID)
	})

	t.Run("LocationFilter", func(t *testing.T) {
		got, err := repo.Search(ctx, domainfleet.SearchParams{Location: "Downtown"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("MaxDailyRateFilter", func(t *testing.T) {
		got, err := repo.Search(ctx, domainfleet.SearchParams{MaxDailyRate: 5000})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, domainfleet.VehicleID("veh-eco"), got[0].ID)
	})

	t.Run("UnavailableExcludedByDefault", func(t *testing.T) {
		mid.SetAvailable(false, time.Now())
		require.NoError(t, repo.Save(ctx, mid))

		got, err := repo.Search(ctx, domainfleet.SearchParams{Location: "downtown"})
		require.NoError(t, err)
		assert.Len(t, got, 1)

		all, err := repo.Search(ctx, domainfleet.SearchParams{Location: "downtown", IncludeUnflagged: true})
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.ByID(ctx, "missing")
		assert.ErrorIs(t, err, domainfleet.ErrVehicleNotFound)
	})
}
