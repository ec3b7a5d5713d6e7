package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetrent/internal/domain/fleet"
	"fleetrent/internal/domain/shared/interval"
	"fleetrent/internal/domain/shared/money"
)

func testVehicle() *fleet.Vehicle {
	return &fleet.Vehicle{
		ID:        "veh-1",
		DailyRate: money.Must(18000, "USD"),
		Deposit:   money.Must(50000, "USD"),
	}
}

func rentalDays(t *testing.T, days int) interval.Interval {
	t.Helper()
	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	iv, err := interval.New(start, start.AddDate(0, 0, days))
	require.NoError(t, err)
	return iv
}

func testEstimator() Estimator {
	return Estimator{
		Rates:           DefaultRateTable(),
		TaxRateBps:      1800,
		PointValueCents: 100,
		Currency:        "USD",
	}
}

func TestEstimate(t *testing.T) {
	t.Run("BasicTierWithTax", func(t *testing.T) {
		got, err := testEstimator().Estimate(EstimateInput{
			Vehicle:    testVehicle(),
			Interval:   rentalDays(t, 3),
			Tier:       TierBasic,
			IncludeTax: true,
		})
		require.NoError(t, err)

		assert.Equal(t, 3, got.Days)
		assert.Equal(t, int64(54000), got.Base.Amount)
		assert.Equal(t, int64(0), got.Insurance.Amount)
		assert.Equal(t, int64(9720), got.Tax.Amount)
		assert.Equal(t, int64(50000), got.Deposit.Amount)
		assert.Equal(t, int64(63720), got.Total.Amount)
	})

	t.Run("PremiumTierAddsPerDayPremium", func(t *testing.T) {
		got, err := testEstimator().Estimate(EstimateInput{
			Vehicle:    testVehicle(),
			Interval:   rentalDays(t, 3),
			Tier:       TierPremium,
			IncludeTax: true,
		})
		require.NoError(t, err)

		assert.Equal(t, int64(3600), got.Insurance.Amount)
		assert.Equal(t, int64(67320), got.Total.Amount)
	})

	t.Run("DepositNeverEntersTotal", func(t *testing.T) {
		got, err := testEstimator().Estimate(EstimateInput{
			Vehicle:  testVehicle(),
			Interval: rentalDays(t, 1),
			Tier:     TierBasic,
		})
		require.NoError(t, err)

		assert.Equal(t, int64(50000), got.Deposit.Amount)
		assert.Equal(t, int64(18000), got.Total.Amount)
	})

	t.Run("TaxExcludedWhenNotRequested", func(t *testing.T) {
		got, err := testEstimator().Estimate(EstimateInput{
			Vehicle:    testVehicle(),
			Interval:   rentalDays(t, 3),
			IncludeTax: false,
		})
		require.NoError(t, err)

		assert.Equal(t, int64(0), got.Tax.Amount)
		assert.Equal(t, int64(54000), got.Total.Amount)
	})

	t.Run("PartialDayTruncates", func(t *testing.T) {
		start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
		iv, err := interval.New(start, start.Add(23*time.Hour))
		require.NoError(t, err)

		got, err := testEstimator().Estimate(EstimateInput{
			Vehicle:  testVehicle(),
			Interval: iv,
		})
		require.NoError(t, err)

		assert.Equal(t, 0, got.Days)
		assert.Equal(t, int64(0), got.Base.Amount)
		assert.Equal(t, int64(0), got.Total.Amount)
	})

	t.Run("LoyaltyDiscountAppliedLast", func(t *testing.T) {
		got, err := testEstimator().Estimate(EstimateInput{
			Vehicle:      testVehicle(),
			Interval:     rentalDays(t, 3),
			IncludeTax:   true,
			RedeemPoints: 50,
		})
		require.NoError(t, err)

		assert.Equal(t, int64(5000), got.Discount.Amount)
		assert.Equal(t, int64(58720), got.Total.Amount)
	})

	t.Run("DiscountFloorsAtZero", func(t *testing.T) {
		got, err := testEstimator().Estimate(EstimateInput{
			Vehicle:      testVehicle(),
			Interval:     rentalDays(t, 1),
			RedeemPoints: 1000,
		})
		require.NoError(t, err)

		assert.Equal(t, int64(0), got.Total.Amount)
	})

	t.Run("EmptyTierDefaultsToBasic", func(t *testing.T) {
		got, err := testEstimator().Estimate(EstimateInput{
			Vehicle:  testVehicle(),
			Interval: rentalDays(t, 2),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.Insurance.Amount)
	})

	t.Run("UnknownTierRejected", func(t *testing.T) {
		_, err := testEstimator().Estimate(EstimateInput{
			Vehicle:  testVehicle(),
			Interval: rentalDays(t, 2),
			Tier:     InsuranceTier("platinum"),
		})
		assert.ErrorIs(t, err, ErrUnknownTier)
	})

	t.Run("NilVehicleRejected", func(t *testing.T) {
		_, err := testEstimator().Estimate(EstimateInput{Interval: rentalDays(t, 2)})
		assert.ErrorIs(t, err, ErrVehicleRequired)
	})

	t.Run("InvalidIntervalRejected", func(t *testing.T) {
		_, err := testEstimator().Estimate(EstimateInput{Vehicle: testVehicle()})
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})
}

func TestRecalculate(t *testing.T) {
	b := CostBreakdown{
		DailyRate: money.Must(10000, "USD"),
		Base:      money.Must(20000, "USD"),
		Insurance: money.Must(2400, "USD"),
		Tax:       money.Must(3600, "USD"),
		Discount:  money.Must(1000, "USD"),
	}
	require.NoError(t, b.Recalculate())
	assert.Equal(t, int64(25000), b.Total.Amount)

	t.Run("MissingCurrency", func(t *testing.T) {
		empty := CostBreakdown{}
		assert.ErrorIs(t, empty.Recalculate(), ErrCurrencyUnset)
	})
}
