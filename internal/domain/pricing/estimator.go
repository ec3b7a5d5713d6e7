package pricing

import (
	"errors"

	"fleetrent/internal/domain/fleet"
	"fleetrent/internal/domain/shared/interval"
	"fleetrent/internal/domain/shared/money"
)

var (
	ErrInvalidInterval = errors.New("pricing: pickup must be before return")
	ErrVehicleRequired = errors.New("pricing: vehicle is required")
	ErrUnknownTier     = errors.New("pricing: unknown insurance tier")
	ErrCurrencyUnset   = errors.New("pricing: currency must be defined")
)

// CostBreakdown itemizes a priced rental. Deposit is carried for display and
// hold purposes but is refundable, so it never enters Total.
type CostBreakdown struct {
	Days      int
	DailyRate money.Money
	Base      money.Money
	Insurance money.Money
	Tax       money.Money
	Deposit   money.Money
	Discount  money.Money
	Total     money.Money
}

// Recalculate recomputes Total from the carried components.
func (b *CostBreakdown) Recalculate() error {
	if b.DailyRate.Currency == "" {
		return ErrCurrencyUnset
	}
	total := b.Base
	add := func(m money.Money) error {
		sum, err := total.Add(m)
		if err != nil {
			return err
		}
		total = sum
		return nil
	}
	if err := add(b.Insurance); err != nil {
		return err
	}
	if err := add(b.Tax); err != nil {
		return err
	}
	if b.Discount.Amount > 0 {
		sub, err := total.Sub(b.Discount)
		if err != nil {
			return err
		}
		total = sub
	}
	if total.Amount < 0 {
		total = money.Money{Amount: 0, Currency: total.Currency}
	}
	b.Total = total
	return nil
}

// EstimateInput carries everything the estimator needs for one quote.
type EstimateInput struct {
	Vehicle      *fleet.Vehicle
	Interval     interval.Interval
	Tier         InsuranceTier
	IncludeTax   bool
	RedeemPoints int64
}

// Estimator turns an interval, a vehicle's rates and an insurance choice into
// a priced breakdown. Tax and loyalty conversion come from configuration, the
// insurance tier table is pluggable.
type Estimator struct {
	Rates           RateTable
	TaxRateBps      int64
	PointValueCents int64
	Currency        string
}

// Estimate runs the fixed pricing sequence: truncated day count, base amount,
// insurance, optional tax, deposit carried separately, loyalty discount last.
func (e Estimator) Estimate(input EstimateInput) (CostBreakdown, error) {
	if input.Vehicle == nil {
		return CostBreakdown{}, ErrVehicleRequired
	}
	if err := input.Interval.Validate(); err != nil {
		return CostBreakdown{}, ErrInvalidInterval
	}
	tier := input.Tier
	if tier == "" {
		tier = TierBasic
	}
	if !tier.Valid() {
		return CostBreakdown{}, ErrUnknownTier
	}

	days := input.Interval.Days()
	daily := input.Vehicle.DailyRate
	base := daily.Multiply(int64(days))

	insurance := money.Money{Amount: 0, Currency: daily.Currency}
	if e.Rates != nil {
		perDay := e.Rates.DailyPremium(tier, daily.Currency)
		insurance = perDay.Multiply(int64(days))
	}

	tax := money.Money{Amount: 0, Currency: daily.Currency}
	if input.IncludeTax && e.TaxRateBps > 0 {
		tax = base.PercentBps(e.TaxRateBps)
	}

	discount := money.Money{Amount: 0, Currency: daily.Currency}
	if input.RedeemPoints > 0 && e.PointValueCents > 0 {
		discount = money.Money{Amount: input.RedeemPoints * e.PointValueCents, Currency: daily.Currency}
	}

	breakdown := CostBreakdown{
		Days:      days,
		DailyRate: daily,
		Base:      base,
		Insurance: insurance,
		Tax:       tax,
		Deposit:   input.Vehicle.Deposit,
		Discount:  discount,
	}
	if err := breakdown.Recalculate(); err != nil {
		return CostBreakdown{}, err
	}
	return breakdown, nil
}
