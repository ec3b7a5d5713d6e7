package pricing

import "fleetrent/internal/domain/shared/money"

// InsuranceTier selects a coverage level. Pricing per tier is business
// configuration, not code.
type InsuranceTier string

const (
	TierBasic         InsuranceTier = "basic"
	TierPremium       InsuranceTier = "premium"
	TierComprehensive InsuranceTier = "comprehensive"
)

func (t InsuranceTier) Valid() bool {
	switch t {
	case TierBasic, TierPremium, TierComprehensive:
		return true
	}
	return false
}

// RateTable resolves the per-day insurance premium for a tier.
type RateTable interface {
	DailyPremium(tier InsuranceTier, currency string) money.Money
}

// StaticRateTable is a fixed in-memory tier table, loaded from configuration.
type StaticRateTable struct {
	PremiumsCents map[InsuranceTier]int64
}

func (t StaticRateTable) DailyPremium(tier InsuranceTier, currency string) money.Money {
	cents := t.PremiumsCents[tier]
	return money.Money{Amount: cents, Currency: currency}
}

// DefaultRateTable matches the launch pricing sheet: basic coverage is
// bundled into the daily rate, paid tiers add a flat per-day premium.
func DefaultRateTable() StaticRateTable {
	return StaticRateTable{PremiumsCents: map[InsuranceTier]int64{
		TierBasic:         0,
		TierPremium:       1200,
		TierComprehensive: 2500,
	}}
}
