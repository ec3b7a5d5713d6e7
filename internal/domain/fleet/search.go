package fleet

import "strings"

// SearchParams describe conjunctive fleet filters. All zero values mean
// "do not filter". Results are always ordered ascending by daily rate and the
// full match set is returned; the fleet is small enough that paging would only
// complicate the admin screens consuming this.
type SearchParams struct {
	Location         string
	Category         Category
	Fuel             FuelType
	Transmission     Transmission
	MinSeats         int
	MaxDailyRate     int64
	OnlyActive       bool
	IncludeUnflagged bool
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	normalized := p
	normalized.Location = strings.TrimSpace(strings.ToLower(normalized.Location))
	normalized.Category = Category(strings.TrimSpace(strings.ToLower(string(normalized.Category))))
	normalized.Fuel = FuelType(strings.TrimSpace(strings.ToLower(string(normalized.Fuel))))
	normalized.Transmission = Transmission(strings.TrimSpace(strings.ToLower(string(normalized.Transmission))))
	if normalized.MinSeats < 0 {
		normalized.MinSeats = 0
	}
	if normalized.MaxDailyRate < 0 {
		normalized.MaxDailyRate = 0
	}
	return normalized
}

// Matches applies the conjunctive predicates against a single vehicle.
func (p SearchParams) Matches(v *Vehicle) bool {
	if v == nil {
		return false
	}
	if p.OnlyActive && v.State != VehicleActive {
		return false
	}
	if !p.IncludeUnflagged && !v.Available {
		return false
	}
	if p.Location != "" && !strings.EqualFold(v.Location, p.Location) {
		return false
	}
	if p.Category != "" && v.Category != p.Category {
		return false
	}
	if p.Fuel != "" && v.Fuel != p.Fuel {
		return false
	}
	if p.Transmission != "" && v.Transmission != p.Transmission {
		return false
	}
	if p.MinSeats > 0 && v.Seats < p.MinSeats {
		return false
	}
	if p.MaxDailyRate > 0 && v.DailyRate.Amount > p.MaxDailyRate {
		return false
	}
	return true
}
