package pricing

import (
	"context"
	"time"

	"fleetrent/internal/app/policies"
	"fleetrent/internal/app/queries"
	"fleetrent/internal/app/support"
	"fleetrent/internal/app/uow"
	domainfleet "fleetrent/internal/domain/fleet"
	domainpricing "fleetrent/internal/domain/pricing"
	domaininterval "fleetrent/internal/domain/shared/interval"
)

const estimateKey = "pricing.estimate"

type EstimateQuery struct {
	VehicleID     string
	Pickup        time.Time
	Return        time.Time
	InsuranceTier string
	IncludeTax    bool
	RedeemPoints  int64
}

func (q EstimateQuery) Key() string { return estimateKey }

type EstimateResult struct {
	VehicleID string `json:"vehicle_id"`
	Days      int    `json:"days"`
	DailyRate int64  `json:"daily_rate_cents"`
	Base      int64  `json:"base_cents"`
	Insurance int64  `json:"insurance_cents"`
	Tax       int64  `json:"tax_cents"`
	Deposit   int64  `json:"deposit_cents"`
	Discount  int64  `json:"discount_cents"`
	Total     int64  `json:"total_cents"`
	Currency  string `json:"currency"`
}

// EstimateHandler quotes a rental without creating anything. Unknown vehicles
// and invalid intervals are caller errors and return with no breakdown.
type EstimateHandler struct {
	UoWFactory uow.UoWFactory
	Estimator  policies.EstimatorPort
}

func (h *EstimateHandler) Handle(ctx context.Context, q EstimateQuery) (*EstimateResult, error) {
	iv, err := domaininterval.New(q.Pickup, q.Return)
	if err != nil {
		return nil, err
	}

	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	vehicle, err := unit.Fleet().ByID(execCtx, domainfleet.VehicleID(q.VehicleID))
	if err != nil {
		return nil, err
	}

	breakdown, err := h.Estimator.Estimate(execCtx, domainpricing.EstimateInput{
		Vehicle:      vehicle,
		Interval:     iv,
		Tier:         domainpricing.InsuranceTier(q.InsuranceTier),
		IncludeTax:   q.IncludeTax,
		RedeemPoints: q.RedeemPoints,
	})
	if err != nil {
		return nil, err
	}

	return &EstimateResult{
		VehicleID: string(vehicle.ID),
		Days:      breakdown.Days,
		DailyRate: breakdown.DailyRate.Amount,
		Base:      breakdown.Base.Amount,
		Insurance: breakdown.Insurance.Amount,
		Tax:       breakdown.Tax.Amount,
		Deposit:   breakdown.Deposit.Amount,
		Discount:  breakdown.Discount.Amount,
		Total:     breakdown.Total.Amount,
		Currency:  breakdown.Total.Currency,
	}, nil
}

var _ queries.Handler[EstimateQuery, *EstimateResult] = (*EstimateHandler)(nil)
