package stats

import (
	"context"

	"fleetrent/internal/app/queries"
	"fleetrent/internal/app/support"
	"fleetrent/internal/app/uow"
	domainbooking "fleetrent/internal/domain/booking"
	domainfleet "fleetrent/internal/domain/fleet"
)

const adminStatsKey = "admin.stats"

type AdminStatsQuery struct{}

func (q AdminStatsQuery) Key() string { return adminStatsKey }

type AdminStatsResult struct {
	BookingsByStatus map[string]int `json:"bookings_by_status"`
	FleetByState     map[string]int `json:"fleet_by_state"`
	FleetSize        int            `json:"fleet_size"`
	// Revenue is gross revenue from completed rentals, cents keyed by currency.
	Revenue map[string]int64 `json:"revenue_cents"`
}

type AdminStatsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *AdminStatsHandler) Handle(ctx context.Context, _ AdminStatsQuery) (AdminStatsResult, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return AdminStatsResult{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	counts, err := unit.Bookings().CountByStatus(execCtx)
	if err != nil {
		return AdminStatsResult{}, err
	}
	byStatus := make(map[string]int, len(counts))
	for status, n := range counts {
		byStatus[string(status)] = n
	}

	vehicles, err := unit.Fleet().Search(execCtx, domainfleet.SearchParams{IncludeUnflagged: true})
	if err != nil {
		return AdminStatsResult{}, err
	}
	byState := make(map[string]int)
	for _, v := range vehicles {
		byState[string(v.State)]++
	}

	revenue, err := unit.Bookings().Revenue(execCtx, []domainbooking.Status{domainbooking.StatusCompleted})
	if err != nil {
		return AdminStatsResult{}, err
	}

	return AdminStatsResult{
		BookingsByStatus: byStatus,
		FleetByState:     byState,
		FleetSize:        len(vehicles),
		Revenue:          revenue,
	}, nil
}

var _ queries.Handler[AdminStatsQuery, AdminStatsResult] = (*AdminStatsHandler)(nil)
