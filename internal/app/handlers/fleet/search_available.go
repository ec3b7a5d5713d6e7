package fleet

import (
	"context"
	"log/slog"
	"time"

	"fleetrent/internal/app/queries"
	"fleetrent/internal/app/support"
	"fleetrent/internal/app/uow"
	domainbooking "fleetrent/internal/domain/booking"
	domainfleet "fleetrent/internal/domain/fleet"
	domaininterval "fleetrent/internal/domain/shared/interval"
)

const searchAvailableKey = "fleet.search_available"

type SearchAvailableQuery struct {
	Pickup       time.Time
	Return       time.Time
	Location     string
	Category     string
	Fuel         string
	Transmission string
	MinSeats     int
	MaxDailyRate int64
}

func (q SearchAvailableQuery) Key() string { return searchAvailableKey }

type VehicleSummary struct {
	ID           string `json:"id"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	Category     string `json:"category"`
	Location     string `json:"location"`
	Fuel         string `json:"fuel"`
	Transmission string `json:"transmission"`
	Seats        int    `json:"seats"`
	DailyRate    int64  `json:"daily_rate_cents"`
	Deposit      int64  `json:"deposit_cents"`
	Currency     string `json:"currency"`
	Thumbnail    string `json:"thumbnail,omitempty"`
}

type SearchAvailableResult struct {
	Items []VehicleSummary `json:"items"`
}

type SearchAvailableHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

// Handle lists every active vehicle matching the filters whose calendar is
// free for the interval. Results come back ordered ascending by daily rate
// from the repository; the whole match set is returned without paging.
//
// Store failures degrade to an empty result, mirroring the single-vehicle
// check: better to show nothing than to offer a vehicle we cannot verify.
func (h *SearchAvailableHandler) Handle(ctx context.Context, q SearchAvailableQuery) (SearchAvailableResult, error) {
	iv, err := domaininterval.New(q.Pickup, q.Return)
	if err != nil {
		return SearchAvailableResult{}, err
	}

	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		h.logFailure("begin unit", err)
		return SearchAvailableResult{Items: []VehicleSummary{}}, nil
	}
	if cleanup != nil {
		defer cleanup()
	}

	params := domainfleet.SearchParams{
		Location:     q.Location,
		Category:     domainfleet.Category(q.Category),
		Fuel:         domainfleet.FuelType(q.Fuel),
		Transmission: domainfleet.Transmission(q.Transmission),
		MinSeats:     q.MinSeats,
		MaxDailyRate: q.MaxDailyRate,
		OnlyActive:   true,
	}
	vehicles, err := unit.Fleet().Search(execCtx, params)
	if err != nil {
		h.logFailure("fleet search", err)
		return SearchAvailableResult{Items: []VehicleSummary{}}, nil
	}

	items := make([]VehicleSummary, 0, len(vehicles))
	for _, vehicle := range vehicles {
		overlapping, err := unit.Bookings().OverlappingExists(execCtx, vehicle.ID, iv, domainbooking.BlockingStatuses())
		if err != nil {
			h.logFailure("overlap query", err)
			return SearchAvailableResult{Items: []VehicleSummary{}}, nil
		}
		if overlapping {
			continue
		}
		items = append(items, summarize(vehicle))
	}
	return SearchAvailableResult{Items: items}, nil
}

func summarize(v *domainfleet.Vehicle) VehicleSummary {
	thumbnail := ""
	if len(v.Photos) > 0 {
		thumbnail = v.Photos[0]
	}
	return VehicleSummary{
		ID:           string(v.ID),
		Make:         v.Make,
		Model:        v.Model,
		Year:         v.Year,
		Category:     string(v.Category),
		Location:     v.Location,
		Fuel:         string(v.Fuel),
		Transmission: string(v.Transmission),
		Seats:        v.Seats,
		DailyRate:    v.DailyRate.Amount,
		Deposit:      v.Deposit.Amount,
		Currency:     v.DailyRate.Currency,
		Thumbnail:    thumbnail,
	}
}

func (h *SearchAvailableHandler) logFailure(stage string, err error) {
	if h.Logger != nil {
		h.Logger.Error("fleet search degraded to empty result", "stage", stage, "error", err)
	}
}

var _ queries.Handler[SearchAvailableQuery, SearchAvailableResult] = (*SearchAvailableHandler)(nil)
