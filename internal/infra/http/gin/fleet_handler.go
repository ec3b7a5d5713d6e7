package ginserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"

	AvailabilityApp "fleetrent/internal/app/handlers/availability"
	FleetApp "fleetrent/internal/app/handlers/fleet"
	PricingApp "fleetrent/internal/app/handlers/pricing"
	"fleetrent/internal/app/queries"
	domainfleet "fleetrent/internal/domain/fleet"
)

type FleetHandler struct {
	Queries queries.Bus
}

// Search handles GET /vehicles: fleet-wide availability search with filters.
func (h FleetHandler) Search(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	pickup, returnAt, ok := parseIntervalParams(c)
	if !ok {
		return
	}
	query := FleetApp.SearchAvailableQuery{
		Pickup:       pickup,
		Return:       returnAt,
		Location:     c.Query("location"),
		Category:     c.Query("category"),
		Fuel:         c.Query("fuel"),
		Transmission: c.Query("transmission"),
		MinSeats:     intQuery(c, "min_seats"),
		MaxDailyRate: int64Query(c, "max_daily_rate"),
	}
	result, err := queries.Ask[FleetApp.SearchAvailableQuery, FleetApp.SearchAvailableResult](c.Request.Context(), h.Queries, query)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get handles GET /vehicles/:id.
func (h FleetHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := FleetApp.GetVehicleQuery{VehicleID: c.Param("id")}
	result, err := queries.Ask[FleetApp.GetVehicleQuery, *FleetApp.VehicleDetails](c.Request.Context(), h.Queries, query)
	if err != nil {
		if errors.Is(err, domainfleet.ErrVehicleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Availability handles GET /vehicles/:id/availability.
func (h FleetHandler) Availability(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	pickup, returnAt, ok := parseIntervalParams(c)
	if !ok {
		return
	}
	query := AvailabilityApp.CheckAvailabilityQuery{
		VehicleID: c.Param("id"),
		Pickup:    pickup,
		Return:    returnAt,
	}
	result, err := queries.Ask[AvailabilityApp.CheckAvailabilityQuery, AvailabilityApp.CheckAvailabilityResult](c.Request.Context(), h.Queries, query)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Estimate handles GET /vehicles/:id/estimate.
func (h FleetHandler) Estimate(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	pickup, returnAt, ok := parseIntervalParams(c)
	if !ok {
		return
	}
	query := PricingApp.EstimateQuery{
		VehicleID:     c.Param("id"),
		Pickup:        pickup,
		Return:        returnAt,
		InsuranceTier: c.Query("insurance_tier"),
		IncludeTax:    c.Query("include_tax") != "false",
		RedeemPoints:  int64Query(c, "redeem_points"),
	}
	result, err := queries.Ask[PricingApp.EstimateQuery, *PricingApp.EstimateResult](c.Request.Context(), h.Queries, query)
	if err != nil {
		if errors.Is(err, domainfleet.ErrVehicleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseIntervalParams(c *gin.Context) (time.Time, time.Time, bool) {
	pickup, err := time.Parse(time.RFC3339, c.Query("pickup"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pickup must be RFC3339"})
		return time.Time{}, time.Time{}, false
	}
	returnAt, err := time.Parse(time.RFC3339, c.Query("return"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "return must be RFC3339"})
		return time.Time{}, time.Time{}, false
	}
	return pickup, returnAt, true
}

func intQuery(c *gin.Context, key string) int {
	v, _ := strconv.Atoi(c.Query(key))
	return v
}

func int64Query(c *gin.Context, key string) int64 {
	v, _ := strconv.ParseInt(c.Query(key), 10, 64)
	return v
}
