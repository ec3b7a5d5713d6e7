package ginserver

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleetrent/internal/app/commands"
	FleetApp "fleetrent/internal/app/handlers/fleet"
	StatsApp "fleetrent/internal/app/handlers/stats"
	"fleetrent/internal/app/queries"
	domainfleet "fleetrent/internal/domain/fleet"
	"fleetrent/internal/infra/storage/s3"
)

type AdminHTTP interface {
	RegisterVehicle(c *gin.Context)
	UpdateVehicle(c *gin.Context)
	RetireVehicle(c *gin.Context)
	UploadPhoto(c *gin.Context)
	Stats(c *gin.Context)
}

type AdminHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Uploader s3.Uploader
}

type registerVehicleRequest struct {
	Plate        string   `json:"plate"`
	Make         string   `json:"make"`
	Model        string   `json:"model"`
	Year         int      `json:"year"`
	Category     string   `json:"category"`
	Location     string   `json:"location"`
	Fuel         string   `json:"fuel"`
	Transmission string   `json:"transmission"`
	Seats        int      `json:"seats"`
	DailyRate    int64    `json:"daily_rate_cents"`
	HourlyRate   int64    `json:"hourly_rate_cents"`
	Deposit      int64    `json:"deposit_cents"`
	Currency     string   `json:"currency"`
	Mileage      int64    `json:"mileage"`
	Photos       []string `json:"photos"`
	Activate     bool     `json:"activate"`
}

type updateVehicleRequest struct {
	DailyRate  *int64  `json:"daily_rate_cents"`
	HourlyRate *int64  `json:"hourly_rate_cents"`
	Deposit    *int64  `json:"deposit_cents"`
	Currency   string  `json:"currency"`
	Available  *bool   `json:"available"`
	Location   *string `json:"location"`
	Mileage    *int64  `json:"mileage"`
}

func (h AdminHandler) RegisterVehicle(c *gin.Context) {
	if _, ok := requireRole(c, "admin"); !ok {
		return
	}
	var req registerVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := FleetApp.RegisterVehicleCommand{
		CommandID:    uuid.NewString(),
		Plate:        req.Plate,
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		Category:     req.Category,
		Location:     req.Location,
		Fuel:         req.Fuel,
		Transmission: req.Transmission,
		Seats:        req.Seats,
		DailyRate:    req.DailyRate,
		HourlyRate:   req.HourlyRate,
		Deposit:      req.Deposit,
		Currency:     req.Currency,
		Mileage:      req.Mileage,
		Photos:       req.Photos,
		Activate:     req.Activate,
	}
	result, err := commands.Dispatch[FleetApp.RegisterVehicleCommand, *FleetApp.RegisterVehicleResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondFleetError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h AdminHandler) UpdateVehicle(c *gin.Context) {
	if _, ok := requireRole(c, "admin"); !ok {
		return
	}
	var req updateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := FleetApp.UpdateVehicleCommand{
		VehicleID:  c.Param("id"),
		DailyRate:  req.DailyRate,
		HourlyRate: req.HourlyRate,
		Deposit:    req.Deposit,
		Currency:   req.Currency,
		Available:  req.Available,
		Location:   req.Location,
		Mileage:    req.Mileage,
	}
	result, err := commands.Dispatch[FleetApp.UpdateVehicleCommand, *FleetApp.VehicleStateResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondFleetError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) RetireVehicle(c *gin.Context) {
	if _, ok := requireRole(c, "admin"); !ok {
		return
	}
	cmd := FleetApp.RetireVehicleCommand{VehicleID: c.Param("id")}
	result, err := commands.Dispatch[FleetApp.RetireVehicleCommand, *FleetApp.VehicleStateResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondFleetError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UploadPhoto stores the file in the object store, then attaches the public
// URL to the vehicle through the regular update command.
func (h AdminHandler) UploadPhoto(c *gin.Context) {
	if _, ok := requireRole(c, "admin"); !ok {
		return
	}
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "photo storage unavailable"})
		return
	}
	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file required"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	vehicleID := c.Param("id")
	key := fmt.Sprintf("vehicles/%s/%s%s", vehicleID, uuid.NewString(), strings.ToLower(path.Ext(file.Filename)))
	url, err := h.Uploader.Upload(c.Request.Context(), key, src, file.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "photo upload failed"})
		return
	}

	cmd := FleetApp.UpdateVehicleCommand{VehicleID: vehicleID, AddPhoto: &url}
	if _, err := commands.Dispatch[FleetApp.UpdateVehicleCommand, *FleetApp.VehicleStateResult](c.Request.Context(), h.Commands, cmd); err != nil {
		h.respondFleetError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

func (h AdminHandler) Stats(c *gin.Context) {
	if _, ok := requireRole(c, "admin"); !ok {
		return
	}
	result, err := queries.Ask[StatsApp.AdminStatsQuery, StatsApp.AdminStatsResult](c.Request.Context(), h.Queries, StatsApp.AdminStatsQuery{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) respondFleetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainfleet.ErrVehicleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
	case errors.Is(err, domainfleet.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

var _ AdminHTTP = AdminHandler{}
