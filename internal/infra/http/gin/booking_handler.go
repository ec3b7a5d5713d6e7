package ginserver

import (
	"errors"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleetrent/internal/app/commands"
	BookingApp "fleetrent/internal/app/handlers/booking"
	domainbooking "fleetrent/internal/domain/booking"
	domainfleet "fleetrent/internal/domain/fleet"
	domainmember "fleetrent/internal/domain/member"
	"fleetrent/internal/infra/obs"
)

type BookingHandler struct {
	Commands commands.Bus
}

type createBookingRequest struct {
	VehicleID     string    `json:"vehicle_id"`
	Pickup        time.Time `json:"pickup"`
	Return        time.Time `json:"return"`
	InsuranceTier string    `json:"insurance_tier"`
	IncludeTax    bool      `json:"include_tax"`
	RedeemPoints  int64     `json:"redeem_points"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Create(c *gin.Context) {
	member, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := BookingApp.CreateBookingCommand{
		CommandID:       generateCommandID(),
		VehicleID:       req.VehicleID,
		MemberID:        member.ID,
		Pickup:          req.Pickup,
		Return:          req.Return,
		InsuranceTier:   req.InsuranceTier,
		IncludeTax:      req.IncludeTax,
		RedeemPoints:    req.RedeemPoints,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[BookingApp.CreateBookingCommand, *BookingApp.CreateBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondBookingError(c, err)
		return
	}
	obs.IncBookingCreated()
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	member, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req cancelBookingRequest
	_ = c.ShouldBindJSON(&req)
	memberID := member.ID
	if member.HasRole(string(domainmember.RoleAdmin)) {
		// Admin cancellations skip the ownership check.
		memberID = ""
	}
	cmd := BookingApp.CancelBookingCommand{
		BookingID: c.Param("id"),
		MemberID:  memberID,
		Reason:    req.Reason,
	}
	result, err := commands.Dispatch[BookingApp.CancelBookingCommand, *BookingApp.CancelBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Confirm(c *gin.Context) {
	if _, ok := requireRole(c, string(domainmember.RoleAdmin)); !ok {
		return
	}
	cmd := BookingApp.ConfirmBookingCommand{BookingID: c.Param("id")}
	h.dispatchTransition(c, func() (*BookingApp.TransitionResult, error) {
		return commands.Dispatch[BookingApp.ConfirmBookingCommand, *BookingApp.TransitionResult](c.Request.Context(), h.Commands, cmd)
	})
}

func (h BookingHandler) Pickup(c *gin.Context) {
	if _, ok := requireRole(c, string(domainmember.RoleAdmin)); !ok {
		return
	}
	cmd := BookingApp.PickupCommand{BookingID: c.Param("id")}
	h.dispatchTransition(c, func() (*BookingApp.TransitionResult, error) {
		return commands.Dispatch[BookingApp.PickupCommand, *BookingApp.TransitionResult](c.Request.Context(), h.Commands, cmd)
	})
}

func (h BookingHandler) Return(c *gin.Context) {
	if _, ok := requireRole(c, string(domainmember.RoleAdmin)); !ok {
		return
	}
	cmd := BookingApp.ReturnCommand{BookingID: c.Param("id")}
	h.dispatchTransition(c, func() (*BookingApp.TransitionResult, error) {
		return commands.Dispatch[BookingApp.ReturnCommand, *BookingApp.TransitionResult](c.Request.Context(), h.Commands, cmd)
	})
}

func (h BookingHandler) NoShow(c *gin.Context) {
	if _, ok := requireRole(c, string(domainmember.RoleAdmin)); !ok {
		return
	}
	cmd := BookingApp.MarkNoShowCommand{BookingID: c.Param("id")}
	h.dispatchTransition(c, func() (*BookingApp.TransitionResult, error) {
		return commands.Dispatch[BookingApp.MarkNoShowCommand, *BookingApp.TransitionResult](c.Request.Context(), h.Commands, cmd)
	})
}

func (h BookingHandler) dispatchTransition(c *gin.Context, dispatch func() (*BookingApp.TransitionResult, error)) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	result, err := dispatch()
	if err != nil {
		h.respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) respondBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainbooking.ErrConflict):
		obs.IncBookingConflict()
		c.JSON(http.StatusConflict, gin.H{"error": "vehicle already booked for this interval"})
	case errors.Is(err, domainbooking.ErrBookingNotFound), errors.Is(err, domainfleet.ErrVehicleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, BookingApp.ErrNotBookingOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domainfleet.ErrVehicleUnavailable),
		errors.Is(err, domainbooking.ErrPastPickup),
		errors.Is(err, domainmember.ErrInsufficientPoints):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func generateCommandID() string {
	return uuid.NewString()
}
