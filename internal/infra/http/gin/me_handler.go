package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	MeApp "fleetrent/internal/app/handlers/me"
	"fleetrent/internal/app/queries"
)

type MeHTTP interface {
	ListBookings(c *gin.Context)
}

type MeHandler struct {
	Queries queries.Bus
}

func (h MeHandler) ListBookings(c *gin.Context) {
	member, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := MeApp.MemberBookingsQuery{
		MemberID: member.ID,
		Status:   c.Query("status"),
	}
	result, err := queries.Ask[MeApp.MemberBookingsQuery, MeApp.MemberBookingsResult](c.Request.Context(), h.Queries, query)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ MeHTTP = MeHandler{}
