package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"fleetrent/internal/infra/config"
	"fleetrent/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Cancel(c *gin.Context)
	Confirm(c *gin.Context)
	Pickup(c *gin.Context)
	Return(c *gin.Context)
	NoShow(c *gin.Context)
}

type FleetHTTP interface {
	Search(c *gin.Context)
	Get(c *gin.Context)
	Availability(c *gin.Context)
	Estimate(c *gin.Context)
}

type Handlers struct {
	Booking        BookingHTTP
	Fleet          FleetHTTP
	Auth           AuthHTTP
	Me             MeHTTP
	Admin          AdminHTTP
	AuthMiddleware gin.HandlerFunc
	RateLimit      gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}
	if h.RateLimit != nil {
		router.Use(h.RateLimit)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	router.GET("/metrics", obs.MetricsHandler())

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Fleet != nil {
		api.GET("/vehicles", h.Fleet.Search)
		api.GET("/vehicles/:id", h.Fleet.Get)
		api.GET("/vehicles/:id/availability", h.Fleet.Availability)
		api.GET("/vehicles/:id/estimate", h.Fleet.Estimate)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
		api.POST("/bookings/:id/confirm", h.Booking.Confirm)
		api.POST("/bookings/:id/pickup", h.Booking.Pickup)
		api.POST("/bookings/:id/return", h.Booking.Return)
		api.POST("/bookings/:id/no-show", h.Booking.NoShow)
	}
	if h.Me != nil {
		meGroup := api.Group("/me")
		meGroup.GET("/bookings", h.Me.ListBookings)
	}
	if h.Admin != nil {
		adminGroup := api.Group("/admin")
		adminGroup.POST("/vehicles", h.Admin.RegisterVehicle)
		adminGroup.PATCH("/vehicles/:id", h.Admin.UpdateVehicle)
		adminGroup.POST("/vehicles/:id/retire", h.Admin.RetireVehicle)
		adminGroup.POST("/vehicles/:id/photos", h.Admin.UploadPhoto)
		adminGroup.GET("/stats", h.Admin.Stats)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}

var _ BookingHTTP = BookingHandler{}
var _ FleetHTTP = FleetHandler{}
