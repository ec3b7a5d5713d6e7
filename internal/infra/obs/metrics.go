package obs

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

var (
	metricsOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleetrent",
			Name:      "http_requests_total",
			Help:      "HTTP requests by path, method and status.",
		},
		[]string{"path", "method", "status"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fleetrent",
			Name:      "bookings_created_total",
			Help:      "Bookings accepted by the create command.",
		},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fleetrent",
			Name:      "booking_conflicts_total",
			Help:      "Create attempts rejected by the overlap check.",
		},
	)

	availabilityDegraded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fleetrent",
			Name:      "availability_degraded_total",
			Help:      "Availability answers degraded to unavailable by store faults.",
		},
	)
)

// RegisterMetrics registers Prometheus collectors. Safe to call multiple times.
func RegisterMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, bookingConflicts, availabilityDegraded)
	})
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func IncHTTP(path, method string, status int) {
	if path == "" {
		path = "unmatched"
	}
	httpRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
}

func IncBookingCreated() { bookingsCreated.Inc() }

func IncBookingConflict() { bookingConflicts.Inc() }

func IncAvailabilityDegraded() { availabilityDegraded.Inc() }
