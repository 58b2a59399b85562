package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flightstore"

// Booking outcomes recorded by BookingOutcome.
const (
	OutcomeCreated           = "created"
	OutcomeInsufficientSeats = "insufficient_seats"
	OutcomeSeatTaken         = "seat_taken"
	OutcomeInvalid           = "invalid"
	OutcomeNotFound          = "not_found"
	OutcomeError             = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	bookings       *prometheus.CounterVec
	statusChanges  *prometheus.CounterVec
	seatsReserved  prometheus.Counter
	seatsReleased  prometheus.Counter
	cacheLookups   *prometheus.CounterVec
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome.",
		}, []string{"outcome"}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_status_changes_total",
			Help:      "Booking status transitions by target status.",
		}, []string{"status"}),
		seatsReserved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seats_reserved_total",
			Help:      "Seats taken from flight inventory.",
		}),
		seatsReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seats_released_total",
			Help:      "Seats returned to flight inventory.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flight_cache_lookups_total",
			Help:      "Flight list cache lookups by result.",
		}, []string{"result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.bookings, m.statusChanges, m.seatsReserved, m.seatsReleased, m.cacheLookups, m.requests, m.requestLatency)
	return m
}

// The recording methods are safe on a nil receiver so callers can run without metrics.

func (m *Metrics) BookingOutcome(outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StatusChanged(status string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) SeatsReserved(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.seatsReserved.Add(float64(n))
}

func (m *Metrics) SeatsReleased(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.seatsReleased.Add(float64(n))
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
