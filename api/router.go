package api

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Domenick1991/flightstore/docs"
	"github.com/Domenick1991/flightstore/internal/metrics"
	"github.com/Domenick1991/flightstore/internal/service/admin"
	"github.com/Domenick1991/flightstore/internal/service/booking"
	"github.com/Domenick1991/flightstore/internal/service/flights"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
)

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

type RouterOptions struct {
	RequestTimeout time.Duration
	SwaggerDir     string
	Metrics        *metrics.Metrics
	HealthChecks   map[string]HealthCheck
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func NewRouter(
	flightSvc flights.FlightUseCase,
	bookingSvc booking.BookingUseCase,
	adminSvc admin.AdminUseCase,
	opts RouterOptions,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())
	if opts.Metrics != nil {
		router.Use(opts.Metrics.GinMiddleware())
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	router.GET("/health", health(opts.HealthChecks))
	router.GET("/openapi.json", openAPI(opts.SwaggerDir))
	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/openapi.json"))))

	flightHandler := NewFlightHandler(flightSvc)
	bookingHandler := NewBookingHandler(bookingSvc)
	workflowHandler := NewWorkflowHandler(flightSvc, bookingSvc)
	adminHandler := NewAdminHandler(adminSvc)

	v1 := router.Group("/api/v1", Timeout(opts.RequestTimeout))
	v1.GET("/seat-classes", seatClasses)
	flightHandler.Register(v1.Group("/flights"))
	bookingHandler.Register(v1.Group("/bookings"))
	workflowHandler.Register(v1)

	adminPublic := v1.Group("/admin")
	adminHandler.RegisterPublic(adminPublic)

	adminGroup := v1.Group("/admin", AdminAuth(adminSvc))
	adminHandler.Register(adminGroup)
	flightHandler.RegisterAdmin(adminGroup.Group("/flights"))
	bookingHandler.RegisterAdmin(adminGroup.Group("/bookings"))

	return router
}

func health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			err := check(ctx)
			cancel()
			if err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		c.JSON(status, resp)
	}
}

// openAPI serves the API document from dir when set, otherwise the embedded copy.
func openAPI(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if dir != "" {
			c.File(filepath.Join(dir, "openapi.json"))
			return
		}
		c.Data(http.StatusOK, "application/json", docs.OpenAPI)
	}
}
