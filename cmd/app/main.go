package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightstore/api"
	"github.com/Domenick1991/flightstore/config"
	"github.com/Domenick1991/flightstore/internal/bootstrap"
	"github.com/Domenick1991/flightstore/internal/cache"
	"github.com/Domenick1991/flightstore/internal/kafka"
	"github.com/Domenick1991/flightstore/internal/logger"
	"github.com/Domenick1991/flightstore/internal/metrics"
	"github.com/Domenick1991/flightstore/internal/repository"
	"github.com/Domenick1991/flightstore/internal/seed"
	"github.com/Domenick1991/flightstore/internal/service/admin"
	"github.com/Domenick1991/flightstore/internal/service/booking"
	"github.com/Domenick1991/flightstore/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig(config.Path())
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger.Setup(cfg.Log)
	log := logger.For("app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	probes := map[string]bootstrap.Probe{}

	var (
		flightRepo  repository.FlightRepository
		bookingRepo repository.BookingRepository
	)
	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		flightRepo, bookingRepo = repository.NewMemoryRepositories()
		if _, err := seed.Run(ctx, flightRepo, time.Now()); err != nil {
			log.WithError(err).Fatal("seed memory store")
		}
	default:
		pool, err := openPostgres(ctx, cfg.Database)
		if err != nil {
			log.WithError(err).Fatal("connect postgres")
		}
		defer pool.Close()
		flightRepo = repository.NewFlightRepository(pool)
		bookingRepo = repository.NewBookingRepository(pool)
		probes["database"] = pool.Ping
	}

	m := metrics.New()

	var (
		flightCache  flights.FlightCache
		bookingCache booking.Cache
	)
	bookingOpts := []booking.BookingServiceOption{booking.WithMetrics(m)}
	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			log.WithError(err).Warn("redis unreachable, flight lists will be served from storage")
		}
		flightCache, bookingCache = redisCache, redisCache
		bookingOpts = append(bookingOpts, booking.WithSeatLocks(redisCache, time.Duration(cfg.Booking.SeatLockTTL)*time.Second))
		probes["redis"] = redisCache.Ping
	}

	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			log.WithError(err).Warn("kafka unreachable, booking events may be dropped")
		}
		bookingOpts = append(bookingOpts,
			booking.WithProducer(producer, cfg.Kafka.BookingEventsTopic),
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
			booking.WithPublishRetries(cfg.Kafka.PublishRetries),
		)
		probes["kafka"] = producer.CheckConnection
	}

	flightService := flights.NewFlightService(flightRepo, flightCache, flights.WithMetrics(m))
	bookingService := booking.NewBookingService(bookingRepo, flightRepo, bookingCache, bookingOpts...)
	adminService := admin.NewAdminService(flightRepo, cfg.Auth)

	checks := make(map[string]api.HealthCheck, len(probes))
	for name, probe := range probes {
		checks[name] = api.HealthCheck(probe)
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(flightService, bookingService, adminService, api.RouterOptions{
		RequestTimeout: time.Duration(cfg.HTTP.RequestTimeoutSeconds) * time.Second,
		SwaggerDir:     cfg.HTTP.SwaggerDir,
		Metrics:        m,
		HealthChecks:   checks,
	})

	if err := bootstrap.Run(ctx, cfg, router, probes); err != nil {
		log.WithError(err).Fatal("server error")
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if cfg.Migrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return pool, nil
}
