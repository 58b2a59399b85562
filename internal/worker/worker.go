package worker

import (
	"context"
	"time"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/Domenick1991/flightstore/internal/kafka"
	"github.com/Domenick1991/flightstore/internal/logger"
	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

type Notifier interface {
	Send(ctx context.Context, event kafka.BookingEvent) error
}

type StatsSource interface {
	Stats(ctx context.Context) (domain.FlightStats, error)
}

// Notify delivers a booking notification. Delivery failures are logged and
// swallowed so the consumer keeps its position.
func Notify(n Notifier) func(context.Context, kafka.BookingEvent) error {
	log := logger.For("notifier")
	return func(ctx context.Context, event kafka.BookingEvent) error {
		if err := n.Send(ctx, event); err != nil {
			log.WithError(err).WithFields(logrus.Fields{"type": event.Type, "booking_id": event.BookingID}).Error("notification failed")
		}
		return nil
	}
}

// ReportStats logs one inventory snapshot.
func ReportStats(ctx context.Context, src StatsSource) error {
	stats, err := src.Stats(ctx)
	if err != nil {
		return err
	}
	logger.For("stats").WithFields(logrus.Fields{
		"flights":         stats.TotalFlights,
		"total_seats":     stats.TotalSeats,
		"available_seats": stats.AvailableSeats,
		"booked_seats":    stats.BookedSeats,
		"occupancy_rate":  stats.OccupancyRate,
		"revenue":         stats.Revenue,
	}).Info("inventory snapshot")
	return nil
}

// NewStatsScheduler returns a started scheduler that runs ReportStats every
// interval. The caller shuts it down.
func NewStatsScheduler(ctx context.Context, src StatsSource, interval time.Duration) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := ReportStats(ctx, src); err != nil {
				logger.For("stats").WithError(err).Warn("stats report failed")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}
	s.Start()
	return s, nil
}
