package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightstore/config"
	"github.com/Domenick1991/flightstore/internal/email"
	"github.com/Domenick1991/flightstore/internal/kafka"
	"github.com/Domenick1991/flightstore/internal/logger"
	"github.com/Domenick1991/flightstore/internal/repository"
	"github.com/Domenick1991/flightstore/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig(config.Path())
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger.Setup(cfg.Log)
	log := logger.For("worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.Driver == config.DriverPostgres {
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.WithError(err).Fatal("connect postgres")
		}
		defer pool.Close()

		scheduler, err := worker.NewStatsScheduler(ctx, repository.NewFlightRepository(pool), time.Duration(cfg.Worker.StatsIntervalMinutes)*time.Minute)
		if err != nil {
			log.WithError(err).Fatal("start stats scheduler")
		}
		defer func() { _ = scheduler.Shutdown() }()
	}

	if !cfg.Kafka.Enabled() {
		log.Warn("kafka is not configured, notifications disabled")
		<-ctx.Done()
		return
	}

	topic := cfg.Kafka.NotificationsTopic
	if topic == "" {
		topic = cfg.Kafka.BookingEventsTopic
	}
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, topic)
	defer consumer.Close()

	sender := email.NewSender(cfg.Email)

	log.WithField("topic", topic).Info("consuming booking events")
	if err := consumer.Consume(ctx, kafka.BookingEventHandler(worker.Notify(sender))); err != nil {
		log.WithError(err).Error("consumer stopped")
	}
	log.Info("worker stopped")
}
