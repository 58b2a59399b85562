package main

import (
	"context"
	"time"

	"github.com/Domenick1991/flightstore/config"
	"github.com/Domenick1991/flightstore/internal/logger"
	"github.com/Domenick1991/flightstore/internal/repository"
	"github.com/Domenick1991/flightstore/internal/seed"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig(config.Path())
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger.Setup(cfg.Log)
	log := logger.For("seed")

	if cfg.Database.Driver != config.DriverPostgres {
		log.Fatal("seeding needs the postgres driver; the memory store is not persistent")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		log.WithError(err).Fatal("migrate")
	}
	if _, err := seed.Run(ctx, repository.NewFlightRepository(pool), time.Now()); err != nil {
		log.WithError(err).Fatal("seed flights")
	}
}
