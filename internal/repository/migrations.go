package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

var migrations = []string{
	createFlightsTable,
	createSeatAllocationsTable,
	createBookingsTable,
	createFlightsRouteIndex,
	createBookingsEmailIndex,
	createBookingsActiveSeatIndex,
}

func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for i, m := range migrations {
		if _, err := db.Exec(ctx, m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	logrus.WithField("steps", len(migrations)).Info("database migrations applied")
	return nil
}

const createFlightsTable = `
CREATE TABLE IF NOT EXISTS flights (
    id              UUID PRIMARY KEY,
    flight_number   TEXT NOT NULL,
    airline         TEXT NOT NULL DEFAULT '',
    from_city       TEXT NOT NULL,
    to_city         TEXT NOT NULL,
    departure_time  TIMESTAMPTZ,
    arrival_time    TIMESTAMPTZ,
    total_seats     INTEGER NOT NULL CHECK (total_seats >= 0),
    available_seats INTEGER NOT NULL CHECK (available_seats >= 0),
    base_price      DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (base_price >= 0),
    duration        TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT flights_available_within_total CHECK (available_seats <= total_seats)
);`

const createSeatAllocationsTable = `
CREATE TABLE IF NOT EXISTS seat_allocations (
    flight_id       UUID NOT NULL REFERENCES flights(id) ON DELETE CASCADE,
    class           TEXT NOT NULL,
    total_seats     INTEGER NOT NULL CHECK (total_seats >= 0),
    available_seats INTEGER NOT NULL CHECK (available_seats >= 0),
    price           DOUBLE PRECISION NOT NULL DEFAULT 0,
    PRIMARY KEY (flight_id, class),
    CONSTRAINT seat_allocations_available_within_total CHECK (available_seats <= total_seats)
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id             UUID PRIMARY KEY,
    flight_id      UUID NOT NULL REFERENCES flights(id) ON DELETE CASCADE,
    passenger_name TEXT NOT NULL,
    email          TEXT NOT NULL,
    passengers     INTEGER NOT NULL DEFAULT 1 CHECK (passengers > 0),
    seat_class     TEXT NOT NULL DEFAULT 'economy',
    seat_number    TEXT,
    total_price    DOUBLE PRECISION NOT NULL DEFAULT 0,
    status         TEXT NOT NULL,
    booked_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const createFlightsRouteIndex = `
CREATE INDEX IF NOT EXISTS flights_route_idx ON flights (lower(from_city), lower(to_city));`

const createBookingsEmailIndex = `
CREATE INDEX IF NOT EXISTS bookings_email_idx ON bookings (lower(email));`

const createBookingsActiveSeatIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS bookings_active_seat_idx ON bookings (flight_id, seat_number)
    WHERE seat_number IS NOT NULL AND status <> 'cancelled';`
