package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/jackc/pgx/v5"
)

// reserveSeats takes seats from the flight and, when the flight has an allocation
// for class, from that allocation too. Both updates are conditional so concurrent
// callers can never drive a counter below zero. Must run inside a transaction.
func reserveSeats(ctx context.Context, q querier, flightID string, class domain.SeatClass, seats int) error {
	if seats <= 0 {
		return domain.ErrInvalidPassengers
	}

	var available int
	err := q.QueryRow(ctx, `UPDATE flights SET available_seats = available_seats - $2, updated_at = now()
		WHERE id = $1 AND available_seats >= $2 RETURNING available_seats`, flightID, seats).Scan(&available)
	if err != nil {
		if hasCode(err, pgInvalidTextFormat) {
			return domain.ErrFlightNotFound
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return storageErr("reserve seats", err)
		}
		exists, err := flightExists(ctx, q, flightID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrFlightNotFound
		}
		return domain.ErrInsufficientSeats
	}

	if class == "" {
		return nil
	}
	res, err := q.Exec(ctx, `UPDATE seat_allocations SET available_seats = available_seats - $3
		WHERE flight_id = $1 AND class = $2 AND available_seats >= $3`, flightID, class, seats)
	if err != nil {
		return storageErr("reserve class seats", err)
	}
	if res.RowsAffected() > 0 {
		return nil
	}

	var hasAllocation bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM seat_allocations WHERE flight_id = $1 AND class = $2)`, flightID, class).Scan(&hasAllocation); err != nil {
		return storageErr("check allocation", err)
	}
	if hasAllocation {
		return domain.ErrInsufficientSeats
	}
	return nil
}

// releaseSeats returns seats to the flight and class counters, never above total.
func releaseSeats(ctx context.Context, q querier, flightID string, class domain.SeatClass, seats int) error {
	if seats <= 0 {
		return domain.ErrInvalidPassengers
	}

	res, err := q.Exec(ctx, `UPDATE flights SET available_seats = LEAST(total_seats, available_seats + $2), updated_at = now()
		WHERE id = $1`, flightID, seats)
	if err != nil {
		if isAbsent(err) {
			return domain.ErrFlightNotFound
		}
		return storageErr("release seats", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrFlightNotFound
	}

	if class == "" {
		return nil
	}
	if _, err := q.Exec(ctx, `UPDATE seat_allocations SET available_seats = LEAST(total_seats, available_seats + $3)
		WHERE flight_id = $1 AND class = $2`, flightID, class, seats); err != nil {
		return storageErr("release class seats", err)
	}
	return nil
}

func flightExists(ctx context.Context, q querier, flightID string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM flights WHERE id = $1)`, flightID).Scan(&exists)
	if err != nil {
		if isAbsent(err) {
			return false, nil
		}
		return false, storageErr("check flight", err)
	}
	return exists, nil
}

func rollback(ctx context.Context, tx pgx.Tx) {
	_ = tx.Rollback(ctx)
}
