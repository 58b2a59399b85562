package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type FlightRepository interface {
	List(ctx context.Context, order domain.FlightOrder) ([]domain.Flight, error)
	Search(ctx context.Context, filter domain.SearchFilter) ([]domain.Flight, error)
	// GetByID returns nil without error when the flight does not exist.
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
	Create(ctx context.Context, flight *domain.Flight) error
	Update(ctx context.Context, id string, patch domain.FlightPatch) (*domain.Flight, error)
	Delete(ctx context.Context, id string) error
	DecrementAvailability(ctx context.Context, id string, class domain.SeatClass, seats int) (*domain.Flight, error)
	IncrementAvailability(ctx context.Context, id string, class domain.SeatClass, seats int) error
	Stats(ctx context.Context) (domain.FlightStats, error)
}

type BookingRepository interface {
	// Create reserves the seats and stores the booking atomically.
	Create(ctx context.Context, booking *domain.Booking) error
	// GetByID returns nil without error when the booking does not exist.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Booking, error)
	ListAll(ctx context.Context) ([]domain.Booking, error)
	// UpdateStatus returns the booking after the change and the status it
	// held when the row was locked.
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, domain.BookingStatus, error)
	Delete(ctx context.Context, id string) error
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	pgUniqueViolation   = "23505"
	pgInvalidTextFormat = "22P02"
)

// storageErr wraps a driver error. Errors without a server response (dial
// failures, broken connections, timeouts) are marked transient.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// isAbsent covers both a missing row and an id that is not a valid uuid.
func isAbsent(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || hasCode(err, pgInvalidTextFormat)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
