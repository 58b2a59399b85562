package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingViewQuery = `SELECT b.id::text, b.flight_id::text, b.passenger_name, b.email, b.passengers, b.seat_class,
	b.seat_number, b.total_price, b.status, b.booked_at, b.created_at, b.updated_at,
	f.flight_number, f.airline, f.from_city, f.to_city, f.base_price, f.duration, f.departure_time
FROM bookings b JOIN flights f ON f.id = b.flight_id`

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storageErr("begin", err)
	}
	defer rollback(ctx, tx)

	booking.SeatClass = booking.SeatClass.OrDefault()
	if err := reserveSeats(ctx, tx, booking.FlightID, booking.SeatClass, booking.Passengers); err != nil {
		return err
	}

	booking.ID = uuid.NewString()
	if booking.Status == "" {
		booking.Status = domain.BookingStatusConfirmed
	}
	if booking.BookedAt.IsZero() {
		booking.BookedAt = time.Now().UTC()
	}

	if err := tx.QueryRow(ctx, `INSERT INTO bookings (id, flight_id, passenger_name, email, passengers, seat_class,
			seat_number, total_price, status, booked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		booking.ID, booking.FlightID, booking.PassengerName, booking.Email, booking.Passengers, booking.SeatClass,
		nullString(booking.SeatNumber), booking.TotalPrice, booking.Status, booking.BookedAt).
		Scan(&booking.CreatedAt, &booking.UpdatedAt); err != nil {
		if hasCode(err, pgUniqueViolation) {
			return domain.ErrSeatTaken
		}
		return storageErr("insert booking", err)
	}

	return storageErr("commit", tx.Commit(ctx))
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, bookingViewQuery+` WHERE b.id = $1`, id))
	if err != nil {
		if isAbsent(err) {
			return nil, nil
		}
		return nil, storageErr("get booking", err)
	}
	return b, nil
}

func (r *PGBookingRepository) ListByEmail(ctx context.Context, email string) ([]domain.Booking, error) {
	return r.list(ctx, bookingViewQuery+` WHERE lower(b.email) = lower($1) ORDER BY b.created_at DESC`, email)
}

func (r *PGBookingRepository) ListAll(ctx context.Context) ([]domain.Booking, error) {
	return r.list(ctx, bookingViewQuery+` ORDER BY b.created_at DESC`)
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, domain.BookingStatus, error) {
	if !status.Valid() {
		return nil, "", domain.ErrInvalidStatus
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, "", storageErr("begin", err)
	}
	defer rollback(ctx, tx)

	current, err := lockBooking(ctx, tx, id)
	if err != nil {
		return nil, "", err
	}

	if current.Status != status {
		switch {
		case current.Status.HoldsSeats() && !status.HoldsSeats():
			err = releaseSeats(ctx, tx, current.FlightID, current.SeatClass, current.Passengers)
		case !current.Status.HoldsSeats() && status.HoldsSeats():
			err = reserveSeats(ctx, tx, current.FlightID, current.SeatClass, current.Passengers)
		}
		if err != nil {
			return nil, "", err
		}

		if _, err := tx.Exec(ctx, `UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1`, id, status); err != nil {
			if hasCode(err, pgUniqueViolation) {
				return nil, "", domain.ErrSeatTaken
			}
			return nil, "", storageErr("update booking status", err)
		}
	}

	b, err := scanBooking(tx.QueryRow(ctx, bookingViewQuery+` WHERE b.id = $1`, id))
	if err != nil {
		return nil, "", storageErr("get booking", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, "", storageErr("commit", err)
	}
	return b, current.Status, nil
}

func (r *PGBookingRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storageErr("begin", err)
	}
	defer rollback(ctx, tx)

	current, err := lockBooking(ctx, tx, id)
	if err != nil {
		return err
	}
	if current.Status.HoldsSeats() {
		if err := releaseSeats(ctx, tx, current.FlightID, current.SeatClass, current.Passengers); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id); err != nil {
		return storageErr("delete booking", err)
	}
	return storageErr("commit", tx.Commit(ctx))
}

func (r *PGBookingRepository) list(ctx context.Context, sql string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, storageErr("query bookings", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, storageErr("scan booking", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, storageErr("query bookings", rows.Err())
}

func lockBooking(ctx context.Context, q querier, id string) (*domain.Booking, error) {
	var b domain.Booking
	err := q.QueryRow(ctx, `SELECT id::text, flight_id::text, seat_class, passengers, status FROM bookings WHERE id = $1 FOR UPDATE`, id).
		Scan(&b.ID, &b.FlightID, &b.SeatClass, &b.Passengers, &b.Status)
	if err != nil {
		if isAbsent(err) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, storageErr("lock booking", err)
	}
	return &b, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b          domain.Booking
		seatNumber *string
		f          domain.FlightSummary
	)
	if err := row.Scan(&b.ID, &b.FlightID, &b.PassengerName, &b.Email, &b.Passengers, &b.SeatClass,
		&seatNumber, &b.TotalPrice, &b.Status, &b.BookedAt, &b.CreatedAt, &b.UpdatedAt,
		&f.FlightNumber, &f.Airline, &f.FromCity, &f.ToCity, &f.BasePrice, &f.Duration, &f.DepartureTime); err != nil {
		return nil, err
	}
	if seatNumber != nil {
		b.SeatNumber = *seatNumber
	}
	b.Flight = &f
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
