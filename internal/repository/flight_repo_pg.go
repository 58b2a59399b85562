package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const flightColumns = `id::text, flight_number, airline, from_city, to_city, departure_time, arrival_time,
	total_seats, available_seats, base_price, duration, created_at, updated_at`

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) List(ctx context.Context, order domain.FlightOrder) ([]domain.Flight, error) {
	orderBy := `departure_time ASC NULLS LAST, created_at DESC`
	if order == domain.OrderByRecent {
		orderBy = `created_at DESC`
	}
	return r.query(ctx, r.db, `SELECT `+flightColumns+` FROM flights ORDER BY `+orderBy)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *PGFlightRepository) Search(ctx context.Context, filter domain.SearchFilter) ([]domain.Flight, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.FromCity != "" {
		conds = append(conds, "from_city ILIKE "+arg("%"+likeEscaper.Replace(filter.FromCity)+"%"))
	}
	if filter.ToCity != "" {
		conds = append(conds, "to_city ILIKE "+arg("%"+likeEscaper.Replace(filter.ToCity)+"%"))
	}
	if start, end, ok := filter.DayWindow(); ok {
		conds = append(conds, "departure_time >= "+arg(start), "departure_time < "+arg(end))
	}
	if filter.MinSeats > 0 {
		conds = append(conds, "available_seats >= "+arg(filter.MinSeats))
	}

	query := `SELECT ` + flightColumns + ` FROM flights`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY base_price ASC, departure_time ASC NULLS LAST`

	return r.query(ctx, r.db, query, args...)
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	return getFlight(ctx, r.db, id, false)
}

func (r *PGFlightRepository) Create(ctx context.Context, f *domain.Flight) error {
	if err := f.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storageErr("begin", err)
	}
	defer rollback(ctx, tx)

	f.ID = uuid.NewString()
	if err := tx.QueryRow(ctx, `INSERT INTO flights (id, flight_number, airline, from_city, to_city, departure_time, arrival_time,
			total_seats, available_seats, base_price, duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		f.ID, f.FlightNumber, f.Airline, f.FromCity, f.ToCity, f.DepartureTime, f.ArrivalTime,
		f.TotalSeats, f.AvailableSeats, f.BasePrice, f.Duration).
		Scan(&f.CreatedAt, &f.UpdatedAt); err != nil {
		return storageErr("insert flight", err)
	}

	if err := insertAllocations(ctx, tx, f.ID, f.SeatAllocations); err != nil {
		return err
	}
	return storageErr("commit", tx.Commit(ctx))
}

func (r *PGFlightRepository) Update(ctx context.Context, id string, patch domain.FlightPatch) (*domain.Flight, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storageErr("begin", err)
	}
	defer rollback(ctx, tx)

	f, err := getFlight(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, domain.ErrFlightNotFound
	}

	patch.Apply(f)
	if err := f.Validate(); err != nil {
		return nil, err
	}

	if err := tx.QueryRow(ctx, `UPDATE flights SET flight_number=$2, airline=$3, from_city=$4, to_city=$5,
			departure_time=$6, arrival_time=$7, total_seats=$8, available_seats=$9, base_price=$10, duration=$11, updated_at=now()
		WHERE id=$1 RETURNING updated_at`,
		f.ID, f.FlightNumber, f.Airline, f.FromCity, f.ToCity, f.DepartureTime, f.ArrivalTime,
		f.TotalSeats, f.AvailableSeats, f.BasePrice, f.Duration).Scan(&f.UpdatedAt); err != nil {
		return nil, storageErr("update flight", err)
	}

	if patch.SeatAllocations != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM seat_allocations WHERE flight_id = $1`, f.ID); err != nil {
			return nil, storageErr("replace allocations", err)
		}
		if err := insertAllocations(ctx, tx, f.ID, f.SeatAllocations); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageErr("commit", err)
	}
	return f, nil
}

func (r *PGFlightRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `DELETE FROM flights WHERE id = $1`, id)
	if err != nil {
		if isAbsent(err) {
			return domain.ErrFlightNotFound
		}
		return storageErr("delete flight", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrFlightNotFound
	}
	return nil
}

func (r *PGFlightRepository) DecrementAvailability(ctx context.Context, id string, class domain.SeatClass, seats int) (*domain.Flight, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storageErr("begin", err)
	}
	defer rollback(ctx, tx)

	if err := reserveSeats(ctx, tx, id, class, seats); err != nil {
		return nil, err
	}
	f, err := getFlight(ctx, tx, id, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, storageErr("commit", err)
	}
	return f, nil
}

func (r *PGFlightRepository) IncrementAvailability(ctx context.Context, id string, class domain.SeatClass, seats int) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storageErr("begin", err)
	}
	defer rollback(ctx, tx)

	if err := releaseSeats(ctx, tx, id, class, seats); err != nil {
		return err
	}
	return storageErr("commit", tx.Commit(ctx))
}

func (r *PGFlightRepository) Stats(ctx context.Context) (domain.FlightStats, error) {
	var (
		stats    domain.FlightStats
		revenue  float64
		sumPrice float64
	)
	err := r.db.QueryRow(ctx, `SELECT COUNT(*),
			COALESCE(SUM(total_seats), 0),
			COALESCE(SUM(available_seats), 0),
			COALESCE(SUM((total_seats - available_seats) * base_price), 0),
			COALESCE(SUM(base_price), 0)
		FROM flights`).Scan(&stats.TotalFlights, &stats.TotalSeats, &stats.AvailableSeats, &revenue, &sumPrice)
	if err != nil {
		return domain.FlightStats{}, storageErr("flight stats", err)
	}
	stats.Revenue = revenue
	stats.Finalize(sumPrice)
	return stats, nil
}

func (r *PGFlightRepository) query(ctx context.Context, q querier, sql string, args ...any) ([]domain.Flight, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, storageErr("query flights", err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, storageErr("scan flight", err)
		}
		flights = append(flights, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query flights", err)
	}

	if err := attachAllocations(ctx, q, flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func getFlight(ctx context.Context, q querier, id string, forUpdate bool) (*domain.Flight, error) {
	sql := `SELECT ` + flightColumns + ` FROM flights WHERE id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	f, err := scanFlight(q.QueryRow(ctx, sql, id))
	if err != nil {
		if isAbsent(err) {
			return nil, nil
		}
		return nil, storageErr("get flight", err)
	}

	one := []domain.Flight{*f}
	if err := attachAllocations(ctx, q, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.FlightNumber, &f.Airline, &f.FromCity, &f.ToCity, &f.DepartureTime, &f.ArrivalTime,
		&f.TotalSeats, &f.AvailableSeats, &f.BasePrice, &f.Duration, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func attachAllocations(ctx context.Context, q querier, flights []domain.Flight) error {
	if len(flights) == 0 {
		return nil
	}
	ids := make([]string, len(flights))
	index := make(map[string]int, len(flights))
	for i, f := range flights {
		ids[i] = f.ID
		index[f.ID] = i
	}

	rows, err := q.Query(ctx, `SELECT flight_id::text, class, total_seats, available_seats, price
		FROM seat_allocations WHERE flight_id::text = ANY($1)
		ORDER BY flight_id, array_position(ARRAY['economy','premium-economy','business','first'], class)`, ids)
	if err != nil {
		return storageErr("query allocations", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			flightID string
			a        domain.SeatAllocation
		)
		if err := rows.Scan(&flightID, &a.Class, &a.TotalSeats, &a.AvailableSeats, &a.Price); err != nil {
			return storageErr("scan allocation", err)
		}
		if i, ok := index[flightID]; ok {
			flights[i].SeatAllocations = append(flights[i].SeatAllocations, a)
		}
	}
	return storageErr("query allocations", rows.Err())
}

func insertAllocations(ctx context.Context, q querier, flightID string, allocations []domain.SeatAllocation) error {
	for _, a := range allocations {
		if _, err := q.Exec(ctx, `INSERT INTO seat_allocations (flight_id, class, total_seats, available_seats, price)
			VALUES ($1, $2, $3, $4, $5)`, flightID, a.Class, a.TotalSeats, a.AvailableSeats, a.Price); err != nil {
			if hasCode(err, pgUniqueViolation) {
				return fmt.Errorf("%w: duplicate allocation for class %s", domain.ErrInvalidInput, a.Class)
			}
			return storageErr("insert allocation", err)
		}
	}
	return nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
