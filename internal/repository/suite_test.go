package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repoFactory func(t *testing.T) (FlightRepository, BookingRepository)

func day(year int, month time.Month, d, hour int) *time.Time {
	t := time.Date(year, month, d, hour, 0, 0, 0, time.UTC)
	return &t
}

func seedFlight(t *testing.T, repo FlightRepository, f domain.Flight) domain.Flight {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &f))
	require.NotEmpty(t, f.ID)
	return f
}

func runRepositorySuite(t *testing.T, newRepos repoFactory) {
	t.Run("SearchRouteOrderedByPrice", func(t *testing.T) {
		flights, _ := newRepos(t)
		ctx := context.Background()

		seedFlight(t, flights, domain.Flight{FlightNumber: "UA202", Airline: "United Airlines", FromCity: "New York", ToCity: "Los Angeles", DepartureTime: day(2026, 11, 3, 9), TotalSeats: 160, AvailableSeats: 23, BasePrice: 349})
		seedFlight(t, flights, domain.Flight{FlightNumber: "AA101", Airline: "American Airlines", FromCity: "New York", ToCity: "Los Angeles", DepartureTime: day(2026, 11, 3, 7), TotalSeats: 180, AvailableSeats: 156, BasePrice: 299})
		seedFlight(t, flights, domain.Flight{FlightNumber: "DL303", Airline: "Delta Airlines", FromCity: "New York", ToCity: "Los Angeles", DepartureTime: day(2026, 11, 3, 18), TotalSeats: 200, AvailableSeats: 67, BasePrice: 279})
		seedFlight(t, flights, domain.Flight{FlightNumber: "AA111", Airline: "American Airlines", FromCity: "New York", ToCity: "Los Angeles", DepartureTime: day(2026, 11, 4, 7), TotalSeats: 180, AvailableSeats: 180, BasePrice: 199})
		seedFlight(t, flights, domain.Flight{FlightNumber: "SW404", Airline: "Southwest Airlines", FromCity: "Chicago", ToCity: "Miami", DepartureTime: day(2026, 11, 3, 10), TotalSeats: 150, AvailableSeats: 89, BasePrice: 199})

		found, err := flights.Search(ctx, domain.SearchFilter{FromCity: "New York", ToCity: "Los Angeles", DepartureDate: day(2026, 11, 3, 0)})
		require.NoError(t, err)
		require.Len(t, found, 3)
		assert.Equal(t, "DL303", found[0].FlightNumber)
		assert.Equal(t, "AA101", found[1].FlightNumber)
		assert.Equal(t, "UA202", found[2].FlightNumber)

		found, err = flights.Search(ctx, domain.SearchFilter{FromCity: "new york", ToCity: "angeles", DepartureDate: day(2026, 11, 3, 0), MinSeats: 50})
		require.NoError(t, err)
		require.Len(t, found, 2)

		found, err = flights.Search(ctx, domain.SearchFilter{FromCity: "Atlantis"})
		require.NoError(t, err)
		assert.NotNil(t, found)
		assert.Empty(t, found)
	})

	t.Run("GetUpdateDelete", func(t *testing.T) {
		flights, _ := newRepos(t)
		ctx := context.Background()

		f := seedFlight(t, flights, domain.Flight{
			FlightNumber: "JB505", Airline: "JetBlue Airways", FromCity: "Boston", ToCity: "San Francisco",
			TotalSeats: 140, AvailableSeats: 34, BasePrice: 389, Duration: "6h 35m",
			SeatAllocations: []domain.SeatAllocation{{Class: domain.SeatClassEconomy, TotalSeats: 120, AvailableSeats: 30}, {Class: domain.SeatClassBusiness, TotalSeats: 20, AvailableSeats: 4}},
		})

		got, err := flights.GetByID(ctx, f.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "6h 35m", got.Duration)
		assert.Len(t, got.SeatAllocations, 2)

		missing, err := flights.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		require.NoError(t, err)
		assert.Nil(t, missing)

		price := 399.0
		updated, err := flights.Update(ctx, f.ID, domain.FlightPatch{BasePrice: &price})
		require.NoError(t, err)
		assert.Equal(t, 399.0, updated.BasePrice)
		assert.Equal(t, "JetBlue Airways", updated.Airline)
		assert.Len(t, updated.SeatAllocations, 2)

		tooMany := 500
		_, err = flights.Update(ctx, f.ID, domain.FlightPatch{AvailableSeats: &tooMany})
		assert.ErrorIs(t, err, domain.ErrInvalidSeatCounts)

		_, err = flights.Update(ctx, "00000000-0000-0000-0000-000000000000", domain.FlightPatch{BasePrice: &price})
		assert.ErrorIs(t, err, domain.ErrFlightNotFound)

		require.NoError(t, flights.Delete(ctx, f.ID))
		assert.ErrorIs(t, flights.Delete(ctx, f.ID), domain.ErrFlightNotFound)
	})

	t.Run("DuplicateSeatClassRejected", func(t *testing.T) {
		flights, bookings := newRepos(t)
		ctx := context.Background()

		twice := &domain.Flight{
			FlightNumber: "UA330", FromCity: "Denver", ToCity: "Houston", TotalSeats: 4, AvailableSeats: 4, BasePrice: 159,
			SeatAllocations: []domain.SeatAllocation{
				{Class: domain.SeatClassEconomy, TotalSeats: 2, AvailableSeats: 2},
				{Class: domain.SeatClassEconomy, TotalSeats: 2, AvailableSeats: 2},
			},
		}
		err := flights.Create(ctx, twice)
		assert.ErrorIs(t, err, domain.ErrDuplicateSeatClass)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		f := seedFlight(t, flights, domain.Flight{
			FlightNumber: "UA331", FromCity: "Denver", ToCity: "Houston", TotalSeats: 4, AvailableSeats: 4, BasePrice: 159,
			SeatAllocations: []domain.SeatAllocation{{Class: domain.SeatClassEconomy, TotalSeats: 4, AvailableSeats: 4}},
		})
		dup := []domain.SeatAllocation{
			{Class: domain.SeatClassEconomy, TotalSeats: 2, AvailableSeats: 2},
			{Class: domain.SeatClassEconomy, TotalSeats: 2, AvailableSeats: 2},
		}
		_, err = flights.Update(ctx, f.ID, domain.FlightPatch{SeatAllocations: &dup})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		b := &domain.Booking{FlightID: f.ID, PassengerName: "Jane Doe", Email: "jane@example.com", Passengers: 3, SeatClass: domain.SeatClassEconomy}
		require.NoError(t, bookings.Create(ctx, b))
		got, err := flights.GetByID(ctx, f.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.AvailableSeats)
		economy, _ := got.Allocation(domain.SeatClassEconomy)
		assert.Equal(t, 1, economy.AvailableSeats)
		assert.Len(t, got.SeatAllocations, 1)
	})

	t.Run("DecrementAvailability", func(t *testing.T) {
		flights, _ := newRepos(t)
		ctx := context.Background()

		f := seedFlight(t, flights, domain.Flight{
			FlightNumber: "AS106", FromCity: "Seattle", ToCity: "Portland", TotalSeats: 10, AvailableSeats: 3, BasePrice: 129,
			SeatAllocations: []domain.SeatAllocation{{Class: domain.SeatClassFirst, TotalSeats: 2, AvailableSeats: 1}},
		})

		updated, err := flights.DecrementAvailability(ctx, f.ID, "", 2)
		require.NoError(t, err)
		assert.Equal(t, 1, updated.AvailableSeats)

		_, err = flights.DecrementAvailability(ctx, f.ID, "", 2)
		assert.ErrorIs(t, err, domain.ErrInsufficientSeats)

		updated, err = flights.DecrementAvailability(ctx, f.ID, domain.SeatClassFirst, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, updated.AvailableSeats)
		first, _ := updated.Allocation(domain.SeatClassFirst)
		assert.Equal(t, 0, first.AvailableSeats)

		_, err = flights.DecrementAvailability(ctx, "00000000-0000-0000-0000-000000000000", "", 1)
		assert.ErrorIs(t, err, domain.ErrFlightNotFound)

		require.NoError(t, flights.IncrementAvailability(ctx, f.ID, domain.SeatClassFirst, 5))
		got, err := flights.GetByID(ctx, f.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.AvailableSeats)
		first, _ = got.Allocation(domain.SeatClassFirst)
		assert.Equal(t, 2, first.AvailableSeats, "class availability is clamped to its total")
	})

	t.Run("BookLastSeatScenario", func(t *testing.T) {
		flights, bookings := newRepos(t)
		ctx := context.Background()

		f := seedFlight(t, flights, domain.Flight{FlightNumber: "AA101", Airline: "American Airlines", FromCity: "New York", ToCity: "Los Angeles", TotalSeats: 180, AvailableSeats: 1, BasePrice: 299})

		first := &domain.Booking{FlightID: f.ID, PassengerName: "Jane Doe", Email: "jane@example.com", Passengers: 1, SeatClass: domain.SeatClassEconomy, TotalPrice: 299}
		require.NoError(t, bookings.Create(ctx, first))
		assert.Equal(t, domain.BookingStatusConfirmed, first.Status)

		got, err := flights.GetByID(ctx, f.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.AvailableSeats)

		second := &domain.Booking{FlightID: f.ID, PassengerName: "John Roe", Email: "john@example.com", Passengers: 1, SeatClass: domain.SeatClassEconomy}
		assert.ErrorIs(t, bookings.Create(ctx, second), domain.ErrInsufficientSeats)

		got, err = flights.GetByID(ctx, f.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.AvailableSeats)

		all, err := bookings.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("ConcurrentLastSeat", func(t *testing.T) {
		flights, bookings := newRepos(t)
		ctx := context.Background()

		f := seedFlight(t, flights, domain.Flight{FlightNumber: "F9207", FromCity: "Denver", ToCity: "Las Vegas", TotalSeats: 180, AvailableSeats: 1, BasePrice: 159})

		const attempts = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			rejected  int
		)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := bookings.Create(ctx, &domain.Booking{FlightID: f.ID, PassengerName: "P", Email: "p@example.com", Passengers: 1})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case assert.ErrorIs(t, err, domain.ErrInsufficientSeats):
					rejected++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, attempts-1, rejected)

		got, err := flights.GetByID(ctx, f.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.AvailableSeats)
	})

	t.Run("CancelRestoresSeatsOnce", func(t *testing.T) {
		flights, bookings := newRepos(t)
		ctx := context.Background()

		f := seedFlight(t, flights, domain.Flight{FlightNumber: "B6308", FromCity: "Miami", ToCity: "New York", TotalSeats: 100, AvailableSeats: 56, BasePrice: 249,
			SeatAllocations: []domain.SeatAllocation{{Class: domain.SeatClassBusiness, TotalSeats: 10, AvailableSeats: 5}}})

		b := &domain.Booking{FlightID: f.ID, PassengerName: "Jane Doe", Email: "Jane@Example.com", Passengers: 1, SeatClass: domain.SeatClassBusiness, SeatNumber: "2A"}
		require.NoError(t, bookings.Create(ctx, b))

		got, _ := flights.GetByID(ctx, f.ID)
		assert.Equal(t, 55, got.AvailableSeats)

		dup := &domain.Booking{FlightID: f.ID, PassengerName: "Other", Email: "o@example.com", Passengers: 1, SeatClass: domain.SeatClassBusiness, SeatNumber: "2A"}
		assert.ErrorIs(t, bookings.Create(ctx, dup), domain.ErrSeatTaken)

		cancelled, previous, err := bookings.UpdateStatus(ctx, b.ID, domain.BookingStatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusConfirmed, previous)
		assert.Equal(t, domain.BookingStatusCancelled, cancelled.Status)
		require.NotNil(t, cancelled.Flight)
		assert.Equal(t, "B6308", cancelled.Flight.FlightNumber)

		again, previous, err := bookings.UpdateStatus(ctx, b.ID, domain.BookingStatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, previous)
		assert.Equal(t, domain.BookingStatusCancelled, again.Status)

		got, _ = flights.GetByID(ctx, f.ID)
		assert.Equal(t, 56, got.AvailableSeats)
		business, _ := got.Allocation(domain.SeatClassBusiness)
		assert.Equal(t, 5, business.AvailableSeats)

		mine, err := bookings.ListByEmail(ctx, "jane@example.com")
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, "Jane Doe", mine[0].PassengerName)

		_, _, err = bookings.UpdateStatus(ctx, b.ID, "refunded")
		assert.ErrorIs(t, err, domain.ErrInvalidStatus)

		_, _, err = bookings.UpdateStatus(ctx, "00000000-0000-0000-0000-000000000000", domain.BookingStatusCancelled)
		assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	})

	t.Run("ReactivateAndDelete", func(t *testing.T) {
		flights, bookings := newRepos(t)
		ctx := context.Background()

		f := seedFlight(t, flights, domain.Flight{FlightNumber: "SW404", FromCity: "Chicago", ToCity: "Miami", TotalSeats: 2, AvailableSeats: 2, BasePrice: 199})

		b := &domain.Booking{FlightID: f.ID, PassengerName: "A", Email: "a@example.com", Passengers: 2}
		require.NoError(t, bookings.Create(ctx, b))
		_, _, err := bookings.UpdateStatus(ctx, b.ID, domain.BookingStatusCancelled)
		require.NoError(t, err)

		other := &domain.Booking{FlightID: f.ID, PassengerName: "B", Email: "b@example.com", Passengers: 1}
		require.NoError(t, bookings.Create(ctx, other))

		_, _, err = bookings.UpdateStatus(ctx, b.ID, domain.BookingStatusConfirmed)
		assert.ErrorIs(t, err, domain.ErrInsufficientSeats)

		require.NoError(t, bookings.Delete(ctx, other.ID))
		got, _ := flights.GetByID(ctx, f.ID)
		assert.Equal(t, 2, got.AvailableSeats)

		pending, previous, err := bookings.UpdateStatus(ctx, b.ID, domain.BookingStatusPending)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, previous)
		assert.Equal(t, domain.BookingStatusPending, pending.Status)
		got, _ = flights.GetByID(ctx, f.ID)
		assert.Equal(t, 0, got.AvailableSeats)

		assert.ErrorIs(t, bookings.Delete(ctx, other.ID), domain.ErrBookingNotFound)
		missing, err := bookings.GetByID(ctx, other.ID)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("Stats", func(t *testing.T) {
		flights, _ := newRepos(t)
		ctx := context.Background()

		empty, err := flights.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.FlightStats{}, empty)

		seedFlight(t, flights, domain.Flight{FlightNumber: "X1", FromCity: "A", ToCity: "B", TotalSeats: 100, AvailableSeats: 50, BasePrice: 200})
		seedFlight(t, flights, domain.Flight{FlightNumber: "X2", FromCity: "A", ToCity: "B", TotalSeats: 100, AvailableSeats: 100, BasePrice: 100})

		stats, err := flights.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalFlights)
		assert.Equal(t, 200, stats.TotalSeats)
		assert.Equal(t, 150, stats.AvailableSeats)
		assert.Equal(t, 50, stats.BookedSeats)
		assert.Equal(t, 10000.0, stats.Revenue)
		assert.Equal(t, 25.0, stats.OccupancyRate)
		assert.Equal(t, 150.0, stats.AveragePrice)
	})
}
