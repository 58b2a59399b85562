// Package seed loads the demo flight catalog into an empty store.
package seed

import (
	"context"
	"time"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/Domenick1991/flightstore/internal/logger"
	"github.com/Domenick1991/flightstore/internal/repository"
)

type sample struct {
	number, airline, from, to string
	price                     float64
	available, total          int
	duration                  string
	departHour                int
	minutes                   int
	classes                   []domain.SeatAllocation
}

var samples = []sample{
	{"AA101", "American Airlines", "New York", "Los Angeles", 299, 156, 180, "5h 30m", 7, 330, nil},
	{"UA202", "United Airlines", "New York", "Los Angeles", 349, 23, 160, "5h 45m", 9, 345, nil},
	{"DL303", "Delta Airlines", "New York", "Los Angeles", 279, 67, 200, "5h 40m", 18, 340, nil},
	{"SW404", "Southwest Airlines", "Chicago", "Miami", 199, 89, 150, "3h 45m", 6, 225, nil},
	{"JB505", "JetBlue Airways", "Boston", "San Francisco", 389, 34, 140, "6h 35m", 11, 395, nil},
	{"AS106", "Alaska Airlines", "Seattle", "Portland", 129, 78, 120, "1h 15m", 8, 75, nil},
	{"F9207", "Frontier Airlines", "Denver", "Las Vegas", 159, 92, 180, "2h 10m", 14, 130, nil},
	{"B6308", "JetBlue Airways", "Miami", "New York", 249, 56, 162, "3h 20m", 16, 200, nil},
	{"WN409", "Southwest Airlines", "Los Angeles", "Phoenix", 89, 103, 143, "1h 25m", 12, 85, nil},
	{"NK510", "Spirit Airlines", "Orlando", "Atlanta", 79, 67, 182, "1h 40m", 10, 100, nil},
	{"LH441", "Lufthansa", "New York", "Frankfurt", 850, 198, 250, "7h 45m", 21, 465, []domain.SeatAllocation{
		{Class: domain.SeatClassEconomy, TotalSeats: 200, AvailableSeats: 160},
		{Class: domain.SeatClassBusiness, TotalSeats: 40, AvailableSeats: 30},
		{Class: domain.SeatClassFirst, TotalSeats: 10, AvailableSeats: 8},
	}},
	{"BA189", "British Airways", "Los Angeles", "London", 920, 156, 275, "10h 30m", 19, 630, []domain.SeatAllocation{
		{Class: domain.SeatClassEconomy, TotalSeats: 200, AvailableSeats: 110},
		{Class: domain.SeatClassPremiumEconomy, TotalSeats: 40, AvailableSeats: 24},
		{Class: domain.SeatClassBusiness, TotalSeats: 35, AvailableSeats: 22, Price: 2600},
	}},
	{"QF12", "Qantas", "Los Angeles", "Sydney", 1200, 223, 280, "15h 20m", 22, 920, []domain.SeatAllocation{
		{Class: domain.SeatClassEconomy, TotalSeats: 220, AvailableSeats: 178},
		{Class: domain.SeatClassPremiumEconomy, TotalSeats: 28, AvailableSeats: 23},
		{Class: domain.SeatClassBusiness, TotalSeats: 26, AvailableSeats: 18},
		{Class: domain.SeatClassFirst, TotalSeats: 6, AvailableSeats: 4, Price: 9800},
	}},
}

// Flights builds the catalog with departures spread over the days after from.
func Flights(from time.Time) []domain.Flight {
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]domain.Flight, 0, len(samples))
	for i, s := range samples {
		dep := day.AddDate(0, 0, 1+i%7).Add(time.Duration(s.departHour) * time.Hour)
		arr := dep.Add(time.Duration(s.minutes) * time.Minute)
		out = append(out, domain.Flight{
			FlightNumber:    s.number,
			Airline:         s.airline,
			FromCity:        s.from,
			ToCity:          s.to,
			DepartureTime:   &dep,
			ArrivalTime:     &arr,
			TotalSeats:      s.total,
			AvailableSeats:  s.available,
			BasePrice:       s.price,
			Duration:        s.duration,
			SeatAllocations: append([]domain.SeatAllocation(nil), s.classes...),
		})
	}
	return out
}

// Run inserts the catalog unless the store already holds flights. It returns
// the number of flights created.
func Run(ctx context.Context, repo repository.FlightRepository, now time.Time) (int, error) {
	log := logger.For("seed")

	existing, err := repo.List(ctx, domain.OrderByRecent)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		log.WithField("flights", len(existing)).Info("store already has flights, skipping seed")
		return 0, nil
	}

	created := 0
	for _, f := range Flights(now) {
		if err := repo.Create(ctx, &f); err != nil {
			return created, err
		}
		created++
	}
	log.WithField("flights", created).Info("seeded flights")
	return created, nil
}
