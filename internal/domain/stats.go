package domain

// FlightStats summarises the flight inventory for the admin dashboard.
type FlightStats struct {
	TotalFlights   int     `json:"total_flights"`
	TotalSeats     int     `json:"total_seats"`
	AvailableSeats int     `json:"available_seats"`
	BookedSeats    int     `json:"booked_seats"`
	Revenue        float64 `json:"revenue"`
	OccupancyRate  float64 `json:"occupancy_rate"`
	AveragePrice   float64 `json:"average_price"`
}

// Finalize derives the booked seats and rates from the accumulated totals.
// sumPrice is the sum of base prices over all flights.
func (s *FlightStats) Finalize(sumPrice float64) {
	s.BookedSeats = s.TotalSeats - s.AvailableSeats
	if s.TotalSeats > 0 {
		s.OccupancyRate = float64(s.BookedSeats) / float64(s.TotalSeats) * 100
	} else {
		s.OccupancyRate = 0
	}
	if s.TotalFlights > 0 {
		s.AveragePrice = sumPrice / float64(s.TotalFlights)
	} else {
		s.AveragePrice = 0
	}
}
