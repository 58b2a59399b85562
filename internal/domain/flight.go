package domain

import "time"

type SeatAllocation struct {
	Class          SeatClass `json:"class"`
	TotalSeats     int       `json:"total_seats"`
	AvailableSeats int       `json:"available_seats"`
	Price          float64   `json:"price"`
}

type Flight struct {
	ID              string           `json:"id"`
	FlightNumber    string           `json:"flight_number"`
	Airline         string           `json:"airline"`
	FromCity        string           `json:"from_city"`
	ToCity          string           `json:"to_city"`
	DepartureTime   *time.Time       `json:"departure_time,omitempty"`
	ArrivalTime     *time.Time       `json:"arrival_time,omitempty"`
	TotalSeats      int              `json:"total_seats"`
	AvailableSeats  int              `json:"available_seats"`
	BasePrice       float64          `json:"base_price"`
	Duration        string           `json:"duration"`
	SeatAllocations []SeatAllocation `json:"seat_allocations,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// BookedSeats is the number of seats no longer available for sale.
func (f *Flight) BookedSeats() int {
	return f.TotalSeats - f.AvailableSeats
}

func (f *Flight) CanBook(seats int) bool {
	return seats > 0 && f.AvailableSeats >= seats
}

// Allocation returns the per-class allocation for class, if the flight has one.
func (f *Flight) Allocation(class SeatClass) (*SeatAllocation, bool) {
	for i := range f.SeatAllocations {
		if f.SeatAllocations[i].Class == class {
			return &f.SeatAllocations[i], true
		}
	}
	return nil, false
}

// Validate checks the seat counters of the flight and its allocations.
func (f *Flight) Validate() error {
	if f.TotalSeats < 0 || f.AvailableSeats < 0 || f.AvailableSeats > f.TotalSeats {
		return ErrInvalidSeatCounts
	}
	if f.BasePrice < 0 {
		return ErrInvalidInput
	}
	seen := make(map[SeatClass]bool, len(f.SeatAllocations))
	for _, a := range f.SeatAllocations {
		if !a.Class.Valid() {
			return ErrUnknownSeatClass
		}
		if seen[a.Class] {
			return ErrDuplicateSeatClass
		}
		seen[a.Class] = true
		if a.TotalSeats < 0 || a.AvailableSeats < 0 || a.AvailableSeats > a.TotalSeats || a.Price < 0 {
			return ErrInvalidSeatCounts
		}
	}
	return nil
}

// FlightPatch carries a partial flight update. Nil fields are left untouched.
type FlightPatch struct {
	FlightNumber    *string           `json:"flight_number"`
	Airline         *string           `json:"airline"`
	FromCity        *string           `json:"from_city"`
	ToCity          *string           `json:"to_city"`
	DepartureTime   *time.Time        `json:"departure_time"`
	ArrivalTime     *time.Time        `json:"arrival_time"`
	TotalSeats      *int              `json:"total_seats"`
	AvailableSeats  *int              `json:"available_seats"`
	BasePrice       *float64          `json:"base_price"`
	Duration        *string           `json:"duration"`
	SeatAllocations *[]SeatAllocation `json:"seat_allocations"`
}

// Apply merges the patch into f.
func (p FlightPatch) Apply(f *Flight) {
	if p.FlightNumber != nil {
		f.FlightNumber = *p.FlightNumber
	}
	if p.Airline != nil {
		f.Airline = *p.Airline
	}
	if p.FromCity != nil {
		f.FromCity = *p.FromCity
	}
	if p.ToCity != nil {
		f.ToCity = *p.ToCity
	}
	if p.DepartureTime != nil {
		t := *p.DepartureTime
		f.DepartureTime = &t
	}
	if p.ArrivalTime != nil {
		t := *p.ArrivalTime
		f.ArrivalTime = &t
	}
	if p.TotalSeats != nil {
		f.TotalSeats = *p.TotalSeats
	}
	if p.AvailableSeats != nil {
		f.AvailableSeats = *p.AvailableSeats
	}
	if p.BasePrice != nil {
		f.BasePrice = *p.BasePrice
	}
	if p.Duration != nil {
		f.Duration = *p.Duration
	}
	if p.SeatAllocations != nil {
		f.SeatAllocations = append([]SeatAllocation(nil), (*p.SeatAllocations)...)
	}
}

type FlightOrder string

const (
	OrderByDeparture FlightOrder = "departure"
	OrderByRecent    FlightOrder = "recent"
)

// SearchFilter narrows a flight search. Zero values disable the filter.
type SearchFilter struct {
	FromCity      string
	ToCity        string
	DepartureDate *time.Time
	MinSeats      int
}

// DayWindow returns the [start, end) bounds of the departure calendar day.
func (f SearchFilter) DayWindow() (time.Time, time.Time, bool) {
	if f.DepartureDate == nil {
		return time.Time{}, time.Time{}, false
	}
	d := *f.DepartureDate
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	return start, start.AddDate(0, 0, 1), true
}

// FlightSummary holds the flight display fields joined onto booking reads.
type FlightSummary struct {
	FlightNumber  string     `json:"flight_number"`
	Airline       string     `json:"airline"`
	FromCity      string     `json:"from_city"`
	ToCity        string     `json:"to_city"`
	BasePrice     float64    `json:"base_price"`
	Duration      string     `json:"duration"`
	DepartureTime *time.Time `json:"departure_time,omitempty"`
}

func (f *Flight) Summary() *FlightSummary {
	return &FlightSummary{
		FlightNumber:  f.FlightNumber,
		Airline:       f.Airline,
		FromCity:      f.FromCity,
		ToCity:        f.ToCity,
		BasePrice:     f.BasePrice,
		Duration:      f.Duration,
		DepartureTime: f.DepartureTime,
	}
}
