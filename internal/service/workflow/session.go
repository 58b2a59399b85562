package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/Domenick1991/flightstore/internal/logger"
	"github.com/Domenick1991/flightstore/internal/service/booking"
	"github.com/Domenick1991/flightstore/internal/service/flights"
	"github.com/Domenick1991/flightstore/internal/validation"
	"github.com/sirupsen/logrus"
)

type State string

const (
	StateIdle      State = "idle"
	StateSearching State = "searching"
	StateResults   State = "results"
	StateBooking   State = "booking"
	StateConfirmed State = "confirmed"
	StateError     State = "error"
)

type FlightFinder interface {
	Search(ctx context.Context, input flights.SearchInput) ([]domain.Flight, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
}

type BookingCreator interface {
	CreateBooking(ctx context.Context, input booking.CreateBookingInput) (*domain.Booking, error)
}

type SearchRequest struct {
	FromCity      string     `json:"from_city" validate:"required"`
	ToCity        string     `json:"to_city" validate:"required"`
	DepartureDate *time.Time `json:"departure_date" validate:"required"`
	Passengers    int        `json:"passengers" validate:"gte=1,lte=9"`
}

type Passenger struct {
	Name  string `json:"passenger_name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
}

// CheckoutRequest carries everything needed to book a chosen flight in one call.
type CheckoutRequest struct {
	FlightID      string           `json:"flight_id" validate:"required"`
	SeatClass     domain.SeatClass `json:"seat_class"`
	Passengers    int              `json:"passengers" validate:"gte=1,lte=9"`
	PassengerName string           `json:"passenger_name" validate:"required,max=200"`
	Email         string           `json:"email" validate:"required,email"`
	SeatNumber    string           `json:"seat_number" validate:"max=8"`
}

type Selection struct {
	Flight     domain.Flight    `json:"flight"`
	SeatClass  domain.SeatClass `json:"seat_class"`
	Passengers int              `json:"passengers"`
	UnitPrice  float64          `json:"unit_price"`
	TotalPrice float64          `json:"total_price"`
	SeatNumber string           `json:"seat_number,omitempty"`
}

type Confirmation struct {
	BookingID     string               `json:"booking_id"`
	Status        domain.BookingStatus `json:"status"`
	FlightNumber  string               `json:"flight_number"`
	Airline       string               `json:"airline"`
	FromCity      string               `json:"from_city"`
	ToCity        string               `json:"to_city"`
	DepartureTime *time.Time           `json:"departure_time,omitempty"`
	PassengerName string               `json:"passenger_name"`
	Email         string               `json:"email"`
	SeatClass     domain.SeatClass     `json:"seat_class"`
	SeatNumber    string               `json:"seat_number,omitempty"`
	Passengers    int                  `json:"passengers"`
	TotalPrice    float64              `json:"total_price"`
	BookedAt      time.Time            `json:"booked_at"`
}

// Session drives one user's search-select-book flow. Failed searches and
// failed bookings park the session in StateError; the user retries by
// calling Search or Book again.
type Session struct {
	mu sync.Mutex

	flights  FlightFinder
	bookings BookingCreator
	log      *logrus.Entry

	state        State
	failedIn     State
	lastErr      error
	request      SearchRequest
	results      []domain.Flight
	selection    *Selection
	confirmation *Confirmation
}

func NewSession(f FlightFinder, b BookingCreator) *Session {
	return &Session{
		flights:  f,
		bookings: b,
		state:    StateIdle,
		log:      logger.For("workflow"),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err is the failure that moved the session into StateError.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) Results() []domain.Flight {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Flight(nil), s.results...)
}

func (s *Session) Selection() *Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return nil
	}
	sel := *s.selection
	return &sel
}

func (s *Session) Confirmation() *Confirmation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.confirmation == nil {
		return nil
	}
	c := *s.confirmation
	return &c
}

func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) reset() {
	s.state = StateIdle
	s.failedIn = ""
	s.lastErr = nil
	s.request = SearchRequest{}
	s.results = nil
	s.selection = nil
	s.confirmation = nil
}

// Search runs a flight search. Invalid requests are rejected and leave the
// session untouched.
func (s *Session) Search(ctx context.Context, req SearchRequest) ([]domain.Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSearching || s.state == StateBooking {
		return nil, domain.ErrInvalidTransition
	}
	req.FromCity = strings.TrimSpace(req.FromCity)
	req.ToCity = strings.TrimSpace(req.ToCity)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	s.reset()
	s.state = StateSearching
	s.request = req

	found, err := s.flights.Search(ctx, flights.SearchInput{
		FromCity:      req.FromCity,
		ToCity:        req.ToCity,
		DepartureDate: req.DepartureDate,
		MinSeats:      req.Passengers,
	})
	if err != nil {
		s.fail(StateSearching, err)
		return nil, err
	}

	s.results = found
	s.state = StateResults
	s.log.WithFields(logrus.Fields{"from": req.FromCity, "to": req.ToCity, "results": len(found)}).Debug("search completed")
	return append([]domain.Flight(nil), found...), nil
}

// Select picks a flight from the current results and prices the seats.
func (s *Session) Select(flightID string, class domain.SeatClass) (*Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateResults {
		return nil, domain.ErrInvalidTransition
	}
	for i := range s.results {
		if s.results[i].ID == flightID {
			sel, err := price(s.results[i], class, s.request.Passengers)
			if err != nil {
				return nil, err
			}
			s.selection = sel
			out := *sel
			return &out, nil
		}
	}
	return nil, domain.ErrFlightNotFound
}

// Book books the selected flight for p. It is allowed from StateResults with a
// selection, and from StateError when the previous booking attempt failed.
func (s *Session) Book(ctx context.Context, p Passenger) (*Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	retry := s.state == StateError && s.failedIn == StateBooking
	if (s.state != StateResults && !retry) || s.selection == nil {
		return nil, domain.ErrInvalidTransition
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	return s.book(ctx, p)
}

// Checkout books flightID directly, without a preceding search. Any earlier
// progress in the session is discarded.
func (s *Session) Checkout(ctx context.Context, req CheckoutRequest) (*Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSearching || s.state == StateBooking {
		return nil, domain.ErrInvalidTransition
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	flight, err := s.flights.GetByID(ctx, req.FlightID)
	if err != nil {
		return nil, err
	}
	if flight == nil {
		return nil, domain.ErrFlightNotFound
	}
	sel, err := price(*flight, req.SeatClass, req.Passengers)
	if err != nil {
		return nil, err
	}
	sel.SeatNumber = req.SeatNumber

	s.reset()
	s.request = SearchRequest{FromCity: flight.FromCity, ToCity: flight.ToCity, DepartureDate: flight.DepartureTime, Passengers: req.Passengers}
	s.results = []domain.Flight{*flight}
	s.selection = sel
	s.state = StateResults

	return s.book(ctx, Passenger{Name: strings.TrimSpace(req.PassengerName), Email: strings.TrimSpace(req.Email)})
}

func (s *Session) book(ctx context.Context, p Passenger) (*Confirmation, error) {
	sel := s.selection
	s.state = StateBooking
	s.lastErr = nil

	b, err := s.bookings.CreateBooking(ctx, booking.CreateBookingInput{
		FlightID:      sel.Flight.ID,
		PassengerName: p.Name,
		Email:         p.Email,
		Passengers:    sel.Passengers,
		SeatClass:     sel.SeatClass,
		SeatNumber:    sel.SeatNumber,
	})
	if err != nil {
		s.fail(StateBooking, err)
		return nil, err
	}

	c := &Confirmation{
		BookingID:     b.ID,
		Status:        b.Status,
		FlightNumber:  sel.Flight.FlightNumber,
		Airline:       sel.Flight.Airline,
		FromCity:      sel.Flight.FromCity,
		ToCity:        sel.Flight.ToCity,
		DepartureTime: sel.Flight.DepartureTime,
		PassengerName: b.PassengerName,
		Email:         b.Email,
		SeatClass:     b.SeatClass,
		SeatNumber:    b.SeatNumber,
		Passengers:    b.Passengers,
		TotalPrice:    b.TotalPrice,
		BookedAt:      b.BookedAt,
	}
	s.confirmation = c
	s.state = StateConfirmed
	out := *c
	return &out, nil
}

func (s *Session) fail(in State, err error) {
	s.state = StateError
	s.failedIn = in
	s.lastErr = err
	s.log.WithError(err).WithField("during", in).Warn("workflow step failed")
}

func price(f domain.Flight, class domain.SeatClass, passengers int) (*Selection, error) {
	class = class.OrDefault()
	if !class.Valid() {
		return nil, domain.ErrUnknownSeatClass
	}
	if passengers < 1 || passengers > domain.MaxPassengers {
		return nil, domain.ErrInvalidPassengers
	}
	if !f.CanBook(passengers) {
		return nil, fmt.Errorf("%w: %d requested, %d available", domain.ErrInsufficientSeats, passengers, f.AvailableSeats)
	}
	if a, ok := f.Allocation(class); ok && a.AvailableSeats < passengers {
		return nil, fmt.Errorf("%w: %d %s seats available", domain.ErrInsufficientSeats, a.AvailableSeats, class)
	}

	unit, err := domain.UnitPrice(&f, class)
	if err != nil {
		return nil, err
	}
	return &Selection{
		Flight:     f,
		SeatClass:  class,
		Passengers: passengers,
		UnitPrice:  unit,
		TotalPrice: unit * float64(passengers),
	}, nil
}
