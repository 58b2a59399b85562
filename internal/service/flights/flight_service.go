package flights

import (
	"context"
	"time"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/Domenick1991/flightstore/internal/logger"
	"github.com/Domenick1991/flightstore/internal/metrics"
	"github.com/Domenick1991/flightstore/internal/repository"
	"github.com/Domenick1991/flightstore/internal/validation"
	"github.com/sirupsen/logrus"
)

type FlightUseCase interface {
	List(ctx context.Context, order domain.FlightOrder) ([]domain.Flight, error)
	Search(ctx context.Context, input SearchInput) ([]domain.Flight, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
	Create(ctx context.Context, input CreateFlightInput) (*domain.Flight, error)
	Update(ctx context.Context, id string, patch domain.FlightPatch) (*domain.Flight, error)
	Delete(ctx context.Context, id string) error
	BookSeats(ctx context.Context, id string, input BookSeatsInput) (*domain.Flight, error)
	Quote(ctx context.Context, id string, class domain.SeatClass, passengers int) (*Quote, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context, order domain.FlightOrder) ([]domain.Flight, error)
	SetFlights(ctx context.Context, order domain.FlightOrder, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type SearchInput struct {
	FromCity      string
	ToCity        string
	DepartureDate *time.Time
	MinSeats      int `validate:"gte=0,lte=9"`
}

type CreateFlightInput struct {
	FlightNumber    string                  `json:"flight_number" validate:"required,max=16"`
	Airline         string                  `json:"airline"`
	FromCity        string                  `json:"from_city" validate:"required"`
	ToCity          string                  `json:"to_city" validate:"required"`
	DepartureTime   *time.Time              `json:"departure_time"`
	ArrivalTime     *time.Time              `json:"arrival_time"`
	TotalSeats      int                     `json:"total_seats" validate:"gte=0"`
	AvailableSeats  *int                    `json:"available_seats" validate:"omitempty,gte=0"`
	BasePrice       float64                 `json:"base_price" validate:"gte=0"`
	Duration        string                  `json:"duration"`
	SeatAllocations []domain.SeatAllocation `json:"seat_allocations" validate:"dive"`
}

type BookSeatsInput struct {
	Seats     int              `json:"seats" validate:"gte=1,lte=9"`
	SeatClass domain.SeatClass `json:"seat_class"`
}

type Quote struct {
	FlightID   string           `json:"flight_id"`
	SeatClass  domain.SeatClass `json:"seat_class"`
	Passengers int              `json:"passengers"`
	UnitPrice  float64          `json:"unit_price"`
	TotalPrice float64          `json:"total_price"`
}

type FlightService struct {
	repo    repository.FlightRepository
	cache   FlightCache
	metrics *metrics.Metrics
	log     *logrus.Entry
}

type FlightServiceOption func(*FlightService)

func WithMetrics(m *metrics.Metrics) FlightServiceOption {
	return func(s *FlightService) {
		s.metrics = m
	}
}

func NewFlightService(repo repository.FlightRepository, cache FlightCache, opts ...FlightServiceOption) *FlightService {
	s := &FlightService{repo: repo, cache: cache, log: logger.For("flights")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FlightService) List(ctx context.Context, order domain.FlightOrder) ([]domain.Flight, error) {
	if order == "" {
		order = domain.OrderByDeparture
	}
	if order != domain.OrderByDeparture && order != domain.OrderByRecent {
		return nil, domain.ErrInvalidInput
	}

	if s.cache != nil {
		cached, err := s.cache.GetFlights(ctx, order)
		if err != nil {
			s.log.WithError(err).Warn("flight cache read failed")
		}
		if err == nil && cached != nil {
			s.metrics.CacheLookup(true)
			return cached, nil
		}
		s.metrics.CacheLookup(false)
	}

	flights, err := s.repo.List(ctx, order)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, order, flights); err != nil {
			s.log.WithError(err).Warn("flight cache write failed")
		}
	}
	return flights, nil
}

func (s *FlightService) Search(ctx context.Context, input SearchInput) ([]domain.Flight, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	return s.repo.Search(ctx, domain.SearchFilter{
		FromCity:      input.FromCity,
		ToCity:        input.ToCity,
		DepartureDate: input.DepartureDate,
		MinSeats:      input.MinSeats,
	})
}

func (s *FlightService) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, domain.ErrFlightNotFound
	}
	return f, nil
}

func (s *FlightService) Create(ctx context.Context, input CreateFlightInput) (*domain.Flight, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	available := input.TotalSeats
	if input.AvailableSeats != nil {
		available = *input.AvailableSeats
	}
	f := &domain.Flight{
		FlightNumber:    input.FlightNumber,
		Airline:         input.Airline,
		FromCity:        input.FromCity,
		ToCity:          input.ToCity,
		DepartureTime:   input.DepartureTime,
		ArrivalTime:     input.ArrivalTime,
		TotalSeats:      input.TotalSeats,
		AvailableSeats:  available,
		BasePrice:       input.BasePrice,
		Duration:        input.Duration,
		SeatAllocations: input.SeatAllocations,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.WithFields(logrus.Fields{"flight_id": f.ID, "flight_number": f.FlightNumber}).Info("flight created")
	return f, nil
}

func (s *FlightService) Update(ctx context.Context, id string, patch domain.FlightPatch) (*domain.Flight, error) {
	f, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return f, nil
}

func (s *FlightService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.log.WithField("flight_id", id).Info("flight deleted")
	return nil
}

// BookSeats takes seats directly from inventory without creating a booking.
func (s *FlightService) BookSeats(ctx context.Context, id string, input BookSeatsInput) (*domain.Flight, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if input.SeatClass != "" && !input.SeatClass.Valid() {
		return nil, domain.ErrUnknownSeatClass
	}

	f, err := s.repo.DecrementAvailability(ctx, id, input.SeatClass, input.Seats)
	if err != nil {
		return nil, err
	}
	s.metrics.SeatsReserved(input.Seats)
	s.invalidate(ctx)
	return f, nil
}

func (s *FlightService) Quote(ctx context.Context, id string, class domain.SeatClass, passengers int) (*Quote, error) {
	f, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	class = class.OrDefault()
	unit, err := domain.UnitPrice(f, class)
	if err != nil {
		return nil, err
	}
	total, err := domain.Quote(f, class, passengers)
	if err != nil {
		return nil, err
	}
	return &Quote{FlightID: f.ID, SeatClass: class, Passengers: passengers, UnitPrice: unit, TotalPrice: total}, nil
}

func (s *FlightService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		s.log.WithError(err).Warn("flight cache invalidation failed")
	}
}

var _ FlightUseCase = (*FlightService)(nil)
