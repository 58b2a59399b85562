package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/Domenick1991/flightstore/internal/kafka"
	"github.com/Domenick1991/flightstore/internal/logger"
	"github.com/Domenick1991/flightstore/internal/metrics"
	"github.com/Domenick1991/flightstore/internal/repository"
	"github.com/Domenick1991/flightstore/internal/validation"
	"github.com/sirupsen/logrus"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	ListForUser(ctx context.Context, email string) ([]domain.Booking, error)
	ListAll(ctx context.Context) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error)
	CancelBooking(ctx context.Context, id, requester string) (*domain.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

// Cache is the part of the flight list cache that booking writes make stale.
type Cache interface {
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
	PublishWithRetry(ctx context.Context, topic, key string, value any, maxRetries int) error
}

// SeatLocker holds a seat number for the duration of a checkout so two
// passengers cannot race for it. The bookings table still rejects a
// duplicate active seat if the lock is unavailable.
type SeatLocker interface {
	AcquireSeatLock(ctx context.Context, flightID, seat string, ttl time.Duration) (bool, error)
	ReleaseSeatLock(ctx context.Context, flightID, seat string) error
}

type CreateBookingInput struct {
	FlightID      string           `json:"flight_id" validate:"required"`
	PassengerName string           `json:"passenger_name" validate:"required,max=200"`
	Email         string           `json:"email" validate:"required,email"`
	Passengers    int              `json:"passengers" validate:"gte=1,lte=9"`
	SeatClass     domain.SeatClass `json:"seat_class"`
	SeatNumber    string           `json:"seat_number" validate:"max=8"`
}

type BookingService struct {
	bookings           repository.BookingRepository
	flights            repository.FlightRepository
	cache              Cache
	producer           Producer
	publishRetries     int
	bookingTopic       string
	notificationsTopic string
	seatLocks          SeatLocker
	seatLockTTL        time.Duration
	metrics            *metrics.Metrics
	log                *logrus.Entry
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithProducer(producer Producer, bookingTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = bookingTopic
	}
}

// WithPublishRetries makes event publishing try up to n times before giving up.
func WithPublishRetries(n int) BookingServiceOption {
	return func(s *BookingService) {
		s.publishRetries = n
	}
}

func WithSeatLocks(locker SeatLocker, ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.seatLocks = locker
		s.seatLockTTL = ttl
	}
}

func WithMetrics(m *metrics.Metrics) BookingServiceOption {
	return func(s *BookingService) {
		s.metrics = m
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	cache Cache,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings: bookings,
		flights:  flights,
		cache:    cache,
		log:      logger.For("booking"),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking prices the requested seats and books them. Seat inventory is
// reserved atomically by the repository; a sold-out flight yields
// domain.ErrInsufficientSeats and leaves nothing behind.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if err := validation.Struct(input); err != nil {
		s.metrics.BookingOutcome(metrics.OutcomeInvalid)
		return nil, err
	}
	class := input.SeatClass.OrDefault()
	if !class.Valid() {
		s.metrics.BookingOutcome(metrics.OutcomeInvalid)
		return nil, domain.ErrUnknownSeatClass
	}

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		s.metrics.BookingOutcome(metrics.OutcomeError)
		return nil, err
	}
	if flight == nil {
		s.metrics.BookingOutcome(metrics.OutcomeNotFound)
		return nil, domain.ErrFlightNotFound
	}

	total, err := domain.Quote(flight, class, input.Passengers)
	if err != nil {
		s.metrics.BookingOutcome(metrics.OutcomeInvalid)
		return nil, err
	}

	booking := &domain.Booking{
		FlightID:      flight.ID,
		PassengerName: strings.TrimSpace(input.PassengerName),
		Email:         strings.TrimSpace(input.Email),
		Passengers:    input.Passengers,
		SeatClass:     class,
		SeatNumber:    strings.ToUpper(strings.TrimSpace(input.SeatNumber)),
		TotalPrice:    total,
		Status:        domain.BookingStatusConfirmed,
	}

	unlock, err := s.lockSeat(ctx, booking.FlightID, booking.SeatNumber)
	if err != nil {
		s.metrics.BookingOutcome(outcomeFor(err))
		return nil, err
	}
	defer unlock()

	if err := s.bookings.Create(ctx, booking); err != nil {
		s.metrics.BookingOutcome(outcomeFor(err))
		return nil, err
	}
	booking.Flight = flight.Summary()

	s.metrics.BookingOutcome(metrics.OutcomeCreated)
	s.metrics.SeatsReserved(booking.Passengers)
	s.invalidate(ctx)
	s.publish(ctx, kafka.EventBookingCreated, booking)
	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"flight_id":  booking.FlightID,
		"passengers": booking.Passengers,
		"seat_class": booking.SeatClass,
	}).Info("booking created")
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrBookingNotFound
	}
	return b, nil
}

func (s *BookingService) ListForUser(ctx context.Context, email string) ([]domain.Booking, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.ErrNotAuthenticated
	}
	return s.bookings.ListByEmail(ctx, email)
}

func (s *BookingService) ListAll(ctx context.Context) ([]domain.Booking, error) {
	return s.bookings.ListAll(ctx)
}

// UpdateStatus moves a booking to status. Leaving a seat-holding status
// returns the seats to the flight; re-entering one takes them again.
// Side effects follow the status the repository saw under its lock.
func (s *BookingService) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}

	updated, previous, err := s.bookings.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if previous == status {
		return updated, nil
	}

	s.metrics.StatusChanged(string(status))
	switch {
	case previous.HoldsSeats() && !status.HoldsSeats():
		s.metrics.SeatsReleased(updated.Passengers)
	case !previous.HoldsSeats() && status.HoldsSeats():
		s.metrics.SeatsReserved(updated.Passengers)
	}
	s.invalidate(ctx)

	event := kafka.EventBookingStatusChanged
	if status == domain.BookingStatusCancelled {
		event = kafka.EventBookingCancelled
	}
	s.publish(ctx, event, updated)
	s.log.WithFields(logrus.Fields{"booking_id": id, "from": previous, "to": status}).Info("booking status changed")
	return updated, nil
}

// CancelBooking cancels a booking on behalf of its passenger. Cancelling an
// already cancelled booking returns it unchanged. Bookings owned by another
// email are reported as not found.
func (s *BookingService) CancelBooking(ctx context.Context, id, requester string) (*domain.Booking, error) {
	requester = strings.TrimSpace(requester)
	if requester == "" {
		return nil, domain.ErrNotAuthenticated
	}
	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.OwnedBy(requester) {
		return nil, domain.ErrBookingNotFound
	}
	if current.Status == domain.BookingStatusCancelled {
		return current, nil
	}
	return s.UpdateStatus(ctx, id, domain.BookingStatusCancelled)
}

func (s *BookingService) DeleteBooking(ctx context.Context, id string) error {
	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if err := s.bookings.Delete(ctx, id); err != nil {
		return err
	}
	if current.Status.HoldsSeats() {
		s.metrics.SeatsReleased(current.Passengers)
	}
	s.invalidate(ctx)
	s.publish(ctx, kafka.EventBookingDeleted, current)
	s.log.WithField("booking_id", id).Info("booking deleted")
	return nil
}

func (s *BookingService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		s.log.WithError(err).Warn("flight cache invalidation failed")
	}
}

// lockSeat takes the checkout lock for a chosen seat. Lock backend errors are
// logged and the booking proceeds.
func (s *BookingService) lockSeat(ctx context.Context, flightID, seat string) (func(), error) {
	noop := func() {}
	if s.seatLocks == nil || seat == "" {
		return noop, nil
	}
	acquired, err := s.seatLocks.AcquireSeatLock(ctx, flightID, seat, s.seatLockTTL)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"flight_id": flightID, "seat": seat}).Warn("seat lock unavailable")
		return noop, nil
	}
	if !acquired {
		return nil, domain.ErrSeatTaken
	}
	return func() {
		if err := s.seatLocks.ReleaseSeatLock(context.WithoutCancel(ctx), flightID, seat); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{"flight_id": flightID, "seat": seat}).Warn("failed to release seat lock")
		}
	}, nil
}

// publish sends the event to the booking topic and, when configured, the
// notifications topic. Failures are logged; the booking change stands.
func (s *BookingService) publish(ctx context.Context, eventType kafka.EventType, booking *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.NewBookingEvent(eventType, booking)
	if err := s.send(ctx, s.bookingTopic, booking.ID, event); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"type": eventType, "booking_id": booking.ID}).Warn("failed to publish booking event")
		return
	}
	if s.notificationsTopic != "" {
		if err := s.send(ctx, s.notificationsTopic, booking.ID, event); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{"type": eventType, "booking_id": booking.ID}).Warn("failed to publish notification")
		}
	}
}

func (s *BookingService) send(ctx context.Context, topic, key string, event kafka.BookingEvent) error {
	if s.publishRetries > 1 {
		return s.producer.PublishWithRetry(ctx, topic, key, event, s.publishRetries)
	}
	return s.producer.Publish(ctx, topic, key, event)
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientSeats):
		return metrics.OutcomeInsufficientSeats
	case errors.Is(err, domain.ErrSeatTaken):
		return metrics.OutcomeSeatTaken
	case errors.Is(err, domain.ErrFlightNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return metrics.OutcomeInvalid
	}
	return metrics.OutcomeError
}

var _ BookingUseCase = (*BookingService)(nil)
