package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/google/uuid"
)

// memoryStore keeps flights and bookings in process. A single mutex serialises
// every operation, which gives the same all-or-nothing seat bookkeeping as the
// Postgres transactions.
type memoryStore struct {
	mu       sync.Mutex
	seq      int64
	order    map[string]int64
	flights  map[string]*domain.Flight
	bookings map[string]*domain.Booking
	now      func() time.Time
}

type MemoryFlightRepository struct {
	store *memoryStore
}

type MemoryBookingRepository struct {
	store *memoryStore
}

// NewMemoryRepositories returns flight and booking repositories sharing one store.
func NewMemoryRepositories() (*MemoryFlightRepository, *MemoryBookingRepository) {
	s := &memoryStore{
		order:    make(map[string]int64),
		flights:  make(map[string]*domain.Flight),
		bookings: make(map[string]*domain.Booking),
		now:      func() time.Time { return time.Now().UTC() },
	}
	return &MemoryFlightRepository{store: s}, &MemoryBookingRepository{store: s}
}

func (s *memoryStore) nextSeq() int64 {
	s.seq++
	return s.seq
}

func cloneFlight(f *domain.Flight) domain.Flight {
	out := *f
	out.SeatAllocations = append([]domain.SeatAllocation(nil), f.SeatAllocations...)
	if f.DepartureTime != nil {
		t := *f.DepartureTime
		out.DepartureTime = &t
	}
	if f.ArrivalTime != nil {
		t := *f.ArrivalTime
		out.ArrivalTime = &t
	}
	return out
}

func (s *memoryStore) bookingView(b *domain.Booking) domain.Booking {
	out := *b
	out.Flight = nil
	if f, ok := s.flights[b.FlightID]; ok {
		out.Flight = f.Summary()
	}
	return out
}

func (s *memoryStore) reserve(flightID string, class domain.SeatClass, seats int) error {
	if seats <= 0 {
		return domain.ErrInvalidPassengers
	}
	f, ok := s.flights[flightID]
	if !ok {
		return domain.ErrFlightNotFound
	}
	if f.AvailableSeats < seats {
		return domain.ErrInsufficientSeats
	}
	a, hasAllocation := f.Allocation(class)
	if hasAllocation && a.AvailableSeats < seats {
		return domain.ErrInsufficientSeats
	}

	f.AvailableSeats -= seats
	if hasAllocation {
		a.AvailableSeats -= seats
	}
	f.UpdatedAt = s.now()
	return nil
}

func (s *memoryStore) release(flightID string, class domain.SeatClass, seats int) error {
	if seats <= 0 {
		return domain.ErrInvalidPassengers
	}
	f, ok := s.flights[flightID]
	if !ok {
		return domain.ErrFlightNotFound
	}
	f.AvailableSeats = min(f.TotalSeats, f.AvailableSeats+seats)
	if a, ok := f.Allocation(class); ok {
		a.AvailableSeats = min(a.TotalSeats, a.AvailableSeats+seats)
	}
	f.UpdatedAt = s.now()
	return nil
}

func (s *memoryStore) seatTaken(b *domain.Booking) bool {
	if b.SeatNumber == "" {
		return false
	}
	for _, other := range s.bookings {
		if other.ID != b.ID && other.FlightID == b.FlightID && other.SeatNumber == b.SeatNumber && other.Status.HoldsSeats() {
			return true
		}
	}
	return false
}

func (r *MemoryFlightRepository) List(ctx context.Context, order domain.FlightOrder) ([]domain.Flight, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Flight, 0, len(s.flights))
	for _, f := range s.flights {
		out = append(out, cloneFlight(f))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if order == domain.OrderByRecent {
			return s.order[out[i].ID] > s.order[out[j].ID]
		}
		di, dj := out[i].DepartureTime, out[j].DepartureTime
		switch {
		case di != nil && dj != nil && !di.Equal(*dj):
			return di.Before(*dj)
		case di != nil && dj == nil:
			return true
		case di == nil && dj != nil:
			return false
		}
		return s.order[out[i].ID] > s.order[out[j].ID]
	})
	return out, nil
}

func (r *MemoryFlightRepository) Search(ctx context.Context, filter domain.SearchFilter) ([]domain.Flight, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	from := strings.ToLower(filter.FromCity)
	to := strings.ToLower(filter.ToCity)
	start, end, byDay := filter.DayWindow()

	out := make([]domain.Flight, 0)
	for _, f := range s.flights {
		if from != "" && !strings.Contains(strings.ToLower(f.FromCity), from) {
			continue
		}
		if to != "" && !strings.Contains(strings.ToLower(f.ToCity), to) {
			continue
		}
		if byDay && (f.DepartureTime == nil || f.DepartureTime.Before(start) || !f.DepartureTime.Before(end)) {
			continue
		}
		if filter.MinSeats > 0 && f.AvailableSeats < filter.MinSeats {
			continue
		}
		out = append(out, cloneFlight(f))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].BasePrice != out[j].BasePrice {
			return out[i].BasePrice < out[j].BasePrice
		}
		return s.order[out[i].ID] < s.order[out[j].ID]
	})
	return out, nil
}

func (r *MemoryFlightRepository) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flights[id]
	if !ok {
		return nil, nil
	}
	out := cloneFlight(f)
	return &out, nil
}

func (r *MemoryFlightRepository) Create(ctx context.Context, f *domain.Flight) error {
	if err := f.Validate(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	f.ID = uuid.NewString()
	f.CreatedAt = s.now()
	f.UpdatedAt = f.CreatedAt
	stored := cloneFlight(f)
	s.flights[f.ID] = &stored
	s.order[f.ID] = s.nextSeq()
	return nil
}

func (r *MemoryFlightRepository) Update(ctx context.Context, id string, patch domain.FlightPatch) (*domain.Flight, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.flights[id]
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	updated := cloneFlight(current)
	patch.Apply(&updated)
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.now()
	s.flights[id] = &updated

	out := cloneFlight(&updated)
	return &out, nil
}

func (r *MemoryFlightRepository) Delete(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.flights[id]; !ok {
		return domain.ErrFlightNotFound
	}
	delete(s.flights, id)
	delete(s.order, id)
	for bid, b := range s.bookings {
		if b.FlightID == id {
			delete(s.bookings, bid)
			delete(s.order, bid)
		}
	}
	return nil
}

func (r *MemoryFlightRepository) DecrementAvailability(ctx context.Context, id string, class domain.SeatClass, seats int) (*domain.Flight, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reserve(id, class, seats); err != nil {
		return nil, err
	}
	out := cloneFlight(s.flights[id])
	return &out, nil
}

func (r *MemoryFlightRepository) IncrementAvailability(ctx context.Context, id string, class domain.SeatClass, seats int) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.release(id, class, seats)
}

func (r *MemoryFlightRepository) Stats(ctx context.Context) (domain.FlightStats, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		stats    domain.FlightStats
		sumPrice float64
	)
	for _, f := range s.flights {
		stats.TotalFlights++
		stats.TotalSeats += f.TotalSeats
		stats.AvailableSeats += f.AvailableSeats
		stats.Revenue += float64(f.BookedSeats()) * f.BasePrice
		sumPrice += f.BasePrice
	}
	stats.Finalize(sumPrice)
	return stats, nil
}

func (r *MemoryBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	booking.SeatClass = booking.SeatClass.OrDefault()
	if s.seatTaken(booking) {
		return domain.ErrSeatTaken
	}
	if err := s.reserve(booking.FlightID, booking.SeatClass, booking.Passengers); err != nil {
		return err
	}

	booking.ID = uuid.NewString()
	if booking.Status == "" {
		booking.Status = domain.BookingStatusConfirmed
	}
	now := s.now()
	if booking.BookedAt.IsZero() {
		booking.BookedAt = now
	}
	booking.CreatedAt = now
	booking.UpdatedAt = now

	stored := *booking
	stored.Flight = nil
	s.bookings[booking.ID] = &stored
	s.order[booking.ID] = s.nextSeq()
	return nil
}

func (r *MemoryBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	out := s.bookingView(b)
	return &out, nil
}

func (r *MemoryBookingRepository) ListByEmail(ctx context.Context, email string) ([]domain.Booking, error) {
	return r.list(func(b *domain.Booking) bool { return strings.EqualFold(b.Email, email) }), nil
}

func (r *MemoryBookingRepository) ListAll(ctx context.Context) ([]domain.Booking, error) {
	return r.list(func(*domain.Booking) bool { return true }), nil
}

func (r *MemoryBookingRepository) list(keep func(*domain.Booking) bool) []domain.Booking {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Booking, 0)
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, s.bookingView(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i].ID] > s.order[out[j].ID] })
	return out
}

func (r *MemoryBookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, domain.BookingStatus, error) {
	if !status.Valid() {
		return nil, "", domain.ErrInvalidStatus
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, "", domain.ErrBookingNotFound
	}

	previous := b.Status
	if previous != status {
		switch {
		case b.Status.HoldsSeats() && !status.HoldsSeats():
			if err := s.release(b.FlightID, b.SeatClass, b.Passengers); err != nil {
				return nil, "", err
			}
		case !b.Status.HoldsSeats() && status.HoldsSeats():
			if s.seatTaken(b) {
				return nil, "", domain.ErrSeatTaken
			}
			if err := s.reserve(b.FlightID, b.SeatClass, b.Passengers); err != nil {
				return nil, "", err
			}
		}
		b.Status = status
		b.UpdatedAt = s.now()
	}

	out := s.bookingView(b)
	return &out, previous, nil
}

func (r *MemoryBookingRepository) Delete(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	if b.Status.HoldsSeats() {
		if err := s.release(b.FlightID, b.SeatClass, b.Passengers); err != nil {
			return err
		}
	}
	delete(s.bookings, id)
	delete(s.order, id)
	return nil
}

var (
	_ FlightRepository  = (*MemoryFlightRepository)(nil)
	_ BookingRepository = (*MemoryBookingRepository)(nil)
)
