package flights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/Domenick1991/flightstore/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) List(ctx context.Context, order domain.FlightOrder) ([]domain.Flight, error) {
	args := m.Called(ctx, order)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Search(ctx context.Context, filter domain.SearchFilter) ([]domain.Flight, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	args := m.Called(ctx, flight)
	return args.Error(0)
}

func (m *MockFlightRepository) Update(ctx context.Context, id string, patch domain.FlightPatch) (*domain.Flight, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockFlightRepository) DecrementAvailability(ctx context.Context, id string, class domain.SeatClass, seats int) (*domain.Flight, error) {
	args := m.Called(ctx, id, class, seats)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) IncrementAvailability(ctx context.Context, id string, class domain.SeatClass, seats int) error {
	return m.Called(ctx, id, class, seats).Error(0)
}

func (m *MockFlightRepository) Stats(ctx context.Context) (domain.FlightStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.FlightStats), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFlights(ctx context.Context, order domain.FlightOrder) ([]domain.Flight, error) {
	args := m.Called(ctx, order)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockCache) SetFlights(ctx context.Context, order domain.FlightOrder, flights []domain.Flight) error {
	return m.Called(ctx, order, flights).Error(0)
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func sampleFlights() []domain.Flight {
	dep := time.Date(2026, 11, 3, 7, 0, 0, 0, time.UTC)
	return []domain.Flight{{
		ID:             "f-aa101",
		FlightNumber:   "AA101",
		Airline:        "American Airlines",
		FromCity:       "New York",
		ToCity:         "Los Angeles",
		DepartureTime:  &dep,
		TotalSeats:     180,
		AvailableSeats: 156,
		BasePrice:      299,
		Duration:       "5h 30m",
	}}
}

func TestFlightService_List_CacheMiss(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, WithMetrics(metrics.New()))
	ctx := context.Background()
	flights := sampleFlights()

	mockCache.On("GetFlights", ctx, domain.OrderByDeparture).Return(([]domain.Flight)(nil), nil).Once()
	mockRepo.On("List", ctx, domain.OrderByDeparture).Return(flights, nil).Once()
	mockCache.On("SetFlights", ctx, domain.OrderByDeparture, flights).Return(nil).Once()

	result, err := service.List(ctx, "")

	assert.NoError(t, err)
	assert.Equal(t, flights, result)
	mockCache.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestFlightService_List_CacheHit(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache)
	ctx := context.Background()
	flights := sampleFlights()

	mockCache.On("GetFlights", ctx, domain.OrderByRecent).Return(flights, nil).Once()

	result, err := service.List(ctx, domain.OrderByRecent)

	assert.NoError(t, err)
	assert.Equal(t, flights, result)
	mockRepo.AssertNotCalled(t, "List")
	mockCache.AssertNotCalled(t, "SetFlights")
}

func TestFlightService_List_CacheError(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache)
	ctx := context.Background()
	flights := sampleFlights()

	mockCache.On("GetFlights", ctx, domain.OrderByDeparture).Return(([]domain.Flight)(nil), errors.New("cache error")).Once()
	mockRepo.On("List", ctx, domain.OrderByDeparture).Return(flights, nil).Once()
	mockCache.On("SetFlights", ctx, domain.OrderByDeparture, flights).Return(errors.New("cache error")).Once()

	result, err := service.List(ctx, domain.OrderByDeparture)

	assert.NoError(t, err)
	assert.Equal(t, flights, result)
	mockCache.AssertExpectations(t)
}

func TestFlightService_List_RepositoryError(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache)
	ctx := context.Background()

	expectedErr := errors.New("database error")
	mockCache.On("GetFlights", ctx, domain.OrderByDeparture).Return(([]domain.Flight)(nil), nil).Once()
	mockRepo.On("List", ctx, domain.OrderByDeparture).Return([]domain.Flight{}, expectedErr).Once()

	result, err := service.List(ctx, domain.OrderByDeparture)

	assert.Equal(t, expectedErr, err)
	assert.Nil(t, result)
	mockCache.AssertNotCalled(t, "SetFlights")
}

func TestFlightService_List_InvalidOrder(t *testing.T) {
	service := NewFlightService(&MockFlightRepository{}, nil)
	_, err := service.List(context.Background(), "price")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFlightService_NoCache(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil)
	ctx := context.Background()
	flights := sampleFlights()

	mockRepo.On("List", ctx, domain.OrderByDeparture).Return(flights, nil).Once()

	result, err := service.List(ctx, domain.OrderByDeparture)

	assert.NoError(t, err)
	assert.Equal(t, flights, result)
	mockRepo.AssertExpectations(t)
}

func TestFlightService_Search(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil)
	ctx := context.Background()
	date := time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC)

	filter := domain.SearchFilter{FromCity: "New York", ToCity: "Los Angeles", DepartureDate: &date, MinSeats: 2}
	mockRepo.On("Search", ctx, filter).Return(sampleFlights(), nil).Once()

	result, err := service.Search(ctx, SearchInput{FromCity: "New York", ToCity: "Los Angeles", DepartureDate: &date, MinSeats: 2})
	require.NoError(t, err)
	assert.Len(t, result, 1)

	_, err = service.Search(ctx, SearchInput{MinSeats: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	mockRepo.AssertExpectations(t)
}

func TestFlightService_GetByID(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil)
	ctx := context.Background()
	flight := &sampleFlights()[0]

	mockRepo.On("GetByID", ctx, "f-aa101").Return(flight, nil).Once()
	mockRepo.On("GetByID", ctx, "missing").Return(nil, nil).Once()

	result, err := service.GetByID(ctx, "f-aa101")
	assert.NoError(t, err)
	assert.Equal(t, flight, result)

	result, err = service.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrFlightNotFound)
	assert.Nil(t, result)
}

func TestFlightService_Create(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache)
	ctx := context.Background()

	mockRepo.On("Create", ctx, mock.MatchedBy(func(f *domain.Flight) bool {
		return f.FlightNumber == "JB505" && f.AvailableSeats == 140 && f.TotalSeats == 140
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Flight).ID = "f-jb505"
	}).Return(nil).Once()
	mockCache.On("InvalidateFlights", ctx).Return(nil).Once()

	f, err := service.Create(ctx, CreateFlightInput{FlightNumber: "JB505", FromCity: "Boston", ToCity: "San Francisco", TotalSeats: 140, BasePrice: 389})
	require.NoError(t, err)
	assert.Equal(t, "f-jb505", f.ID)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestFlightService_Create_ValidationError(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil)

	_, err := service.Create(context.Background(), CreateFlightInput{FromCity: "Boston", ToCity: "San Francisco", TotalSeats: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestFlightService_UpdateDelete(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache)
	ctx := context.Background()
	price := 249.0
	patch := domain.FlightPatch{BasePrice: &price}
	updated := &sampleFlights()[0]

	mockRepo.On("Update", ctx, "f-aa101", patch).Return(updated, nil).Once()
	mockRepo.On("Update", ctx, "missing", patch).Return(nil, domain.ErrFlightNotFound).Once()
	mockRepo.On("Delete", ctx, "f-aa101").Return(nil).Once()
	mockCache.On("InvalidateFlights", ctx).Return(errors.New("redis down")).Twice()

	f, err := service.Update(ctx, "f-aa101", patch)
	assert.NoError(t, err)
	assert.Equal(t, updated, f)

	_, err = service.Update(ctx, "missing", patch)
	assert.ErrorIs(t, err, domain.ErrFlightNotFound)

	assert.NoError(t, service.Delete(ctx, "f-aa101"))
	mockCache.AssertExpectations(t)
}

func TestFlightService_BookSeats(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil)
	ctx := context.Background()
	after := &sampleFlights()[0]

	mockRepo.On("DecrementAvailability", ctx, "f-aa101", domain.SeatClassBusiness, 2).Return(after, nil).Once()
	mockRepo.On("DecrementAvailability", ctx, "f-aa101", domain.SeatClass(""), 9).Return(nil, domain.ErrInsufficientSeats).Once()

	f, err := service.BookSeats(ctx, "f-aa101", BookSeatsInput{Seats: 2, SeatClass: domain.SeatClassBusiness})
	assert.NoError(t, err)
	assert.Equal(t, after, f)

	_, err = service.BookSeats(ctx, "f-aa101", BookSeatsInput{Seats: 9})
	assert.ErrorIs(t, err, domain.ErrInsufficientSeats)

	_, err = service.BookSeats(ctx, "f-aa101", BookSeatsInput{Seats: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = service.BookSeats(ctx, "f-aa101", BookSeatsInput{Seats: 1, SeatClass: "cargo"})
	assert.ErrorIs(t, err, domain.ErrUnknownSeatClass)
	mockRepo.AssertExpectations(t)
}

func TestFlightService_Quote(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil)
	ctx := context.Background()
	flight := &sampleFlights()[0]
	flight.SeatAllocations = []domain.SeatAllocation{{Class: domain.SeatClassFirst, TotalSeats: 8, AvailableSeats: 8, Price: 1999}}

	mockRepo.On("GetByID", ctx, "f-aa101").Return(flight, nil)

	q, err := service.Quote(ctx, "f-aa101", domain.SeatClassPremiumEconomy, 2)
	require.NoError(t, err)
	assert.Equal(t, 449.0, q.UnitPrice)
	assert.Equal(t, 898.0, q.TotalPrice)

	q, err = service.Quote(ctx, "f-aa101", "", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatClassEconomy, q.SeatClass)
	assert.Equal(t, 299.0, q.TotalPrice)

	q, err = service.Quote(ctx, "f-aa101", domain.SeatClassFirst, 1)
	require.NoError(t, err)
	assert.Equal(t, 1999.0, q.TotalPrice)

	_, err = service.Quote(ctx, "f-aa101", domain.SeatClassBusiness, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidPassengers)
}
