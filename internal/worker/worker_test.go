package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/Domenick1991/flightstore/internal/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, event kafka.BookingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockStatsSource struct {
	mock.Mock
}

func (m *MockStatsSource) Stats(ctx context.Context) (domain.FlightStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.FlightStats), args.Error(1)
}

func TestNotifySwallowsDeliveryErrors(t *testing.T) {
	n := &MockNotifier{}
	event := kafka.BookingEvent{Type: kafka.EventBookingCreated, BookingID: "b1", Email: "ann@example.com"}
	n.On("Send", mock.Anything, event).Return(errors.New("smtp down"))

	err := Notify(n)(context.Background(), event)

	assert.NoError(t, err)
	n.AssertExpectations(t)
}

func TestReportStats(t *testing.T) {
	src := &MockStatsSource{}
	src.On("Stats", mock.Anything).Return(domain.FlightStats{TotalFlights: 2}, nil).Once()
	assert.NoError(t, ReportStats(context.Background(), src))

	src.On("Stats", mock.Anything).Return(domain.FlightStats{}, domain.ErrUnavailable).Once()
	assert.ErrorIs(t, ReportStats(context.Background(), src), domain.ErrUnavailable)
}

func TestStatsSchedulerRunsJob(t *testing.T) {
	src := &MockStatsSource{}
	called := make(chan struct{}, 10)
	src.On("Stats", mock.Anything).Return(domain.FlightStats{}, nil).Run(func(mock.Arguments) {
		called <- struct{}{}
	})

	s, err := NewStatsScheduler(context.Background(), src, 20*time.Millisecond)
	require.NoError(t, err)
	defer func() { _ = s.Shutdown() }()

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("stats job did not run")
	}
}
