package admin

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/flightstore/config"
	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/Domenick1991/flightstore/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T) *AdminService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	flights, _ := repository.NewMemoryRepositories()
	return NewAdminService(flights, config.AuthConfig{
		JWTSecret:       "test-secret",
		TokenTTLMinutes: 60,
		Admins:          []config.AdminCredential{{Username: "admin", PasswordHash: string(hash)}},
	})
}

func TestSummarize(t *testing.T) {
	s := newService(t)

	empty := s.Summarize(nil)
	assert.Equal(t, domain.FlightStats{}, empty)

	stats := s.Summarize([]domain.Flight{
		{TotalSeats: 180, AvailableSeats: 156, BasePrice: 299},
		{TotalSeats: 160, AvailableSeats: 160, BasePrice: 349},
		{TotalSeats: 0, AvailableSeats: 0, BasePrice: 0},
	})
	assert.Equal(t, 3, stats.TotalFlights)
	assert.Equal(t, 340, stats.TotalSeats)
	assert.Equal(t, 316, stats.AvailableSeats)
	assert.Equal(t, 24, stats.BookedSeats)
	assert.Equal(t, 24*299.0, stats.Revenue)
	assert.InDelta(t, 24.0/340.0*100, stats.OccupancyRate, 1e-9)
	assert.InDelta(t, (299.0+349.0)/3, stats.AveragePrice, 1e-9)
}

func TestStatsMatchesSummarize(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("x"), bcrypt.MinCost)
	require.NoError(t, err)
	flights, _ := repository.NewMemoryRepositories()
	s := NewAdminService(flights, config.AuthConfig{JWTSecret: "k", Admins: []config.AdminCredential{{Username: "a", PasswordHash: string(hash)}}})
	ctx := context.Background()

	require.NoError(t, flights.Create(ctx, &domain.Flight{FlightNumber: "AA101", FromCity: "New York", ToCity: "Los Angeles", TotalSeats: 180, AvailableSeats: 156, BasePrice: 299}))
	require.NoError(t, flights.Create(ctx, &domain.Flight{FlightNumber: "UA202", FromCity: "New York", ToCity: "Los Angeles", TotalSeats: 160, AvailableSeats: 23, BasePrice: 349}))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	all, err := flights.List(ctx, domain.OrderByDeparture)
	require.NoError(t, err)
	assert.Equal(t, s.Summarize(all), stats)
}

func TestLoginAndParseToken(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	_, err = s.Login(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	token, err := s.Login(ctx, "admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.NotEmpty(t, token.AccessToken)

	claims, err := s.ParseToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Subject)

	_, err = s.ParseToken("garbage")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestLoginUnknownUserComparesDummyHash(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	var compared [][]byte
	s.compare = func(hash, password []byte) error {
		compared = append(compared, hash)
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	_, err := s.Login(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	require.Len(t, compared, 1)
	assert.Equal(t, dummyHash(), compared[0])

	cost, err := bcrypt.Cost(dummyHash())
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)

	// Matching the dummy hash must not log anyone in.
	_, err = s.Login(ctx, "nobody", "flightstore-unknown-admin")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.Len(t, compared, 2)
}

func TestParseTokenRejectsExpiredAndForeign(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	token, err := s.Login(ctx, "admin", "s3cret")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.ParseToken(token.AccessToken)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	s.now = time.Now

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Username: "admin", Role: roleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}})
	signed, err := other.SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, err = s.ParseToken(signed)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	notAdmin := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Username: "jane", Role: "customer",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}})
	signed, err = notAdmin.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = s.ParseToken(signed)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("pw")))
}
