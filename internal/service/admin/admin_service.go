package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Domenick1991/flightstore/config"
	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/Domenick1991/flightstore/internal/logger"
	"github.com/Domenick1991/flightstore/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	issuer    = "flightstore"
	roleAdmin = "admin"
)

// dummyHash is compared against when the username is unknown so a miss
// costs the same bcrypt work as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("flightstore-unknown-admin"), bcrypt.DefaultCost)
	return hash
})

type AdminUseCase interface {
	Summarize(flights []domain.Flight) domain.FlightStats
	Stats(ctx context.Context) (domain.FlightStats, error)
	Login(ctx context.Context, username, password string) (*Token, error)
	ParseToken(token string) (*Claims, error)
}

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type AdminService struct {
	flights  repository.FlightRepository
	secret   []byte
	tokenTTL time.Duration
	admins   map[string]string
	now      func() time.Time
	compare  func(hash, password []byte) error
	log      *logrus.Entry
}

func NewAdminService(flights repository.FlightRepository, cfg config.AuthConfig) *AdminService {
	admins := make(map[string]string, len(cfg.Admins))
	for _, a := range cfg.Admins {
		admins[a.Username] = a.PasswordHash
	}
	return &AdminService{
		flights:  flights,
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: time.Duration(cfg.TokenTTLMinutes) * time.Minute,
		admins:   admins,
		now:      time.Now,
		compare:  bcrypt.CompareHashAndPassword,
		log:      logger.For("admin"),
	}
}

// Summarize reduces a flight list to dashboard totals.
func (s *AdminService) Summarize(flights []domain.Flight) domain.FlightStats {
	var (
		stats    domain.FlightStats
		sumPrice float64
	)
	for i := range flights {
		f := &flights[i]
		stats.TotalFlights++
		stats.TotalSeats += f.TotalSeats
		stats.AvailableSeats += f.AvailableSeats
		stats.Revenue += float64(f.BookedSeats()) * f.BasePrice
		sumPrice += f.BasePrice
	}
	stats.Finalize(sumPrice)
	return stats
}

func (s *AdminService) Stats(ctx context.Context) (domain.FlightStats, error) {
	return s.flights.Stats(ctx)
}

func (s *AdminService) Login(ctx context.Context, username, password string) (*Token, error) {
	hash, ok := s.admins[username]
	if !ok {
		hash = string(dummyHash())
	}
	if err := s.compare([]byte(hash), []byte(password)); err != nil || !ok {
		s.log.WithField("username", username).Warn("admin login rejected")
		return nil, domain.ErrNotAuthenticated
	}

	now := s.now()
	expires := now.Add(s.tokenTTL)
	claims := Claims{
		Username: username,
		Role:     roleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.log.WithField("username", username).Info("admin logged in")
	return &Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expires}, nil
}

func (s *AdminService) ParseToken(token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, errors.Join(domain.ErrNotAuthenticated, err)
	}
	if claims.Role != roleAdmin {
		return nil, domain.ErrNotAuthenticated
	}
	return &claims, nil
}

// HashPassword produces a hash suitable for the auth.admins config list.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

var _ AdminUseCase = (*AdminService)(nil)
