package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightstore/config"
	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     *redis.Client
	flightsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}), flightsTTL)
}

func NewRedisCacheWithClient(client *redis.Client, flightsTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, flightsTTL: flightsTTL}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetFlights returns nil without error on a cache miss.
func (c *RedisCache) GetFlights(ctx context.Context, order domain.FlightOrder) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey(order)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, order domain.FlightOrder, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(order), payload, c.flightsTTL).Err()
}

// InvalidateFlights drops every cached flight list.
func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	return c.client.Del(ctx, flightsKey(domain.OrderByDeparture), flightsKey(domain.OrderByRecent)).Err()
}

// AcquireSeatLock reports false when another checkout holds the seat.
func (c *RedisCache) AcquireSeatLock(ctx context.Context, flightID, seat string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, seatLockKey(flightID, seat), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseSeatLock(ctx context.Context, flightID, seat string) error {
	return c.client.Del(ctx, seatLockKey(flightID, seat)).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func flightsKey(order domain.FlightOrder) string {
	if order == "" {
		order = domain.OrderByDeparture
	}
	return fmt.Sprintf("cache:flights:%s", order)
}

func seatLockKey(flightID, seat string) string {
	return fmt.Sprintf("lock:flight:%s:seat:%s", flightID, seat)
}
