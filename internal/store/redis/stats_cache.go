// Package redis provides a Redis-based implementation of the stats cache.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"innsight-go/internal/config"
	"innsight-go/internal/domain"
	"innsight-go/internal/store"
)

// prefixStats namespaces hotel stats entries in Redis.
const prefixStats = "hotel_stats:"

// StatsCache implements store.StatsCache using Redis.
type StatsCache struct {
	client *redis.Client
}

// NewStatsCache creates a new Redis-backed stats cache.
func NewStatsCache(cfg *config.RedisConfig) (*StatsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &StatsCache{client: client}, nil
}

// NewStatsCacheWithClient wraps an existing Redis client. Useful for tests.
func NewStatsCacheWithClient(client *redis.Client) *StatsCache {
	return &StatsCache{client: client}
}

// statsKey generates the Redis key for a hotel's stats.
func statsKey(hotelID int64) string {
	return prefixStats + strconv.FormatInt(hotelID, 10)
}

// Get retrieves cached stats for a hotel. Returns nil, nil on a miss.
func (c *StatsCache) Get(ctx context.Context, hotelID int64) (*domain.HotelStats, error) {
	data, err := c.client.Get(ctx, statsKey(hotelID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get hotel stats: %w", err)
	}

	var stats domain.HotelStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hotel stats: %w", err)
	}

	return &stats, nil
}

// Set stores stats for a hotel with the standard TTL.
func (c *StatsCache) Set(ctx context.Context, stats *domain.HotelStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal hotel stats: %w", err)
	}

	if err := c.client.Set(ctx, statsKey(stats.HotelID), data, store.StatsCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set hotel stats: %w", err)
	}

	return nil
}

// Invalidate removes the cached stats for a hotel.
func (c *StatsCache) Invalidate(ctx context.Context, hotelID int64) error {
	if err := c.client.Del(ctx, statsKey(hotelID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate hotel stats: %w", err)
	}

	return nil
}

// Close closes the Redis client connection.
func (c *StatsCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
