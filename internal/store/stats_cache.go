package store

import (
	"context"
	"time"

	"innsight-go/internal/domain"
)

// StatsCacheTTL bounds how stale cached hotel stats may get. Invalidation
// on review activity usually refreshes entries well before this.
const StatsCacheTTL = 5 * time.Minute

// StatsCache defines the interface for caching computed hotel statistics.
// This is typically backed by Redis for production use.
// All methods must be safe for concurrent use.
type StatsCache interface {
	// Get retrieves cached stats for a hotel.
	// Returns nil, nil on a cache miss.
	Get(ctx context.Context, hotelID int64) (*domain.HotelStats, error)

	// Set stores stats for a hotel, replacing any cached value.
	Set(ctx context.Context, stats *domain.HotelStats) error

	// Invalidate removes the cached stats for a hotel. Called whenever a
	// hotel's reviews change so the next read recomputes.
	Invalidate(ctx context.Context, hotelID int64) error

	// Close releases any resources held by the cache.
	Close() error
}
