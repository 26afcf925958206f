package memory

import (
	"context"
	"sync"
	"time"

	"innsight-go/internal/domain"
	"innsight-go/internal/store"
)

// StatsCache is an in-memory implementation of store.StatsCache.
// TTL expiration is checked on access (lazy expiration).
type StatsCache struct {
	mu      sync.RWMutex
	entries map[int64]*statsEntry
}

// statsEntry wraps HotelStats with expiration tracking.
type statsEntry struct {
	stats     *domain.HotelStats
	expiresAt time.Time
}

// NewStatsCache creates a new in-memory stats cache.
func NewStatsCache() *StatsCache {
	return &StatsCache{
		entries: make(map[int64]*statsEntry),
	}
}

// Get retrieves cached stats for a hotel. Returns nil, nil on a miss or an
// expired entry.
func (c *StatsCache) Get(ctx context.Context, hotelID int64) (*domain.HotelStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[hotelID]
	if !exists {
		return nil, nil
	}

	// Check if expired (lazy expiration)
	if time.Now().After(entry.expiresAt) {
		return nil, nil
	}

	// Return a copy to prevent external modification
	result := *entry.stats
	return &result, nil
}

// Set stores stats for a hotel, replacing any cached value.
func (c *StatsCache) Set(ctx context.Context, stats *domain.HotelStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Store a copy
	statsCopy := *stats
	c.entries[stats.HotelID] = &statsEntry{
		stats:     &statsCopy,
		expiresAt: time.Now().Add(store.StatsCacheTTL),
	}
	return nil
}

// Invalidate removes the cached stats for a hotel.
func (c *StatsCache) Invalidate(ctx context.Context, hotelID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, hotelID)
	return nil
}

// Close releases any resources (no-op for in-memory cache).
func (c *StatsCache) Close() error {
	return nil
}

// Clear removes all data from the cache. Useful for test cleanup.
func (c *StatsCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[int64]*statsEntry)
}
