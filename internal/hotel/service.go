// Package hotel provides hotel management and the cached stats read path.
package hotel

import (
	"context"
	"fmt"
	"log/slog"

	"innsight-go/internal/domain"
	"innsight-go/internal/metrics"
	"innsight-go/internal/store"
)

// Service handles hotel CRUD and statistics.
type Service struct {
	hotels store.HotelRepository
	cache  store.StatsCache
	logger *slog.Logger
}

// NewService creates a new hotel service.
func NewService(hotels store.HotelRepository, cache store.StatsCache, logger *slog.Logger) *Service {
	return &Service{
		hotels: hotels,
		cache:  cache,
		logger: logger,
	}
}

// CreateHotel stores a new hotel.
func (s *Service) CreateHotel(ctx context.Context, req *domain.CreateHotelRequest) (*domain.Hotel, error) {
	hotel := req.ToHotel()
	if err := s.hotels.Create(ctx, hotel); err != nil {
		s.logger.Error("failed to store hotel", "error", err)
		return nil, fmt.Errorf("failed to store hotel: %w", err)
	}

	s.logger.Info("hotel created", "hotel_id", hotel.ID, "name", hotel.Name)
	return hotel, nil
}

// GetHotel retrieves a hotel by ID.
func (s *Service) GetHotel(ctx context.Context, id int64) (*domain.Hotel, error) {
	return s.hotels.GetByID(ctx, id)
}

// ListHotels retrieves a page of hotels matching the filter.
func (s *Service) ListHotels(ctx context.Context, filter domain.HotelFilter) ([]*domain.Hotel, int, error) {
	filter.Normalize()
	return s.hotels.List(ctx, filter)
}

// UpdateHotel applies a partial update to a hotel.
func (s *Service) UpdateHotel(ctx context.Context, id int64, req *domain.UpdateHotelRequest) (*domain.Hotel, error) {
	hotel, err := s.hotels.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req.ApplyTo(hotel)
	if err := s.hotels.Update(ctx, hotel); err != nil {
		s.logger.Error("failed to update hotel", "error", err, "hotel_id", id)
		return nil, fmt.Errorf("failed to update hotel: %w", err)
	}

	return hotel, nil
}

// DeleteHotel removes a hotel along with its reviews and cached stats.
func (s *Service) DeleteHotel(ctx context.Context, id int64) error {
	if err := s.hotels.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("failed to invalidate stats cache", "error", err, "hotel_id", id)
	}

	s.logger.Info("hotel deleted", "hotel_id", id)
	return nil
}

// GetStats returns the aggregate review statistics for a hotel, served
// from cache when a fresh entry exists. Cache failures degrade to a
// storage read rather than failing the request.
func (s *Service) GetStats(ctx context.Context, id int64) (*domain.HotelStats, error) {
	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.Warn("stats cache read failed", "error", err, "hotel_id", id)
	}
	if cached != nil {
		metrics.StatsCacheHits.Inc()
		return cached, nil
	}
	metrics.StatsCacheMisses.Inc()

	stats, err := s.hotels.Stats(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, stats); err != nil {
		s.logger.Warn("failed to cache hotel stats", "error", err, "hotel_id", id)
	}

	return stats, nil
}
