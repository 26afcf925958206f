// Package store defines interfaces for data persistence and caching.
// These abstractions allow swapping implementations (PostgreSQL, Redis,
// in-memory) without changing business logic.
package store

import (
	"context"

	"innsight-go/internal/domain"
)

// ReviewRepository defines the interface for persistent review storage.
// This is typically backed by PostgreSQL for production use.
type ReviewRepository interface {
	// Create stores a new review and assigns its ID.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its ID.
	GetByID(ctx context.Context, id int64) (*domain.Review, error)

	// ListByHotel retrieves a page of reviews for a hotel, newest first,
	// along with the total number of reviews matching the filter.
	ListByHotel(ctx context.Context, hotelID int64, filter domain.ReviewFilter) ([]*domain.Review, int, error)

	// ApplyAnalysis stores an analysis result on a review and marks it
	// completed, all in one atomic write. Reapplying a result overwrites
	// the previous one, which makes redeliveries safe.
	ApplyAnalysis(ctx context.Context, id int64, result *domain.AnalysisResult) error

	// MarkFailed transitions a review to the failed status.
	MarkFailed(ctx context.Context, id int64) error
}

// HotelRepository defines the interface for hotel persistence.
type HotelRepository interface {
	// Create stores a new hotel and assigns its ID.
	Create(ctx context.Context, hotel *domain.Hotel) error

	// GetByID retrieves a hotel by its ID.
	GetByID(ctx context.Context, id int64) (*domain.Hotel, error)

	// List retrieves a page of hotels matching the filter criteria, along
	// with the total number of matches.
	List(ctx context.Context, filter domain.HotelFilter) ([]*domain.Hotel, int, error)

	// Update modifies an existing hotel.
	Update(ctx context.Context, hotel *domain.Hotel) error

	// Delete removes a hotel and its reviews.
	Delete(ctx context.Context, id int64) error

	// Exists reports whether a hotel with the given ID exists.
	Exists(ctx context.Context, id int64) (bool, error)

	// Stats computes aggregate review statistics for a hotel.
	Stats(ctx context.Context, id int64) (*domain.HotelStats, error)
}
