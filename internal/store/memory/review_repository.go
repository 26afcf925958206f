// Package memory provides in-memory implementations of store interfaces.
// These are useful for testing and development without external dependencies.
package memory

import (
	"context"
	"sync"
	"time"

	"innsight-go/internal/domain"
)

// ReviewRepository is an in-memory implementation of store.ReviewRepository.
// It stores reviews in a map with a per-hotel index for listing.
type ReviewRepository struct {
	mu sync.RWMutex

	// reviews stores all reviews by ID
	reviews map[int64]*domain.Review

	// byHotel indexes review IDs per hotel in creation order
	byHotel map[int64][]int64

	nextID int64
}

// NewReviewRepository creates a new in-memory review repository.
func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{
		reviews: make(map[int64]*domain.Review),
		byHotel: make(map[int64][]int64),
	}
}

// Create stores a new review and assigns the next ID.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	review.ID = r.nextID

	// Store a copy to prevent external modification
	reviewCopy := *review
	r.reviews[review.ID] = &reviewCopy
	r.byHotel[review.HotelID] = append(r.byHotel[review.HotelID], review.ID)

	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	review, exists := r.reviews[id]
	if !exists {
		return nil, domain.ErrReviewNotFound
	}

	// Return a copy
	result := *review
	return &result, nil
}

// ListByHotel retrieves a page of reviews for a hotel, newest first.
func (r *ReviewRepository) ListByHotel(ctx context.Context, hotelID int64, filter domain.ReviewFilter) ([]*domain.Review, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byHotel[hotelID]

	// IDs are assigned in creation order, so walking them backwards
	// yields newest first.
	var matches []*domain.Review
	for i := len(ids) - 1; i >= 0; i-- {
		review := r.reviews[ids[i]]
		if filter.Status != "" && review.Status != filter.Status {
			continue
		}
		matches = append(matches, review)
	}

	total := len(matches)

	start := (filter.Page - 1) * filter.PageSize
	if start > total {
		start = total
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}

	results := make([]*domain.Review, 0, end-start)
	for _, review := range matches[start:end] {
		reviewCopy := *review
		results = append(results, &reviewCopy)
	}

	return results, total, nil
}

// ApplyAnalysis stores an analysis result on a review and marks it
// completed. Reapplying a result overwrites the previous one.
func (r *ReviewRepository) ApplyAnalysis(ctx context.Context, id int64, result *domain.AnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	review, exists := r.reviews[id]
	if !exists {
		return domain.ErrReviewNotFound
	}

	score := result.SentimentScore
	label := result.SentimentLabel
	review.Status = domain.StatusCompleted
	review.SentimentScore = &score
	review.SentimentLabel = &label
	review.Aspects = result.Aspects
	review.Topics = result.Topics
	review.KeyPhrases = result.KeyPhrases
	review.UpdatedAt = time.Now().UTC()

	return nil
}

// MarkFailed transitions a review to the failed status.
func (r *ReviewRepository) MarkFailed(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	review, exists := r.reviews[id]
	if !exists {
		return domain.ErrReviewNotFound
	}

	review.Status = domain.StatusFailed
	review.UpdatedAt = time.Now().UTC()

	return nil
}

// countByHotel returns the number of reviews stored for a hotel.
func (r *ReviewRepository) countByHotel(hotelID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byHotel[hotelID])
}

// snapshotByHotel returns copies of every review for a hotel, for aggregation.
func (r *ReviewRepository) snapshotByHotel(hotelID int64) []*domain.Review {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byHotel[hotelID]
	out := make([]*domain.Review, 0, len(ids))
	for _, id := range ids {
		reviewCopy := *r.reviews[id]
		out = append(out, &reviewCopy)
	}
	return out
}

// deleteByHotel removes every review for a hotel, mirroring the SQL cascade
// on hotel deletion.
func (r *ReviewRepository) deleteByHotel(hotelID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.byHotel[hotelID] {
		delete(r.reviews, id)
	}
	delete(r.byHotel, hotelID)
}

// Clear removes all data from the repository. Useful for test cleanup.
func (r *ReviewRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reviews = make(map[int64]*domain.Review)
	r.byHotel = make(map[int64][]int64)
	r.nextID = 0
}
