package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"innsight-go/internal/domain"
)

// HotelRepository is an in-memory implementation of store.HotelRepository.
// It leans on the review repository for counts and aggregates, mirroring
// what the SQL implementation derives with subqueries.
type HotelRepository struct {
	mu sync.RWMutex

	hotels  map[int64]*domain.Hotel
	nextID  int64
	reviews *ReviewRepository
}

// NewHotelRepository creates a new in-memory hotel repository backed by the
// given review repository for derived counts.
func NewHotelRepository(reviews *ReviewRepository) *HotelRepository {
	return &HotelRepository{
		hotels:  make(map[int64]*domain.Hotel),
		reviews: reviews,
	}
}

// Create stores a new hotel and assigns the next ID.
func (r *HotelRepository) Create(ctx context.Context, hotel *domain.Hotel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	hotel.ID = r.nextID

	// Store a copy to prevent external modification
	hotelCopy := *hotel
	r.hotels[hotel.ID] = &hotelCopy

	return nil
}

// GetByID retrieves a hotel by its ID, including its review count.
func (r *HotelRepository) GetByID(ctx context.Context, id int64) (*domain.Hotel, error) {
	r.mu.RLock()
	hotel, exists := r.hotels[id]
	if !exists {
		r.mu.RUnlock()
		return nil, domain.ErrHotelNotFound
	}
	result := *hotel
	r.mu.RUnlock()

	result.ReviewCount = r.reviews.countByHotel(id)
	return &result, nil
}

// List retrieves a page of hotels matching the filter criteria, ordered by
// name.
func (r *HotelRepository) List(ctx context.Context, filter domain.HotelFilter) ([]*domain.Hotel, int, error) {
	r.mu.RLock()
	var matches []*domain.Hotel
	for _, hotel := range r.hotels {
		if filter.City != "" && !strings.Contains(strings.ToLower(hotel.City), strings.ToLower(filter.City)) {
			continue
		}
		if filter.Country != "" && !strings.Contains(strings.ToLower(hotel.Country), strings.ToLower(filter.Country)) {
			continue
		}
		if filter.MinRating != nil && (hotel.StarRating == nil || *hotel.StarRating < *filter.MinRating) {
			continue
		}

		// Return copies
		hotelCopy := *hotel
		matches = append(matches, &hotelCopy)
	}
	r.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Name != matches[j].Name {
			return matches[i].Name < matches[j].Name
		}
		return matches[i].ID < matches[j].ID
	})

	total := len(matches)

	start := (filter.Page - 1) * filter.PageSize
	if start > total {
		start = total
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}

	page := matches[start:end]
	for _, hotel := range page {
		hotel.ReviewCount = r.reviews.countByHotel(hotel.ID)
	}

	return page, total, nil
}

// Update modifies an existing hotel.
func (r *HotelRepository) Update(ctx context.Context, hotel *domain.Hotel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.hotels[hotel.ID]; !exists {
		return domain.ErrHotelNotFound
	}

	// Store a copy
	hotelCopy := *hotel
	r.hotels[hotel.ID] = &hotelCopy

	return nil
}

// Delete removes a hotel and its reviews.
func (r *HotelRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	if _, exists := r.hotels[id]; !exists {
		r.mu.Unlock()
		return domain.ErrHotelNotFound
	}
	delete(r.hotels, id)
	r.mu.Unlock()

	r.reviews.deleteByHotel(id)
	return nil
}

// Exists reports whether a hotel with the given ID exists.
func (r *HotelRepository) Exists(ctx context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.hotels[id]
	return exists, nil
}

// Stats computes aggregate review statistics for a hotel.
func (r *HotelRepository) Stats(ctx context.Context, id int64) (*domain.HotelStats, error) {
	r.mu.RLock()
	_, exists := r.hotels[id]
	r.mu.RUnlock()
	if !exists {
		return nil, domain.ErrHotelNotFound
	}

	reviews := r.reviews.snapshotByHotel(id)
	stats := &domain.HotelStats{HotelID: id, ReviewCount: len(reviews)}

	var ratingSum int
	var sentimentSum float64
	var sentimentCount int
	for _, review := range reviews {
		ratingSum += review.Rating
		if review.Status == domain.StatusPending {
			stats.PendingCount++
		}
		if review.SentimentScore != nil {
			sentimentSum += *review.SentimentScore
			sentimentCount++
		}
		if review.SentimentLabel != nil {
			switch *review.SentimentLabel {
			case domain.SentimentPositive:
				stats.Sentiment.Positive++
			case domain.SentimentNegative:
				stats.Sentiment.Negative++
			case domain.SentimentNeutral:
				stats.Sentiment.Neutral++
			}
		}
	}

	if len(reviews) > 0 {
		stats.AverageRating = math.Round(float64(ratingSum)/float64(len(reviews))*100) / 100
	}
	if sentimentCount > 0 {
		avg := math.Round(sentimentSum/float64(sentimentCount)*1000) / 1000
		stats.AverageSentimentScore = &avg
	}

	return stats, nil
}

// SeedHotels inserts sample hotels when the repository is empty, matching
// the PostgreSQL seed so both modes start with the same data.
func (r *HotelRepository) SeedHotels(ctx context.Context) error {
	r.mu.RLock()
	count := len(r.hotels)
	r.mu.RUnlock()
	if count > 0 {
		return nil
	}

	for _, hotel := range sampleHotels() {
		if err := r.Create(ctx, hotel); err != nil {
			return err
		}
	}
	return nil
}

func sampleHotels() []*domain.Hotel {
	now := time.Now().UTC()
	return []*domain.Hotel{
		{
			Name:        "Grand Plaza Hotel",
			City:        "New York",
			Country:     "USA",
			Address:     strPtr("123 Main St, NY 10001"),
			Description: strPtr("Luxury hotel in the heart of Manhattan"),
			StarRating:  float64Ptr(4.5),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			Name:        "Seaside Resort",
			City:        "Miami",
			Country:     "USA",
			Address:     strPtr("456 Ocean Drive, Miami 33139"),
			Description: strPtr("Beautiful beachfront resort"),
			StarRating:  float64Ptr(4.0),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			Name:        "Mountain View Lodge",
			City:        "Denver",
			Country:     "USA",
			Address:     strPtr("789 Alpine Rd, Denver 80202"),
			Description: strPtr("Cozy mountain retreat"),
			StarRating:  float64Ptr(3.5),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

func strPtr(s string) *string {
	return &s
}

func float64Ptr(f float64) *float64 {
	return &f
}

// Clear removes all hotels from the repository. Useful for test cleanup.
func (r *HotelRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hotels = make(map[int64]*domain.Hotel)
	r.nextID = 0
}
