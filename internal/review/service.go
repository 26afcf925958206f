// Package review provides the review intake service.
// It verifies the target hotel, persists incoming reviews, and publishes
// them to the message queue for asynchronous sentiment analysis.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"innsight-go/internal/domain"
	"innsight-go/internal/metrics"
	"innsight-go/internal/queue"
	"innsight-go/internal/store"
)

// Service handles review intake logic.
// It is responsible for:
// - Verifying the target hotel exists
// - Persisting reviews in the pending state
// - Publishing ReviewCreated events for the analysis workers
// - Serving review reads
type Service struct {
	reviews  store.ReviewRepository
	hotels   store.HotelRepository
	producer queue.Producer
	cache    store.StatsCache
	logger   *slog.Logger
}

// NewService creates a new review service.
func NewService(
	reviews store.ReviewRepository,
	hotels store.HotelRepository,
	producer queue.Producer,
	cache store.StatsCache,
	logger *slog.Logger,
) *Service {
	return &Service{
		reviews:  reviews,
		hotels:   hotels,
		producer: producer,
		cache:    cache,
		logger:   logger,
	}
}

// CreateReview stores a review and queues it for analysis.
//
// The processing flow:
// 1. Verify the hotel exists
// 2. Persist the review with status pending
// 3. Invalidate the hotel's cached stats
// 4. Publish a ReviewCreated event to the intake queue
//
// The review is returned even when publishing fails: the write is durable
// and the review stays pending, so a broker hiccup never turns into a
// client-facing error.
func (s *Service) CreateReview(ctx context.Context, req *domain.CreateReviewRequest) (*domain.Review, error) {
	exists, err := s.hotels.Exists(ctx, req.HotelID)
	if err != nil {
		s.logger.Error("failed to check hotel", "error", err, "hotel_id", req.HotelID)
		return nil, fmt.Errorf("failed to check hotel: %w", err)
	}
	if !exists {
		s.logger.Warn("review submitted for unknown hotel", "hotel_id", req.HotelID)
		return nil, domain.ErrHotelNotFound
	}

	review := req.ToReview()
	if err := s.reviews.Create(ctx, review); err != nil {
		s.logger.Error("failed to store review", "error", err, "hotel_id", req.HotelID)
		return nil, fmt.Errorf("failed to store review: %w", err)
	}

	// The new review already changes the hotel's aggregate counts.
	if err := s.cache.Invalidate(ctx, review.HotelID); err != nil {
		s.logger.Warn("failed to invalidate stats cache", "error", err, "hotel_id", review.HotelID)
	}

	s.publishCreated(ctx, review)

	return review, nil
}

// publishCreated sends the ReviewCreated event to the intake queue.
// Publish failures are absorbed: the review stays pending and the failure
// is logged and counted for the operator to act on.
func (s *Service) publishCreated(ctx context.Context, review *domain.Review) {
	event := domain.NewReviewCreatedEvent(review)
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to serialize event", "error", err, "review_id", review.ID)
		metrics.ReviewPublishFailuresTotal.Inc()
		return
	}

	// Key by review ID so redeliveries and results for the same review
	// land on the same partition.
	msg := &queue.Message{
		Key:   []byte(strconv.FormatInt(review.ID, 10)),
		Value: payload,
		Headers: map[string]string{
			"event_type": domain.EventTypeReviewCreated,
			"message_id": uuid.New().String(),
		},
	}

	publishStart := time.Now()
	if err := s.producer.Publish(ctx, domain.QueueReviewCreated, msg); err != nil {
		s.logger.Error("failed to publish review event", "error", err, "review_id", review.ID)
		metrics.ReviewPublishFailuresTotal.Inc()
		return
	}
	metrics.QueuePublishLatency.Observe(time.Since(publishStart).Seconds())
	metrics.ReviewsPublishedTotal.Inc()

	s.logger.Debug("review published to queue",
		"review_id", review.ID,
		"hotel_id", review.HotelID,
	)
}

// GetReview retrieves a single review by ID.
func (s *Service) GetReview(ctx context.Context, id int64) (*domain.Review, error) {
	return s.reviews.GetByID(ctx, id)
}

// ListByHotel retrieves a page of a hotel's reviews, newest first.
func (s *Service) ListByHotel(ctx context.Context, hotelID int64, filter domain.ReviewFilter) ([]*domain.Review, int, error) {
	exists, err := s.hotels.Exists(ctx, hotelID)
	if err != nil {
		s.logger.Error("failed to check hotel", "error", err, "hotel_id", hotelID)
		return nil, 0, fmt.Errorf("failed to check hotel: %w", err)
	}
	if !exists {
		return nil, 0, domain.ErrHotelNotFound
	}

	filter.Normalize()
	return s.reviews.ListByHotel(ctx, hotelID, filter)
}
