// Package results applies sentiment analysis outcomes to stored reviews.
// It consumes AnalysisCompleted events and writes the analysis fields onto
// the review, completing the pipeline. Applying a result is a full
// overwrite of the analysis fields, so redelivered events are harmless.
package results

import (
	"context"
	"errors"
	"log/slog"

	"innsight-go/internal/domain"
	"innsight-go/internal/metrics"
	"innsight-go/internal/queue"
	"innsight-go/internal/store"
)

// Service consumes analysis results and applies them to storage.
type Service struct {
	consumer queue.Consumer
	reviews  store.ReviewRepository
	cache    store.StatsCache
	logger   *slog.Logger
}

// NewService creates a new result consumer service.
func NewService(
	consumer queue.Consumer,
	reviews store.ReviewRepository,
	cache store.StatsCache,
	logger *slog.Logger,
) *Service {
	return &Service{
		consumer: consumer,
		reviews:  reviews,
		cache:    cache,
		logger:   logger,
	}
}

// Start begins consuming analysis results and applying them.
// This is a blocking call that runs until the context is canceled.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("starting result consumer")
	return s.consumer.Start(ctx, s.handleMessage)
}

// handleMessage applies one analysis result to its review.
//
// Malformed and invalid events are dropped. Unknown event types are
// acknowledged instead: a newer publisher may emit kinds this consumer
// predates, and those must not pile up in the dead-letter queue. Storage
// failures are requeued so the result is not lost to a transient outage.
func (s *Service) handleMessage(ctx context.Context, msg *queue.Message) queue.Disposition {
	event, err := domain.DecodeAnalysisCompleted(msg.Value)
	if err != nil {
		s.logger.Error("failed to decode result event", "error", err)
		return queue.Drop
	}

	if event.EventType != domain.EventTypeAnalysisCompleted {
		s.logger.Warn("ignoring unknown event type", "event_type", event.EventType)
		return queue.Ack
	}

	if err := event.Validate(); err != nil {
		s.logger.Error("invalid result event", "error", err, "review_id", event.ReviewID)
		return queue.Drop
	}

	review, err := s.reviews.GetByID(ctx, event.ReviewID)
	if err != nil {
		if errors.Is(err, domain.ErrReviewNotFound) {
			// The review was deleted while its analysis was in flight.
			s.logger.Warn("result for unknown review", "review_id", event.ReviewID)
			return queue.Drop
		}
		s.logger.Error("failed to load review", "error", err, "review_id", event.ReviewID)
		return queue.Requeue
	}

	if err := s.reviews.ApplyAnalysis(ctx, event.ReviewID, &event.Data); err != nil {
		if errors.Is(err, domain.ErrReviewNotFound) {
			return queue.Drop
		}
		s.logger.Error("failed to apply analysis result", "error", err, "review_id", event.ReviewID)
		metrics.ResultsApplyFailuresTotal.Inc()

		// Best effort. A redelivery that succeeds overwrites the failed
		// status, and one that exhausts its budget leaves it standing.
		if markErr := s.reviews.MarkFailed(ctx, event.ReviewID); markErr != nil {
			s.logger.Warn("failed to mark review failed", "error", markErr, "review_id", event.ReviewID)
		}
		return queue.Requeue
	}
	metrics.ResultsAppliedTotal.Inc()

	// The completed analysis changes the hotel's sentiment aggregates.
	if err := s.cache.Invalidate(ctx, review.HotelID); err != nil {
		s.logger.Warn("failed to invalidate stats cache", "error", err, "hotel_id", review.HotelID)
	}

	s.logger.Debug("analysis result applied",
		"review_id", event.ReviewID,
		"label", event.Data.SentimentLabel,
	)

	return queue.Ack
}

// Stop gracefully stops the result consumer.
func (s *Service) Stop() error {
	s.logger.Info("stopping result consumer")
	return s.consumer.Close()
}
